package gateway

import (
	"errors"
	"net/http"

	"patronchain/core/types"
	"patronchain/native/patronage"
)

type businessRequest struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (s *Server) registerBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	owner, err := parseAddr("owner", req.Owner)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	biz, err := s.engine.RegisterBusiness(owner, req.Name, req.Description, req.Category)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.ledger.RecordRegistration()
	s.log.Info("business registered", "owner", req.Owner, "registrationId", biz.RegistrationID)
	writeJSON(w, http.StatusCreated, newBusinessResponse(biz))
}

func (s *Server) updateBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	owner, err := parseAddr("owner", req.Owner)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	biz, err := s.engine.UpdateBusiness(owner, req.Name, req.Description, req.Category)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBusinessResponse(biz))
}

type deactivateRequest struct {
	Caller   string `json:"caller"`
	Business string `json:"business"`
}

func (s *Server) deactivateBusiness(w http.ResponseWriter, r *http.Request) {
	var req deactivateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	caller, err := parseAddr("caller", req.Caller)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	business, err := parseAddr("business", req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	if err := s.engine.DeactivateBusiness(caller, business); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("business deactivated", "business", req.Business)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

type businessQuery struct {
	Owner string `json:"owner"`
}

func (s *Server) getBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessQuery
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	owner, err := parseAddr("owner", req.Owner)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	biz, ok, err := s.engine.Business(owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeError(w, patronage.ErrBusinessNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newBusinessResponse(biz))
}

type createSubscriptionRequest struct {
	Patron    string `json:"patron"`
	Business  string `json:"business"`
	Amount    string `json:"amount"`
	Frequency uint64 `json:"frequency"`
}

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	patron, business, err := parsePair(req.Patron, req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	sub, err := s.engine.Subscribe(patron, business, amount, req.Frequency)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.ledger.RecordSubscription()
	s.log.Info("subscription created", "patron", req.Patron, "business", req.Business, "subscriptionId", sub.SubscriptionID)
	writeJSON(w, http.StatusCreated, newSubscriptionResponse(sub))
}

type pairRequest struct {
	Patron   string `json:"patron"`
	Business string `json:"business"`
}

func parsePair(patronRaw, businessRaw string) (patron [20]byte, business [20]byte, err error) {
	patron, err = parseAddr("patron", patronRaw)
	if err != nil {
		return patron, business, err
	}
	business, err = parseAddr("business", businessRaw)
	return patron, business, err
}

func (s *Server) settleSubscription(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	patron, business, err := parsePair(req.Patron, req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	settlement, err := s.engine.Settle(patron, business)
	if err != nil {
		s.ledger.RecordSettlement(settleOutcome(err))
		s.writeError(w, err)
		return
	}
	s.ledger.RecordSettlement("ok")
	s.log.Info("subscription settled",
		"patron", req.Patron,
		"business", req.Business,
		"amount", formatAmount(settlement.Amount),
		"platformFee", formatAmount(settlement.PlatformFee))
	writeJSON(w, http.StatusOK, newSettlementResponse(settlement))
}

func settleOutcome(err error) string {
	if errors.Is(err, patronage.ErrInsufficientFunds) {
		return "insufficient_funds"
	}
	return "rejected"
}

func (s *Server) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	patron, business, err := parsePair(req.Patron, req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	if err := s.engine.Cancel(patron, business); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) reactivateSubscription(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	patron, business, err := parsePair(req.Patron, req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	sub, err := s.engine.Reactivate(patron, business)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSubscriptionResponse(sub))
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	patron, business, err := parsePair(req.Patron, req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	sub, ok, err := s.engine.Subscription(patron, business)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeError(w, patronage.ErrSubscriptionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newSubscriptionResponse(sub))
}

func (s *Server) paymentDue(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	patron, business, err := parsePair(req.Patron, req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	due, err := s.engine.IsPaymentDue(patron, business)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"due": due})
}

func (s *Server) nextPayment(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	patron, business, err := parsePair(req.Patron, req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	remaining, err := s.engine.TimeUntilNextPayment(patron, business)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"timeUntilNextPayment": remaining})
}

type oneTimePaymentRequest struct {
	Patron   string `json:"patron"`
	Business string `json:"business"`
	Amount   string `json:"amount"`
}

func (s *Server) oneTimePayment(w http.ResponseWriter, r *http.Request) {
	var req oneTimePaymentRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	patron, business, err := parsePair(req.Patron, req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	settlement, err := s.engine.OneTimePayment(patron, business, amount)
	if err != nil {
		s.ledger.RecordOneTimePayment(settleOutcome(err))
		s.writeError(w, err)
		return
	}
	s.ledger.RecordOneTimePayment("ok")
	writeJSON(w, http.StatusOK, newSettlementResponse(settlement))
}

type breakdownRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) feeBreakdown(w http.ResponseWriter, r *http.Request) {
	var req breakdownRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	net, fee, err := s.engine.CalculateBreakdown(amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"net": formatAmount(net),
		"fee": formatAmount(fee),
	})
}

type relationshipQuery struct {
	Business string `json:"business"`
	Patron   string `json:"patron"`
}

func (s *Server) getRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipQuery
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	business, err := parseAddr("business", req.Business)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	patron, err := parseAddr("patron", req.Patron)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	rel, ok, err := s.engine.Relationship(business, patron)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "relationship not found"})
		return
	}
	writeJSON(w, http.StatusOK, newRelationshipResponse(rel))
}

type accountQuery struct {
	Address string `json:"address"`
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	var req accountQuery
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	addr, err := parseAddr("address", req.Address)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	account, err := s.accounts.GetAccount(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address": types.FormatAddress(addr),
		"balance": formatAmount(account.Balance),
	})
}

func (s *Server) getParams(w http.ResponseWriter, r *http.Request) {
	params, err := s.engine.Params()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParamsResponse(params))
}

type feeRateRequest struct {
	Caller     string `json:"caller"`
	FeeRateBps uint32 `json:"feeRateBps"`
}

func (s *Server) setFeeRate(w http.ResponseWriter, r *http.Request) {
	var req feeRateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	caller, err := parseAddr("caller", req.Caller)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	if err := s.engine.SetFeeRate(caller, req.FeeRateBps); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("fee rate updated", "feeRateBps", req.FeeRateBps)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type minAmountRequest struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) setMinAmount(w http.ResponseWriter, r *http.Request) {
	var req minAmountRequest
	if err := decode(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	caller, err := parseAddr("caller", req.Caller)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	if err := s.engine.SetMinAmount(caller, amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("minimum patronage amount updated", "amount", req.Amount)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
