package gateway

import (
	"fmt"
	"math/big"
	"strings"

	"patronchain/core/types"
	"patronchain/native/patronage"
)

// Amounts travel as decimal strings and addresses as 0x-prefixed hex so the
// API stays precise for values beyond float range.

func parseAddr(field, raw string) ([20]byte, error) {
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return addr, fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}

func parseAmount(field, raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%s: amount required", field)
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid amount %q", field, raw)
	}
	return value, nil
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

type businessResponse struct {
	Owner          string `json:"owner"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Active         bool   `json:"active"`
	TotalReceived  string `json:"totalReceived"`
	PatronCount    uint64 `json:"patronCount"`
	CreatedAt      uint64 `json:"createdAt"`
	RegistrationID uint64 `json:"registrationId"`
}

func newBusinessResponse(b *patronage.Business) businessResponse {
	return businessResponse{
		Owner:          types.FormatAddress(b.Owner),
		Name:           b.Name,
		Description:    b.Description,
		Category:       b.Category,
		Active:         b.Active,
		TotalReceived:  formatAmount(b.TotalReceived),
		PatronCount:    b.PatronCount,
		CreatedAt:      b.CreatedAt,
		RegistrationID: b.RegistrationID,
	}
}

type subscriptionResponse struct {
	Patron         string `json:"patron"`
	Business       string `json:"business"`
	Amount         string `json:"amount"`
	Frequency      uint64 `json:"frequency"`
	LastPayment    uint64 `json:"lastPayment"`
	NextPayment    uint64 `json:"nextPayment"`
	TotalPaid      string `json:"totalPaid"`
	Active         bool   `json:"active"`
	CreatedAt      uint64 `json:"createdAt"`
	SubscriptionID uint64 `json:"subscriptionId"`
}

func newSubscriptionResponse(sub *patronage.Subscription) subscriptionResponse {
	return subscriptionResponse{
		Patron:         types.FormatAddress(sub.Patron),
		Business:       types.FormatAddress(sub.Business),
		Amount:         formatAmount(sub.Amount),
		Frequency:      sub.Frequency,
		LastPayment:    sub.LastPayment,
		NextPayment:    sub.NextPayment,
		TotalPaid:      formatAmount(sub.TotalPaid),
		Active:         sub.Active,
		CreatedAt:      sub.CreatedAt,
		SubscriptionID: sub.SubscriptionID,
	}
}

type relationshipResponse struct {
	Business          string `json:"business"`
	Patron            string `json:"patron"`
	TotalContributed  string `json:"totalContributed"`
	SubscriptionCount uint64 `json:"subscriptionCount"`
	FirstPatronage    uint64 `json:"firstPatronage"`
}

func newRelationshipResponse(rel *patronage.Relationship) relationshipResponse {
	return relationshipResponse{
		Business:          types.FormatAddress(rel.Business),
		Patron:            types.FormatAddress(rel.Patron),
		TotalContributed:  formatAmount(rel.TotalContributed),
		SubscriptionCount: rel.SubscriptionCount,
		FirstPatronage:    rel.FirstPatronage,
	}
}

type settlementResponse struct {
	Patron         string `json:"patron"`
	Business       string `json:"business"`
	Amount         string `json:"amount"`
	BusinessAmount string `json:"businessAmount"`
	PlatformFee    string `json:"platformFee"`
	SettledAt      uint64 `json:"settledAt"`
}

func newSettlementResponse(st *patronage.Settlement) settlementResponse {
	return settlementResponse{
		Patron:         types.FormatAddress(st.Patron),
		Business:       types.FormatAddress(st.Business),
		Amount:         formatAmount(st.Amount),
		BusinessAmount: formatAmount(st.BusinessAmount),
		PlatformFee:    formatAmount(st.PlatformFee),
		SettledAt:      st.SettledAt,
	}
}

type paramsResponse struct {
	Authority          string `json:"authority"`
	FeeCollector       string `json:"feeCollector"`
	FeeRateBps         uint32 `json:"feeRateBps"`
	MinPatronageAmount string `json:"minPatronageAmount"`
	Clock              uint64 `json:"clock"`
	NextID             uint64 `json:"nextId"`
}

func newParamsResponse(p *patronage.Params) paramsResponse {
	return paramsResponse{
		Authority:          types.FormatAddress(p.Authority),
		FeeCollector:       types.FormatAddress(p.FeeCollector),
		FeeRateBps:         p.FeeRateBps,
		MinPatronageAmount: formatAmount(p.MinPatronageAmount),
		Clock:              p.Clock,
		NextID:             p.NextID,
	}
}
