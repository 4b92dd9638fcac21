package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patronchain/core/types"
	"patronchain/native/patronage"
	"patronchain/observability"
)

const requestBodyLimit = 1 << 20 // 1 MiB

type accountReader interface {
	GetAccount(addr [20]byte) (*types.Account, error)
}

// Server exposes the patronage engine over an HTTP JSON API.
type Server struct {
	engine   *patronage.Engine
	accounts accountReader
	log      *slog.Logger
	ledger   *observability.LedgerMetrics
	gw       *observability.GatewayMetrics
}

// New constructs the gateway server around an engine and an account reader.
func New(engine *patronage.Engine, accounts accountReader, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine:   engine,
		accounts: accounts,
		log:      log,
		ledger:   observability.Ledger(),
		gw:       observability.Gateway(),
	}
}

// Router mounts every ledger operation and query.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/business/register", s.registerBusiness)
		r.Post("/business/update", s.updateBusiness)
		r.Post("/business/deactivate", s.deactivateBusiness)
		r.Post("/business/get", s.getBusiness)

		r.Post("/subscriptions/create", s.createSubscription)
		r.Post("/subscriptions/settle", s.settleSubscription)
		r.Post("/subscriptions/cancel", s.cancelSubscription)
		r.Post("/subscriptions/reactivate", s.reactivateSubscription)
		r.Post("/subscriptions/get", s.getSubscription)
		r.Post("/subscriptions/due", s.paymentDue)
		r.Post("/subscriptions/next-payment", s.nextPayment)

		r.Post("/payments/one-time", s.oneTimePayment)
		r.Post("/fees/breakdown", s.feeBreakdown)
		r.Post("/relationships/get", s.getRelationship)
		r.Post("/accounts/get", s.getAccount)

		r.Post("/params/get", s.getParams)
		r.Post("/params/fee-rate", s.setFeeRate)
		r.Post("/params/min-amount", s.setMinAmount)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		s.gw.Observe(route, strconv.Itoa(rec.status), time.Since(started).Seconds())
		if rec.status >= http.StatusInternalServerError {
			s.log.Error("gateway request failed", "route", route, "status", rec.status)
		}
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, requestBodyLimit)
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, patronage.ErrBusinessNotFound),
		errors.Is(err, patronage.ErrSubscriptionNotFound):
		return http.StatusNotFound
	case errors.Is(err, patronage.ErrBusinessExists),
		errors.Is(err, patronage.ErrSubscriptionExists),
		errors.Is(err, patronage.ErrSubscriptionActive),
		errors.Is(err, patronage.ErrSubscriptionInactive):
		return http.StatusConflict
	case errors.Is(err, patronage.ErrInvalidAmount),
		errors.Is(err, patronage.ErrAmountBelowMinimum),
		errors.Is(err, patronage.ErrInvalidFrequency),
		errors.Is(err, patronage.ErrFeeRateTooHigh),
		errors.Is(err, patronage.ErrInvalidBusiness):
		return http.StatusBadRequest
	case errors.Is(err, patronage.ErrPaymentNotDue),
		errors.Is(err, patronage.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, patronage.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
