// Package handler exposes the billing bridge endpoints. Subscription routes
// act on the authenticated account; refunds are admin-only.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	billingstore "residora/internal/billing/store"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/httputil"
	"residora/pkg/requestcontext"
)

// Service defines the billing operations the handler needs.
type Service interface {
	Subscribe(ctx context.Context, plan string) (*billingstore.Mapping, error)
	Cancel(ctx context.Context) error
	EnsureCustomer(ctx context.Context, accountID id.AccountID) (*billingstore.Mapping, error)
	Refund(ctx context.Context, accountID id.AccountID, paymentRef string, amount decimal.Decimal) (string, error)
}

// Handler handles billing endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	auth    func(http.Handler) http.Handler
	admin   func(http.Handler) http.Handler
}

// New creates a billing Handler.
func New(service Service, logger *slog.Logger, auth, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, auth: auth, admin: admin}
}

// Register registers the billing routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/billing/subscription", h.handleSubscription)
		r.Post("/billing/subscribe", h.handleSubscribe)
		r.Post("/billing/cancel", h.handleCancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.admin)
		r.Post("/billing/refund", h.handleRefund)
	})
}

func (h *Handler) handleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	mapping, err := h.service.EnsureCustomer(ctx, actor)
	if err != nil {
		h.writeError(w, r, "loading billing record", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, mapping)
}

type subscribeRequest struct {
	Plan string `json:"plan"`
}

func (r *subscribeRequest) Validate() error {
	if strings.TrimSpace(r.Plan) == "" {
		return dErrors.New(dErrors.CodeValidation, "plan is required")
	}
	return nil
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[subscribeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	mapping, err := h.service.Subscribe(ctx, strings.TrimSpace(req.Plan))
	if err != nil {
		h.writeError(w, r, "creating subscription", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, mapping)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context()); err != nil {
		h.writeError(w, r, "cancelling subscription", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type refundRequest struct {
	AccountID  string `json:"account_id"`
	PaymentRef string `json:"payment_ref"`
	Amount     string `json:"amount"`

	accountID id.AccountID
	amount    decimal.Decimal
}

func (r *refundRequest) Validate() error {
	var err error
	if r.accountID, err = id.ParseAccountID(r.AccountID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "account_id is not a valid id")
	}
	if strings.TrimSpace(r.PaymentRef) == "" {
		return dErrors.New(dErrors.CodeValidation, "payment_ref is required")
	}
	if r.amount, err = decimal.NewFromString(r.Amount); err != nil {
		return dErrors.New(dErrors.CodeValidation, "amount is not a valid decimal")
	}
	return nil
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[refundRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	refundID, err := h.service.Refund(ctx, req.accountID, strings.TrimSpace(req.PaymentRef), req.amount)
	if err != nil {
		h.writeError(w, r, "issuing refund", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"refund_id": refundID})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"request_id", requestcontext.RequestID(r.Context()), "error", err.Error())
	}
	httputil.WriteError(w, err)
}
