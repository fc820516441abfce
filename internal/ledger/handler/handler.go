// Package handler exposes the ledger endpoints. All routes require a member
// or syndic token; writes are syndic-only and enforced in the service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"residora/internal/ledger"
	"residora/internal/ledger/models"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/httputil"
	"residora/pkg/requestcontext"
)

// Service defines the ledger operations the handler needs.
type Service interface {
	StatusMatrix(ctx context.Context, residenceID id.ResidenceID, year int) (*ledger.Matrix, error)
	Expenses(ctx context.Context, residenceID id.ResidenceID, year int) (*ledger.ExpenseReport, error)
	RecordPayment(ctx context.Context, residenceID id.ResidenceID, accountID id.AccountID, apartment string, amount decimal.Decimal, year int, month time.Month) (*models.Payment, error)
	RecordExpense(ctx context.Context, residenceID id.ResidenceID, label string, amount decimal.Decimal) (*models.Expense, error)
}

// Handler handles ledger endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	auth    func(http.Handler) http.Handler
}

// New creates a ledger Handler.
func New(service Service, logger *slog.Logger, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, auth: auth}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/residences/{residenceID}/ledger", h.handleMatrix)
		r.Get("/residences/{residenceID}/expenses", h.handleExpenses)
		r.Post("/residences/{residenceID}/payments", h.handleRecordPayment)
		r.Post("/residences/{residenceID}/expenses", h.handleRecordExpense)
	})
}

func (h *Handler) handleMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	residenceID, year, ok := h.pathAndYear(w, r)
	if !ok {
		return
	}
	matrix, err := h.service.StatusMatrix(ctx, residenceID, year)
	if err != nil {
		h.writeError(w, r, "building status matrix", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, matrix)
}

func (h *Handler) handleExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	residenceID, year, ok := h.pathAndYear(w, r)
	if !ok {
		return
	}
	report, err := h.service.Expenses(ctx, residenceID, year)
	if err != nil {
		h.writeError(w, r, "building expense report", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, report)
}

type recordPaymentRequest struct {
	AccountID string `json:"account_id"`
	Apartment string `json:"apartment_number"`
	Amount    string `json:"amount"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`

	accountID id.AccountID
	amount    decimal.Decimal
}

func (r *recordPaymentRequest) Validate() error {
	var err error
	if r.accountID, err = id.ParseAccountID(r.AccountID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "account_id is not a valid id")
	}
	if strings.TrimSpace(r.Apartment) == "" {
		return dErrors.New(dErrors.CodeValidation, "apartment_number is required")
	}
	if r.amount, err = decimal.NewFromString(r.Amount); err != nil {
		return dErrors.New(dErrors.CodeValidation, "amount is not a valid decimal")
	}
	if r.Month < 1 || r.Month > 12 {
		return dErrors.New(dErrors.CodeValidation, "month must be between 1 and 12")
	}
	if r.Year < 2000 || r.Year > 2200 {
		return dErrors.New(dErrors.CodeValidation, "year is out of range")
	}
	return nil
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	residenceID, err := id.ParseResidenceID(chi.URLParam(r, "residenceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "residence id is not valid"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[recordPaymentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payment, err := h.service.RecordPayment(ctx, residenceID, req.accountID, req.Apartment, req.amount, req.Year, time.Month(req.Month))
	if err != nil {
		h.writeError(w, r, "recording payment", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, payment)
}

type recordExpenseRequest struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`

	amount decimal.Decimal
}

func (r *recordExpenseRequest) Validate() error {
	if strings.TrimSpace(r.Label) == "" {
		return dErrors.New(dErrors.CodeValidation, "label is required")
	}
	var err error
	if r.amount, err = decimal.NewFromString(r.Amount); err != nil {
		return dErrors.New(dErrors.CodeValidation, "amount is not a valid decimal")
	}
	return nil
}

func (h *Handler) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	residenceID, err := id.ParseResidenceID(chi.URLParam(r, "residenceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "residence id is not valid"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[recordExpenseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	expense, err := h.service.RecordExpense(ctx, residenceID, strings.TrimSpace(req.Label), req.amount)
	if err != nil {
		h.writeError(w, r, "recording expense", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, expense)
}

func (h *Handler) pathAndYear(w http.ResponseWriter, r *http.Request) (id.ResidenceID, int, bool) {
	residenceID, err := id.ParseResidenceID(chi.URLParam(r, "residenceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "residence id is not valid"))
		return id.ResidenceID{}, 0, false
	}
	year := requestcontext.Now(r.Context()).Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "year must be a number"))
			return id.ResidenceID{}, 0, false
		}
	}
	return residenceID, year, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"request_id", requestcontext.RequestID(r.Context()), "error", err.Error())
	}
	httputil.WriteError(w, err)
}
