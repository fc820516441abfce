// Package handler exposes the account removal endpoints. Resident removal is
// a syndic operation on their own residence; the full-account route needs the
// admin token.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"residora/internal/deletion"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/httputil"
	"residora/pkg/requestcontext"
)

// maxBulkRemovals bounds one bulk request; larger cleanups go through
// repeated calls.
const maxBulkRemovals = 100

// Service defines the deletion operations the handler needs.
type Service interface {
	RemoveResident(ctx context.Context, accountID id.AccountID, residenceID id.ResidenceID) (*deletion.Result, error)
	BulkRemoveResidents(ctx context.Context, accountIDs []id.AccountID, residenceID id.ResidenceID) []deletion.BulkItemResult
	DeleteAccount(ctx context.Context, accountID id.AccountID) (*deletion.Result, error)
}

// Handler handles deletion endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	auth    func(http.Handler) http.Handler
	admin   func(http.Handler) http.Handler
}

// New creates a deletion Handler.
func New(service Service, logger *slog.Logger, auth, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, auth: auth, admin: admin}
}

// Register registers the deletion routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Delete("/residents/{accountID}", h.handleRemoveResident)
		r.Post("/residents/bulk-delete", h.handleBulkRemove)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.admin)
		r.Delete("/accounts/{accountID}", h.handleDeleteAccount)
	})
}

func (h *Handler) handleRemoveResident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "account id is not valid"))
		return
	}
	residenceID, err := id.ParseResidenceID(r.URL.Query().Get("residence"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "residence query parameter is required"))
		return
	}

	result, err := h.service.RemoveResident(ctx, accountID, residenceID)
	if err != nil {
		h.writeError(w, r, "removing resident", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

type bulkRemoveRequest struct {
	ResidenceID string   `json:"residence_id"`
	AccountIDs  []string `json:"account_ids"`

	residenceID id.ResidenceID
	accountIDs  []id.AccountID
}

func (r *bulkRemoveRequest) Validate() error {
	if len(r.AccountIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "account_ids list cannot be empty")
	}
	if len(r.AccountIDs) > maxBulkRemovals {
		return dErrors.Newf(dErrors.CodeValidation, "at most %d accounts per bulk request", maxBulkRemovals)
	}
	var err error
	if r.residenceID, err = id.ParseResidenceID(r.ResidenceID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "residence_id is not a valid id")
	}
	r.accountIDs = make([]id.AccountID, len(r.AccountIDs))
	for i, raw := range r.AccountIDs {
		if r.accountIDs[i], err = id.ParseAccountID(raw); err != nil {
			return dErrors.Newf(dErrors.CodeValidation, "account_ids[%d] is not a valid id", i)
		}
	}
	return nil
}

func (h *Handler) handleBulkRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[bulkRemoveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	results := h.service.BulkRemoveResidents(ctx, req.accountIDs, req.residenceID)
	httputil.WriteSuccess(w, http.StatusOK, results)
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "account id is not valid"))
		return
	}

	result, err := h.service.DeleteAccount(ctx, accountID)
	if err != nil {
		h.writeError(w, r, "deleting account", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"request_id", requestcontext.RequestID(r.Context()), "error", err.Error())
	}
	httputil.WriteError(w, err)
}
