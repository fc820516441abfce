// Package handler exposes the onboarding endpoints. Adding residents requires
// the managing syndic's token; code verification is public because the new
// resident has no session yet.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	accountmodels "residora/internal/account/models"
	"residora/internal/onboarding"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/httputil"
	"residora/pkg/requestcontext"
)

// maxBulkResidents bounds one bulk request; larger imports go through
// repeated calls.
const maxBulkResidents = 100

// Service defines the onboarding operations the handler needs.
type Service interface {
	AddResident(ctx context.Context, input onboarding.AddResidentInput) (*onboarding.Result, error)
	BulkAddResidents(ctx context.Context, inputs []onboarding.AddResidentInput) []onboarding.BulkItemResult
	VerifyCode(ctx context.Context, accountID id.AccountID, code string) error
}

// Handler handles onboarding endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	auth    func(http.Handler) http.Handler
}

// New creates an onboarding Handler. auth guards the syndic-only routes.
func New(service Service, logger *slog.Logger, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, auth: auth}
}

// Register registers the onboarding routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/residents", h.handleAddResident)
		r.Post("/residents/bulk", h.handleBulkAddResidents)
	})
	r.Post("/residents/verify", h.handleVerifyCode)
}

type addResidentRequest struct {
	ResidenceID string `json:"residence_id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Apartment   string `json:"apartment_number"`
	Role        string `json:"role,omitempty"`

	residenceID id.ResidenceID
	role        accountmodels.Role
}

func (r *addResidentRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ResidenceID) == "" {
		missing = append(missing, "residence_id")
	}
	if strings.TrimSpace(r.FullName) == "" {
		missing = append(missing, "full_name")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(r.Apartment) == "" && !strings.EqualFold(strings.TrimSpace(r.Role), string(accountmodels.RoleGuard)) {
		missing = append(missing, "apartment_number")
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	var err error
	if r.residenceID, err = id.ParseResidenceID(r.ResidenceID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "residence_id is not a valid id")
	}
	if r.role, err = accountmodels.ParseRole(r.Role); err != nil {
		return err
	}
	return nil
}

func (r *addResidentRequest) toInput() onboarding.AddResidentInput {
	return onboarding.AddResidentInput{
		ResidenceID: r.residenceID,
		FullName:    r.FullName,
		Email:       r.Email,
		Phone:       r.PhoneNumber,
		Apartment:   r.Apartment,
		Role:        r.role,
	}
}

func (h *Handler) handleAddResident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[addResidentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.AddResident(ctx, req.toInput())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "adding resident failed",
				"request_id", requestID, "error", err.Error())
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, result)
}

type bulkAddRequest struct {
	Residents []addResidentRequest `json:"residents"`
}

func (r *bulkAddRequest) Validate() error {
	if len(r.Residents) == 0 {
		return dErrors.New(dErrors.CodeValidation, "residents list cannot be empty")
	}
	if len(r.Residents) > maxBulkResidents {
		return dErrors.Newf(dErrors.CodeValidation, "at most %d residents per bulk request", maxBulkResidents)
	}
	return nil
}

func (h *Handler) handleBulkAddResidents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[bulkAddRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	// Row-level validation failures become per-row failure entries rather
	// than failing the whole batch.
	inputs := make([]onboarding.AddResidentInput, len(req.Residents))
	invalid := make(map[int]string, len(req.Residents))
	for i := range req.Residents {
		if err := req.Residents[i].Validate(); err != nil {
			invalid[i] = dErrors.MessageOf(err)
			continue
		}
		inputs[i] = req.Residents[i].toInput()
	}

	results := make([]onboarding.BulkItemResult, len(req.Residents))
	valid := make([]onboarding.AddResidentInput, 0, len(inputs))
	validIdx := make([]int, 0, len(inputs))
	for i, input := range inputs {
		if msg, bad := invalid[i]; bad {
			results[i] = onboarding.BulkItemResult{
				Index: i,
				Email: strings.ToLower(strings.TrimSpace(req.Residents[i].Email)),
				Error: msg,
			}
			continue
		}
		valid = append(valid, input)
		validIdx = append(validIdx, i)
	}
	for j, item := range h.service.BulkAddResidents(ctx, valid) {
		item.Index = validIdx[j]
		results[validIdx[j]] = item
	}

	httputil.WriteSuccess(w, http.StatusOK, results)
}

type verifyCodeRequest struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`

	accountID id.AccountID
}

func (r *verifyCodeRequest) Validate() error {
	if strings.TrimSpace(r.AccountID) == "" || strings.TrimSpace(r.Code) == "" {
		return dErrors.New(dErrors.CodeValidation, "account_id and code are required")
	}
	var err error
	if r.accountID, err = id.ParseAccountID(r.AccountID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "account_id is not a valid id")
	}
	return nil
}

func (h *Handler) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[verifyCodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.VerifyCode(ctx, req.accountID, strings.TrimSpace(req.Code)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "code verification failed",
				"request_id", requestID, "error", err.Error())
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]bool{"verified": true})
}
