// Package handler exposes the registration endpoints. Submission and
// pre-validation are public; listing a residence's requests requires the
// managing syndic's token.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"residora/internal/registration"
	"residora/internal/registration/models"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/httputil"
	"residora/pkg/requestcontext"
)

// Service defines the registration operations the handler needs.
type Service interface {
	Submit(ctx context.Context, input registration.SubmitInput) (*models.Request, []registration.Violation, error)
	Prevalidate(ctx context.Context, candidate registration.CandidateInput) ([]registration.Violation, error)
	List(ctx context.Context, residenceID id.ResidenceID, status models.Status) ([]*models.Request, error)
}

// Handler handles registration endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	auth    func(http.Handler) http.Handler
}

// New creates a registration Handler. auth guards the syndic-only routes.
func New(service Service, logger *slog.Logger, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, auth: auth}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registration-requests", h.handleSubmit)
	r.Post("/registration-requests/validate", h.handlePrevalidate)
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/residences/{residenceID}/registration-requests", h.handleList)
	})
}

type submitRequest struct {
	ResidenceID   string `json:"residence_id"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	Apartment     string `json:"apartment_number"`
	IDNumber      string `json:"id_number,omitempty"`
	IDDocumentURL string `json:"id_document_url,omitempty"`

	residenceID id.ResidenceID
}

func (r *submitRequest) Validate() error {
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
	if strings.TrimSpace(r.Apartment) == "" {
		missing = append(missing, "apartment_number")
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	var err error
	if r.residenceID, err = id.ParseResidenceID(r.ResidenceID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "residence_id is not a valid id")
	}
	return nil
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[submitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, violations, err := h.service.Submit(ctx, registration.SubmitInput{
		ResidenceID:   req.residenceID,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.PhoneNumber,
		Apartment:     req.Apartment,
		IDNumber:      req.IDNumber,
		IDDocumentURL: req.IDDocumentURL,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "registration submission failed",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	if len(violations) > 0 {
		httputil.WriteViolations(w, "registration request conflicts with existing records", violationMessages(violations))
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, created)
}

func (h *Handler) handlePrevalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[submitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	violations, err := h.service.Prevalidate(ctx, registration.CandidateInput{
		ResidenceID: req.residenceID,
		Email:       req.Email,
		Phone:       req.PhoneNumber,
		Apartment:   req.Apartment,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "registration pre-validation failed",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	if len(violations) > 0 {
		httputil.WriteViolations(w, "registration request conflicts with existing records", violationMessages(violations))
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]bool{"available": true})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	residenceID, err := id.ParseResidenceID(chi.URLParam(r, "residenceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "residence id is not valid"))
		return
	}
	status := models.Status(r.URL.Query().Get("status"))
	switch status {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown status filter"))
		return
	}

	requests, err := h.service.List(ctx, residenceID, status)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "listing registration requests failed",
				"request_id", requestID, "error", err.Error())
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, requests)
}

func violationMessages(violations []registration.Violation) []string {
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.Message
	}
	return out
}
