// Package handler exposes the submission review endpoints. Filing a
// submission requires the submitter's token; review actions are reserved for
// the operations admin.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"residora/internal/review"
	"residora/internal/review/models"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/httputil"
	"residora/pkg/requestcontext"
)

// Service defines the review operations the handler needs.
type Service interface {
	Submit(ctx context.Context, docs []review.Document) (*models.Submission, error)
	Approve(ctx context.Context, submissionID id.SubmissionID, input review.ApproveInput) (*models.Submission, error)
	Reject(ctx context.Context, submissionID id.SubmissionID, reason string) (*models.Submission, error)
	Reset(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error)
	List(ctx context.Context, status models.Status) ([]*models.Submission, error)
}

// Handler handles submission review endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	auth    func(http.Handler) http.Handler
	admin   func(http.Handler) http.Handler
}

// New creates a review Handler. auth guards filing; admin guards reviewing.
func New(service Service, logger *slog.Logger, auth, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, auth: auth, admin: admin}
}

// Register registers the review routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/submissions", h.handleSubmit)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.admin)
		r.Get("/submissions", h.handleList)
		r.Post("/submissions/{submissionID}/review", h.handleReview)
	})
}

type documentPayload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	// Data is base64 in transit; encoding/json handles the conversion.
	Data []byte `json:"data"`
}

type submitRequest struct {
	Documents []documentPayload `json:"documents"`
}

func (r *submitRequest) Validate() error {
	if len(r.Documents) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}
	for _, doc := range r.Documents {
		if len(doc.Data) == 0 {
			return dErrors.New(dErrors.CodeValidation, "document data cannot be empty")
		}
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

	docs := make([]review.Document, len(req.Documents))
	for i, doc := range req.Documents {
		docs[i] = review.Document{Name: doc.Name, ContentType: doc.ContentType, Data: doc.Data}
	}

	submission, err := h.service.Submit(ctx, docs)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "filing submission failed",
				"request_id", requestID, "error", err.Error())
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, submission)
}

type newResidencePayload struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	BankAccount string `json:"bank_account,omitempty"`
}

type reviewRequest struct {
	Action          string               `json:"action"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
	ResidenceID     string               `json:"residence_id,omitempty"`
	NewResidence    *newResidencePayload `json:"new_residence,omitempty"`

	residenceID *id.ResidenceID
}

func (r *reviewRequest) Validate() error {
	switch strings.ToLower(strings.TrimSpace(r.Action)) {
	case "approve", "reject", "reset":
		r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	default:
		return dErrors.New(dErrors.CodeValidation, "action must be approve, reject or reset")
	}
	if strings.TrimSpace(r.ResidenceID) != "" {
		parsed, err := id.ParseResidenceID(r.ResidenceID)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "residence_id is not a valid id")
		}
		r.residenceID = &parsed
	}
	return nil
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "submission id is not valid"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[reviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var submission *models.Submission
	switch req.Action {
	case "approve":
		input := review.ApproveInput{ExistingResidenceID: req.residenceID}
		if req.NewResidence != nil {
			input.NewResidence = &review.NewResidenceInput{
				Name:        req.NewResidence.Name,
				Address:     req.NewResidence.Address,
				City:        req.NewResidence.City,
				BankAccount: req.NewResidence.BankAccount,
			}
		}
		submission, err = h.service.Approve(ctx, submissionID, input)
	case "reject":
		submission, err = h.service.Reject(ctx, submissionID, req.RejectionReason)
	case "reset":
		submission, err = h.service.Reset(ctx, submissionID)
	}
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "review action failed",
				"request_id", requestID, "action", req.Action, "error", err.Error())
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, submission)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	status := models.Status(r.URL.Query().Get("status"))
	switch status {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown status filter"))
		return
	}

	submissions, err := h.service.List(ctx, status)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing submissions failed",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, submissions)
}
