package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residora/internal/registration"
	"residora/internal/registration/models"
	id "residora/pkg/domain"
	"residora/pkg/platform/httputil"
)

type stubService struct {
	violations []registration.Violation
	created    *models.Request
	err        error
}

func (s *stubService) Submit(context.Context, registration.SubmitInput) (*models.Request, []registration.Violation, error) {
	return s.created, s.violations, s.err
}

func (s *stubService) Prevalidate(context.Context, registration.CandidateInput) ([]registration.Violation, error) {
	return s.violations, s.err
}

func (s *stubService) List(context.Context, id.ResidenceID, models.Status) ([]*models.Request, error) {
	return nil, s.err
}

func noAuth(next http.Handler) http.Handler { return next }

func newRouter(service Service) *chi.Mux {
	h := New(service, slog.Default(), noAuth)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validBody() map[string]string {
	return map[string]string{
		"residence_id":     id.NewResidenceID().String(),
		"full_name":        "Nadia Alaoui",
		"email":            "nadia@example.com",
		"phone_number":     "+212600111222",
		"apartment_number": "5",
	}
}

func TestSubmitMissingFields(t *testing.T) {
	router := newRouter(&stubService{})
	rec := postJSON(t, router, "/registration-requests", map[string]string{"email": "nadia@example.com"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "residence_id")
	assert.Contains(t, env.Error, "full_name")
	assert.Contains(t, env.Error, "apartment_number")
}

func TestSubmitSingleViolationIsPlainError(t *testing.T) {
	router := newRouter(&stubService{violations: []registration.Violation{
		{Field: "apartment_number", Message: "apartment 5 is already reserved"},
	}})
	rec := postJSON(t, router, "/registration-requests", validBody())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "apartment 5 is already reserved", env.Error)
	assert.Empty(t, env.Errors)
}

func TestSubmitMultipleViolationsAreListed(t *testing.T) {
	router := newRouter(&stubService{violations: []registration.Violation{
		{Field: "email", Message: "email is already used by a resident of this residence"},
		{Field: "apartment_number", Message: "apartment 5 is already reserved"},
	}})
	rec := postJSON(t, router, "/registration-requests", validBody())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.NotEmpty(t, env.Error)
	assert.Len(t, env.Errors, 2)
}

func TestSubmitSuccess(t *testing.T) {
	created := &models.Request{ID: id.NewRegistrationID(), Status: models.StatusPending}
	router := newRouter(&stubService{created: created})
	rec := postJSON(t, router, "/registration-requests", validBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
}

func TestPrevalidateAvailable(t *testing.T) {
	router := newRouter(&stubService{})
	rec := postJSON(t, router, "/registration-requests/validate", validBody())

	require.Equal(t, http.StatusOK, rec.Code)
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
}

func TestListRejectsBadStatusFilter(t *testing.T) {
	router := newRouter(&stubService{})
	req := httptest.NewRequest(http.MethodGet,
		"/residences/"+id.NewResidenceID().String()+"/registration-requests?status=bogus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
