package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megannnn98/transport-catalogue/internal/api/models"
)

func TestProblem_NewProblem(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_test123")

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "Validation error", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "req_test123", p.TraceID)
	assert.Empty(t, p.Detail)
	assert.Nil(t, p.Errors)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid query", []models.FieldError{
		{Field: "from", Message: "required", Code: "REQUIRED"},
	})
	p.Instance = "/v1/routes"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var got models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, *p, got)
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		name    string
		problem *models.Problem
		status  int
		typ     string
	}{
		{"not found", models.NewNotFound("r", "stop"), http.StatusNotFound, models.ProblemTypeNotFound},
		{"no route", models.NewNoRoute("r", "A -> B"), http.StatusNotFound, models.ProblemTypeNoRoute},
		{"unsupported media", models.NewUnsupportedMediaType("r", "xml"), http.StatusUnsupportedMediaType, models.ProblemTypeUnsupportedMedia},
		{"too many requests", models.NewTooManyRequests("r", "slow down"), http.StatusTooManyRequests, models.ProblemTypeTooManyRequests},
		{"internal", models.NewInternalError("r", "boom"), http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", models.NewServiceUnavailable("r", "loading"), http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, tt.typ, tt.problem.Type)
			assert.NotEmpty(t, tt.problem.Detail)
			assert.NotEmpty(t, tt.problem.Title)
		})
	}
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(models.Health{Status: models.HealthStatusOK})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status": "OK", "time": "0001-01-01T00:00:00Z"}`, string(b))
}
