package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqdash/internal/dataset"
)

func newTestHandler(t *testing.T) *ErrorHandler {
	t.Helper()
	return NewErrorHandler(slog.Default(), false)
}

func TestErrorToProblem(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/budget", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "dataset unavailable sentinel",
			err:        fmt.Errorf("loading budget: %w", dataset.ErrDatasetUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetUnavailable,
		},
		{
			name:       "leading missing key means the load failed",
			err:        fmt.Errorf("dataset city_trends: %w", dataset.ErrLeadingMissingKey),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetLoadFailed,
		},
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "not found message fallback",
			err:        errors.New("dataset not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "unknown error is internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/dashboard/budget", problem.Instance)
		})
	}
}

func TestErrorToProblem_MalformedCurrency(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/awards", nil)

	err := fmt.Errorf("cleaning awards: %w", &dataset.MalformedCurrencyError{
		Column: "Amount Awarded",
		Row:    7,
		Value:  "$N/A",
	})

	problem := h.ErrorToProblem(err, req)
	assert.Equal(t, http.StatusUnprocessableEntity, problem.Status)
	assert.Equal(t, TypeMalformedCurrency, problem.Type)
	assert.Equal(t, "Amount Awarded", problem.Extensions["column"])
	assert.Equal(t, "$N/A", problem.Extensions["value"])
}

func TestErrorToProblem_APIError(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/cities", nil)

	problem := h.ErrorToProblem(ErrDatasetNotFound, req)
	assert.Equal(t, http.StatusNotFound, problem.Status)
	assert.Equal(t, TypeDatasetNotFound, problem.Type)
	assert.Equal(t, "DATASET_NOT_FOUND", problem.Extensions["error_code"])
}

func TestHandleError(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/budget", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, fmt.Errorf("loading budget: %w", dataset.ErrDatasetUnavailable))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, TypeDatasetUnavailable, decoded["type"])
	assert.Contains(t, decoded, "trace_id")
}

func TestHandleError_NilIsNoop(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, nil)
	assert.Empty(t, rec.Body.String())
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()
		h.NotFound(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/dashboard/budget", nil)
		rec := httptest.NewRecorder()
		h.MethodNotAllowed(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
		assert.Contains(t, decoded["detail"], "DELETE")
	})
}

func TestHandlePanic(t *testing.T) {
	h := NewErrorHandler(slog.Default(), true)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/budget", nil)
	rec := httptest.NewRecorder()

	h.HandlePanic(rec, req, "something broke")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, TypeInternal, decoded["type"])
	assert.Equal(t, "something broke", decoded["panic"])
	assert.Contains(t, decoded, "stack")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newTestHandler(t)
	mw := RecoveryMiddleware(h)

	panicking := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() { panicking.ServeHTTP(rec, req) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, TypeInternal, decoded["type"])
}
