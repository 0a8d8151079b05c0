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

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellpeak/internal/shared/testutil"
)

func newRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-123")
	return req.WithContext(ctx)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	h := NewErrorHandler(logger, true)
	assert.True(t, h.includeStack)
	assert.NotNil(t, h.logger)

	assert.NotNil(t, NewErrorHandler(nil, false).logger)
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantType      string
		wantErrorCode interface{}
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "wrapped cancellation",
			err:        fmt.Errorf("analysis: %w", context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:          "api validation error",
			err:           ErrValidation("window", "must be positive"),
			wantStatus:    http.StatusBadRequest,
			wantType:      TypeValidation,
			wantErrorCode: "VALIDATION_FAILED",
		},
		{
			name:          "payload too large",
			err:           ErrPayloadTooLarge,
			wantStatus:    http.StatusRequestEntityTooLarge,
			wantType:      TypePayloadTooLarge,
			wantErrorCode: "PAYLOAD_TOO_LARGE",
		},
		{
			name:          "missing time column",
			err:           NewMissingTimeColumnError([]string{"c1"}),
			wantStatus:    http.StatusUnprocessableEntity,
			wantType:      TypeMissingTimeColumn,
			wantErrorCode: string(ErrTypeMissingTimeColumn),
		},
		{
			name:          "wrapped empty population",
			err:           fmt.Errorf("summary: %w", NewEmptyPopulationError()),
			wantStatus:    http.StatusUnprocessableEntity,
			wantType:      TypeEmptyPopulation,
			wantErrorCode: string(ErrTypeEmptyPopulation),
		},
		{
			name:          "invalid input",
			err:           NewInvalidInputError("trim removes every row", nil),
			wantStatus:    http.StatusUnprocessableEntity,
			wantType:      TypeInvalidInput,
			wantErrorCode: string(ErrTypeInvalidInput),
		},
		{
			name:          "unsupported format",
			err:           NewParsingError("unsupported input format", nil),
			wantStatus:    http.StatusUnprocessableEntity,
			wantType:      TypeUnsupportedFormat,
			wantErrorCode: string(ErrTypeParsing),
		},
		{
			name:          "invalid unit",
			err:           NewInvalidUnitError("h", nil),
			wantStatus:    http.StatusBadRequest,
			wantType:      TypeValidation,
			wantErrorCode: string(ErrTypeInvalidUnit),
		},
		{
			name:          "not found",
			err:           NewNotFoundError("directory /data/in"),
			wantStatus:    http.StatusNotFound,
			wantType:      TypeNotFound,
			wantErrorCode: string(ErrTypeNotFound),
		},
		{
			name:          "config error",
			err:           NewConfigError("analysis.window_order must be positive", nil),
			wantStatus:    http.StatusBadRequest,
			wantType:      TypeValidation,
			wantErrorCode: string(ErrTypeConfig),
		},
		{
			name:          "storage failure",
			err:           NewStorageError("write failed", nil),
			wantStatus:    http.StatusInternalServerError,
			wantType:      TypeInternal,
			wantErrorCode: string(ErrTypeStorage),
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			rec := httptest.NewRecorder()
			h.HandleError(rec, newRequest("/api/v1/analyze"), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/analyze", body["instance"])
			assert.Equal(t, "req-123", body["trace_id"])
			assert.Equal(t, tt.wantErrorCode, body["error_code"])
			assert.NotContains(t, body, "stack")

			testutil.AssertLogContains(t, handler, slog.LevelError, "request failed")
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, newRequest("/"), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Empty(t, handler.GetRecords())
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, newRequest("/"), errors.New("boom"))

	body := decodeProblem(t, rec)
	assert.NotEmpty(t, body["stack"])
}

func TestErrorHandler_Details(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, newRequest("/"), ErrValidation("threshold", "not a number"))

	body := decodeProblem(t, rec)
	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "threshold", details["field"])
	assert.Equal(t, "not a number", details["message"])
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, newRequest("/missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, newRequest("/api/health"))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "POST")
}

func TestErrorHandler_Recoverer(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{name: "without stack", includeStack: false},
		{name: "with stack", includeStack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, tt.includeStack)

			panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic("kaboom")
			})

			rec := httptest.NewRecorder()
			require.NotPanics(t, func() {
				h.Recoverer(panicking).ServeHTTP(rec, newRequest("/api/v1/analyze"))
			})

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, TypeInternal, body["type"])
			assert.Equal(t, "req-123", body["trace_id"])
			if tt.includeStack {
				assert.Equal(t, "kaboom", body["panic"])
			} else {
				assert.NotContains(t, body, "panic")
			}
			testutil.AssertLogContains(t, handler, slog.LevelError, "panic recovered")
		})
	}
}
