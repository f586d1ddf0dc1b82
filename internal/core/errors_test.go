// AngelaMos | 2026
// errors_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorWrapsSentinels(t *testing.T) {
	assert.ErrorIs(t, NotFoundError("request"), ErrNotFound)
	assert.ErrorIs(t, InvalidStateError("already approved"), ErrInvalidState)
	assert.ErrorIs(t, ValidationError("bad status"), ErrInvalidInput)
	assert.ErrorIs(t, ConflictError("pending request exists"), ErrDuplicateKey)
	assert.ErrorIs(t, ForbiddenError("not yours"), ErrForbidden)
}

func TestDependencyErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := DependencyError("training service unreachable", cause)

	assert.ErrorIs(t, err, ErrDependency)
	assert.ErrorIs(t, err, cause)

	// Without a cause the sentinel alone is wrapped.
	bare := DependencyError("training returned no model", nil)
	assert.ErrorIs(t, bare, ErrDependency)
}

func TestJSONErrorMapsAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, InvalidStateError("request is not pending"))

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "request is not pending", body.Error)
	assert.Equal(t, "INVALID_STATE", body.Code)
}

func TestJSONErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", fmt.Errorf("load: %w", ErrNotFound),
			http.StatusNotFound, "NOT_FOUND"},
		{"invalid state", fmt.Errorf("approve: %w", ErrInvalidState),
			http.StatusConflict, "INVALID_STATE"},
		{"dependency", fmt.Errorf("train: %w", ErrDependency),
			http.StatusBadGateway, "DEPENDENCY_FAILED"},
		{"duplicate", fmt.Errorf("submit: %w", ErrDuplicateKey),
			http.StatusConflict, "CONFLICT"},
		{"unknown", errors.New("boom"),
			http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSONError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}
