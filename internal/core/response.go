// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every non-2xx response. Clients depend on
// the "error" field being a single human-readable string.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Data       any `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Paginated(w http.ResponseWriter, data any, page, pageSize, total int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	WriteJSON(w, http.StatusOK, PaginatedResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: message,
		Code:  "BAD_REQUEST",
	})
}

func NotFound(w http.ResponseWriter, resource string) {
	WriteJSON(w, http.StatusNotFound, ErrorResponse{
		Error: resource + " not found",
		Code:  "NOT_FOUND",
	})
}

func Conflict(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusConflict, ErrorResponse{
		Error: message,
		Code:  "CONFLICT",
	})
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusForbidden, ErrorResponse{
		Error: message,
		Code:  "FORBIDDEN",
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error: message,
		Code:  "UNAUTHORIZED",
	})
}

// InternalServerError logs the cause and returns a generic message;
// internal detail never crosses the boundary.
func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  "INTERNAL_ERROR",
	})
}

// JSONError maps any error to a response. AppErrors carry their own
// status; sentinel errors get their canonical mapping; anything else
// is a 500.
func JSONError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		})
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "not found",
			Code:  "NOT_FOUND",
		})
	case errors.Is(err, ErrInvalidState):
		WriteJSON(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_STATE",
		})
	case errors.Is(err, ErrInvalidInput):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_FAILED",
		})
	case errors.Is(err, ErrDependency):
		WriteJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: err.Error(),
			Code:  "DEPENDENCY_FAILED",
		})
	case errors.Is(err, ErrDuplicateKey):
		WriteJSON(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "CONFLICT",
		})
	case errors.Is(err, ErrUnauthorized):
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
	case errors.Is(err, ErrForbidden):
		WriteJSON(w, http.StatusForbidden, ErrorResponse{
			Error: "forbidden",
			Code:  "FORBIDDEN",
		})
	default:
		InternalServerError(w, err)
	}
}

// FormatValidationError turns validator.ValidationErrors into a single
// readable message.
func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid request"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, formatFieldError(fieldErr))
	}

	return strings.Join(messages, "; ")
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
