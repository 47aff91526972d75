// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const RequestIDHeader = "X-Request-ID"

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Meta    any  `json:"meta,omitempty"`
}

type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Paginated(w http.ResponseWriter, data any, page, pageSize, total int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	JSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Meta: PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func JSONError(w http.ResponseWriter, status int, code, message string, details []string) {
	JSON(w, status, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, http.StatusBadRequest, CodeBadRequest, message, nil)
}

func Unauthenticated(w http.ResponseWriter, message string) {
	JSONError(w, http.StatusUnauthorized, CodeUnauthenticated, message, nil)
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, http.StatusNotFound, CodeNotFound, resource+" not found", nil)
}

func InternalServerError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", w.Header().Get(RequestIDHeader),
	)
	JSONError(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
}

// HandleError is the single place where domain errors become HTTP responses.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := classify(err)

	if status == http.StatusInternalServerError {
		InternalServerError(w, r, err)
		return
	}

	slog.DebugContext(r.Context(), "request failed",
		"status", status,
		"code", code,
		"error", err,
		"request_id", w.Header().Get(RequestIDHeader),
	)

	JSONError(w, status, code, message, details)
}
