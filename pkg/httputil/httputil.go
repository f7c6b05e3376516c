package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody represents an error in the response
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Meta describes a keyset page. Next is absent on the last page.
type Meta struct {
	TotalElements int64              `json:"total_elements"`
	HasNext       bool               `json:"has_next"`
	PageSize      int                `json:"page_size"`
	Next          *pagination.Cursor `json:"next,omitempty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	write(w, statusCode, Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	})
}

// JSONWithMeta sends a JSON response with metadata
func JSONWithMeta(w http.ResponseWriter, statusCode int, data interface{}, meta *Meta) {
	write(w, statusCode, Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
		Meta:    meta,
	})
}

// Page sends one keyset page with its paging metadata.
func Page[T any](w http.ResponseWriter, page pagination.Page[T]) {
	JSONWithMeta(w, http.StatusOK, page.Content, &Meta{
		TotalElements: page.TotalElements,
		HasNext:       page.HasNext,
		PageSize:      page.PageSize,
		Next:          page.Next,
	})
}

// Error sends an error response. Errors that are not an AppError are
// reported as a generic internal error.
func Error(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		write(w, appErr.StatusCode, Response{
			Success: false,
			Error: &ErrorBody{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			},
		})
		return
	}

	write(w, http.StatusInternalServerError, Response{
		Success: false,
		Error: &ErrorBody{
			Code:    "INTERNAL_ERROR",
			Message: "an unexpected error occurred",
		},
	})
}

func write(w http.ResponseWriter, statusCode int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created sends a 201 Created response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// DecodeJSON decodes the request body into the provided struct
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.BadRequest("invalid JSON body")
	}
	return nil
}

// PageRequest reads size, last_seen and last_seen_id from the query string.
// last_seen and last_seen_id must be given together.
func PageRequest(r *http.Request, limits pagination.Limits) (pagination.Request, error) {
	query := r.URL.Query()

	requested := 0
	if raw := query.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return pagination.Request{}, errors.InvalidParameter("size", "must be an integer")
		}
		requested = n
	}

	size, err := limits.Size(requested)
	if err != nil {
		return pagination.Request{}, err
	}

	req := pagination.Request{Size: size}

	key, hasKey := query["last_seen"]
	id, hasID := query["last_seen_id"]
	switch {
	case hasKey && hasID:
		req.After = &pagination.Cursor{Key: key[0], ID: id[0]}
	case hasKey || hasID:
		return pagination.Request{}, errors.InvalidParameter("last_seen", "last_seen and last_seen_id must be given together")
	}

	return req, nil
}

// NotFound answers requests for routes the service does not serve
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, errors.NotFound("route "+r.URL.Path))
}

// MethodNotAllowed answers requests with a method the route does not accept
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	write(w, http.StatusMethodNotAllowed, Response{
		Success: false,
		Error: &ErrorBody{
			Code:    "METHOD_NOT_ALLOWED",
			Message: r.Method + " is not allowed on " + r.URL.Path,
		},
	})
}
