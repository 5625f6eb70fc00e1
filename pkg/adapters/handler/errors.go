package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
	"github.com/wadjakorntonsri/labelshare/pkg/logging"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty means err.Error()
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input", ""},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", ""},
	{domain.ErrInvalidPassword, http.StatusUnauthorized, "invalid_password", ""},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden", ""},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", "link not found"},
	{domain.ErrObjectNotFound, http.StatusNotFound, "not_found", "file not found"},
	{domain.ErrLinkDeactivated, http.StatusGone, "link_deactivated", ""},
	{domain.ErrLinkExpired, http.StatusGone, "link_expired", ""},
	{domain.ErrDownloadLimitReached, http.StatusGone, "download_limit_reached", ""},
	{domain.ErrStorageUnavailable, http.StatusBadGateway, "storage_unavailable", "storage unavailable"},
}

// statusFor maps err to its HTTP status, code and client-safe message.
func statusFor(err error) (int, string, string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		return m.status, m.code, msg
	}
	return http.StatusInternalServerError, "internal_error", "internal server error"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("%s %s failed: %s", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
