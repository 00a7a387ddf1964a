package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/matzehuels/hovercard/pkg/errors"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
		Status:  status,
	}})
}

// statusFor maps an error code to the response status. Upstream failures
// other than not-found are reported as a bad gateway.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidReference,
		errors.ErrCodeInvalidSelector, errors.ErrCodeInvalidOptions, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodePageNotFound, errors.ErrCodeSessionNotFound, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeForbidden, errors.ErrCodeAccessBlocked:
		return http.StatusForbidden
	case errors.ErrCodeConnection, errors.ErrCodeGeneric:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
