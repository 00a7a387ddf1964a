package integrations

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/hovercard/pkg/errors"
)

// apiError is the error payload shape returned by the API.
type apiError struct {
	Message string          `json:"message"`
	Block   json.RawMessage `json:"block"`
}

// Classify maps a response status, headers and body onto the fetch taxonomy.
// It returns nil for 2xx statuses.
func Classify(status int, header http.Header, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var payload apiError
	_ = json.Unmarshal(body, &payload)
	detail := payload.Message
	blocked := len(payload.Block) > 0 && string(payload.Block) != "null"

	switch {
	case status == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeInvalidToken,
			"The access token is invalid or has expired.").WithStatus(status)

	case (status == http.StatusForbidden || status == http.StatusUnavailableForLegalReasons) && blocked:
		return errors.New(errors.ErrCodeAccessBlocked,
			"Access to this resource has been blocked%s.", suffix(detail)).WithStatus(status)

	case (status == http.StatusForbidden || status == http.StatusTooManyRequests) && header.Get("X-RateLimit-Remaining") == "0":
		rl := &errors.RateLimitedError{Reset: resetTime(header), Message: detail}
		msg := "API rate limit exceeded."
		if !rl.Reset.IsZero() {
			msg += " The limit resets at " + rl.Reset.UTC().Format(time.Kitchen) + " UTC."
		}
		return &errors.Error{Code: errors.ErrCodeRateLimited, Message: msg, Status: status, Cause: rl}

	case status == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden,
			"The token does not grant access to this resource%s.", suffix(detail)).WithStatus(status)

	case status == http.StatusUnavailableForLegalReasons:
		return errors.New(errors.ErrCodeAccessBlocked,
			"This resource is unavailable for legal reasons%s.", suffix(detail)).WithStatus(status)

	case status == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound,
			"The resource could not be found. It may be private.").WithStatus(status)

	default:
		return errors.New(errors.ErrCodeGeneric,
			"Request failed with status %d%s.", status, suffix(detail)).WithStatus(status)
	}
}

func suffix(detail string) string {
	detail = strings.TrimSuffix(strings.TrimSpace(detail), ".")
	if detail == "" {
		return ""
	}
	return ": " + detail
}

func resetTime(h http.Header) time.Time {
	v := h.Get("X-RateLimit-Reset")
	if v == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}
