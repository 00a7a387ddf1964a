package errors

import (
	"strings"
	"unicode"
)

// maxReferenceLength bounds user-supplied reference strings.
const maxReferenceLength = 256

// ValidateReference validates a user-supplied reference string such as
// "octocat", "octocat/Hello-World#42" or "octocat/Hello-World@a1b2c3d".
// Only the envelope is checked here; name shapes are checked by package ref.
func ValidateReference(s string) error {
	if strings.TrimSpace(s) == "" {
		return New(ErrCodeInvalidReference, "reference cannot be empty")
	}
	if len(s) > maxReferenceLength {
		return New(ErrCodeInvalidReference, "reference too long (max %d characters)", maxReferenceLength)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidReference, "reference contains invalid control characters")
		}
	}
	if strings.Contains(s, "..") || strings.Contains(s, "//") || strings.Contains(s, "\\") {
		return New(ErrCodeInvalidReference, "reference contains invalid path characters")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateSelector rejects empty or oversized CSS selectors received from
// clients. Syntax errors are reported by the selector compiler.
func ValidateSelector(sel string) error {
	if strings.TrimSpace(sel) == "" {
		return New(ErrCodeInvalidSelector, "selector cannot be empty")
	}
	if len(sel) > 512 {
		return New(ErrCodeInvalidSelector, "selector too long (max 512 characters)")
	}
	return nil
}
