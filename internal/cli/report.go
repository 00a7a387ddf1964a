package cli

import (
	"context"
	"errors"
	"io"

	hcerrors "github.com/matzehuels/hovercard/pkg/errors"
)

// Exit codes returned by [Report].
const (
	ExitFailure   = 1
	ExitUsage     = 2
	ExitInterrupt = 130
)

// Report prints err for the terminal and returns the process exit code.
// Fetch errors carry their card title and, where a token would help, the
// command that sets one.
func Report(w io.Writer, err error) int {
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}
	out := newPrinter(w)

	var e *hcerrors.Error
	if !errors.As(err, &e) {
		out.failure("%v", err)
		return ExitFailure
	}
	out.failure("%s: %s", hcerrors.Title(e.Code), e.Message)
	if e.Cause != nil {
		out.detail("%v", e.Cause)
	}
	if hcerrors.NeedsToken(e.Code) {
		out.hint("Add or replace the access token", appName+" token set")
	}

	switch e.Code {
	case hcerrors.ErrCodeInvalidInput, hcerrors.ErrCodeInvalidReference,
		hcerrors.ErrCodeInvalidSelector, hcerrors.ErrCodeInvalidOptions:
		return ExitUsage
	}
	return ExitFailure
}
