package tracker

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four recoverable conditions the bot can run into.
// None of them is fatal; the Bot turns each into a user-facing message.
var (
	ErrValidation     = errors.New("invalid input")
	ErrNotFound       = errors.New("lookup returned no result")
	ErrMissingProfile = errors.New("profile not set up")
	ErrUnknownState   = errors.New("no conversation to continue")
)

// ValidationError reports malformed or out-of-range user input. Prompt is the
// re-prompt shown to the user; the session or ledger is left untouched.
type ValidationError struct {
	Field  string
	Prompt string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s", e.Field)
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, prompt string) error {
	return &ValidationError{Field: field, Prompt: prompt}
}
