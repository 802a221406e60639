package cmd

import (
	"errors"
	"fmt"

	tt "github.com/brouwer-lang/brouwer/internal/types"
)

// Process exit statuses.
const (
	ExitOK       = 0
	ExitFailure  = 1 // bad input: unreadable or malformed source, bad flags
	ExitInternal = 2 // the parser reported a defect in itself
	ExitPanic    = 3
)

// ExitError carries the exit status a command failed with. Err is nil
// when the failure has already been reported to the user.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps the error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}

// Silent reports whether err has already been shown to the user.
func Silent(err error) bool {
	var ee *ExitError
	return errors.As(err, &ee) && ee.Err == nil
}

// diagnosticsError turns reported diagnostics into the matching exit
// status.
func diagnosticsError(diags []tt.Diagnostic) error {
	switch {
	case len(diags) == 0:
		return nil
	case tt.HasKind(diags, tt.KindInternal):
		return &ExitError{Code: ExitInternal}
	default:
		return &ExitError{Code: ExitFailure}
	}
}
