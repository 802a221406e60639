package parser

import (
	"errors"
	"fmt"

	"github.com/brouwer-lang/brouwer/internal/cursor"
)

// SyntaxError reports malformed input: a production committed to an
// alternative and then found a required continuation missing or invalid.
// It aborts the parse; there is no recovery.
type SyntaxError struct {
	Filename string
	Pos      cursor.Position
	Msg      string
}

func (e *SyntaxError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s:%s: %s", e.Filename, e.Pos, e.Msg)
}

// InternalError reports a parser defect, never bad input.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "internal parser error: " + e.Msg
}

// IsSyntaxError reports whether err is, or wraps, a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// IsInternalError reports whether err is, or wraps, an *InternalError.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// errorf builds a SyntaxError at the current cursor position.
func (p *Parser) errorf(format string, args ...any) error {
	return p.errorAt(p.cur.Here(), format, args...)
}

func (p *Parser) errorAt(pos cursor.Position, format string, args ...any) error {
	return &SyntaxError{
		Filename: p.filename,
		Pos:      pos,
		Msg:      fmt.Sprintf(format, args...),
	}
}

func internalf(format string, args ...any) error {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}
