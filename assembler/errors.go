package assembler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Urethramancer/pdp11/deferred"
)

// Error kinds. Match them with errors.Is.
var (
	ErrRedefinition            = errors.New("redefinition")
	ErrUndefined               = deferred.ErrUndefined
	ErrTypeMismatch            = deferred.ErrTypeMismatch
	ErrRange                   = errors.New("value out of range")
	ErrAlignment               = errors.New("unaligned target")
	ErrUnknownCommand          = errors.New("unknown command")
	ErrUnsupportedArchitecture = errors.New("unsupported architecture")
	ErrIO                      = errors.New("i/o error")
	ErrSyntax                  = errors.New("syntax error")
	ErrOperands                = errors.New("invalid operands")
	ErrCycle                   = deferred.ErrCycle
)

// Position locates a command in its source file.
type Position struct {
	File   string
	Line   int
	Column int
	// Text is the source line.
	Text string
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Error is an assembly or link failure with source coordinates.
type Error struct {
	Kind error
	Msg  string
	Pos  Position
	Err  error
}

// GetPosition returns the source coordinates of the failure.
func (e *Error) GetPosition() Position {
	return e.Pos
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Pos.File == "" {
		return msg
	}
	return fmt.Sprintf("%s\n  at file %s (line %d, column %d)\n\n%s",
		msg, e.Pos.File, e.Pos.Line, e.Pos.Column, e.Pos.Text)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(pos Position, kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// annotate attaches pos to err. An *Error that already carries a position is
// returned unchanged; errors from the deferred engine get a matching kind.
// Wrapping text around an inner *Error is kept in the message.
func annotate(err error, pos Position) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if !errors.As(err, &ae) {
		return &Error{Kind: kindOf(err), Msg: err.Error(), Pos: pos, Err: err}
	}
	if ae.Pos.File != "" {
		return err
	}
	if e, ok := err.(*Error); ok {
		c := *e
		c.Pos = pos
		return &c
	}
	return &Error{Kind: ae.Kind, Msg: err.Error(), Pos: pos, Err: err}
}

// kindOf maps an error to one of the error kinds above.
func kindOf(err error) error {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != nil {
		return ae.Kind
	}
	switch {
	case errors.Is(err, deferred.ErrUndefined):
		return ErrUndefined
	case errors.Is(err, deferred.ErrCycle):
		return ErrCycle
	case errors.Is(err, deferred.ErrDivideByZero), errors.Is(err, deferred.ErrNegativeCount),
		errors.Is(err, deferred.ErrCountTooLarge):
		return ErrRange
	}
	return ErrTypeMismatch
}

// octal formats n the way PDP-11 programmers read numbers.
func octal(n int) string {
	if n < 0 {
		return "-0o" + strconv.FormatInt(int64(-n), 8)
	}
	return "0o" + strconv.FormatInt(int64(n), 8)
}
