package assembler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Urethramancer/pdp11/deferred"
)

func TestAnnotateKeepsWrapping(t *testing.T) {
	inner := &Error{Kind: ErrRange, Msg: "Byte 0o400 is too big"}
	pos := Position{File: "a.mac", Line: 3, Column: 1, Text: "X = 400"}

	err := annotate(fmt.Errorf("symbol X: %w", inner), pos)
	if !errors.Is(err, ErrRange) {
		t.Errorf("expected a range error, got %v", err)
	}
	want := "symbol X: Byte 0o400 is too big\n  at file a.mac (line 3, column 1)\n\nX = 400"
	if err.Error() != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, err.Error())
	}
	if inner.Pos.File != "" {
		t.Errorf("inner error was modified: %v", inner.Pos)
	}
}

func TestAnnotate(t *testing.T) {
	pos := Position{File: "b.mac", Line: 7, Column: 2}

	direct := &Error{Kind: ErrAlignment, Msg: "Unaligned branch: 0o1 bytes"}
	err := annotate(direct, pos)
	var ae *Error
	if !errors.As(err, &ae) || ae.Pos != pos || ae.Msg != direct.Msg {
		t.Errorf("unexpected result %#v", err)
	}
	if direct.Pos.File != "" {
		t.Error("annotate modified its argument")
	}

	placed := &Error{Kind: ErrRange, Msg: "Word 0o200000 is too big", Pos: Position{File: "c.mac", Line: 1}}
	if got := annotate(placed, pos); got != error(placed) {
		t.Errorf("expected a positioned error to pass through, got %v", got)
	}

	err = annotate(fmt.Errorf("link address: %w", deferred.ErrUndefined), pos)
	if !errors.Is(err, ErrUndefined) || !strings.HasPrefix(err.Error(), "link address: ") {
		t.Errorf("unexpected result %v", err)
	}

	if annotate(nil, pos) != nil {
		t.Error("expected nil")
	}
}
