package assembler

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/encoding/charmap"

	"github.com/Urethramancer/pdp11/deferred"
	"github.com/Urethramancer/pdp11/output"
)

// syntaxes accepted by .SYNTAX.
var syntaxes = []string{"pdp11asm", "pdpy11"}

// linkDirective handles .LINK and .LA.
func (a *Assembler) linkDirective(cmd *Command) error {
	a.pc = cmd.Values[0]
	if !a.project {
		a.link = cmd.Values[0]
	}
	return nil
}

func (a *Assembler) include(cmd *Command) error {
	path := resolvePath(cmd.Pos.File, cmd.Text)
	if slices.Contains(a.files, path) {
		return newError(cmd.Pos, ErrIO, "Circular include of %s", path)
	}
	if len(a.files) >= maxIncludeDepth {
		return newError(cmd.Pos, ErrIO, "Includes nested deeper than %d files", maxIncludeDepth)
	}
	data, err := a.fsys.ReadFile(path)
	if err != nil {
		e := newError(cmd.Pos, ErrIO, "Cannot include %s: %v", path, err)
		e.Err = err
		return e
	}
	return a.compile(path, string(data))
}

func (a *Assembler) i8080(cmd *Command) error {
	return newError(cmd.Pos, ErrUnsupportedArchitecture, "Cannot compile 8080 programs")
}

func (a *Assembler) syntax(cmd *Command) error {
	if !slices.Contains(syntaxes, cmd.Text) {
		return newError(cmd.Pos, ErrSyntax, "Unknown syntax %s", cmd.Text)
	}
	return nil
}

// bytes handles .BYTE.
func (a *Assembler) bytes(cmd *Command) error {
	for _, v := range cmd.Values {
		a.writeByte(v, cmd.Pos)
	}
	return nil
}

// words handles .WORD.
func (a *Assembler) words(cmd *Command) error {
	for _, v := range cmd.Values {
		a.writeWord(v, cmd.Pos)
	}
	return nil
}

func (a *Assembler) blkb(cmd *Command) error {
	a.writeBytes(deferred.Repeat(cmd.Values[0], deferred.Int(0)), cmd.Pos)
	return nil
}

func (a *Assembler) blkw(cmd *Command) error {
	count := deferred.Mul(cmd.Values[0], deferred.Int(2))
	a.writeBytes(deferred.Repeat(count, deferred.Int(0)), cmd.Pos)
	return nil
}

func (a *Assembler) even(cmd *Command) error {
	a.padTo(deferred.Int(2), cmd.Pos)
	return nil
}

func (a *Assembler) align(cmd *Command) error {
	n := deferred.MapInt(cmd.Values[0], func(n int) (int, error) {
		if n <= 0 {
			return 0, newError(cmd.Pos, ErrRange, "Invalid alignment %s", octal(n))
		}
		return n, nil
	})
	if c, ok := cmd.Values[0].IntConstant(); ok && c > 0 {
		n = cmd.Values[0]
	}
	a.padTo(n, cmd.Pos)
	return nil
}

// padTo writes zero bytes until the location counter is a multiple of n.
// With a known PC and n the padding is computed now; otherwise it is left to
// the linker.
func (a *Assembler) padTo(n deferred.Value, pos Position) {
	pc, pcok := a.pc.IntConstant()
	k, kok := n.IntConstant()
	if pcok && kok {
		pad := []int{}
		if r := pc % k; r != 0 {
			pad = make([]int, k-r)
		}
		a.writeBytes(deferred.Bytes(pad...), pos)
		return
	}
	rem := deferred.Mod(a.pc, n)
	a.writeBytes(deferred.If(
		deferred.Equal(rem, deferred.Int(0)),
		deferred.Bytes(),
		deferred.Repeat(deferred.Sub(n, rem), deferred.Int(0)),
	), pos)
}

// ascii handles .ASCII and .ASCIZ.
func (a *Assembler) ascii(cmd *Command) error {
	data, err := a.encodeText(cmd.Text)
	if err != nil {
		return annotate(err, cmd.Pos)
	}
	if cmd.Op == OpASCIZ {
		data = append(data, 0)
	}
	a.writeBytes(deferred.Bytes(data...), cmd.Pos)
	return nil
}

// encodeText converts a string to byte values. Without KOI8-R conversion
// only Latin-1 characters can be stored.
func (a *Assembler) encodeText(s string) ([]int, error) {
	if a.koi8r {
		enc, err := charmap.KOI8R.NewEncoder().String(s)
		if err != nil {
			return nil, &Error{Kind: ErrRange, Msg: fmt.Sprintf("Cannot encode %q as KOI8-R", s), Err: err}
		}
		out := make([]int, len(enc))
		for i := 0; i < len(enc); i++ {
			out[i] = int(enc[i])
		}
		return out, nil
	}

	var out []int
	for _, r := range s {
		if r > 0xFF {
			return nil, &Error{Kind: ErrRange, Msg: fmt.Sprintf("Character %q does not fit in a byte", r)}
		}
		out = append(out, int(r))
	}
	return out, nil
}

// makeArtifact handles .MAKE_RAW and .MAKE_BIN.
func (a *Assembler) makeArtifact(cmd *Command) error {
	kind := output.Raw
	if cmd.Op == OpMakeBin {
		kind = output.Bin
	}
	a.build = append(a.build, output.Artifact{Kind: kind, Target: cmd.Text})
	return nil
}

func (a *Assembler) convertKOI8R(*Command) error {
	a.koi8r = true
	return nil
}

func (a *Assembler) insertFile(cmd *Command) error {
	path := resolvePath(cmd.Pos.File, cmd.Text)
	data, err := a.fsys.ReadFile(path)
	if err != nil {
		e := newError(cmd.Pos, ErrIO, "Cannot insert %s: %v", path, err)
		e.Err = err
		return e
	}
	out := make([]int, len(data))
	for i, b := range data {
		out[i] = int(b)
	}
	a.writeBytes(deferred.Bytes(out...), cmd.Pos)
	return nil
}

// equ handles .EQU and NAME = value.
func (a *Assembler) equ(cmd *Command) error {
	return a.symbols.Define(cmd.Name, cmd.Values[0], cmd.Pos)
}

// repeat replays the body of a .REPEAT block. The count must be known when
// the block is reached.
func (a *Assembler) repeat(cmd *Command) error {
	count, err := deferred.ResolveInt(cmd.Values[0], a.symbols)
	if err == nil && count < 0 {
		err = fmt.Errorf("%w: %d", deferred.ErrNegativeCount, count)
	}
	if err != nil {
		var ae *Error
		msg := err.Error()
		if errors.As(err, &ae) {
			msg = ae.Msg
		}
		return &Error{
			Kind: kindOf(err),
			Msg: "Error while evaluating .REPEAT count:\n" +
				"(notice: count must be known at the time of its usage)\n\n" + msg,
			Pos: cmd.Pos,
			Err: err,
		}
	}

	for i := 0; i < count; i++ {
		for _, body := range cmd.Body {
			err := a.handle(body)
			if errors.Is(err, errEnd) {
				break
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
