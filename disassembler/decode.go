package disassembler

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"sort"
	"strconv"

	"github.com/Urethramancer/pdp11/cpu"
)

// pattern matches the fixed opcode bits of one instruction.
type pattern struct {
	ins  cpu.Instruction
	mask uint16
}

// patterns is ordered most specific first, so exact opcodes win over
// instructions with operand fields. Aliases sharing an opcode keep name order.
var patterns = buildPatterns()

func buildPatterns() []pattern {
	var ps []pattern
	for _, ins := range cpu.Instructions() {
		ps = append(ps, pattern{ins: ins, mask: opcodeMask(ins)})
	}
	sort.SliceStable(ps, func(i, j int) bool {
		return bits.OnesCount16(ps[i].mask) > bits.OnesCount16(ps[j].mask)
	})
	return ps
}

// opcodeMask returns the bits of the instruction word not used by operands.
func opcodeMask(ins cpu.Instruction) uint16 {
	switch ins.Class {
	case cpu.ClassOne:
		return 0o177700
	case cpu.ClassTwo:
		return 0o170000
	case cpu.ClassRegister, cpu.ClassRegisterSource, cpu.ClassSOB:
		return 0o177000
	case cpu.ClassRTS:
		return 0o177770
	case cpu.ClassBranch:
		return 0o177400
	case cpu.ClassImmediate:
		return 0o177777 &^ immediateField(ins)
	}
	return 0o177777
}

func immediateField(ins cpu.Instruction) uint16 {
	return uint16(ins.Max >> ins.Shift)
}

// lookup finds the instruction matching w.
func lookup(w uint16) (cpu.Instruction, bool) {
	for _, p := range patterns {
		if w&p.mask == p.ins.Opcode {
			return p.ins, true
		}
	}
	return cpu.Instruction{}, false
}

// decoder reads one instruction and its extra words.
type decoder struct {
	code []byte
	base int
	line *Line
	// off is the byte offset of the next unread word.
	off int
}

func (d *decoder) next() (uint16, bool) {
	if d.off+2 > len(d.code) {
		return 0, false
	}
	w := binary.LittleEndian.Uint16(d.code[d.off:])
	d.line.Words = append(d.line.Words, w)
	d.off += 2
	return w, true
}

// decodeAt decodes the instruction at byte offset off. Words that do not
// form a complete instruction are returned as .WORD data.
func decodeAt(code []byte, base, off int) Line {
	line := Line{Address: base + off, Target: -1, targetArg: -1}
	d := &decoder{code: code, base: base, line: &line, off: off}
	w, _ := d.next()

	ins, ok := lookup(w)
	if ok && d.decode(ins, w) {
		line.Mnemonic = ins.Name
		line.Class = ins.Class
		line.IsInstruction = true
		return line
	}

	return Line{
		Address:   base + off,
		Words:     []uint16{w},
		Mnemonic:  ".WORD",
		Args:      []string{octal(int(w))},
		Target:    -1,
		targetArg: -1,
	}
}

// decode fills in the operands of ins. It reports false when the code ends
// before the instruction's extra words.
func (d *decoder) decode(ins cpu.Instruction, w uint16) bool {
	addr := d.line.Address
	switch ins.Class {
	case cpu.ClassZero:
		return true

	case cpu.ClassOne:
		return d.operand(w & 0o77)

	case cpu.ClassTwo:
		return d.operand(w>>6&0o77) && d.operand(w&0o77)

	case cpu.ClassRegister:
		d.register(cpu.Register(w >> 6 & 7))
		return d.operand(w & 0o77)

	case cpu.ClassRegisterSource:
		if !d.operand(w & 0o77) {
			return false
		}
		d.register(cpu.Register(w >> 6 & 7))
		return true

	case cpu.ClassRTS:
		d.register(cpu.Register(w & 7))
		return true

	case cpu.ClassImmediate:
		v := int(w&immediateField(ins)) << ins.Shift
		d.line.Args = append(d.line.Args, octal(v))
		return true

	case cpu.ClassBranch:
		off := int(int8(w & 0xFF))
		d.target(addr + 2 + 2*off)
		return true

	case cpu.ClassSOB:
		d.register(cpu.Register(w >> 6 & 7))
		d.target(addr + 2 - 2*int(w&0o77))
		return true
	}
	return false
}

func (d *decoder) register(r cpu.Register) {
	d.line.Args = append(d.line.Args, r.String())
}

// target adds an address operand that a label can replace.
func (d *decoder) target(addr int) {
	addr &= 0xFFFF
	d.line.Target = addr
	d.line.targetArg = len(d.line.Args)
	d.line.Args = append(d.line.Args, octal(addr))
}

// operand formats one 6-bit mode/register field, reading its extra word.
func (d *decoder) operand(field uint16) bool {
	mode, reg := cpu.DecodeOperand(field)
	r := reg.String()
	if !mode.HasExtraWord(reg) {
		var s string
		switch mode {
		case cpu.ModeRegister:
			s = r
		case cpu.ModeRegisterDeferred:
			s = "(" + r + ")"
		case cpu.ModeAutoIncrement:
			s = "(" + r + ")+"
		case cpu.ModeAutoIncrementDeferred:
			s = "@(" + r + ")+"
		case cpu.ModeAutoDecrement:
			s = "-(" + r + ")"
		case cpu.ModeAutoDecrementDeferred:
			s = "@-(" + r + ")"
		}
		d.line.Args = append(d.line.Args, s)
		return true
	}

	x, ok := d.next()
	if !ok {
		return false
	}
	// The word after the extra word is what PC points at.
	after := d.base + d.off

	switch {
	case mode == cpu.ModeAutoIncrement:
		d.line.Args = append(d.line.Args, "#"+octal(int(x)))
	case mode == cpu.ModeAutoIncrementDeferred:
		d.line.Args = append(d.line.Args, "@#"+octal(int(x)))
	case reg == cpu.PC:
		prefix := ""
		if mode == cpu.ModeIndexDeferred {
			prefix = "@"
		}
		if d.line.Target < 0 {
			d.target(after + int(int16(x)))
			d.line.Args[d.line.targetArg] = prefix + d.line.Args[d.line.targetArg]
			d.line.targetPrefix = prefix
		} else {
			d.line.Args = append(d.line.Args, prefix+octal((after+int(int16(x)))&0xFFFF))
		}
	case mode == cpu.ModeIndexDeferred:
		d.line.Args = append(d.line.Args, "@"+octal(int(x))+"("+r+")")
	default:
		d.line.Args = append(d.line.Args, octal(int(x))+"("+r+")")
	}
	return true
}

func octal(n int) string {
	return strconv.FormatInt(int64(n), 8)
}

// octalWords formats raw words for listings.
func octalWords(ws []uint16) string {
	s := ""
	for i, w := range ws {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%06o", w)
	}
	return s
}
