package disassembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/pdp11/cpu"
)

// LabelType defines the context of a label.
type LabelType int

const (
	// JumpTarget is for a branch, SOB or JMP target.
	JumpTarget LabelType = iota
	// SubroutineEntry is for a JSR target.
	SubroutineEntry
)

// Line is a single decoded instruction or data word at a specific address.
type Line struct {
	Address  int
	Words    []uint16
	Mnemonic string
	Args     []string
	Class    cpu.Class
	// Target is the address a branch or PC-relative operand refers to, or -1.
	Target int
	// IsInstruction is false for .WORD and .BYTE data.
	IsInstruction bool
	// IsCode marks lines reached by control flow analysis.
	IsCode bool

	targetArg    int
	targetPrefix string
	// trailing holds a final odd byte.
	trailing []byte
}

// Size returns the number of bytes the line covers.
func (l Line) Size() int {
	return 2*len(l.Words) + len(l.trailing)
}

// Operands returns the operand list as assembler source.
func (l Line) Operands() string {
	return strings.Join(l.Args, ", ")
}

// Text returns the line as assembler source.
func (l Line) Text() string {
	if len(l.Args) == 0 {
		return l.Mnemonic
	}
	return l.Mnemonic + " " + l.Operands()
}

// Disassemble decodes code, loaded at base, in a single linear sweep.
func Disassemble(code []byte, base int) ([]Line, error) {
	if base < 0 || base%2 != 0 || base+len(code) > 0o200000 {
		return nil, fmt.Errorf("invalid base address %o for %d bytes", base, len(code))
	}
	var lines []Line
	off := 0
	for off+1 < len(code) {
		line := decodeAt(code, base, off)
		lines = append(lines, line)
		off += line.Size()
	}
	if off < len(code) {
		lines = append(lines, Line{
			Address:  base + off,
			Mnemonic: ".BYTE",
			Args:     []string{octal(int(code[off]))},
			Target:   -1,
			trailing: code[off:],
		})
	}
	return lines, nil
}

// Format renders lines as a listing with addresses and raw words.
func Format(lines []Line) string {
	var out strings.Builder
	for _, l := range lines {
		raw := octalWords(l.Words)
		for _, b := range l.trailing {
			raw += fmt.Sprintf(" %03o", b)
		}
		fmt.Fprintf(&out, "%06o: %-20s %-6s %s\n", l.Address, strings.TrimSpace(raw), l.Mnemonic, l.Operands())
	}
	return out.String()
}

// Source disassembles code, loaded at base, into assembler source. Control
// flow is followed from base; targets get labels and unreached bytes are
// written as data.
func Source(code []byte, base int) (string, error) {
	if _, err := Disassemble(code, base); err != nil {
		return "", err
	}
	if len(code) == 0 {
		return "", nil
	}

	// Stage 1: decode at every word boundary.
	lines := make(map[int]*Line)
	for off := 0; off+1 < len(code); off += 2 {
		l := decodeAt(code, base, off)
		lines[base+off] = &l
	}

	// Stage 2: follow control flow from the entry point.
	labels := make(map[int]LabelType)
	q := newQueue()
	q.push(base)
	for {
		addr, ok := q.pop()
		if !ok {
			break
		}
		l, exists := lines[addr]
		if !exists || l.IsCode || !l.IsInstruction {
			continue
		}
		l.IsCode = true
		if !isTerminal(l) {
			q.push(addr + l.Size())
		}
		if l.Target < 0 {
			continue
		}
		if l.Mnemonic == "JSR" {
			labels[l.Target] = SubroutineEntry
		} else if _, ok := labels[l.Target]; !ok {
			labels[l.Target] = JumpTarget
		}
		if transfersControl(l) {
			q.push(l.Target)
		}
	}

	// Stage 3: lay out code and data, then drop labels that point inside an
	// instruction or outside the image.
	end := base + len(code)
	var segs []segment
	visible := make(map[int]bool)
	for pc := base; pc < end; {
		if l, ok := lines[pc]; ok && l.IsCode {
			segs = append(segs, segment{start: pc, line: l})
			visible[pc] = true
			pc += l.Size()
			continue
		}
		dataEnd := pc
		for dataEnd < end {
			if l, ok := lines[dataEnd]; ok && l.IsCode {
				break
			}
			visible[dataEnd] = true
			dataEnd++
		}
		segs = append(segs, segment{start: pc, end: dataEnd})
		pc = dataEnd
	}
	for addr := range labels {
		if !visible[addr] {
			delete(labels, addr)
		}
	}

	// Stage 4: render.
	var out strings.Builder
	fmt.Fprintf(&out, "\t.LINK %s\n", octal(base))
	for _, seg := range segs {
		l := seg.line
		if l == nil {
			out.WriteString(formatData(code[seg.start-base:seg.end-base], seg.start, labels))
			continue
		}
		if t, ok := labels[seg.start]; ok {
			fmt.Fprintf(&out, "%s:\n", labelName(seg.start, t))
		}
		args := append([]string(nil), l.Args...)
		if t, ok := labels[l.Target]; ok && l.targetArg >= 0 {
			args[l.targetArg] = l.targetPrefix + labelName(l.Target, t)
		}
		if len(args) > 0 {
			fmt.Fprintf(&out, "\t%-6s %s\n", l.Mnemonic, strings.Join(args, ", "))
		} else {
			fmt.Fprintf(&out, "\t%s\n", l.Mnemonic)
		}
	}
	return out.String(), nil
}

// segment is either one code line or a run of data bytes [start, end).
type segment struct {
	start, end int
	line       *Line
}

// isTerminal reports whether execution never falls through to the next
// instruction.
func isTerminal(l *Line) bool {
	switch l.Mnemonic {
	case "HALT", "BR", "JMP", "RTS", "RTI", "RTT":
		return true
	}
	return false
}

// transfersControl reports whether the line's target is code. Deferred
// operands point at a vector, not at the code itself.
func transfersControl(l *Line) bool {
	switch l.Class {
	case cpu.ClassBranch, cpu.ClassSOB:
		return true
	}
	return (l.Mnemonic == "JMP" || l.Mnemonic == "JSR") && l.targetPrefix == ""
}

// labelName generates a label based on the address and its context.
func labelName(addr int, t LabelType) string {
	prefix := "LOC"
	if t == SubroutineEntry {
		prefix = "SUB"
	}
	return fmt.Sprintf("%s%06o", prefix, addr)
}

type addrQueue struct {
	items []int
	seen  map[int]bool
}

func newQueue() *addrQueue {
	return &addrQueue{seen: make(map[int]bool)}
}

func (q *addrQueue) push(addr int) {
	if addr%2 == 1 {
		return
	}
	if !q.seen[addr] {
		q.items = append(q.items, addr)
		q.seen[addr] = true
	}
}

func (q *addrQueue) pop() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	a := q.items[0]
	q.items = q.items[1:]
	return a, true
}
