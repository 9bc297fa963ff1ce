package assembler

import (
	"errors"
	"io"
	"testing"

	"github.com/Urethramancer/pdp11/cpu"
	"github.com/Urethramancer/pdp11/deferred"
)

func parseAll(t *testing.T, src string) []*Command {
	t.Helper()
	p := NewParser("test.mac", src)
	var cmds []*Command
	for {
		cmd, err := p.Next()
		if err == io.EOF {
			return cmds
		}
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		cmds = append(cmds, cmd)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		text    string
		decimal bool
		want    int
	}{
		{"10", false, 8},
		{"10", true, 10},
		{"10.", false, 10},
		{"177777", false, 0o177777},
		{"0x1F", false, 31},
		{"0b101", false, 5},
		{"0o17", true, 15},
	}
	for _, tc := range tests {
		got, err := parseNumber(tc.text, tc.decimal)
		if err != nil {
			t.Errorf("%s: %v", tc.text, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.text, tc.want, got)
		}
	}

	for _, bad := range []string{"19", "0xZZ", "1A"} {
		if _, err := parseNumber(bad, false); err == nil {
			t.Errorf("%s: expected an error", bad)
		}
	}
}

func TestParseLabels(t *testing.T) {
	cmds := parseAll(t, "START: LOOP:\n\n  ; comment only\nEND: nop ; trailing")
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Op != OpNone || len(cmds[0].Labels) != 2 || cmds[0].Labels[1] != "LOOP" {
		t.Errorf("unexpected label command %+v", cmds[0])
	}
	if cmds[1].Op != OpInstruction || cmds[1].Mnemonic != "NOP" || cmds[1].Labels[0] != "END" {
		t.Errorf("unexpected instruction %+v", cmds[1])
	}
	if cmds[1].Pos.Line != 4 || cmds[1].Pos.Column != 6 {
		t.Errorf("unexpected position %v", cmds[1].Pos)
	}
}

func TestParseOperands(t *testing.T) {
	tests := []struct {
		src      string
		mode     cpu.Mode
		reg      cpu.Register
		hasValue bool
		relative bool
	}{
		{"R3", cpu.ModeRegister, cpu.R3, false, false},
		{"sp", cpu.ModeRegister, cpu.SP, false, false},
		{"@R1", cpu.ModeRegisterDeferred, cpu.R1, false, false},
		{"(R1)", cpu.ModeRegisterDeferred, cpu.R1, false, false},
		{"(R2)+", cpu.ModeAutoIncrement, cpu.R2, false, false},
		{"@(R2)+", cpu.ModeAutoIncrementDeferred, cpu.R2, false, false},
		{"-(SP)", cpu.ModeAutoDecrement, cpu.SP, false, false},
		{"@-(R4)", cpu.ModeAutoDecrementDeferred, cpu.R4, false, false},
		{"6(R5)", cpu.ModeIndex, cpu.R5, true, false},
		{"X+2(R5)", cpu.ModeIndex, cpu.R5, true, false},
		{"@6(R5)", cpu.ModeIndexDeferred, cpu.R5, true, false},
		{"@(R0)", cpu.ModeIndexDeferred, cpu.R0, true, false},
		{"#12", cpu.ModeAutoIncrement, cpu.PC, true, false},
		{"@#177560", cpu.ModeAutoIncrementDeferred, cpu.PC, true, false},
		{"LABEL", cpu.ModeIndex, cpu.PC, true, true},
		{"@LABEL", cpu.ModeIndexDeferred, cpu.PC, true, true},
		{"(LABEL)", cpu.ModeIndex, cpu.PC, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			cmds := parseAll(t, "CLR "+tc.src)
			op := cmds[0].Operands[0]
			if op.Mode != tc.mode || op.Register != tc.reg || op.HasValue != tc.hasValue || op.Relative != tc.relative {
				t.Errorf("unexpected operand %+v", op)
			}
		})
	}
}

func TestParseOperandValues(t *testing.T) {
	cmds := parseAll(t, "MOV #'A', @#10+2")
	ops := cmds[0].Operands
	if len(ops) != 2 {
		t.Fatalf("expected 2 operands, got %d", len(ops))
	}
	for i, want := range []int{65, 10} {
		got, err := deferred.ResolveInt(ops[i].Value, nil)
		if err != nil || got != want {
			t.Errorf("operand %d: expected %d, got %d (%v)", i, want, got, err)
		}
	}
	if ops[1].Raw != "@#10+2" {
		t.Errorf("unexpected raw text %q", ops[1].Raw)
	}
}

func TestParseClassOperands(t *testing.T) {
	cmds := parseAll(t, "SOB R1, LOOP\nRTS PC\nBR LOOP+2\nEMT #10")
	if cmds[0].Operands[0].Kind != OperandRegister || cmds[0].Operands[1].Kind != OperandExpression {
		t.Errorf("unexpected SOB operands %+v", cmds[0].Operands)
	}
	if cmds[1].Operands[0].Kind != OperandRegister || cmds[1].Operands[0].Register != cpu.PC {
		t.Errorf("unexpected RTS operand %+v", cmds[1].Operands[0])
	}
	if cmds[3].Operands[0].Kind != OperandExpression {
		t.Errorf("unexpected EMT operand %+v", cmds[3].Operands[0])
	}
}

func TestParseDirectives(t *testing.T) {
	src := `
	.LA 1000
	.WORD 1, 2, 3
	.INCLUDE "lib.mac"
	.MAKE_BIN
	COUNT = 4
	.EQU SIZE, 10
	.REPEAT COUNT
	{
		NOP
		.REPEAT 2 {
			HALT
		}
	}
`
	cmds := parseAll(t, src)
	if len(cmds) != 7 {
		t.Fatalf("expected 7 commands, got %d", len(cmds))
	}
	want := []Op{OpLink, OpWord, OpInclude, OpMakeBin, OpEqu, OpEqu, OpRepeat}
	for i, op := range want {
		if cmds[i].Op != op {
			t.Errorf("command %d: expected op %d, got %d", i, op, cmds[i].Op)
		}
	}
	if len(cmds[1].Values) != 3 {
		t.Errorf("expected 3 .WORD values, got %d", len(cmds[1].Values))
	}
	if cmds[2].Text != "lib.mac" || cmds[3].Text != "" {
		t.Errorf("unexpected string arguments %q %q", cmds[2].Text, cmds[3].Text)
	}
	if cmds[4].Name != "COUNT" || cmds[5].Name != "SIZE" {
		t.Errorf("unexpected constants %q %q", cmds[4].Name, cmds[5].Name)
	}
	rep := cmds[6]
	if len(rep.Body) != 2 || rep.Body[1].Op != OpRepeat || len(rep.Body[1].Body) != 1 {
		t.Errorf("unexpected .REPEAT body %+v", rep.Body)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
	}{
		{"UnterminatedString", `.ASCII "abc`, ErrSyntax},
		{"BadCharacter", "MOV R0, R1 !", ErrSyntax},
		{"UnknownDirective", ".NOPE", ErrUnknownCommand},
		{"MissingString", ".INCLUDE lib", ErrSyntax},
		{"TrailingTokens", ".EVEN 2", ErrSyntax},
		{"RegisterInExpression", ".WORD R0+1", ErrSyntax},
		{"RegisterLabel", "R0: NOP", ErrSyntax},
		{"MissingBrace", ".REPEAT 2\nNOP", ErrSyntax},
		{"BadNumber", ".WORD 9", ErrSyntax},
		{"UnbalancedParen", ".WORD (1+2", ErrSyntax},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewParser("bad.mac", tc.src)
			var err error
			for err == nil {
				_, err = p.Next()
			}
			if err == io.EOF {
				t.Fatal("expected a parse error")
			}
			if !errors.Is(err, tc.kind) {
				t.Errorf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}
