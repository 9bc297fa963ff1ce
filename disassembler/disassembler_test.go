package disassembler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Urethramancer/pdp11/assembler"
	"github.com/Urethramancer/pdp11/cpu"
)

func TestDisassembleSingle(t *testing.T) {
	tests := []struct {
		name  string
		words []uint16
		want  string
	}{
		{"NOP", []uint16{0o000240}, "NOP"},
		{"HALT", []uint16{0o000000}, "HALT"},
		{"MOV_Registers", []uint16{0o010001}, "MOV R0, R1"},
		{"MOV_Immediate", []uint16{0o012700, 0o000012}, "MOV #12, R0"},
		{"MOV_Index", []uint16{0o016102, 0o000004}, "MOV 4(R1), R2"},
		{"MOVB_Push", []uint16{0o110046}, "MOVB R0, -(SP)"},
		{"CLR_Absolute", []uint16{0o005037, 0o177566}, "CLR @#177566"},
		{"CLR_Relative", []uint16{0o005067, 0o000004}, "CLR 1010"},
		{"CLR_RelativeDeferred", []uint16{0o005077, 0o000004}, "CLR @1010"},
		{"JSR_PC", []uint16{0o004767, 0o000000}, "JSR PC, 1004"},
		{"JSR_Autoincrement", []uint16{0o004531}, "JSR R5, @(R1)+"},
		{"RTS_PC", []uint16{0o000207}, "RTS PC"},
		{"MUL", []uint16{0o070200}, "MUL R0, R2"},
		{"EMT", []uint16{0o104012}, "EMT 24"},
		{"TRAP", []uint16{0o104577}, "TRAP 376"},
		{"MARK", []uint16{0o006403}, "MARK 6"},
		{"SPL", []uint16{0o000233}, "SPL 6"},
		{"BR_Back", []uint16{0o000776}, "BR 776"},
		{"BNE_Forward", []uint16{0o001003}, "BNE 1010"},
		{"BCC_Alias", []uint16{0o103000}, "BCC 1002"},
		{"SOB", []uint16{0o077102}, "SOB R1, 776"},
		{"Unknown", []uint16{0o170000}, ".WORD 170000"},
		{"Truncated", []uint16{0o012700}, ".WORD 12700"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lines, err := Disassemble(cpu.WordsToBytes(tc.words), 0o1000)
			if err != nil {
				t.Fatalf("disassembly failed: %v", err)
			}
			if len(lines) == 0 {
				t.Fatal("no lines decoded")
			}
			if got := lines[0].Text(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDisassembleTrailingByte(t *testing.T) {
	lines, err := Disassemble([]byte{0o240, 0, 1}, 0o1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1].Text() != ".BYTE 1" || lines[1].Address != 0o1002 || lines[1].Size() != 1 {
		t.Errorf("unexpected trailing line %+v", lines[1])
	}
}

func TestDisassembleBadBase(t *testing.T) {
	for _, base := range []int{-2, 0o1001, 0o177776} {
		if _, err := Disassemble([]byte{0, 0, 0, 0}, base); err == nil {
			t.Errorf("base %o: expected an error", base)
		}
	}
}

func TestFormat(t *testing.T) {
	lines, err := Disassemble(cpu.WordsToBytes([]uint16{0o012700, 0o000012, 0o000240}), 0o1000)
	if err != nil {
		t.Fatal(err)
	}
	out := strings.Split(strings.TrimSpace(Format(lines)), "\n")
	if len(out) != 2 {
		t.Fatalf("expected 2 listing lines, got %d:\n%s", len(out), Format(lines))
	}
	if !strings.HasPrefix(out[0], "001000: 012700 000012") || !strings.Contains(out[0], "MOV    #12, R0") {
		t.Errorf("unexpected listing line %q", out[0])
	}
	if !strings.HasPrefix(out[1], "001004: 000240") {
		t.Errorf("unexpected listing line %q", out[1])
	}
}

const program = `
START:	MOV #10, R0
	MOV R0, @#177566
	JSR PC, SUB
LOOP:	SOB R0, LOOP
	BR DONE
SUB:	CLR 4(R1)
	MOVB MSG, R2
	RTS PC
DONE:	HALT
MSG:	.ASCIZ "HELLO"
`

// TestRoundTrip reassembles the linear disassembly of a program.
func TestRoundTrip(t *testing.T) {
	code, err := assembler.New().Assemble(program, 0o1000)
	if err != nil {
		t.Fatalf("failed to assemble: %v", err)
	}
	lines, err := Disassemble(code, 0o1000)
	if err != nil {
		t.Fatalf("failed to disassemble: %v", err)
	}

	var src strings.Builder
	for _, l := range lines {
		src.WriteString(l.Text() + "\n")
	}
	again, err := assembler.New().Assemble(src.String(), 0o1000)
	if err != nil {
		t.Fatalf("failed to reassemble:\n%s\nerror: %v", src.String(), err)
	}
	if !bytes.Equal(code, again) {
		t.Errorf("round trip mismatch\nexpected: %o\ngot:      %o", code, again)
	}
}

func TestSource(t *testing.T) {
	code, err := assembler.New().Assemble(program, 0o1000)
	if err != nil {
		t.Fatalf("failed to assemble: %v", err)
	}
	src, err := Source(code, 0o1000)
	if err != nil {
		t.Fatalf("failed to disassemble: %v", err)
	}

	for _, want := range []string{
		"\t.LINK 1000\n",
		"\tJSR    PC, SUB001020\n",
		"LOC001014:\n\tSOB    R0, LOC001014\n",
		"\tBR     LOC001032\n",
		"SUB001020:\n\tCLR    4(R1)\n",
		"\tMOVB   LOC001034, R2\n",
		"LOC001034:\n\t.ASCIZ \"HELLO\"\n",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("expected %q in output:\n%s", want, src)
		}
	}

	again, err := assembler.New().Assemble(src, 0)
	if err != nil {
		t.Fatalf("failed to reassemble:\n%s\nerror: %v", src, err)
	}
	if !bytes.Equal(code, again) {
		t.Errorf("round trip mismatch\nexpected: %o\ngot:      %o", code, again)
	}
}

func TestSourceSelfLoop(t *testing.T) {
	src, err := Source(cpu.WordsToBytes([]uint16{0o000777}), 0o1000)
	if err != nil {
		t.Fatal(err)
	}
	want := "\t.LINK 1000\nLOC001000:\n\tBR     LOC001000\n"
	if src != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, src)
	}
}

func TestFormatData(t *testing.T) {
	data := append([]byte{1, 2}, []byte("Say \"hi\"\x00")...)
	data = append(data, 3)
	got := formatData(data, 0o2000, map[int]LabelType{0o2002: JumpTarget})
	want := "\t.BYTE  1, 2\nLOC002002:\n\t.ASCIZ \"Say \\\"hi\\\"\"\n\t.BYTE  3\n"
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}
