package cpu

import (
	"sort"
	"strings"
)

// Class identifies how an instruction's operands are encoded.
type Class int

const (
	// ClassZero has no operands.
	ClassZero Class = iota
	// ClassOne has a single destination operand: opcode | dd.
	ClassOne
	// ClassTwo has source and destination: opcode | ss<<6 | dd.
	ClassTwo
	// ClassRegister takes a register and a destination: opcode | r<<6 | dd.
	ClassRegister
	// ClassRegisterSource takes a source and a register: opcode | r<<6 | ss.
	ClassRegisterSource
	// ClassRTS takes a register in the low three bits.
	ClassRTS
	// ClassImmediate takes a small constant in the low bits.
	ClassImmediate
	// ClassBranch takes an 8-bit signed word offset.
	ClassBranch
	// ClassSOB takes a register and a 6-bit backward word offset.
	ClassSOB
)

func (c Class) String() string {
	switch c {
	case ClassZero:
		return "zero-operand"
	case ClassOne:
		return "one-operand"
	case ClassTwo:
		return "two-operand"
	case ClassRegister:
		return "register"
	case ClassRegisterSource:
		return "register-source"
	case ClassRTS:
		return "rts"
	case ClassImmediate:
		return "immediate"
	case ClassBranch:
		return "branch"
	case ClassSOB:
		return "sob"
	}
	return "unknown"
}

// Instruction describes one mnemonic.
type Instruction struct {
	Name   string
	Opcode uint16
	Class  Class
	// Max is the largest accepted immediate value (ClassImmediate only),
	// before the shift.
	Max int
	// Shift is applied to an immediate before it is OR'd into the opcode.
	// The value must be a multiple of 1<<Shift.
	Shift uint
}

// Opcodes for various instructions.
const (
	// Zero-operand instructions
	OPHALT  = 0o000000 // HALT
	OPWAIT  = 0o000001 // WAIT
	OPRTI   = 0o000002 // RTI
	OPBPT   = 0o000003 // BPT
	OPIOT   = 0o000004 // IOT
	OPRESET = 0o000005 // RESET
	OPRTT   = 0o000006 // RTT
	OPMFPT  = 0o000007 // MFPT
	OPNOP   = 0o000240 // NOP
	OPCLC   = 0o000241 // CLC
	OPCLV   = 0o000242 // CLV
	OPCLZ   = 0o000244 // CLZ
	OPCLN   = 0o000250 // CLN
	OPCCC   = 0o000257 // CCC
	OPSEC   = 0o000261 // SEC
	OPSEV   = 0o000262 // SEV
	OPSEZ   = 0o000264 // SEZ
	OPSEN   = 0o000270 // SEN
	OPSCC   = 0o000277 // SCC

	// One-operand instructions
	OPJMP  = 0o000100 // JMP
	OPSWAB = 0o000300 // SWAB
	OPCLR  = 0o005000 // CLR
	OPCLRB = 0o105000 // CLRB
	OPCOM  = 0o005100 // COM
	OPCOMB = 0o105100 // COMB
	OPINC  = 0o005200 // INC
	OPINCB = 0o105200 // INCB
	OPDEC  = 0o005300 // DEC
	OPDECB = 0o105300 // DECB
	OPNEG  = 0o005400 // NEG
	OPNEGB = 0o105400 // NEGB
	OPADC  = 0o005500 // ADC
	OPADCB = 0o105500 // ADCB
	OPSBC  = 0o005600 // SBC
	OPSBCB = 0o105600 // SBCB
	OPTST  = 0o005700 // TST
	OPTSTB = 0o105700 // TSTB
	OPROR  = 0o006000 // ROR
	OPRORB = 0o106000 // RORB
	OPROL  = 0o006100 // ROL
	OPROLB = 0o106100 // ROLB
	OPASR  = 0o006200 // ASR
	OPASRB = 0o106200 // ASRB
	OPASL  = 0o006300 // ASL
	OPASLB = 0o106300 // ASLB
	OPMTPS = 0o106400 // MTPS
	OPMFPI = 0o006500 // MFPI
	OPMFPD = 0o106500 // MFPD
	OPMTPI = 0o006600 // MTPI
	OPMTPD = 0o106600 // MTPD
	OPSXT  = 0o006700 // SXT
	OPMFPS = 0o106700 // MFPS

	// Two-operand instructions
	OPMOV  = 0o010000 // MOV
	OPMOVB = 0o110000 // MOVB
	OPCMP  = 0o020000 // CMP
	OPCMPB = 0o120000 // CMPB
	OPBIT  = 0o030000 // BIT
	OPBITB = 0o130000 // BITB
	OPBIC  = 0o040000 // BIC
	OPBICB = 0o140000 // BICB
	OPBIS  = 0o050000 // BIS
	OPBISB = 0o150000 // BISB
	OPADD  = 0o060000 // ADD
	OPSUB  = 0o160000 // SUB

	// Register instructions
	OPJSR  = 0o004000 // JSR R, dd
	OPXOR  = 0o074000 // XOR R, dd
	OPMUL  = 0o070000 // MUL ss, R
	OPDIV  = 0o071000 // DIV ss, R
	OPASH  = 0o072000 // ASH ss, R
	OPASHC = 0o073000 // ASHC ss, R
	OPRTS  = 0o000200 // RTS R
	OPSOB  = 0o077000 // SOB R, label

	// Immediate instructions
	OPEMT  = 0o104000 // EMT n
	OPTRAP = 0o104400 // TRAP n
	OPMARK = 0o006400 // MARK n
	OPSPL  = 0o000230 // SPL n

	// Branch instructions (8-bit offset OR'd in)
	OPBR   = 0o000400 // Branch always
	OPBNE  = 0o001000 // Branch if not equal
	OPBEQ  = 0o001400 // Branch if equal
	OPBGE  = 0o002000 // Branch if greater or equal
	OPBLT  = 0o002400 // Branch if less than
	OPBGT  = 0o003000 // Branch if greater than
	OPBLE  = 0o003400 // Branch if less or equal
	OPBPL  = 0o100000 // Branch if plus
	OPBMI  = 0o100400 // Branch if minus
	OPBHI  = 0o101000 // Branch if higher
	OPBLOS = 0o101400 // Branch if lower or same
	OPBVC  = 0o102000 // Branch if overflow clear
	OPBVS  = 0o102400 // Branch if overflow set
	OPBCC  = 0o103000 // Branch if carry clear (BHIS)
	OPBCS  = 0o103400 // Branch if carry set (BLO)
)

// ZeroOperand maps zero-operand mnemonics to their opcodes.
var ZeroOperand = map[string]uint16{
	"HALT": OPHALT, "WAIT": OPWAIT, "RTI": OPRTI, "BPT": OPBPT,
	"IOT": OPIOT, "RESET": OPRESET, "RTT": OPRTT, "MFPT": OPMFPT,
	"NOP": OPNOP, "CLC": OPCLC, "CLV": OPCLV, "CLZ": OPCLZ,
	"CLN": OPCLN, "CCC": OPCCC, "SEC": OPSEC, "SEV": OPSEV,
	"SEZ": OPSEZ, "SEN": OPSEN, "SCC": OPSCC,
}

// OneOperand maps single-operand mnemonics to their base opcodes.
var OneOperand = map[string]uint16{
	"JMP": OPJMP, "SWAB": OPSWAB,
	"CLR": OPCLR, "CLRB": OPCLRB, "COM": OPCOM, "COMB": OPCOMB,
	"INC": OPINC, "INCB": OPINCB, "DEC": OPDEC, "DECB": OPDECB,
	"NEG": OPNEG, "NEGB": OPNEGB, "ADC": OPADC, "ADCB": OPADCB,
	"SBC": OPSBC, "SBCB": OPSBCB, "TST": OPTST, "TSTB": OPTSTB,
	"ROR": OPROR, "RORB": OPRORB, "ROL": OPROL, "ROLB": OPROLB,
	"ASR": OPASR, "ASRB": OPASRB, "ASL": OPASL, "ASLB": OPASLB,
	"MTPS": OPMTPS, "MFPI": OPMFPI, "MFPD": OPMFPD, "MTPI": OPMTPI,
	"MTPD": OPMTPD, "SXT": OPSXT, "MFPS": OPMFPS,
}

// TwoOperand maps double-operand mnemonics to their base opcodes.
var TwoOperand = map[string]uint16{
	"MOV": OPMOV, "MOVB": OPMOVB, "CMP": OPCMP, "CMPB": OPCMPB,
	"BIT": OPBIT, "BITB": OPBITB, "BIC": OPBIC, "BICB": OPBICB,
	"BIS": OPBIS, "BISB": OPBISB, "ADD": OPADD, "SUB": OPSUB,
}

// RegisterOperand maps "R, dd" mnemonics to their base opcodes.
var RegisterOperand = map[string]uint16{
	"JSR": OPJSR, "XOR": OPXOR,
}

// RegisterSource maps "ss, R" mnemonics to their base opcodes.
var RegisterSource = map[string]uint16{
	"MUL": OPMUL, "DIV": OPDIV, "ASH": OPASH, "ASHC": OPASHC,
}

// BranchOpcodes maps branch mnemonics to their base opcodes.
var BranchOpcodes = map[string]uint16{
	"BR": OPBR, "BNE": OPBNE, "BEQ": OPBEQ, "BGE": OPBGE,
	"BLT": OPBLT, "BGT": OPBGT, "BLE": OPBLE, "BPL": OPBPL,
	"BMI": OPBMI, "BHI": OPBHI, "BLOS": OPBLOS, "BVC": OPBVC,
	"BVS": OPBVS, "BCC": OPBCC, "BHIS": OPBCC, "BCS": OPBCS,
	"BLO": OPBCS,
}

// ImmediateOperand lists instructions taking a small constant. The operand
// is written in byte units and stored halved.
var ImmediateOperand = map[string]Instruction{
	"EMT":  {Opcode: OPEMT, Max: 0o377, Shift: 1},
	"TRAP": {Opcode: OPTRAP, Max: 0o377, Shift: 1},
	"MARK": {Opcode: OPMARK, Max: 0o77, Shift: 1},
	"SPL":  {Opcode: OPSPL, Max: 0o7, Shift: 1},
}

var table = buildTable()

func buildTable() map[string]Instruction {
	t := make(map[string]Instruction)
	add := func(m map[string]uint16, c Class) {
		for name, op := range m {
			t[name] = Instruction{Name: name, Opcode: op, Class: c}
		}
	}
	add(ZeroOperand, ClassZero)
	add(OneOperand, ClassOne)
	add(TwoOperand, ClassTwo)
	add(RegisterOperand, ClassRegister)
	add(RegisterSource, ClassRegisterSource)
	add(BranchOpcodes, ClassBranch)
	for name, ins := range ImmediateOperand {
		ins.Name = name
		ins.Class = ClassImmediate
		t[name] = ins
	}
	t["RTS"] = Instruction{Name: "RTS", Opcode: OPRTS, Class: ClassRTS}
	t["SOB"] = Instruction{Name: "SOB", Opcode: OPSOB, Class: ClassSOB}
	return t
}

// Lookup finds an instruction by mnemonic, ignoring case.
func Lookup(mnemonic string) (Instruction, bool) {
	ins, ok := table[strings.ToUpper(mnemonic)]
	return ins, ok
}

// Instructions returns every known instruction sorted by name.
func Instructions() []Instruction {
	out := make([]Instruction, 0, len(table))
	for _, ins := range table {
		out = append(out, ins)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
