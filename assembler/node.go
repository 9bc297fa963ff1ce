package assembler

import (
	"github.com/Urethramancer/pdp11/cpu"
	"github.com/Urethramancer/pdp11/deferred"
)

// Op defines the kind of a parsed command.
type Op int

const (
	// OpNone is a line carrying only labels.
	OpNone Op = iota
	// OpInstruction is a machine instruction.
	OpInstruction
	OpLink
	OpInclude
	OpPDP11
	OpI8080
	OpSyntax
	OpByte
	OpWord
	OpEnd
	OpBlkb
	OpBlkw
	OpEven
	OpAlign
	OpASCII
	OpASCIZ
	OpMakeRaw
	OpMakeBin
	OpConvertKOI8R
	OpDecimalNumbers
	OpInsertFile
	OpEqu
	OpRepeat
)

// directives maps directive names to their command kinds.
var directives = map[string]Op{
	".LINK":               OpLink,
	".LA":                 OpLink,
	".INCLUDE":            OpInclude,
	".PDP11":              OpPDP11,
	".I8080":              OpI8080,
	".SYNTAX":             OpSyntax,
	".BYTE":               OpByte,
	".WORD":               OpWord,
	".END":                OpEnd,
	".BLKB":               OpBlkb,
	".BLKW":               OpBlkw,
	".EVEN":               OpEven,
	".ALIGN":              OpAlign,
	".ASCII":              OpASCII,
	".ASCIZ":              OpASCIZ,
	".MAKE_RAW":           OpMakeRaw,
	".MAKE_BIN":           OpMakeBin,
	".CONVERT1251TOKOI8R": OpConvertKOI8R,
	".DECIMALNUMBERS":     OpDecimalNumbers,
	".INSERT_FILE":        OpInsertFile,
	".EQU":                OpEqu,
	".REPEAT":             OpRepeat,
}

// Command represents one parsed statement.
type Command struct {
	Op Op
	// Mnemonic is the upper-cased instruction or directive name.
	Mnemonic string
	Operands []Operand
	// Values holds directive arguments: data elements, counts, addresses.
	Values []deferred.Value
	// Text is a string argument: file names, .ASCII text, syntax names.
	Text string
	// Name is the constant defined by .EQU.
	Name string
	// Body holds the commands of a .REPEAT block.
	Body   []*Command
	Labels []string
	Pos    Position
}

// OperandKind tells register operands from plain expressions.
type OperandKind int

const (
	// OperandAddress is a general addressing-mode operand.
	OperandAddress OperandKind = iota
	// OperandRegister is a bare register (RTS, SOB, JSR first operand).
	OperandRegister
	// OperandExpression is a bare expression (branch targets, immediates).
	OperandExpression
)

// Operand represents a parsed instruction operand.
type Operand struct {
	Kind     OperandKind
	Mode     cpu.Mode
	Register cpu.Register
	// Value is the extra word of an addressing operand, or the expression of
	// an OperandExpression.
	Value    deferred.Value
	HasValue bool
	// Relative marks an extra word that is stored relative to the PC.
	Relative bool
	Raw      string
}

// Field returns the 6-bit mode/register field.
func (o Operand) Field() uint16 {
	return cpu.EncodeOperand(o.Mode, o.Register)
}
