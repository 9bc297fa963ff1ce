package cpu

import (
	"fmt"
	"strings"
)

// Mode is a 3-bit addressing mode field.
type Mode uint16

// Addressing mode constants (3-bit mode field + 3-bit register field)
const (
	// 0 — Register: Rn
	ModeRegister Mode = 0

	// 1 — Register deferred: (Rn), @Rn
	ModeRegisterDeferred Mode = 1

	// 2 — Autoincrement: (Rn)+
	ModeAutoIncrement Mode = 2

	// 3 — Autoincrement deferred: @(Rn)+
	ModeAutoIncrementDeferred Mode = 3

	// 4 — Autodecrement: -(Rn)
	ModeAutoDecrement Mode = 4

	// 5 — Autodecrement deferred: @-(Rn)
	ModeAutoDecrementDeferred Mode = 5

	// 6 — Index: N(Rn)
	ModeIndex Mode = 6

	// 7 — Index deferred: @N(Rn)
	ModeIndexDeferred Mode = 7
)

// HasExtraWord reports whether the mode reads a word following the
// instruction. Modes 2 and 3 only do so with PC as the register (immediate
// and absolute operands).
func (m Mode) HasExtraWord(r Register) bool {
	switch m {
	case ModeIndex, ModeIndexDeferred:
		return true
	case ModeAutoIncrement, ModeAutoIncrementDeferred:
		return r == PC
	}
	return false
}

// Register is a general register number, 0-7.
type Register uint16

// Register numbers
const (
	R0 Register = 0
	R1 Register = 1
	R2 Register = 2
	R3 Register = 3
	R4 Register = 4
	R5 Register = 5
	SP Register = 6 // stack pointer, R6
	PC Register = 7 // program counter, R7
)

// ParseRegister maps R0-R7, SP and PC (any case) to a register number.
func ParseRegister(s string) (Register, bool) {
	switch strings.ToUpper(s) {
	case "R0":
		return R0, true
	case "R1":
		return R1, true
	case "R2":
		return R2, true
	case "R3":
		return R3, true
	case "R4":
		return R4, true
	case "R5":
		return R5, true
	case "R6", "SP":
		return SP, true
	case "R7", "PC":
		return PC, true
	}
	return 0, false
}

// String returns the conventional name: SP and PC for R6 and R7.
func (r Register) String() string {
	switch r {
	case SP:
		return "SP"
	case PC:
		return "PC"
	}
	return fmt.Sprintf("R%d", uint16(r))
}

// EncodeOperand packs a mode and register into the 6-bit operand field.
func EncodeOperand(m Mode, r Register) uint16 {
	return uint16(m&7)<<3 | uint16(r&7)
}

// DecodeOperand splits a 6-bit operand field.
func DecodeOperand(field uint16) (Mode, Register) {
	return Mode(field>>3) & 7, Register(field & 7)
}
