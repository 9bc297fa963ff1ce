package assembler

import (
	"github.com/Urethramancer/pdp11/cpu"
	"github.com/Urethramancer/pdp11/deferred"
)

// encodeBranch encodes a conditional or unconditional branch. The offset is
// counted in words from the instruction after the branch.
func encodeBranch(ins cpu.Instruction, ops []Operand, pc deferred.Value, pos Position) (deferred.Value, error) {
	if err := checkExpression(ins, ops[0], pos); err != nil {
		return deferred.Value{}, err
	}
	offset := deferred.Sub(ops[0].Value, deferred.AddInt(pc, 2))
	return deferred.MapInt(offset, func(off int) (int, error) {
		if off%2 != 0 {
			return 0, newError(pos, ErrAlignment, "Unaligned branch: %s bytes", octal(off))
		}
		off /= 2
		if off < -128 || off > 127 {
			return 0, newError(pos, ErrRange, "Too far branch: %s words", octal(off))
		}
		return int(ins.Opcode) | off&0xFF, nil
	}), nil
}

// encodeSOB encodes subtract-one-and-branch. SOB only branches backwards.
func encodeSOB(ins cpu.Instruction, ops []Operand, pc deferred.Value, pos Position) (deferred.Value, error) {
	if err := checkRegister(ins, ops[0], pos); err != nil {
		return deferred.Value{}, err
	}
	if err := checkExpression(ins, ops[1], pos); err != nil {
		return deferred.Value{}, err
	}
	reg := int(ops[0].Register)
	offset := deferred.Sub(deferred.AddInt(pc, 2), ops[1].Value)
	return deferred.MapInt(offset, func(off int) (int, error) {
		if off%2 != 0 {
			return 0, newError(pos, ErrAlignment, "Unaligned SOB: %s bytes", octal(off))
		}
		off /= 2
		if off < 0 || off > 63 {
			return 0, newError(pos, ErrRange, "Too far SOB: %s words", octal(off))
		}
		return int(ins.Opcode) | reg<<6 | off, nil
	}), nil
}

// encodeRTS encodes a return through the given linkage register.
func encodeRTS(ins cpu.Instruction, ops []Operand, _ deferred.Value, pos Position) (deferred.Value, error) {
	if err := checkRegister(ins, ops[0], pos); err != nil {
		return deferred.Value{}, err
	}
	return deferred.Int(int(ins.Opcode | uint16(ops[0].Register))), nil
}
