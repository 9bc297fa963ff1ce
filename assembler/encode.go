package assembler

import (
	"github.com/Urethramancer/pdp11/cpu"
	"github.com/Urethramancer/pdp11/deferred"
)

// encoder produces the primary word of an instruction. pc is the address of
// that word.
type encoder func(ins cpu.Instruction, ops []Operand, pc deferred.Value, pos Position) (deferred.Value, error)

var encoders = map[cpu.Class]encoder{
	cpu.ClassZero:           encodeZero,
	cpu.ClassOne:            encodeOne,
	cpu.ClassTwo:            encodeTwo,
	cpu.ClassRegister:       encodeRegister,
	cpu.ClassRegisterSource: encodeRegisterSource,
	cpu.ClassRTS:            encodeRTS,
	cpu.ClassImmediate:      encodeImmediate,
	cpu.ClassBranch:         encodeBranch,
	cpu.ClassSOB:            encodeSOB,
}

// operandCounts is the number of operands each class takes.
var operandCounts = map[cpu.Class]int{
	cpu.ClassZero:           0,
	cpu.ClassOne:            1,
	cpu.ClassTwo:            2,
	cpu.ClassRegister:       2,
	cpu.ClassRegisterSource: 2,
	cpu.ClassRTS:            1,
	cpu.ClassImmediate:      1,
	cpu.ClassBranch:         1,
	cpu.ClassSOB:            2,
}

// encodeInstruction returns every word of the instruction: the primary word
// followed by the extra words of its operands, in operand order.
func encodeInstruction(ins cpu.Instruction, ops []Operand, pc deferred.Value, pos Position) ([]deferred.Value, error) {
	if want := operandCounts[ins.Class]; len(ops) != want {
		return nil, newError(pos, ErrOperands, "%s takes %d operand(s), got %d", ins.Name, want, len(ops))
	}
	enc, ok := encoders[ins.Class]
	if !ok {
		return nil, newError(pos, ErrUnknownCommand, "Unknown command %s", ins.Name)
	}
	primary, err := enc(ins, ops, pc, pos)
	if err != nil {
		return nil, err
	}
	return append([]deferred.Value{primary}, extraWords(ops, pc)...), nil
}

// extraWords collects the words that follow the primary word. A relative
// operand stores the distance from the end of its own word to the target.
func extraWords(ops []Operand, pc deferred.Value) []deferred.Value {
	var words []deferred.Value
	for _, op := range ops {
		if op.Kind != OperandAddress || !op.HasValue {
			continue
		}
		v := op.Value
		if op.Relative {
			// This word sits at pc + 2*(len(words)+1).
			next := deferred.AddInt(pc, 2*(len(words)+1)+2)
			v = deferred.Sub(v, next)
		}
		words = append(words, v)
	}
	return words
}

func encodeZero(ins cpu.Instruction, _ []Operand, _ deferred.Value, _ Position) (deferred.Value, error) {
	return deferred.Int(int(ins.Opcode)), nil
}

func encodeOne(ins cpu.Instruction, ops []Operand, _ deferred.Value, pos Position) (deferred.Value, error) {
	if err := checkAddress(ins, ops[0], pos); err != nil {
		return deferred.Value{}, err
	}
	return deferred.Int(int(ins.Opcode | ops[0].Field())), nil
}

func encodeTwo(ins cpu.Instruction, ops []Operand, _ deferred.Value, pos Position) (deferred.Value, error) {
	for _, op := range ops {
		if err := checkAddress(ins, op, pos); err != nil {
			return deferred.Value{}, err
		}
	}
	return deferred.Int(int(ins.Opcode | ops[0].Field()<<6 | ops[1].Field())), nil
}

// encodeRegister handles "R, dd" instructions such as JSR and XOR.
func encodeRegister(ins cpu.Instruction, ops []Operand, _ deferred.Value, pos Position) (deferred.Value, error) {
	if err := checkRegister(ins, ops[0], pos); err != nil {
		return deferred.Value{}, err
	}
	if err := checkAddress(ins, ops[1], pos); err != nil {
		return deferred.Value{}, err
	}
	return deferred.Int(int(ins.Opcode | uint16(ops[0].Register)<<6 | ops[1].Field())), nil
}

// encodeRegisterSource handles "ss, R" instructions such as MUL and ASH.
func encodeRegisterSource(ins cpu.Instruction, ops []Operand, _ deferred.Value, pos Position) (deferred.Value, error) {
	if err := checkAddress(ins, ops[0], pos); err != nil {
		return deferred.Value{}, err
	}
	if err := checkRegister(ins, ops[1], pos); err != nil {
		return deferred.Value{}, err
	}
	return deferred.Int(int(ins.Opcode | uint16(ops[1].Register)<<6 | ops[0].Field())), nil
}

func encodeImmediate(ins cpu.Instruction, ops []Operand, _ deferred.Value, pos Position) (deferred.Value, error) {
	if err := checkExpression(ins, ops[0], pos); err != nil {
		return deferred.Value{}, err
	}
	mask := 1<<ins.Shift - 1
	return deferred.MapInt(ops[0].Value, func(v int) (int, error) {
		switch {
		case v > ins.Max:
			return 0, newError(pos, ErrRange, "Too big immediate value: %s", octal(v))
		case v < 0:
			return 0, newError(pos, ErrRange, "Negative immediate value: %s", octal(v))
		case v&mask != 0:
			return 0, newError(pos, ErrRange, "Odd immediate value: %s", octal(v))
		}
		return int(ins.Opcode) | v>>ins.Shift, nil
	}), nil
}

func checkAddress(ins cpu.Instruction, op Operand, pos Position) error {
	if op.Kind != OperandAddress {
		return newError(pos, ErrOperands, "%s: invalid operand %s", ins.Name, op.Raw)
	}
	return nil
}

func checkRegister(ins cpu.Instruction, op Operand, pos Position) error {
	if op.Kind != OperandRegister {
		return newError(pos, ErrOperands, "%s: expected a register, got %s", ins.Name, op.Raw)
	}
	return nil
}

func checkExpression(ins cpu.Instruction, op Operand, pos Position) error {
	if op.Kind != OperandExpression || !op.HasValue {
		return newError(pos, ErrOperands, "%s: expected an expression, got %s", ins.Name, op.Raw)
	}
	return nil
}
