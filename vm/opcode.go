package vm

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Parameter modes
// ---------------------------------------------------------------------------

type parameterMode uint8

const (
	modePosition  parameterMode = 0
	modeImmediate parameterMode = 1
	modeRelative  parameterMode = 2
)

// decodeMode extracts one mode digit. raw is the full instruction word,
// carried into the error so diagnostics show the offending instruction.
func decodeMode(digit, raw Value) (parameterMode, error) {
	switch digit % 10 {
	case 0:
		return modePosition, nil
	case 1:
		return modeImmediate, nil
	case 2:
		return modeRelative, nil
	}
	return 0, InvalidParameterModeError{Raw: raw}
}

// ---------------------------------------------------------------------------
// Arguments
// ---------------------------------------------------------------------------

// argument is one decoded operand: a parameter mode plus the raw word that
// followed the opcode.
type argument struct {
	mode    parameterMode
	operand Value
}

func (a argument) read(m *Machine) Value {
	switch a.mode {
	case modeImmediate:
		return a.operand
	case modeRelative:
		return m.Read(m.relativeBase + a.operand)
	default:
		return m.Read(a.operand)
	}
}

func (a argument) write(m *Machine, v Value) {
	switch a.mode {
	case modePosition:
		m.Write(a.operand, v)
	case modeRelative:
		m.Write(m.relativeBase+a.operand, v)
	default:
		// Well-formed programs never encode an immediate write target.
		panic(fmt.Sprintf("intcode: write into immediate argument %d", a.operand))
	}
}

func (a argument) String() string {
	switch a.mode {
	case modeImmediate:
		return strconv.FormatInt(a.operand, 10)
	case modeRelative:
		return fmt.Sprintf("$%+d", a.operand)
	default:
		return fmt.Sprintf("#%d", a.operand)
	}
}

// ---------------------------------------------------------------------------
// Instruction set
// ---------------------------------------------------------------------------

// The instruction set is a closed set of shapes, one per arity. Each shape
// carries its opcode and the parameter modes for its operands; Step
// dispatches on the shape. New opcodes are added here and nowhere else.

type nonaryOp uint8

const opHalt nonaryOp = 99

func (op nonaryOp) String() string {
	return "Halt"
}

type unaryOp uint8

const (
	opInput              unaryOp = 3
	opOutput             unaryOp = 4
	opAdjustRelativeBase unaryOp = 9
)

func (op unaryOp) String() string {
	switch op {
	case opInput:
		return "Input"
	case opOutput:
		return "Output"
	default:
		return "AdjustRelativeBase"
	}
}

type binaryOp uint8

const (
	opJumpIfTrue  binaryOp = 5
	opJumpIfFalse binaryOp = 6
)

func (op binaryOp) String() string {
	if op == opJumpIfTrue {
		return "JumpIfTrue"
	}
	return "JumpIfFalse"
}

type trinaryOp uint8

const (
	opAdd      trinaryOp = 1
	opMul      trinaryOp = 2
	opLessThan trinaryOp = 7
	opEquals   trinaryOp = 8
)

func (op trinaryOp) String() string {
	switch op {
	case opAdd:
		return "Add"
	case opMul:
		return "Mul"
	case opLessThan:
		return "LessThan"
	default:
		return "Equals"
	}
}

type instruction interface {
	width() Value
}

type nonaryInstr struct {
	op nonaryOp
}

func (nonaryInstr) width() Value { return 1 }

type unaryInstr struct {
	op    unaryOp
	mode1 parameterMode
}

func (unaryInstr) width() Value { return 2 }

type binaryInstr struct {
	op    binaryOp
	mode1 parameterMode
	mode2 parameterMode
}

func (binaryInstr) width() Value { return 3 }

type trinaryInstr struct {
	op    trinaryOp
	mode1 parameterMode
	mode2 parameterMode
	mode3 parameterMode
}

func (trinaryInstr) width() Value { return 4 }

// decode splits an instruction word into its shape. The opcode is the word
// mod 100; mode digits follow in increasing powers of ten, one per operand.
func decode(word Value) (instruction, error) {
	switch word % 100 {
	case 1, 2, 7, 8:
		m1, err := decodeMode(word/100, word)
		if err != nil {
			return nil, err
		}
		m2, err := decodeMode(word/1_000, word)
		if err != nil {
			return nil, err
		}
		m3, err := decodeMode(word/10_000, word)
		if err != nil {
			return nil, err
		}
		return trinaryInstr{op: trinaryOp(word % 100), mode1: m1, mode2: m2, mode3: m3}, nil
	case 3, 4, 9:
		m1, err := decodeMode(word/100, word)
		if err != nil {
			return nil, err
		}
		return unaryInstr{op: unaryOp(word % 100), mode1: m1}, nil
	case 5, 6:
		m1, err := decodeMode(word/100, word)
		if err != nil {
			return nil, err
		}
		m2, err := decodeMode(word/1_000, word)
		if err != nil {
			return nil, err
		}
		return binaryInstr{op: binaryOp(word % 100), mode1: m1, mode2: m2}, nil
	case 99:
		return nonaryInstr{op: opHalt}, nil
	}
	return nil, InvalidInstructionError{Raw: word}
}

// ---------------------------------------------------------------------------
// Instruction execution
// ---------------------------------------------------------------------------

func (in unaryInstr) execute(arg1 argument, m *Machine) error {
	switch in.op {
	case opInput:
		v, err := m.popInput()
		if err != nil {
			return err
		}
		arg1.write(m, v)
	case opOutput:
		m.pushOutput(arg1.read(m))
	case opAdjustRelativeBase:
		m.relativeBase += arg1.read(m)
	}
	return nil
}

// execute returns the jump target and whether the jump was taken.
func (in binaryInstr) execute(arg1, arg2 argument, m *Machine) (Value, bool) {
	switch in.op {
	case opJumpIfTrue:
		if arg1.read(m) != 0 {
			return arg2.read(m), true
		}
	case opJumpIfFalse:
		if arg1.read(m) == 0 {
			return arg2.read(m), true
		}
	}
	return 0, false
}

func (in trinaryInstr) execute(arg1, arg2, arg3 argument, m *Machine) {
	switch in.op {
	case opAdd:
		arg3.write(m, arg1.read(m)+arg2.read(m))
	case opMul:
		arg3.write(m, arg1.read(m)*arg2.read(m))
	case opLessThan:
		arg3.write(m, boolValue(arg1.read(m) < arg2.read(m)))
	case opEquals:
		arg3.write(m, boolValue(arg1.read(m) == arg2.read(m)))
	}
}

func boolValue(b bool) Value {
	if b {
		return 1
	}
	return 0
}
