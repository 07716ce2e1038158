// Package vm implements the Intcode virtual machine: a stored program of
// signed integers executed one instruction at a time over a growable memory
// tape, with position, immediate and relative addressing, FIFO input/output
// queues, and cooperative suspend/resume for interactive callers.
package vm

import (
	"errors"
	"strings"

	"github.com/tliron/commonlog"
)

// Value is the machine word. Programs routinely compute values outside
// 32-bit range, so the full 64-bit range is part of the contract.
type Value = int64

var traceLog = commonlog.GetLogger("intcode.vm")

// ---------------------------------------------------------------------------
// Machine
// ---------------------------------------------------------------------------

// State is the machine run state. The only transition to Stopped is the
// Halt instruction; the only way back to Running is Reset.
type State uint8

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	if s == Running {
		return "Running"
	}
	return "Stopped"
}

// Machine is a single Intcode interpreter instance. It exclusively owns its
// memory and queues and is not safe for concurrent use; callers that want
// parallel machines construct independent instances.
type Machine struct {
	memory       []Value
	ip           Value
	relativeBase Value
	state        State
	inputs       []Value
	outputs      []Value
	trace        bool
}

// NewMachine creates a machine with the program loaded at address 0, both
// queues empty, and all registers zeroed.
func NewMachine(program []Value) *Machine {
	m := &Machine{}
	m.Reset(program)
	return m
}

// Reset reloads the machine with a program, equivalent to constructing a
// fresh instance. Memory is resized to exactly the program length so no high
// memory from a previous, larger load leaks into the new one. Registers and
// both queues are cleared and the state returns to Running.
func (m *Machine) Reset(program []Value) {
	m.memory = make([]Value, len(program))
	copy(m.memory, program)
	m.ip = 0
	m.relativeBase = 0
	m.state = Running
	m.inputs = nil
	m.outputs = nil
}

// State reports whether the machine is Running or Stopped.
func (m *Machine) State() State {
	return m.state
}

// SetTrace enables per-instruction trace logging: one line per executed
// instruction with its address, mnemonic and resolved operands. A debugging
// aid only; tracing does not affect execution.
func (m *Machine) SetTrace(on bool) {
	m.trace = on
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

// Read returns the word at addr. Addresses past the end of memory, and
// negative addresses, read as 0.
func (m *Machine) Read(addr Value) Value {
	if addr < 0 || addr >= Value(len(m.memory)) {
		return 0
	}
	return m.memory[addr]
}

// Write stores v at addr, growing memory (zero-filled) when addr is past the
// current end. Writing to a negative address panics: no correctly encoded
// program does this, so it indicates a machine or program bug.
func (m *Machine) Write(addr, v Value) {
	if addr < 0 {
		panic("intcode: tried to write to negative address")
	}
	if addr >= Value(len(m.memory)) {
		grown := make([]Value, addr+1)
		copy(grown, m.memory)
		m.memory = grown
	}
	m.memory[addr] = v
}

// Memory returns a copy of the current memory contents.
func (m *Machine) Memory() []Value {
	out := make([]Value, len(m.memory))
	copy(out, m.memory)
	return out
}

// ---------------------------------------------------------------------------
// I/O queues
// ---------------------------------------------------------------------------

// PushInput appends values to the input queue.
func (m *Machine) PushInput(values ...Value) {
	m.inputs = append(m.inputs, values...)
}

// PopOutput removes and returns the oldest queued output. The second result
// is false when the output queue is empty.
func (m *Machine) PopOutput() (Value, bool) {
	if len(m.outputs) == 0 {
		return 0, false
	}
	v := m.outputs[0]
	m.outputs = m.outputs[1:]
	return v, true
}

// DrainOutputs removes and returns all queued outputs in FIFO order.
func (m *Machine) DrainOutputs() []Value {
	out := m.outputs
	m.outputs = nil
	return out
}

// InputLen returns the number of queued input values.
func (m *Machine) InputLen() int {
	return len(m.inputs)
}

// OutputLen returns the number of queued output values.
func (m *Machine) OutputLen() int {
	return len(m.outputs)
}

func (m *Machine) popInput() (Value, error) {
	if len(m.inputs) == 0 {
		return 0, ErrEmptyInput
	}
	v := m.inputs[0]
	m.inputs = m.inputs[1:]
	return v, nil
}

func (m *Machine) pushOutput(v Value) {
	m.outputs = append(m.outputs, v)
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// Step decodes and executes exactly one instruction. It returns ErrStopped
// if the machine is not Running, ErrEmptyInput if an Input instruction found
// the input queue empty, or a decode error for a malformed instruction word.
// A failed step leaves memory and registers untouched.
func (m *Machine) Step() error {
	if m.state != Running {
		return ErrStopped
	}
	instr, err := decode(m.Read(m.ip))
	if err != nil {
		return err
	}
	switch in := instr.(type) {
	case nonaryInstr:
		m.traceStep(in.op.String())
		// Halt is the only nonary instruction.
		m.state = Stopped
		m.ip += in.width()
	case unaryInstr:
		arg1 := m.arg(1, in.mode1)
		m.traceStep(in.op.String(), arg1)
		if err := in.execute(arg1, m); err != nil {
			return err
		}
		m.ip += in.width()
	case binaryInstr:
		arg1 := m.arg(1, in.mode1)
		arg2 := m.arg(2, in.mode2)
		m.traceStep(in.op.String(), arg1, arg2)
		if target, jumped := in.execute(arg1, arg2, m); jumped {
			m.ip = target
		} else {
			m.ip += in.width()
		}
	case trinaryInstr:
		arg1 := m.arg(1, in.mode1)
		arg2 := m.arg(2, in.mode2)
		arg3 := m.arg(3, in.mode3)
		m.traceStep(in.op.String(), arg1, arg2, arg3)
		in.execute(arg1, arg2, arg3, m)
		m.ip += in.width()
	}
	return nil
}

// arg fetches the operand word at ip+offset and pairs it with its mode.
func (m *Machine) arg(offset Value, mode parameterMode) argument {
	return argument{mode: mode, operand: m.Read(m.ip + offset)}
}

func (m *Machine) traceStep(mnemonic string, args ...argument) {
	if !m.trace {
		return
	}
	var b strings.Builder
	b.WriteString(mnemonic)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	traceLog.Infof("[%d] %s", m.ip, b.String())
}

// RunUntilStopped steps until the machine halts. Any step error, including
// ErrEmptyInput for a machine blocked on input, propagates to the caller.
func (m *Machine) RunUntilStopped() error {
	for m.state == Running {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntilOutput steps until a value is available on the output queue, then
// pops and returns it. The second result is false when the machine halted
// with no output pending; halting is not an error on this path.
func (m *Machine) RunUntilOutput() (Value, bool, error) {
	for m.OutputLen() == 0 {
		if m.state != Running {
			return 0, false, nil
		}
		if err := m.Step(); err != nil {
			return 0, false, err
		}
	}
	v, _ := m.PopOutput()
	return v, true, nil
}

// RunUntilInput steps until the machine blocks on an empty input queue,
// which is the normal suspension point for interactive drivers and returns
// nil. Every other step error, including ErrStopped once the machine halts,
// propagates.
func (m *Machine) RunUntilInput() error {
	for {
		if err := m.Step(); err != nil {
			if errors.Is(err, ErrEmptyInput) {
				return nil
			}
			return err
		}
	}
}
