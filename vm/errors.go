package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ErrEmptyInput is returned by Step when an Input instruction executes
// while the input queue is empty. It is the machine's suspension point:
// callers feed more input and resume rather than treating it as a fault.
var ErrEmptyInput = errors.New("tried to read empty input")

// ErrStopped is returned by Step when the machine is not in state Running.
// Only Reset clears it.
var ErrStopped = errors.New("machine is not in state Running")

// InvalidInstructionError reports an instruction word whose opcode component
// is not part of the instruction set. The program is corrupt or incompatible;
// there is nothing sensible to retry.
type InvalidInstructionError struct {
	Raw Value
}

func (e InvalidInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction: %d", e.Raw)
}

// InvalidParameterModeError reports an instruction word carrying a parameter
// mode digit outside {0, 1, 2}. Fatal, same rationale as an invalid opcode.
type InvalidParameterModeError struct {
	Raw Value
}

func (e InvalidParameterModeError) Error() string {
	return fmt.Sprintf("invalid parameter mode: %d", e.Raw)
}
