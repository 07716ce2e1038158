package server

import "github.com/chazu/intcode/vm"

// ---------------------------------------------------------------------------
// Wire messages
// ---------------------------------------------------------------------------

// Messages are encoded as CBOR with integer keys. Fatal machine faults
// (invalid instruction, invalid parameter mode) travel in the Error field of
// the response rather than as RPC errors: they describe the program, not the
// request. Blocked reports the routine suspension on empty input and is
// never an error anywhere.

// CreateSessionRequest creates a machine session, optionally with a program
// already loaded.
type CreateSessionRequest struct {
	Program string `cbor:"1,keyasint,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string `cbor:"1,keyasint"`
}

// LoadRequest resets the session's machine with a new program.
type LoadRequest struct {
	SessionID string `cbor:"1,keyasint"`
	Program   string `cbor:"2,keyasint"`
}

type LoadResponse struct {
	State string `cbor:"1,keyasint"`
}

// StepRequest executes exactly one instruction.
type StepRequest struct {
	SessionID string `cbor:"1,keyasint"`
}

type StepResponse struct {
	State   string `cbor:"1,keyasint"`
	Blocked bool   `cbor:"2,keyasint,omitempty"`
	Error   string `cbor:"3,keyasint,omitempty"`
}

// RunRequest runs the machine in one of the three run modes.
type RunRequest struct {
	SessionID string `cbor:"1,keyasint"`
	Mode      string `cbor:"2,keyasint"` // halt, output or input
}

type RunResponse struct {
	State    string     `cbor:"1,keyasint"`
	Blocked  bool       `cbor:"2,keyasint,omitempty"`
	Produced bool       `cbor:"3,keyasint,omitempty"` // output mode only
	Value    vm.Value   `cbor:"4,keyasint,omitempty"` // output mode only
	Outputs  []vm.Value `cbor:"5,keyasint,omitempty"` // queued outputs, drained
	Error    string     `cbor:"6,keyasint,omitempty"`
}

// PushInputsRequest appends values to the session machine's input queue.
type PushInputsRequest struct {
	SessionID string     `cbor:"1,keyasint"`
	Values    []vm.Value `cbor:"2,keyasint,omitempty"`
	ASCII     string     `cbor:"3,keyasint,omitempty"`
}

type PushInputsResponse struct {
	InputLen int `cbor:"1,keyasint"`
}

// DrainOutputsRequest removes and returns all queued outputs.
type DrainOutputsRequest struct {
	SessionID string `cbor:"1,keyasint"`
}

type DrainOutputsResponse struct {
	Values []vm.Value `cbor:"1,keyasint,omitempty"`
}

// PeekRequest reads one memory cell.
type PeekRequest struct {
	SessionID string   `cbor:"1,keyasint"`
	Address   vm.Value `cbor:"2,keyasint"`
}

type PeekResponse struct {
	Value vm.Value `cbor:"1,keyasint"`
}

// PokeRequest writes one memory cell, e.g. to patch a loaded program.
type PokeRequest struct {
	SessionID string   `cbor:"1,keyasint"`
	Address   vm.Value `cbor:"2,keyasint"`
	Value     vm.Value `cbor:"3,keyasint"`
}

type PokeResponse struct{}

// DestroySessionRequest discards a session and its machine.
type DestroySessionRequest struct {
	SessionID string `cbor:"1,keyasint"`
}

type DestroySessionResponse struct{}
