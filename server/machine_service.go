package server

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/chazu/intcode/vm"
)

// Run modes accepted by the Run procedure.
const (
	RunModeHalt   = "halt"
	RunModeOutput = "output"
	RunModeInput  = "input"
)

// MachineService exposes machine sessions over connect. Request validation
// failures and unknown sessions are RPC errors; faults raised by the running
// program itself are reported in the response, and a machine blocked on
// input is a routine condition, not a fault.
type MachineService struct {
	sessions *SessionStore
}

// NewMachineService creates a MachineService over the given store.
func NewMachineService(sessions *SessionStore) *MachineService {
	return &MachineService{sessions: sessions}
}

func (s *MachineService) session(id string) (*Session, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session id is required"))
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", id))
	}
	return session, nil
}

// CreateSession creates a machine session. An empty program is allowed; the
// caller loads one later.
func (s *MachineService) CreateSession(
	ctx context.Context,
	req *connect.Request[CreateSessionRequest],
) (*connect.Response[CreateSessionResponse], error) {
	var program []vm.Value
	if req.Msg.Program != "" {
		var err error
		program, err = vm.ParseProgram(req.Msg.Program)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	session := s.sessions.Create(program)
	log.Infof("created session %s (%d sessions live)", session.ID, s.sessions.Len())
	return connect.NewResponse(&CreateSessionResponse{SessionID: session.ID}), nil
}

// Load resets the session's machine with a new program, clearing registers
// and queues.
func (s *MachineService) Load(
	ctx context.Context,
	req *connect.Request[LoadRequest],
) (*connect.Response[LoadResponse], error) {
	program, err := vm.ParseProgram(req.Msg.Program)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	resp := &LoadResponse{}
	session.WithMachine(func(m *vm.Machine) {
		m.Reset(program)
		resp.State = m.State().String()
	})
	return connect.NewResponse(resp), nil
}

// Step executes exactly one instruction.
func (s *MachineService) Step(
	ctx context.Context,
	req *connect.Request[StepRequest],
) (*connect.Response[StepResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	resp := &StepResponse{}
	session.WithMachine(func(m *vm.Machine) {
		switch err := m.Step(); {
		case errors.Is(err, vm.ErrEmptyInput):
			resp.Blocked = true
		case err != nil:
			resp.Error = err.Error()
		}
		resp.State = m.State().String()
	})
	return connect.NewResponse(resp), nil
}

// Run drives the machine in one of the three run modes. In halt and input
// modes queued outputs are drained into the response; in output mode the
// produced value is returned and the rest of the queue stays put.
func (s *MachineService) Run(
	ctx context.Context,
	req *connect.Request[RunRequest],
) (*connect.Response[RunResponse], error) {
	mode := req.Msg.Mode
	if mode == "" {
		mode = RunModeHalt
	}
	switch mode {
	case RunModeHalt, RunModeOutput, RunModeInput:
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown run mode %q", mode))
	}
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	resp := &RunResponse{}
	session.WithMachine(func(m *vm.Machine) {
		switch mode {
		case RunModeHalt:
			switch err := m.RunUntilStopped(); {
			case errors.Is(err, vm.ErrEmptyInput):
				resp.Blocked = true
			case err != nil:
				resp.Error = err.Error()
			}
			resp.Outputs = m.DrainOutputs()
		case RunModeOutput:
			switch v, produced, err := m.RunUntilOutput(); {
			case errors.Is(err, vm.ErrEmptyInput):
				resp.Blocked = true
			case err != nil:
				resp.Error = err.Error()
			default:
				resp.Produced = produced
				resp.Value = v
			}
		case RunModeInput:
			switch err := m.RunUntilInput(); {
			case err == nil:
				resp.Blocked = true
			case errors.Is(err, vm.ErrStopped):
				// Halted instead of blocking; normal for this mode.
			default:
				resp.Error = err.Error()
			}
			resp.Outputs = m.DrainOutputs()
		}
		resp.State = m.State().String()
	})
	return connect.NewResponse(resp), nil
}

// PushInputs appends values, and/or the bytes of an ASCII string, to the
// machine's input queue.
func (s *MachineService) PushInputs(
	ctx context.Context,
	req *connect.Request[PushInputsRequest],
) (*connect.Response[PushInputsResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	resp := &PushInputsResponse{}
	session.WithMachine(func(m *vm.Machine) {
		m.PushInput(req.Msg.Values...)
		if req.Msg.ASCII != "" {
			m.PushASCII(req.Msg.ASCII)
		}
		resp.InputLen = m.InputLen()
	})
	return connect.NewResponse(resp), nil
}

// DrainOutputs removes and returns all queued outputs.
func (s *MachineService) DrainOutputs(
	ctx context.Context,
	req *connect.Request[DrainOutputsRequest],
) (*connect.Response[DrainOutputsResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	resp := &DrainOutputsResponse{}
	session.WithMachine(func(m *vm.Machine) {
		resp.Values = m.DrainOutputs()
	})
	return connect.NewResponse(resp), nil
}

// Peek reads one memory cell. Reads past the end of memory return 0.
func (s *MachineService) Peek(
	ctx context.Context,
	req *connect.Request[PeekRequest],
) (*connect.Response[PeekResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	resp := &PeekResponse{}
	session.WithMachine(func(m *vm.Machine) {
		resp.Value = m.Read(req.Msg.Address)
	})
	return connect.NewResponse(resp), nil
}

// Poke writes one memory cell, growing memory if needed.
func (s *MachineService) Poke(
	ctx context.Context,
	req *connect.Request[PokeRequest],
) (*connect.Response[PokeResponse], error) {
	if req.Msg.Address < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("address %d is negative", req.Msg.Address))
	}
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	session.WithMachine(func(m *vm.Machine) {
		m.Write(req.Msg.Address, req.Msg.Value)
	})
	return connect.NewResponse(&PokeResponse{}), nil
}

// DestroySession discards a session and its machine.
func (s *MachineService) DestroySession(
	ctx context.Context,
	req *connect.Request[DestroySessionRequest],
) (*connect.Response[DestroySessionResponse], error) {
	if _, err := s.session(req.Msg.SessionID); err != nil {
		return nil, err
	}
	s.sessions.Destroy(req.Msg.SessionID)
	log.Infof("destroyed session %s", req.Msg.SessionID)
	return connect.NewResponse(&DestroySessionResponse{}), nil
}
