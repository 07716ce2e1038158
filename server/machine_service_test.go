package server

import (
	"reflect"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/chazu/intcode/vm"
)

// ---------------------------------------------------------------------------
// Session lifecycle
// ---------------------------------------------------------------------------

func TestCreateSessionWithProgram(t *testing.T) {
	svc := newTestService()

	resp, err := svc.CreateSession(bg(), connectReq(&CreateSessionRequest{Program: "3,0,4,0,99"}))
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if resp.Msg.SessionID == "" {
		t.Error("CreateSession returned an empty session id")
	}
}

func TestCreateSessionRejectsMalformedProgram(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateSession(bg(), connectReq(&CreateSessionRequest{Program: "1,x,99"}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("CreateSession error code = %v, want %v", connect.CodeOf(err), connect.CodeInvalidArgument)
	}
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: "nope", Mode: RunModeHalt}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("Run error code = %v, want %v", connect.CodeOf(err), connect.CodeNotFound)
	}
}

func TestDestroySession(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "99")

	if _, err := svc.DestroySession(bg(), connectReq(&DestroySessionRequest{SessionID: id})); err != nil {
		t.Fatalf("DestroySession returned error: %v", err)
	}
	_, err := svc.Step(bg(), connectReq(&StepRequest{SessionID: id}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("Step after destroy error code = %v, want %v", connect.CodeOf(err), connect.CodeNotFound)
	}
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

func TestRunToHalt(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "3,0,4,0,99")

	if _, err := svc.PushInputs(bg(), connectReq(&PushInputsRequest{SessionID: id, Values: []vm.Value{123}})); err != nil {
		t.Fatalf("PushInputs returned error: %v", err)
	}
	resp, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeHalt}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if resp.Msg.Error != "" {
		t.Fatalf("Run reported machine fault: %s", resp.Msg.Error)
	}
	if resp.Msg.State != "Stopped" {
		t.Errorf("State = %q, want %q", resp.Msg.State, "Stopped")
	}
	if got, want := resp.Msg.Outputs, []vm.Value{123}; !reflect.DeepEqual(got, want) {
		t.Errorf("Outputs = %v, want %v", got, want)
	}
}

func TestRunUntilOutputMode(t *testing.T) {
	svc := newTestService()
	// Outputs 7 then 8, then halts.
	id := createSession(t, svc, "104,7,104,8,99")

	first, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeOutput}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !first.Msg.Produced || first.Msg.Value != 7 {
		t.Errorf("first = (%v, %d), want (true, 7)", first.Msg.Produced, first.Msg.Value)
	}

	second, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeOutput}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !second.Msg.Produced || second.Msg.Value != 8 {
		t.Errorf("second = (%v, %d), want (true, 8)", second.Msg.Produced, second.Msg.Value)
	}

	// Halted with nothing pending.
	third, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeOutput}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if third.Msg.Produced {
		t.Errorf("third produced %d, want no value from a halted machine", third.Msg.Value)
	}
	if third.Msg.State != "Stopped" {
		t.Errorf("third State = %q, want %q", third.Msg.State, "Stopped")
	}
}

func TestRunInputModeSuspendsAndResumes(t *testing.T) {
	svc := newTestService()
	// Reads a value, increments it, outputs it, loops.
	id := createSession(t, svc, "3,13,1001,13,1,13,4,13,1105,1,0")

	if _, err := svc.PushInputs(bg(), connectReq(&PushInputsRequest{SessionID: id, Values: []vm.Value{5}})); err != nil {
		t.Fatalf("PushInputs returned error: %v", err)
	}
	resp, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeInput}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !resp.Msg.Blocked {
		t.Error("Run did not report the machine as blocked on input")
	}
	if got, want := resp.Msg.Outputs, []vm.Value{6}; !reflect.DeepEqual(got, want) {
		t.Errorf("Outputs = %v, want %v", got, want)
	}

	// Feed another value and resume on the same session.
	if _, err := svc.PushInputs(bg(), connectReq(&PushInputsRequest{SessionID: id, Values: []vm.Value{9}})); err != nil {
		t.Fatalf("PushInputs returned error: %v", err)
	}
	resp, err = svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeInput}))
	if err != nil {
		t.Fatalf("resumed Run returned error: %v", err)
	}
	if got, want := resp.Msg.Outputs, []vm.Value{10}; !reflect.DeepEqual(got, want) {
		t.Errorf("resumed Outputs = %v, want %v", got, want)
	}
}

func TestRunHaltModeReportsBlocked(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "3,0,99")

	resp, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeHalt}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !resp.Msg.Blocked {
		t.Error("Run did not report the machine as blocked")
	}
	if resp.Msg.Error != "" {
		t.Errorf("blocked machine reported as fault: %s", resp.Msg.Error)
	}
}

func TestRunRejectsUnknownMode(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "99")

	_, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: "forever"}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("Run error code = %v, want %v", connect.CodeOf(err), connect.CodeInvalidArgument)
	}
}

// ---------------------------------------------------------------------------
// Faults
// ---------------------------------------------------------------------------

func TestStepReportsInvalidInstruction(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "98")

	resp, err := svc.Step(bg(), connectReq(&StepRequest{SessionID: id}))
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if !strings.Contains(resp.Msg.Error, "invalid instruction") {
		t.Errorf("Error = %q, want it to mention the invalid instruction", resp.Msg.Error)
	}
}

func TestStepReportsBlocked(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "3,0,99")

	resp, err := svc.Step(bg(), connectReq(&StepRequest{SessionID: id}))
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if !resp.Msg.Blocked {
		t.Error("Step did not report the machine as blocked")
	}
	if resp.Msg.Error != "" {
		t.Errorf("blocked step reported as fault: %s", resp.Msg.Error)
	}
}

// ---------------------------------------------------------------------------
// Memory access
// ---------------------------------------------------------------------------

func TestPokeThenRun(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "1,0,0,0,99")

	// Patch the operand addresses before running.
	for _, p := range []PokeRequest{
		{SessionID: id, Address: 1, Value: 4},
		{SessionID: id, Address: 2, Value: 4},
	} {
		if _, err := svc.Poke(bg(), connectReq(&p)); err != nil {
			t.Fatalf("Poke returned error: %v", err)
		}
	}
	if _, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeHalt})); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	resp, err := svc.Peek(bg(), connectReq(&PeekRequest{SessionID: id, Address: 0}))
	if err != nil {
		t.Fatalf("Peek returned error: %v", err)
	}
	if resp.Msg.Value != 198 {
		t.Errorf("Peek(0) = %d, want 198", resp.Msg.Value)
	}
}

func TestPeekPastEndReturnsZero(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "99")

	resp, err := svc.Peek(bg(), connectReq(&PeekRequest{SessionID: id, Address: 1000}))
	if err != nil {
		t.Fatalf("Peek returned error: %v", err)
	}
	if resp.Msg.Value != 0 {
		t.Errorf("Peek(1000) = %d, want 0", resp.Msg.Value)
	}
}

func TestPokeRejectsNegativeAddress(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "99")

	_, err := svc.Poke(bg(), connectReq(&PokeRequest{SessionID: id, Address: -1, Value: 5}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("Poke error code = %v, want %v", connect.CodeOf(err), connect.CodeInvalidArgument)
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoadResetsSession(t *testing.T) {
	svc := newTestService()
	id := createSession(t, svc, "99")

	// Halt the machine, then load a new program into the same session.
	if _, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeHalt})); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	resp, err := svc.Load(bg(), connectReq(&LoadRequest{SessionID: id, Program: "104,42,99"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resp.Msg.State != "Running" {
		t.Errorf("State after Load = %q, want %q", resp.Msg.State, "Running")
	}

	run, err := svc.Run(bg(), connectReq(&RunRequest{SessionID: id, Mode: RunModeHalt}))
	if err != nil {
		t.Fatalf("Run after Load returned error: %v", err)
	}
	if got, want := run.Msg.Outputs, []vm.Value{42}; !reflect.DeepEqual(got, want) {
		t.Errorf("Outputs = %v, want %v", got, want)
	}
}
