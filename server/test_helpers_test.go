package server

import (
	"context"
	"testing"

	"connectrpc.com/connect"
)

func bg() context.Context {
	return context.Background()
}

func connectReq[T any](msg *T) *connect.Request[T] {
	return connect.NewRequest(msg)
}

// newTestService returns a service over a fresh store, bypassing the HTTP
// layer. Handlers are called directly.
func newTestService() *MachineService {
	return NewMachineService(NewSessionStore())
}

// createSession creates a session with the given program text and returns
// its ID.
func createSession(t *testing.T, svc *MachineService, program string) string {
	t.Helper()
	resp, err := svc.CreateSession(bg(), connectReq(&CreateSessionRequest{Program: program}))
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	return resp.Msg.SessionID
}
