// Package server exposes Intcode machine sessions as a connect service
// speaking CBOR. Each session owns one machine; interactive callers create a
// session, feed inputs, and advance it with the same run modes a local
// caller would use.
package server

import (
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("intcode.server")

// Procedure paths.
const (
	ProcedureCreateSession  = "/intcode.v1.MachineService/CreateSession"
	ProcedureLoad           = "/intcode.v1.MachineService/Load"
	ProcedureStep           = "/intcode.v1.MachineService/Step"
	ProcedureRun            = "/intcode.v1.MachineService/Run"
	ProcedurePushInputs     = "/intcode.v1.MachineService/PushInputs"
	ProcedureDrainOutputs   = "/intcode.v1.MachineService/DrainOutputs"
	ProcedurePeek           = "/intcode.v1.MachineService/Peek"
	ProcedurePoke           = "/intcode.v1.MachineService/Poke"
	ProcedureDestroySession = "/intcode.v1.MachineService/DestroySession"
)

// Sweeper defaults: sweep every 5 minutes, 30-minute idle TTL.
const (
	sweepInterval = 5 * time.Minute
	sessionTTL    = 30 * time.Minute
)

// MachineServer wires the machine service into an HTTP mux.
type MachineServer struct {
	sessions *SessionStore
	service  *MachineService
	mux      *http.ServeMux

	stopSweeper func()
}

// New creates a MachineServer with an empty session store.
func New() *MachineServer {
	sessions := NewSessionStore()
	s := &MachineServer{
		sessions: sessions,
		service:  NewMachineService(sessions),
		mux:      http.NewServeMux(),
	}

	codec := connect.WithCodec(newCBORCodec())
	s.mux.Handle(ProcedureCreateSession, connect.NewUnaryHandler(ProcedureCreateSession, s.service.CreateSession, codec))
	s.mux.Handle(ProcedureLoad, connect.NewUnaryHandler(ProcedureLoad, s.service.Load, codec))
	s.mux.Handle(ProcedureStep, connect.NewUnaryHandler(ProcedureStep, s.service.Step, codec))
	s.mux.Handle(ProcedureRun, connect.NewUnaryHandler(ProcedureRun, s.service.Run, codec))
	s.mux.Handle(ProcedurePushInputs, connect.NewUnaryHandler(ProcedurePushInputs, s.service.PushInputs, codec))
	s.mux.Handle(ProcedureDrainOutputs, connect.NewUnaryHandler(ProcedureDrainOutputs, s.service.DrainOutputs, codec))
	s.mux.Handle(ProcedurePeek, connect.NewUnaryHandler(ProcedurePeek, s.service.Peek, codec))
	s.mux.Handle(ProcedurePoke, connect.NewUnaryHandler(ProcedurePoke, s.service.Poke, codec))
	s.mux.Handle(ProcedureDestroySession, connect.NewUnaryHandler(ProcedureDestroySession, s.service.DestroySession, codec))

	s.stopSweeper = sessions.StartSweeper(sweepInterval, sessionTTL)

	return s
}

// Handler returns the HTTP handler serving all machine procedures.
func (s *MachineServer) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address, in the form
// "host:port" or ":port".
func (s *MachineServer) ListenAndServe(addr string) error {
	log.Noticef("machine server listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// Stop halts background sweeping. Live sessions are simply dropped.
func (s *MachineServer) Stop() {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
}
