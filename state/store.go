// Package state holds the process-wide device state: the latest
// telemetry, the last-sent value for each settable parameter, and the
// BLE connection status. The device worker and the command dispatcher
// are the only writers; everything else reads snapshots.
package state

import (
	"sync"

	"powerhouse-bridge/params"
)

// Store is the single source of truth for device-derived state.
// Readers always get copies, never references into the writer's data.
type Store struct {
	mux sync.RWMutex

	telemetry *params.Telemetry
	stateAck  *params.StateAck
	setState  params.SetState
	status    params.ConnectionStatus

	commandCounts map[string]uint64
}

func NewStore() *Store {
	return &Store{
		commandCounts: make(map[string]uint64),
	}
}

// ApplyTelemetry replaces the cached telemetry wholesale.
func (s *Store) ApplyTelemetry(t params.Telemetry) {
	s.mux.Lock()
	defer s.mux.Unlock()
	clone := t.Clone()
	s.telemetry = &clone
}

// ApplyStateAck records the last switch states echoed by the device.
func (s *Store) ApplyStateAck(a params.StateAck) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.stateAck = &a
}

// SetConnectionState records a session lifecycle transition. Entering
// Scanning starts a new reconnect cycle and bumps the attempt counter;
// reaching Connected resets it.
func (s *Store) SetConnectionState(cs params.ConnectionState, lastErr error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.status.State = cs
	if lastErr != nil {
		s.status.LastError = lastErr.Error()
	}
	switch cs {
	case params.StateScanning:
		s.status.Attempts++
	case params.StateConnected:
		s.status.Attempts = 0
		s.status.LastError = ""
	}
}

// ApplyCommandResult records an accepted command: the per-kind counter
// and the optimistic set-state mutation.
func (s *Store) ApplyCommandResult(kind string, apply func(*params.SetState)) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.commandCounts[kind]++
	if apply != nil {
		apply(&s.setState)
	}
}

// Telemetry returns a copy of the latest telemetry. The second return
// is false until the first frame has been decoded.
func (s *Store) Telemetry() (params.Telemetry, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if s.telemetry == nil {
		return params.Telemetry{}, false
	}
	return s.telemetry.Clone(), true
}

// StateAck returns a copy of the last device-echoed switch states.
func (s *Store) StateAck() (params.StateAck, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if s.stateAck == nil {
		return params.StateAck{}, false
	}
	return *s.stateAck, true
}

// SetState returns a copy of the last-sent parameter values.
func (s *Store) SetState() params.SetState {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.setState.Clone()
}

// Status returns the current connection status.
func (s *Store) Status() params.ConnectionStatus {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.status
}

// CommandCounts returns a copy of the per-kind accepted command counts.
func (s *Store) CommandCounts() map[string]uint64 {
	s.mux.RLock()
	defer s.mux.RUnlock()
	out := make(map[string]uint64, len(s.commandCounts))
	for k, v := range s.commandCounts {
		out[k] = v
	}
	return out
}
