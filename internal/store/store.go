// Package store holds the latest heart rate snapshot shared between the
// BLE session (writer) and the HTTP layer (readers).
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/chengwu26/heart-rate-monitor/internal/hrs"
)

// Status is the state of the BLE session as seen by HTTP clients.
type Status int

const (
	StatusScanning Status = iota
	StatusConnecting
	StatusSubscribed
	StatusDisconnected
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusScanning:
		return "scanning"
	case StatusConnecting:
		return "connecting"
	case StatusSubscribed:
		return "subscribed"
	case StatusDisconnected:
		return "disconnected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Snapshot is a consistent point-in-time copy of the store. Reading is nil
// until the first notification decodes. Attempt is the reconnect attempt
// number when Status is StatusReconnecting; Reason is set when Status is
// StatusDisconnected.
type Snapshot struct {
	Reading   *hrs.Measurement
	Status    Status
	Attempt   int
	Reason    string
	UpdatedAt time.Time
}

// Store is the single cell both subsystems touch. Writes come only from
// the BLE session; reads come from any number of HTTP handlers. Readers
// never observe a reading paired with a status from a different write.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// New returns an empty store with StatusScanning, matching the state
// machine's initial state.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an injectable clock.
func NewWithClock(now func() time.Time) *Store {
	s := &Store{now: now}
	s.snap.Status = StatusScanning
	s.snap.UpdatedAt = now()
	return s
}

// SetReading records a freshly decoded measurement. The status moves to
// StatusSubscribed in the same write, so readers can never pair a new
// reading with a stale status.
func (s *Store) SetReading(m hrs.Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Reading = &m
	s.snap.Status = StatusSubscribed
	s.snap.Attempt = 0
	s.snap.Reason = ""
	s.snap.UpdatedAt = s.now()
}

// SetStatus records a session state transition, keeping the last reading.
func (s *Store) SetStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = st
	s.snap.Attempt = 0
	s.snap.Reason = ""
	s.snap.UpdatedAt = s.now()
}

// SetDisconnected records a lost link with the reason it was lost.
func (s *Store) SetDisconnected(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = StatusDisconnected
	s.snap.Attempt = 0
	s.snap.Reason = reason
	s.snap.UpdatedAt = s.now()
}

// SetReconnecting records reconnect attempt number n.
func (s *Store) SetReconnecting(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = StatusReconnecting
	s.snap.Attempt = n
	s.snap.UpdatedAt = s.now()
}

// Snapshot returns a copy of the current state. The returned Reading
// pointer refers to an immutable measurement and is safe to retain.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
