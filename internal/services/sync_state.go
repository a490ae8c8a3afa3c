package services

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SyncPhase is the lifecycle position of the sync job
type SyncPhase string

const (
	SyncIdle    SyncPhase = "idle"
	SyncRunning SyncPhase = "running"
	SyncFailed  SyncPhase = "failed"
)

// SyncStatus is a point-in-time copy of the sync state
type SyncStatus struct {
	RunID                 *uuid.UUID `json:"run_id,omitempty"`
	State                 SyncPhase  `json:"state"`
	Running               bool       `json:"running"`
	Fetched               int        `json:"fetched"`
	Skipped               int        `json:"skipped"`
	PressReleasesFetched  int        `json:"press_releases_fetched"`
	CompensationExtracted int        `json:"compensation_extracted"`
	Errors                []string   `json:"errors"`
	CurrentCompany        string     `json:"current_company,omitempty"`
	Message               string     `json:"message"`
	StartedAt             *time.Time `json:"started_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
}

// SyncState holds the progress of the most recent run. Only the goroutine that
// won tryStart mutates it; everyone else reads snapshots.
type SyncState struct {
	running atomic.Bool
	mu      sync.RWMutex
	status  SyncStatus
}

// NewSyncState creates an idle state
func NewSyncState() *SyncState {
	return &SyncState{status: SyncStatus{State: SyncIdle, Errors: []string{}, Message: "No sync has run yet"}}
}

// tryStart claims the run and resets the counters. It fails without touching
// anything when a run is already active.
func (s *SyncState) tryStart(message string) (uuid.UUID, bool) {
	if !s.running.CompareAndSwap(false, true) {
		return uuid.Nil, false
	}

	runID := uuid.New()
	now := time.Now()

	s.mu.Lock()
	s.status = SyncStatus{
		RunID:     &runID,
		State:     SyncRunning,
		Errors:    []string{},
		Message:   message,
		StartedAt: &now,
	}
	s.mu.Unlock()

	return runID, true
}

func (s *SyncState) update(fn func(status *SyncStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}

func (s *SyncState) addError(msg string) {
	s.update(func(st *SyncStatus) { st.Errors = append(st.Errors, msg) })
}

// finish releases the run. A non-nil err marks the run failed.
func (s *SyncState) finish(message string, err error) {
	now := time.Now()
	s.update(func(st *SyncStatus) {
		st.CurrentCompany = ""
		st.CompletedAt = &now
		st.Message = message
		st.State = SyncIdle
		if err != nil {
			st.State = SyncFailed
			st.Errors = append(st.Errors, err.Error())
		}
	})
	s.running.Store(false)
}

// Snapshot returns a copy safe to hand to callers
func (s *SyncState) Snapshot() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.status
	out.Running = s.running.Load()
	out.Errors = append([]string{}, s.status.Errors...)
	return out
}

// IsRunning reports whether a run is active
func (s *SyncState) IsRunning() bool {
	return s.running.Load()
}
