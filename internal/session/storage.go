package session

import (
	"sort"
	"sync"
	"time"

	"surveyclean/domain/cleaning"
	"surveyclean/domain/core"
	"surveyclean/domain/dataset"
	"surveyclean/domain/stats"
	cleaner "surveyclean/internal/cleaning"
)

// Session is the mutable state of one uploaded dataset. Callers hold Lock
// while reading or replacing fields; datasets stored here are never mutated
// in place, so a pointer read under the lock stays valid after Unlock.
type Session struct {
	mu sync.Mutex

	ID         core.SessionID
	SourceName string
	CreatedAt  time.Time

	// Raw is the dataset as ingested
	Raw *dataset.Dataset
	// Current is the latest edited or cleaned dataset
	Current *dataset.Dataset
	// Numeric is frozen at ingestion
	Numeric cleaning.ColumnSet

	Config  cleaning.Config
	Tracker cleaner.EditTracker
	Cleaned bool
	Version int

	LastRun        *cleaning.RunRecord
	LastOperations []cleaning.Operation
	LastSnapshot   *stats.Snapshot
}

// New creates a session around ds; Raw and Current share the ingested snapshot
func New(name string, ds *dataset.Dataset, numeric cleaning.ColumnSet, config cleaning.Config) *Session {
	return &Session{
		ID:         core.NewSessionID(),
		SourceName: name,
		CreatedAt:  time.Now().UTC(),
		Raw:        ds,
		Current:    ds,
		Numeric:    numeric,
		Config:     config,
		Tracker:    cleaner.NewEditTracker(),
		Version:    1,
	}
}

// Lock serializes operations on the session
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session
func (s *Session) Unlock() { s.mu.Unlock() }

// Store keeps sessions in memory
type Store struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{sessions: make(map[core.SessionID]*Session)}
}

// Put adds or replaces a session
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Get returns the session or an error wrapping core.ErrSessionNotFound
func (st *Store) Get(id core.SessionID) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, core.NewNotFoundError("session", id.String())
	}
	return s, nil
}

// Delete removes the session
func (st *Store) Delete(id core.SessionID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return core.NewNotFoundError("session", id.String())
	}
	delete(st.sessions, id)
	return nil
}

// List returns all sessions, oldest first
func (st *Store) List() []*Session {
	st.mu.RLock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
