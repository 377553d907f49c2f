// Package session holds per-browser state: the loaded dataset, the result
// cache, and the analysis history. Everything lives in memory; a session
// disappears when it expires or the process restarts.
package session

import (
	"sync"
	"time"

	"viz-agent/agent"
	"viz-agent/dataset"

	"github.com/google/uuid"
)

// Record is one completed ask, successful or not, kept for the history view.
type Record struct {
	Question   string    `json:"question"`
	Code       string    `json:"code"`
	FigureHTML string    `json:"figure_html,omitempty"`
	Insight    string    `json:"insight,omitempty"`
	Attempts   int       `json:"attempts"`
	Cached     bool      `json:"cached"`
	Failed     bool      `json:"failed"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is the state behind one cookie. Analyses within a session run
// strictly one at a time; concurrency exists only across sessions.
type Session struct {
	id uuid.UUID

	analyzing sync.Mutex

	mu         sync.Mutex
	ds         *dataset.Dataset
	cache      *agent.ResultCache
	history    []Record
	lastAccess time.Time
}

func (s *Session) ID() uuid.UUID { return s.id }

// BeginAnalysis blocks until no other analysis is in flight for this session.
// One pipeline run at a time per session; concurrent sessions are fine.
func (s *Session) BeginAnalysis() { s.analyzing.Lock() }

// EndAnalysis releases the analysis slot.
func (s *Session) EndAnalysis() { s.analyzing.Unlock() }

// SetDataset swaps in a newly loaded dataset and purges the result cache.
// Old fingerprints would be dead anyway (the dataset UUID changed), but the
// purge frees the entries immediately.
func (s *Session) SetDataset(ds *dataset.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds
	s.cache.Purge()
	s.history = nil
}

func (s *Session) Dataset() *dataset.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ds
}

func (s *Session) Cache() *agent.ResultCache {
	return s.cache
}

// Append records a completed ask.
func (s *Session) Append(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, r)
}

// History returns a copy of the session's records, oldest first.
func (s *Session) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.history...)
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()
}

func (s *Session) accessedBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess.Before(cutoff)
}

// Store is the in-memory session registry.
type Store struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*Session
	cacheSize int
}

func NewStore(cacheSize int) *Store {
	return &Store{
		sessions:  make(map[uuid.UUID]*Session),
		cacheSize: cacheSize,
	}
}

// Create registers a new empty session and returns it.
func (st *Store) Create() (*Session, error) {
	cache, err := agent.NewResultCache(st.cacheSize)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:         uuid.New(),
		cache:      cache,
		lastAccess: time.Now(),
	}

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s, nil
}

// Get looks up a session and marks it as accessed.
func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Has reports whether a session exists without refreshing its access time.
func (st *Store) Has(id uuid.UUID) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.sessions[id]
	return ok
}

// Delete removes a session.
func (st *Store) Delete(id uuid.UUID) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// DeleteStale evicts sessions idle since before the cutoff and returns how
// many were removed.
func (st *Store) DeleteStale(cutoff time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	deleted := 0
	for id, s := range st.sessions {
		if s.accessedBefore(cutoff) {
			delete(st.sessions, id)
			deleted++
		}
	}
	return deleted
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
