package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cubepool/internal/config"
	"cubepool/internal/cube"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPoolNotFound    = errors.New("pool not found")
)

// FetchState is the session's view of its most recent fetch
type FetchState struct {
	Running  bool
	Query    cube.FetchQuery
	Status   cube.FetchStatus
	Pages    int
	Cards    int
	Total    int
	Error    string
	Started  time.Time
	Finished time.Time
}

// Session is a snapshot of one browser's cube and pool. Slices in a snapshot
// are never modified after they are stored, only replaced.
type Session struct {
	ID        string
	Cube      cube.Cube
	Fetch     FetchState
	Pool      cube.Pool
	PoolID    string
	PoolSpec  cube.PackSpec
	PoolName  string
	UpdatedAt time.Time
}

type sessionEntry struct {
	Session
	fetchGen uint64
	cancel   context.CancelFunc
}

// MemoryStore holds all session state in memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	pools    map[string]string // pool ID -> session ID
	timeout  time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(cfg *config.ServerConfig) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*sessionEntry),
		pools:    make(map[string]string),
		timeout:  cfg.Session.Timeout,
		now:      time.Now,
	}
}

// CreateSession creates an empty session with a fresh ID
func (s *MemoryStore) CreateSession() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	for i := 0; i < 10; i++ { // Try up to 10 times
		id = generateID(16)
		if _, exists := s.sessions[id]; !exists {
			break
		}
	}
	return s.insertLocked(id)
}

// EnsureSession returns the session with the given ID, creating it if the
// ID is unknown (e.g. a cookie that outlived a server restart)
func (s *MemoryStore) EnsureSession(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		return e.Session
	}
	return s.insertLocked(id)
}

func (s *MemoryStore) insertLocked(id string) Session {
	e := &sessionEntry{Session: Session{ID: id, UpdatedAt: s.now()}}
	s.sessions[id] = e
	return e.Session
}

// GetSession returns a snapshot of a session
func (s *MemoryStore) GetSession(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e.Session, nil
}

// BeginFetch registers a new fetch for the session, cancelling any fetch that
// is still running. The returned context is cancelled by CancelFetch, by the
// next BeginFetch, or by parent. The generation identifies this fetch to
// ReportProgress and FinishFetch.
func (s *MemoryStore) BeginFetch(parent context.Context, id string, q cube.FetchQuery) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if e.cancel != nil {
		log.Printf("🔁 Session %s started a new fetch; cancelling the previous one", shortID(id))
		e.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	e.fetchGen++
	e.cancel = cancel
	e.Fetch = FetchState{Running: true, Query: q, Started: s.now()}
	e.UpdatedAt = s.now()
	return ctx, e.fetchGen, nil
}

// ReportProgress records page progress of the current fetch
func (s *MemoryStore) ReportProgress(id string, gen uint64, p cube.PageProgress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || e.fetchGen != gen {
		return false
	}
	e.Fetch.Pages = p.Page
	e.Fetch.Cards = p.Cards
	e.Fetch.Total = p.TotalCards
	return true
}

// FinishFetch replaces the session cube with the fetch result. Results from a
// fetch that has since been superseded are discarded and false is returned.
func (s *MemoryStore) FinishFetch(id string, gen uint64, result cube.FetchResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || e.fetchGen != gen {
		return false
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}

	e.Cube = result.Cube
	e.Fetch.Running = false
	e.Fetch.Status = result.Status
	e.Fetch.Pages = result.Pages
	e.Fetch.Cards = len(result.Cube)
	e.Fetch.Error = ""
	if result.Err != nil {
		e.Fetch.Error = result.Err.Error()
	}
	e.Fetch.Finished = s.now()
	e.UpdatedAt = s.now()
	return true
}

// CancelFetch cancels the running fetch of a session, if any
func (s *MemoryStore) CancelFetch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || e.cancel == nil {
		return false
	}
	e.cancel()
	e.cancel = nil
	return true
}

// CubeSnapshot returns the session cube. The caller must not modify it.
func (s *MemoryStore) CubeSnapshot(id string) (cube.Cube, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e.Cube, nil
}

// SetPool replaces the session pool and returns its new download ID
func (s *MemoryStore) SetPool(id string, pool cube.Pool, spec cube.PackSpec, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if e.PoolID != "" {
		delete(s.pools, e.PoolID)
	}

	poolID := generateID(8)
	for _, exists := s.pools[poolID]; exists; _, exists = s.pools[poolID] {
		poolID = generateID(8)
	}
	s.pools[poolID] = id

	e.Pool = pool
	e.PoolID = poolID
	e.PoolSpec = spec
	e.PoolName = name
	e.UpdatedAt = s.now()
	return poolID, nil
}

// GetPool looks up a generated pool and its name by download ID
func (s *MemoryStore) GetPool(poolID string) (cube.Pool, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.pools[poolID]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	e, ok := s.sessions[sessionID]
	if !ok || e.PoolID != poolID {
		return nil, "", fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	return e.Pool, e.PoolName, nil
}

// Cleanup removes sessions idle for longer than the session timeout and
// cancels their fetches. It returns the number of sessions removed.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.timeout)
	removed := 0
	for id, e := range s.sessions {
		if e.Fetch.Running || e.UpdatedAt.After(cutoff) {
			continue
		}
		if e.cancel != nil {
			e.cancel()
		}
		if e.PoolID != "" {
			delete(s.pools, e.PoolID)
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// StartJanitor runs Cleanup every interval until ctx is done
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 {
					log.Printf("🧹 Removed %d idle sessions", n)
				}
			}
		}
	}()
}

// SessionCount returns the number of live sessions
func (s *MemoryStore) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// generateID returns n random bytes hex encoded
func generateID(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// shortID trims a session ID for log lines
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
