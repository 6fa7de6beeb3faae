package handlers

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"sync"

	"cubepool/internal/config"
	"cubepool/internal/cube"
	"cubepool/internal/store"
)

const sessionCookie = "cubepool_session"

var sessionIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// CubeFetcher fetches a cube for a query, reporting every page to onPage
type CubeFetcher interface {
	Fetch(ctx context.Context, q cube.FetchQuery, onPage func(cube.PageProgress)) cube.FetchResult
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	ctx      context.Context
	store    *store.MemoryStore
	fetcher  CubeFetcher
	sampler  *cube.Sampler
	config   *config.ServerConfig
	eventBus *EventBus
	fetches  sync.WaitGroup
}

// New creates a new handler. Background fetches are bound to ctx and stop
// when it is cancelled.
func New(ctx context.Context, s *store.MemoryStore, fetcher CubeFetcher, sampler *cube.Sampler, cfg *config.ServerConfig) *Handler {
	return &Handler{
		ctx:      ctx,
		store:    s,
		fetcher:  fetcher,
		sampler:  sampler,
		config:   cfg,
		eventBus: NewEventBus(),
	}
}

// Store returns the handler's store (for testing)
func (h *Handler) Store() *store.MemoryStore {
	return h.store
}

// Context returns the base context of background work
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Wait blocks until every background fetch has returned
func (h *Handler) Wait() {
	h.fetches.Wait()
}

// EventType names what changed in a session
type EventType string

const (
	EventFetchProgress EventType = "fetch_progress"
	EventFetchDone     EventType = "fetch_done"
	EventPoolGenerated EventType = "pool_generated"
)

// Event tells a session's open streams to re-render
type Event struct {
	Type      EventType
	SessionID string
}

// EventBus manages event subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
	}
}

// Subscribe subscribes to events for a session
func (eb *EventBus) Subscribe(sessionID string) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 16)
	eb.subscribers[sessionID] = append(eb.subscribers[sessionID], ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel
func (eb *EventBus) Unsubscribe(sessionID string, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[sessionID]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[sessionID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(eb.subscribers[sessionID]) == 0 {
		delete(eb.subscribers, sessionID)
	}
}

// Publish publishes an event to all subscribers of its session
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, ch := range eb.subscribers[event.SessionID] {
		select {
		case ch <- event:
		default:
			// Subscriber is behind; it re-renders from the store on its next event
		}
	}
}

// Subscribers returns the number of open subscriptions for a session
func (eb *EventBus) Subscribers(sessionID string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers[sessionID])
}

// getOrCreateSession returns the session named by the cookie, creating a
// session and cookie when there is none
func (h *Handler) getOrCreateSession(w http.ResponseWriter, r *http.Request) store.Session {
	if cookie, err := r.Cookie(sessionCookie); err == nil && sessionIDPattern.MatchString(cookie.Value) {
		return h.store.EnsureSession(cookie.Value)
	}

	sess := h.store.CreateSession()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.config.Session.Timeout.Seconds()),
	})
	if h.config.Debug() {
		log.Printf("DEBUG: 🍪 New session %s", shortID(sess.ID))
	}
	return sess
}

// existingSession returns the cookie's session without creating one
func (h *Handler) existingSession(r *http.Request) (store.Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return store.Session{}, false
	}
	sess, err := h.store.GetSession(cookie.Value)
	if err != nil {
		return store.Session{}, false
	}
	return sess, true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
