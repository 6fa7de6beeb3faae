package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"cubepool/internal/cube"
	"cubepool/internal/views/components"

	datastar "github.com/starfederation/datastar-go/datastar"
)

// formSignals are the page's datastar signals. Datastar posts numbers and
// booleans as JSON; plain form posts send strings.
type formSignals struct {
	Sets      string `json:"sets"`
	Rarity    any    `json:"rarity"`
	Packs     any    `json:"packs"`
	Rares     any    `json:"rares"`
	Uncommons any    `json:"uncommons"`
	Commons   any    `json:"commons"`
	PoolName  string `json:"poolname"`
	Columns   string `json:"columns"`
}

// isDatastar reports whether the request was sent by a datastar action
func isDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// readInput reads the page signals, falling back to form values for
// browsers without JavaScript
func readInput(r *http.Request) (formSignals, error) {
	var in formSignals
	if isDatastar(r) {
		if err := datastar.ReadSignals(r, &in); err != nil {
			return in, fmt.Errorf("failed to read signals: %w", err)
		}
		return in, nil
	}
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("failed to parse form: %w", err)
	}
	in.Sets = r.FormValue("sets")
	in.Rarity = r.FormValue("rarity")
	in.Packs = r.FormValue("packs")
	in.Rares = r.FormValue("rares")
	in.Uncommons = r.FormValue("uncommons")
	in.Commons = r.FormValue("commons")
	in.PoolName = r.FormValue("poolname")
	in.Columns = r.FormValue("columns")
	return in, nil
}

// field renders a signal value the way ParsePackSpec expects it
func field(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// truthy reads a checkbox signal or form value
func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		if v == "on" {
			return true
		}
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// rejectInput reports a validation error: an error fragment for datastar
// actions, 400 for plain form posts
func rejectInput(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("⚠️ Rejected input: %v", err)
	if !isDatastar(r) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sse := datastar.NewSSE(w, r)
	sse.PatchElements(renderToString(components.ErrorMessage(err.Error())),
		datastar.WithSelector("#error-container"))
}

// FetchCube starts fetching a new cube for the session in the background.
// Any fetch still running for the session is cancelled.
func (h *Handler) FetchCube(w http.ResponseWriter, r *http.Request) {
	sess := h.getOrCreateSession(w, r)

	in, err := readInput(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	q, err := cube.ParseFetchQuery(in.Sets, truthy(in.Rarity))
	if err != nil {
		rejectInput(w, r, err)
		return
	}

	ctx, gen, err := h.store.BeginFetch(h.ctx, sess.ID, q)
	if err != nil {
		log.Printf("❌ Failed to begin fetch: %v", err)
		http.Error(w, "Session not found", http.StatusInternalServerError)
		return
	}
	log.Printf("🔎 Session %s fetching sets %s (rarity=%t)", shortID(sess.ID), strings.Join(q.Sets, ","), q.IncludeRarity)

	h.fetches.Add(1)
	go h.runFetch(ctx, sess.ID, gen, q)

	if !isDatastar(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	current, _ := h.store.GetSession(sess.ID)
	sse := datastar.NewSSE(w, r)
	sse.PatchElements(renderToString(components.ErrorMessage("")),
		datastar.WithSelector("#error-container"))
	sse.PatchElements(renderToString(components.CubeStatus(current)),
		datastar.WithSelector("#cube-status"))
	sse.MarshalAndPatchSignals(map[string]any{"fetching": current.Fetch.Running})
}

// runFetch runs one fetch to completion and commits the result unless a newer
// fetch has superseded it
func (h *Handler) runFetch(ctx context.Context, sessionID string, gen uint64, q cube.FetchQuery) {
	defer h.fetches.Done()

	result := h.fetcher.Fetch(ctx, q, func(p cube.PageProgress) {
		if h.store.ReportProgress(sessionID, gen, p) {
			h.eventBus.Publish(Event{Type: EventFetchProgress, SessionID: sessionID})
		}
	})

	if !h.store.FinishFetch(sessionID, gen, result) {
		log.Printf("🗑️ Discarded superseded fetch for session %s (%d cards)", shortID(sessionID), len(result.Cube))
		return
	}

	switch result.Status {
	case cube.FetchComplete:
		log.Printf("✅ Session %s fetched %d cards in %d pages", shortID(sessionID), len(result.Cube), result.Pages)
	case cube.FetchCancelled:
		log.Printf("🛑 Session %s cancelled its fetch after %d pages", shortID(sessionID), result.Pages)
	default:
		log.Printf("⚠️ Session %s got a partial cube (%d cards): %v", shortID(sessionID), len(result.Cube), result.Err)
	}
	h.eventBus.Publish(Event{Type: EventFetchDone, SessionID: sessionID})
}

// CancelFetch cancels the session's running fetch
func (h *Handler) CancelFetch(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.existingSession(r)
	if ok && h.store.CancelFetch(sess.ID) {
		log.Printf("🛑 Session %s requested cancellation", shortID(sess.ID))
	}

	if !isDatastar(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	// The fetch goroutine publishes the final state once it has stopped
	sse := datastar.NewSSE(w, r)
	sse.PatchElements(renderToString(components.ErrorMessage("")),
		datastar.WithSelector("#error-container"))
}

// GeneratePool draws a new pool from the session's current cube
func (h *Handler) GeneratePool(w http.ResponseWriter, r *http.Request) {
	sess := h.getOrCreateSession(w, r)

	in, err := readInput(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	spec, err := cube.ParsePackSpec(field(in.Packs), field(in.Rares), field(in.Uncommons), field(in.Commons))
	if err != nil {
		rejectInput(w, r, err)
		return
	}
	name := strings.TrimSpace(in.PoolName)
	if name == "" {
		name = h.config.Packs.PoolName
	}

	c, err := h.store.CubeSnapshot(sess.ID)
	if err != nil {
		http.Error(w, "Session not found", http.StatusInternalServerError)
		return
	}
	pool := h.sampler.GeneratePool(c, spec)

	poolID, err := h.store.SetPool(sess.ID, pool, spec, name)
	if err != nil {
		log.Printf("❌ Failed to store pool: %v", err)
		http.Error(w, "Session not found", http.StatusInternalServerError)
		return
	}
	log.Printf("🎲 Session %s generated pool %s: %d cards from a %d card cube", shortID(sess.ID), poolID, len(pool), len(c))
	h.eventBus.Publish(Event{Type: EventPoolGenerated, SessionID: sess.ID})

	if !isDatastar(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	current, err := h.store.GetSession(sess.ID)
	if err != nil {
		http.Error(w, "Session not found", http.StatusInternalServerError)
		return
	}
	sse := datastar.NewSSE(w, r)
	sse.PatchElements(renderToString(components.ErrorMessage("")),
		datastar.WithSelector("#error-container"))
	sse.PatchElements(renderToString(components.PoolView(current)),
		datastar.WithSelector("#pool"))
}
