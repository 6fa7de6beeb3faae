package handlers

import (
	"bytes"
	"context"
	"log"
	"net/http"

	"cubepool/internal/store"
	"cubepool/internal/views/components"

	"github.com/a-h/templ"
	datastar "github.com/starfederation/datastar-go/datastar"
)

// StreamSession streams fetch progress, fetch results and generated pools of
// the caller's session. The page opens it on load.
func (h *Handler) StreamSession(w http.ResponseWriter, r *http.Request) {
	sess := h.getOrCreateSession(w, r)
	id := sess.ID
	log.Printf("📡 SSE connection established for session %s", shortID(id))

	if h.config.Debug() {
		log.Printf("DEBUG: 📡 SSE request details - User-Agent: %s, RemoteAddr: %s", r.Header.Get("User-Agent"), r.RemoteAddr)
	}

	// Subscribe before the first render so no update falls in between
	events := h.eventBus.Subscribe(id)
	defer func() {
		h.eventBus.Unsubscribe(id, events)
		log.Printf("📡 SSE connection closed for session %s", shortID(id))
	}()

	sse := datastar.NewSSE(w, r)

	current, err := h.store.GetSession(id)
	if err != nil {
		log.Printf("📡 Session %s vanished before streaming", shortID(id))
		return
	}
	if err := h.sendStatus(sse, current); err != nil {
		return
	}
	if err := h.sendPool(sse, current); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if h.config.Debug() {
				log.Printf("DEBUG: 📡 SSE event for %s: %s", shortID(id), event.Type)
			}

			current, err := h.store.GetSession(id)
			if err != nil {
				log.Printf("📡 Session %s expired, closing SSE", shortID(id))
				return
			}

			switch event.Type {
			case EventFetchProgress, EventFetchDone:
				err = h.sendStatus(sse, current)
			case EventPoolGenerated:
				err = h.sendPool(sse, current)
			}
			if err != nil {
				log.Printf("📡 SSE send failed for session %s: %v", shortID(id), err)
				return
			}
		}
	}
}

// sendStatus patches the cube status and the fetching signal
func (h *Handler) sendStatus(sse *datastar.ServerSentEventGenerator, sess store.Session) error {
	if err := sse.PatchElements(renderToString(components.CubeStatus(sess)),
		datastar.WithSelector("#cube-status")); err != nil {
		return err
	}
	return sse.MarshalAndPatchSignals(map[string]any{"fetching": sess.Fetch.Running})
}

// sendPool patches the generated pool
func (h *Handler) sendPool(sse *datastar.ServerSentEventGenerator, sess store.Session) error {
	return sse.PatchElements(renderToString(components.PoolView(sess)),
		datastar.WithSelector("#pool"))
}

// renderToString renders a templ component to string
func renderToString(component templ.Component) string {
	buf := &bytes.Buffer{}
	if err := component.Render(context.Background(), buf); err != nil {
		log.Printf("❌ Failed to render component: %v", err)
	}
	return buf.String()
}
