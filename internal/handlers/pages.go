package handlers

import (
	"log"
	"net/http"
	"strings"

	"cubepool/internal/views/pages"
)

// Home renders the cube and pool page for the caller's session
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess := h.getOrCreateSession(w, r)

	data := pages.HomeData{
		Session: sess,
		Sets:    h.config.Scryfall.DefaultSets,
		Packs:   h.config.Packs,
		Columns: h.config.Export.Columns,
	}
	if sess.Fetch.Query.Sets != nil {
		data.Sets = strings.Join(sess.Fetch.Query.Sets, ",")
	}
	if sess.PoolID != "" {
		data.Packs.PackCount = sess.PoolSpec.PackCount
		data.Packs.RaresPerPack = sess.PoolSpec.RaresPerPack
		data.Packs.UncommonsPerPack = sess.PoolSpec.UncommonsPerPack
		data.Packs.CommonsPerPack = sess.PoolSpec.CommonsPerPack
		data.Packs.PoolName = sess.PoolName
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Home(data).Render(r.Context(), w); err != nil {
		log.Printf("❌ Failed to render home page: %v", err)
	}
}
