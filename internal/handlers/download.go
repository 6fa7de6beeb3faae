package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"cubepool/internal/cube"
	"cubepool/internal/store"
	"cubepool/internal/views/components"

	"github.com/go-chi/chi/v5"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// DownloadPool serves the session's current pool as CSV. ?name= names the
// file and ?columns= overrides the configured export columns.
func (h *Handler) DownloadPool(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.existingSession(r)
	if !ok || sess.PoolID == "" {
		http.Error(w, "No pool generated yet", http.StatusNotFound)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = sess.PoolName
	}
	h.writePool(w, r, sess.Pool, name)
}

// DownloadPoolByID serves a generated pool by its download ID. It needs no
// cookie, so the link can be opened on another device.
func (h *Handler) DownloadPoolByID(w http.ResponseWriter, r *http.Request) {
	pool, name, err := h.store.GetPool(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrPoolNotFound) {
		http.Error(w, "Pool not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load pool", http.StatusInternalServerError)
		return
	}

	if q := r.URL.Query().Get("name"); q != "" {
		name = q
	}
	h.writePool(w, r, pool, name)
}

func (h *Handler) writePool(w http.ResponseWriter, r *http.Request, pool cube.Pool, name string) {
	columns, err := h.exportColumns(r.URL.Query().Get("columns"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body := cube.Export(pool, cube.ExportOptions{Columns: columns})
	filename := cube.Filename(name)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Printf("❌ Failed to write %s: %v", filename, err)
	}
}

// exportColumns applies a per-download column override to the configured policy
func (h *Handler) exportColumns(raw string) ([]cube.Column, error) {
	if strings.TrimSpace(raw) == "" {
		raw = strings.Join(h.config.Export.Columns, ",")
	}
	return cube.ParseColumns(raw)
}

// PoolQRCode renders a PNG QR code of the absolute download URL of a pool
func (h *Handler) PoolQRCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, name, err := h.store.GetPool(id)
	if err != nil {
		http.Error(w, "Pool not found", http.StatusNotFound)
		return
	}
	if q := r.URL.Query().Get("name"); q != "" {
		name = q
	}

	link := h.baseURL(r) + components.PoolLink(id, name)
	png, err := generateQRCode(link)
	if err != nil {
		log.Printf("❌ Failed to generate QR code for %s: %v", link, err)
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// generateQRCode encodes url as a PNG QR code
func generateQRCode(url string) ([]byte, error) {
	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	// The standard writer only targets files
	tmp, err := os.CreateTemp("", "cubepool-qr-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpFile := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpFile)

	w, err := standard.New(tmpFile,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8), // 8 pixels per module
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR code file: %w", err)
	}
	return data, nil
}

// baseURL is the configured public URL, or one derived from the request
func (h *Handler) baseURL(r *http.Request) string {
	if h.config.Server.PublicURL != "" {
		return strings.TrimRight(h.config.Server.PublicURL, "/")
	}
	return getBaseURL(r)
}

// getBaseURL constructs the base URL from the request
func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}

	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}
	return scheme + "://" + host
}
