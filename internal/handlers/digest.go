package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/digest"
	"github.com/tomasrey/wireclip/internal/store"
)

// DigestHandler builds digests on demand from the store. Reports are always
// built fresh: scores depend on the request time, so there is nothing
// cacheable beyond the store file itself.
type DigestHandler struct {
	Store  *store.Store
	Topics *config.Topics
}

// Report returns the current digest as JSON.
func (h *DigestHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, ok := h.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HTML returns the current digest rendered as HTML.
func (h *DigestHandler) HTML(w http.ResponseWriter, r *http.Request) {
	report, ok := h.build(w, r)
	if !ok {
		return
	}

	html, err := digest.Render(report)
	if err != nil {
		slog.Error("digest handler: render", "err", err)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(html); err != nil {
		slog.Error("digest handler: write", "err", err)
	}
}

func (h *DigestHandler) build(w http.ResponseWriter, r *http.Request) (*digest.Report, bool) {
	now := time.Now().UTC()
	records, err := h.Store.QueryWindow(r.Context(), now.Add(-h.Topics.Window()), now)
	if err != nil {
		slog.Error("digest handler: query window", "err", err)
		writeError(w, http.StatusInternalServerError, "store read failed")
		return nil, false
	}

	report := digest.Build(records, now, h.Topics)
	return &report, true
}
