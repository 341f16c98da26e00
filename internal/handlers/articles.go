package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tomasrey/wireclip/internal/config"
	"github.com/tomasrey/wireclip/internal/models"
	"github.com/tomasrey/wireclip/internal/store"
)

// ArticlesHandler serves stored article records.
type ArticlesHandler struct {
	Store  *store.Store
	Topics *config.Topics
}

// List returns the records discovered in the trailing window, newest first.
// The window defaults to the configured digest window and can be overridden
// with ?window=6h (any Go duration string).
func (h *ArticlesHandler) List(w http.ResponseWriter, r *http.Request) {
	window := h.Topics.Window()
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "invalid window duration")
			return
		}
		window = d
	}

	now := time.Now().UTC()
	records, err := h.Store.QueryWindow(r.Context(), now.Add(-window), now)
	if err != nil {
		slog.Error("articles: query window", "err", err)
		writeError(w, http.StatusInternalServerError, "store read failed")
		return
	}

	// QueryWindow returns discovered-at ascending; present newest first.
	out := make([]models.Article, len(records))
	for i, a := range records {
		out[len(records)-1-i] = a
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":   window.String(),
		"count":    len(out),
		"articles": out,
	})
}
