package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/KatriaDopex/moltmatch/internal/moltbook"
	"github.com/KatriaDopex/moltmatch/internal/session"
)

// Searcher runs a semantic search on the remote network with a session's
// credential.
type Searcher interface {
	Search(ctx context.Context, apiKey, query string, limit int) ([]moltbook.SearchResult, error)
}

// Search proxies the Moltbook semantic search. Live sessions only; demo
// mode has no credential to search with.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		Error(w, http.StatusNotFound, "search is not enabled")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		Error(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			Error(w, http.StatusBadRequest, "limit must be an integer between 1 and 50")
			return
		}
		limit = n
	}

	st := h.svc.Session(r.Context(), deviceID(r))
	if !st.LiveMode || st.APIKey == "" {
		serviceError(w, session.ErrNoActiveAgent)
		return
	}

	results, err := h.searcher.Search(r.Context(), st.APIKey, query, limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
