package api

import (
	"net/http"

	"github.com/communique/acebot/internal/history"
)

func (s *Server) handleHistory(hist HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "session_id is required")
			return
		}

		exchanges := hist.Get(sessionID)
		if exchanges == nil {
			exchanges = []history.Exchange{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": sessionID,
			"history":    exchanges,
		})
	}
}
