package api

import (
	"context"
	"net/http"
	"time"
)

// handleHealth reports process liveness.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports readiness: storage must answer a ping. With no
// pinger configured readiness degrades to liveness.
func handleReady(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "storage unavailable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
