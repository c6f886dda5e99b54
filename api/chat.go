package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/communique/acebot/internal/answer"
	"github.com/communique/acebot/internal/retrieve"
)

type chatRequest struct {
	// Query and Message are aliases; clients send either.
	Query     string `json:"query,omitempty"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response  string          `json:"response"`
	Sources   []answer.Source `json:"sources"`
	SessionID string          `json:"session_id"`
}

func (s *Server) handleChat(answerer Answerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		question := req.Query
		if question == "" {
			question = req.Message
		}
		if question == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		resp, err := answerer.Answer(r.Context(), question, sessionID)
		if err != nil {
			if errors.Is(err, retrieve.ErrEmptyQuery) {
				writeError(w, http.StatusBadRequest, "query is required")
				return
			}
			s.logger.Error("chat failed", "session", sessionID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to generate answer")
			return
		}

		writeJSON(w, http.StatusOK, chatResponse{
			Response:  resp.Text,
			Sources:   resp.Sources,
			SessionID: sessionID,
		})
	}
}
