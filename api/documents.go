package api

import (
	"net/http"
	"time"

	"github.com/communique/acebot/internal/extract"
	"github.com/communique/acebot/internal/ingest"
)

type addDocumentRequest struct {
	URL        string `json:"url"`
	SourceType string `json:"source_type"`
	Force      bool   `json:"force,omitempty"`
}

type addDocumentResponse struct {
	URL           string `json:"url"`
	Status        string `json:"status"`
	ChunksWritten int    `json:"chunks_written,omitempty"`
}

func (s *Server) handleAddDocument(indexer Indexer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addDocumentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		kind, err := extract.ParseKind(req.SourceType)
		if err != nil {
			writeError(w, http.StatusBadRequest, "source_type must be article or pdf")
			return
		}

		res, err := indexer.Ingest(r.Context(), req.URL, kind, req.Force)
		if err != nil {
			s.logger.Error("document ingest failed", "url", req.URL, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to index document")
			return
		}

		writeJSON(w, http.StatusOK, addDocumentResponse{
			URL:           res.URL,
			Status:        string(res.Status),
			ChunksWritten: res.ChunksWritten,
		})
	}
}

type bulkAddRequest struct {
	Documents []addDocumentRequest `json:"documents"`
}

type bulkAddResponse struct {
	Results []addDocumentResponse `json:"results"`
}

func (s *Server) handleBulkAdd(indexer Indexer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkAddRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(req.Documents) == 0 {
			writeError(w, http.StatusBadRequest, "documents list is required")
			return
		}

		reqs := make([]ingest.Request, 0, len(req.Documents))
		for _, d := range req.Documents {
			if d.URL == "" {
				writeError(w, http.StatusBadRequest, "every document needs a url")
				return
			}
			kind, err := extract.ParseKind(d.SourceType)
			if err != nil {
				writeError(w, http.StatusBadRequest, "source_type must be article or pdf")
				return
			}
			reqs = append(reqs, ingest.Request{URL: d.URL, Kind: kind, Force: d.Force})
		}

		results, err := indexer.BulkIngest(r.Context(), reqs)
		if err != nil {
			s.logger.Error("bulk ingest aborted", "error", err)
			writeError(w, http.StatusInternalServerError, "bulk ingest aborted")
			return
		}

		resp := bulkAddResponse{Results: make([]addDocumentResponse, 0, len(results))}
		for _, res := range results {
			resp.Results = append(resp.Results, addDocumentResponse{
				URL:           res.URL,
				Status:        string(res.Status),
				ChunksWritten: res.ChunksWritten,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type documentJSON struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	SourceType string    `json:"source_type"`
	Processed  bool      `json:"processed"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) handleListDocuments(docs Documents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := docs.List(r.Context())
		if err != nil {
			s.logger.Error("listing documents failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list documents")
			return
		}

		out := make([]documentJSON, 0, len(list))
		for _, d := range list {
			out = append(out, documentJSON{
				URL:        d.URL,
				Title:      d.Title,
				SourceType: d.SourceType,
				Processed:  d.Processed,
				ChunkCount: d.ChunkCount,
				CreatedAt:  d.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": out})
	}
}

type statsResponse struct {
	TotalDocuments     int64 `json:"total_documents"`
	ProcessedDocuments int64 `json:"processed_documents"`
}

func (s *Server) handleStats(docs Documents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := docs.Stats(r.Context())
		if err != nil {
			s.logger.Error("reading stats failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read stats")
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{
			TotalDocuments:     stats.Total,
			ProcessedDocuments: stats.Processed,
		})
	}
}
