package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/vectordb"
)

// maxUploadBytes bounds the multipart form kept in memory before spilling
// to temp files.
const maxUploadBytes = 64 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"documents": s.engine.DocumentCount(r.Context()),
	})
}

type uploadResponse struct {
	ChunksIndexed int      `json:"chunks_indexed"`
	Files         []string `json:"files"`
}

// handleUpload accepts multipart file uploads, stages them under the data
// directory, and indexes them for the requesting user. The optional api_key
// field is used for the embedding call only and never stored.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	username := r.FormValue("username")
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}
	privacy := vectordb.PrivacyLevel(r.FormValue("privacy"))
	if privacy == "" {
		privacy = vectordb.PrivacyPrivate
	}
	if !privacy.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid privacy level %q", privacy)})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least one file is required"})
		return
	}

	uploadsDir := s.cfg.UploadsDir()
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("preparing uploads dir: %v", err)})
		return
	}

	// Staging is transient: the chunks live in the index after Ingest, so
	// the copies are removed no matter how the request ends.
	var paths []string
	var names []string
	defer func() {
		for _, p := range paths {
			if err := os.Remove(p); err != nil {
				log.Printf("upload: removing staged file %s: %v", p, err)
			}
		}
	}()
	for _, header := range files {
		src, err := header.Open()
		if err != nil {
			log.Printf("upload: opening %s: %v", header.Filename, err)
			continue
		}
		name := filepath.Base(header.Filename)
		dest := filepath.Join(uploadsDir, uuid.New().String()+"_"+name)
		out, err := os.Create(dest)
		if err != nil {
			src.Close()
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("staging %s: %v", name, err)})
			return
		}
		_, err = io.Copy(out, src)
		src.Close()
		out.Close()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("staging %s: %v", name, err)})
			return
		}
		paths = append(paths, dest)
		names = append(names, name)
	}

	n, err := s.engine.Ingest(r.Context(), engine.IngestRequest{
		Paths:    paths,
		Username: username,
		Privacy:  privacy,
		Provider: r.FormValue("provider"),
		APIKey:   r.FormValue("api_key"),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("indexing: %v", err)})
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{ChunksIndexed: n, Files: names})
}

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
	Provider  string `json:"provider"`
	APIKey    string `json:"api_key"`
}

// handleChat answers a question. Degraded outcomes (empty index, no
// relevant chunks, provider failures) still return 200 with a
// zero-confidence answer; only malformed requests get a 4xx.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	ans, err := s.engine.Ask(r.Context(), engine.QueryRequest{
		Query:     req.Query,
		SessionID: req.SessionID,
		Username:  req.Username,
		Provider:  req.Provider,
		APIKey:    req.APIKey,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

type messagesResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []history.Message `json:"messages"`
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	msgs, err := s.history.Recent(r.Context(), sessionID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("reading history: %v", err)})
		return
	}
	if msgs == nil {
		msgs = []history.Message{}
	}
	writeJSON(w, http.StatusOK, messagesResponse{SessionID: sessionID, Messages: msgs})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}
