package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jonathan/podcast-planner/internal/pipeline"
	"github.com/jonathan/podcast-planner/internal/types"
)

// decodeCreateRequest reads and validates a podcast creation body.
func decodeCreateRequest(r *http.Request) (*types.CreatePodcastRequest, error) {
	var req types.CreatePodcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, &ErrValidation{Field: "url", Message: "is required"}
	}
	return &req, nil
}

// acquireRunSlot waits for a pipeline slot until the request is cancelled.
func (s *Server) acquireRunSlot(w http.ResponseWriter, r *http.Request) bool {
	if err := s.runs.Acquire(r.Context(), 1); err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "request cancelled while waiting for a pipeline slot")
		return false
	}
	return true
}

// handleCreatePodcast runs the pipeline and returns the final artifact
func (s *Server) handleCreatePodcast(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateRequest(r)
	if err != nil {
		s.failWith(w, err)
		return
	}

	if !s.acquireRunSlot(w, r) {
		return
	}
	defer s.runs.Release(1)

	artifact, err := s.runner.Run(r.Context(), req.URL, nil)
	if err != nil {
		s.failWith(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, artifact)
}

// handleCreatePodcastStream runs the pipeline and streams progress as Server-Sent Events
func (s *Server) handleCreatePodcastStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateRequest(r)
	if err != nil {
		s.failWith(w, err)
		return
	}

	if !s.acquireRunSlot(w, r) {
		return
	}
	defer s.runs.Release(1)

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	onProgress := func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent(EventProgress, event); err != nil {
			log.Printf("[server] failed to write progress event: %v", err)
		}
	}

	artifact, err := s.runner.Run(r.Context(), req.URL, onProgress)
	if err != nil {
		log.Printf("[server] streamed run failed: %v", err)
		sse.WriteError(HTTPStatus(err), err.Error())
		return
	}
	sse.WriteResult(artifact)
}
