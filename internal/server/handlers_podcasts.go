package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/podcast-planner/internal/db"
	"github.com/jonathan/podcast-planner/internal/pipeline"
	"github.com/jonathan/podcast-planner/internal/rendering"
	"github.com/jonathan/podcast-planner/internal/types"
)

// PodcastListResponse is the body of GET /podcasts
type PodcastListResponse struct {
	Podcasts []db.Run `json:"podcasts"`
	Count    int      `json:"count"`
}

// ArtifactListResponse is the body of GET /podcasts/{id}/artifacts
type ArtifactListResponse struct {
	RunID     uuid.UUID            `json:"run_id"`
	Artifacts []db.ArtifactSummary `json:"artifacts"`
}

// handleListPodcasts lists stored runs, newest first
func (s *Server) handleListPodcasts(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.failWith(w, &ErrStoreUnavailable{})
		return
	}

	filters := db.RunFilters{
		ArxivID: r.URL.Query().Get("arxiv_id"),
		Status:  r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.failWith(w, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		filters.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.failWith(w, fmt.Errorf("failed to list podcasts: %w", err))
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}

	s.jsonResponse(w, http.StatusOK, PodcastListResponse{Podcasts: runs, Count: len(runs)})
}

// handleGetPodcast returns the stored final artifact
func (s *Server) handleGetPodcast(w http.ResponseWriter, r *http.Request) {
	artifact, ok := s.loadArtifact(w, r, pipeline.StepFinal)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Content)
}

// handleDeletePodcast removes a run and its artifacts
func (s *Server) handleDeletePodcast(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		s.failWith(w, fmt.Errorf("failed to delete podcast: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScriptMarkdown renders the final script as Markdown
func (s *Server) handleScriptMarkdown(w http.ResponseWriter, r *http.Request) {
	final, ok := s.loadFinal(w, r)
	if !ok {
		return
	}
	md, err := rendering.ScriptMarkdown(final)
	if err != nil {
		s.failWith(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(md))
}

// handleScriptHTML renders the final script as an HTML page
func (s *Server) handleScriptHTML(w http.ResponseWriter, r *http.Request) {
	final, ok := s.loadFinal(w, r)
	if !ok {
		return
	}
	page, err := rendering.ScriptHTML(final)
	if err != nil {
		s.failWith(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

// handleListArtifacts lists the intermediate artifacts recorded for a run
func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	summaries, err := s.store.ListArtifacts(r.Context(), runID)
	if err != nil {
		s.failWith(w, fmt.Errorf("failed to list artifacts: %w", err))
		return
	}
	if summaries == nil {
		summaries = []db.ArtifactSummary{}
	}
	s.jsonResponse(w, http.StatusOK, ArtifactListResponse{RunID: runID, Artifacts: summaries})
}

// handleGetArtifact returns one intermediate artifact, e.g. the plan critique
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	artifact, ok := s.loadArtifact(w, r, r.PathValue("step"))
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, artifact)
}

// loadRun parses the {id} path value and checks that the run exists.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.store == nil {
		s.failWith(w, &ErrStoreUnavailable{})
		return uuid.Nil, false
	}

	idStr := r.PathValue("id")
	runID, err := uuid.Parse(idStr)
	if err != nil {
		s.failWith(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return uuid.Nil, false
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.failWith(w, fmt.Errorf("failed to load podcast: %w", err))
		return uuid.Nil, false
	}
	if run == nil {
		s.failWith(w, &ErrNotFound{What: "podcast", ID: idStr})
		return uuid.Nil, false
	}
	return runID, true
}

// loadArtifact fetches the artifact stored for step.
func (s *Server) loadArtifact(w http.ResponseWriter, r *http.Request, step string) (*db.Artifact, bool) {
	runID, ok := s.loadRun(w, r)
	if !ok {
		return nil, false
	}

	artifact, err := s.store.GetArtifact(r.Context(), runID, step)
	if err != nil {
		s.failWith(w, fmt.Errorf("failed to load artifact: %w", err))
		return nil, false
	}
	if artifact == nil {
		s.failWith(w, &ErrNotFound{What: step + " artifact", ID: runID.String()})
		return nil, false
	}
	return artifact, true
}

// loadFinal fetches and decodes the final artifact.
func (s *Server) loadFinal(w http.ResponseWriter, r *http.Request) (*types.FinalPodcastArtifact, bool) {
	artifact, ok := s.loadArtifact(w, r, pipeline.StepFinal)
	if !ok {
		return nil, false
	}
	var final types.FinalPodcastArtifact
	if err := json.Unmarshal(artifact.Content, &final); err != nil {
		s.failWith(w, fmt.Errorf("stored artifact is corrupt: %w", err))
		return nil, false
	}
	return &final, true
}
