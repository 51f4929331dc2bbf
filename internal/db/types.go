package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run represents a podcast run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	SourceURL   string     `json:"source_url"`
	ArxivID     string     `json:"arxiv_id,omitempty"`
	Title       string     `json:"title,omitempty"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Artifact is one stored stage output
type Artifact struct {
	ID        uuid.UUID       `json:"id"`
	RunID     uuid.UUID       `json:"run_id"`
	Step      string          `json:"step"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

// ArtifactSummary is a lightweight view of an artifact for listing
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	CreatedAt time.Time `json:"created_at"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	ArxivID string
	Status  string
	Limit   int
}

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 50

// MaxListLimit is the largest accepted limit.
const MaxListLimit = 500
