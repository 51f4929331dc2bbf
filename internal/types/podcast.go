// Package types provides type definitions for structured data used throughout the podcast planner.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"math"
	"strings"
)

// WordsPerMinute is the speaking rate used to estimate episode length.
const WordsPerMinute = 150

// SourceMode selects how source content is acquired from arXiv.
type SourceMode string

const (
	// SourceModePDF downloads the paper PDF and extracts text from its first pages.
	SourceModePDF SourceMode = "pdf"
	// SourceModeAbstract scrapes the abstract from the arXiv abstract page.
	SourceModeAbstract SourceMode = "abstract"
)

// SourceContent is the text that seeds the pipeline, plus where it came from.
type SourceContent struct {
	ID    string     `json:"id"`
	Title string     `json:"title,omitempty"`
	URL   string     `json:"url"`
	Mode  SourceMode `json:"mode"`
	Text  string     `json:"-"`
	// Hash is the SHA-256 hex digest of Text; RetrievedAt is RFC3339 UTC.
	Hash        string `json:"hash,omitempty"`
	RetrievedAt string `json:"retrieved_at,omitempty"`
	// Path is the transient downloaded file, if any. Removed after the run.
	Path string `json:"-"`
}

// PodcastPlan is the structured outline produced by the planning stages.
// Revisions produce a new PodcastPlan; plans are never edited in place.
type PodcastPlan struct {
	Title                  string            `json:"title"`
	Overview               string            `json:"overview,omitempty"`
	Details                map[string]string `json:"details,omitempty"`
	Segments               []string          `json:"segments"`
	AdditionalRequirements []string          `json:"additional_requirements,omitempty"`
}

// Validate checks the plan fields the later stages depend on.
func (p *PodcastPlan) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(p.Segments) == 0 {
		return &ValidationError{Field: "segments", Message: "at least one segment is required"}
	}
	for i, seg := range p.Segments {
		if strings.TrimSpace(seg) == "" {
			return &ValidationError{Field: fmt.Sprintf("segments[%d]", i), Message: "segment is empty"}
		}
	}
	return nil
}

// Critique is review feedback on a plan or script. It is consumed once by the
// following regeneration stage.
type Critique struct {
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Validate requires non-empty feedback.
func (c *Critique) Validate() error {
	if strings.TrimSpace(c.Feedback) == "" {
		return &ValidationError{Field: "feedback", Message: "feedback is required"}
	}
	return nil
}

// Turn is a single line of dialogue.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// PodcastScript is an ordered dialogue between a fixed set of speakers.
type PodcastScript struct {
	Speakers []string `json:"speakers"`
	Turns    []Turn   `json:"content"`
}

// Validate checks that the script has speakers and turns, and that the
// speaker list is exactly the set of names that speak: no duplicates, no
// undeclared speakers and no declared speaker without a turn.
func (s *PodcastScript) Validate() error {
	if len(s.Speakers) == 0 {
		return &ValidationError{Field: "speakers", Message: "at least one speaker is required"}
	}
	if len(s.Turns) == 0 {
		return &ValidationError{Field: "content", Message: "at least one turn is required"}
	}

	spoke := make(map[string]bool, len(s.Speakers))
	for i, name := range s.Speakers {
		name = strings.TrimSpace(name)
		if name == "" {
			return &ValidationError{Field: fmt.Sprintf("speakers[%d]", i), Message: "speaker name is empty"}
		}
		if _, dup := spoke[name]; dup {
			return &ValidationError{Field: fmt.Sprintf("speakers[%d]", i), Message: fmt.Sprintf("speaker %q is listed twice", name)}
		}
		spoke[name] = false
	}

	for i, turn := range s.Turns {
		name := strings.TrimSpace(turn.Speaker)
		if _, known := spoke[name]; !known {
			return &ValidationError{
				Field:   fmt.Sprintf("content[%d].speaker", i),
				Message: fmt.Sprintf("speaker %q is not in the speaker list", turn.Speaker),
			}
		}
		if strings.TrimSpace(turn.Text) == "" {
			return &ValidationError{Field: fmt.Sprintf("content[%d].text", i), Message: "turn text is empty"}
		}
		spoke[name] = true
	}

	for i, name := range s.Speakers {
		if !spoke[strings.TrimSpace(name)] {
			return &ValidationError{Field: fmt.Sprintf("speakers[%d]", i), Message: fmt.Sprintf("speaker %q has no turns", name)}
		}
	}
	return nil
}

// WordCount returns the number of spoken words across all turns.
func (s *PodcastScript) WordCount() int {
	count := 0
	for _, turn := range s.Turns {
		count += len(strings.Fields(turn.Text))
	}
	return count
}

// EstimatedMinutes estimates the spoken length of the script, rounded to one decimal.
func (s *PodcastScript) EstimatedMinutes() float64 {
	minutes := float64(s.WordCount()) / WordsPerMinute
	return math.Round(minutes*10) / 10
}

// FinalPodcastArtifact is the externally visible result of a pipeline run.
type FinalPodcastArtifact struct {
	RunID           string         `json:"run_id,omitempty"`
	Source          *SourceContent `json:"source,omitempty"`
	Plan            *PodcastPlan   `json:"podcast_plan"`
	Script          *PodcastScript `json:"podcast_script"`
	Critique        string         `json:"critique"`
	DurationMinutes float64        `json:"duration_minutes"`
}

// ValidationError reports a structured artifact that is well-formed JSON but
// semantically incomplete.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
