package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jonathan/podcast-planner/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintSource(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSource(&types.SourceContent{
		ID:    "2106.14834",
		Title: "A Study of Attention",
		Mode:  types.SourceModeAbstract,
		Text:  "We study attention.",
	})
	output := buf.String()

	assert.Contains(t, output, "SOURCE CONTENT")
	assert.Contains(t, output, "2106.14834")
	assert.Contains(t, output, "abstract")
	assert.Contains(t, output, "19 chars")
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	plan := &types.PodcastPlan{
		Title:    "Attention, Explained",
		Overview: "Two hosts unpack the paper.",
		Details:  map[string]string{"Tone": "Friendly", "Audience": "General"},
		Segments: []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"},
	}

	p.PrintPlan("Draft plan", plan)
	output := buf.String()

	assert.Contains(t, output, "DRAFT PLAN")
	assert.Contains(t, output, "Attention, Explained")
	assert.Contains(t, output, "Segments (7)")
	assert.Contains(t, output, "5. Five")
	assert.NotContains(t, output, "Six")
	assert.Contains(t, output, "... and 2 more")
	// details are sorted by key
	assert.Less(t, strings.Index(output, "Audience"), strings.Index(output, "Tone"))
}

func TestPrintCritique(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCritique("Plan critique", &types.Critique{
		Feedback:    "Needs an analogy.",
		Suggestions: []string{"Use cooking"},
	})
	output := buf.String()

	assert.Contains(t, output, "PLAN CRITIQUE")
	assert.Contains(t, output, "Needs an analogy.")
	assert.Contains(t, output, "• Use cooking")
}

func TestPrintScript(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	script := &types.PodcastScript{
		Speakers: []string{"Host", "Guest"},
		Turns: []types.Turn{
			{Speaker: "Host", Text: "Welcome to the show."},
			{Speaker: "Guest", Text: "Thanks."},
			{Speaker: "Host", Text: "Let us begin."},
		},
	}

	p.PrintScript("Final script", script)
	output := buf.String()

	assert.Contains(t, output, "FINAL SCRIPT")
	assert.Contains(t, output, "Speakers: Host, Guest")
	assert.Contains(t, output, "Turns:    3 (Host 2, Guest 1)")
	assert.Contains(t, output, "Host: Welcome to the show.")
}

func TestPrintArtifact(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintArtifact(&types.FinalPodcastArtifact{
		RunID:           "abc",
		Plan:            &types.PodcastPlan{Title: "Episode"},
		Script:          &types.PodcastScript{Turns: []types.Turn{{Speaker: "Host", Text: "Hi"}}},
		Critique:        "Tighten the ending.",
		DurationMinutes: 12.5,
	})
	output := buf.String()

	assert.Contains(t, output, "PODCAST READY")
	assert.Contains(t, output, "~12.5 min")
	assert.Contains(t, output, "Tighten the ending.")
}

func TestPrinters_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSource(nil)
	p.PrintPlan("plan", nil)
	p.PrintCritique("critique", nil)
	p.PrintScript("script", nil)
	p.PrintArtifact(nil)

	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
