// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/podcast-planner/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// PrintSource outputs what was acquired for the run.
func (p *Printer) PrintSource(src *types.SourceContent) {
	if src == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("arXiv ID: %s\n", src.ID))
	if src.Title != "" {
		sb.WriteString(fmt.Sprintf("Title:    %s\n", src.Title))
	}
	sb.WriteString(fmt.Sprintf("Mode:     %s\n", src.Mode))
	sb.WriteString(fmt.Sprintf("Text:     %d chars\n", utf8.RuneCountInString(src.Text)))

	p.printBox("SOURCE CONTENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPlan outputs a summary of a podcast plan. The label distinguishes the
// draft from the revision.
func (p *Printer) PrintPlan(label string, plan *types.PodcastPlan) {
	if plan == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\n", plan.Title))
	if plan.Overview != "" {
		sb.WriteString(fmt.Sprintf("%s\n", plan.Overview))
	}
	sb.WriteString("\n")

	if len(plan.Details) > 0 {
		keys := make([]string, 0, len(plan.Details))
		for k := range plan.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("%s: %s\n", k, plan.Details[k]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Segments (%d):\n", len(plan.Segments)))
	count := min(len(plan.Segments), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, plan.Segments[i]))
	}
	if len(plan.Segments) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(plan.Segments)-maxItemsToShow))
	}

	p.printBox(strings.ToUpper(label), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCritique outputs critique feedback and its suggestions.
func (p *Printer) PrintCritique(label string, critique *types.Critique) {
	if critique == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(critique.Feedback)
	sb.WriteString("\n")

	if len(critique.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		count := min(len(critique.Suggestions), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", critique.Suggestions[i]))
		}
		if len(critique.Suggestions) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(critique.Suggestions)-maxItemsToShow))
		}
	}

	p.printBox(strings.ToUpper(label), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScript outputs the speaker list, turn counts and the opening lines.
func (p *Printer) PrintScript(label string, script *types.PodcastScript) {
	if script == nil {
		return
	}

	perSpeaker := make(map[string]int)
	for _, turn := range script.Turns {
		perSpeaker[turn.Speaker]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Speakers: %s\n", strings.Join(script.Speakers, ", ")))
	sb.WriteString(fmt.Sprintf("Turns:    %d (", len(script.Turns)))
	for i, name := range script.Speakers {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s %d", name, perSpeaker[name]))
	}
	sb.WriteString(")\n")
	sb.WriteString(fmt.Sprintf("Length:   %d words, ~%.1f min\n", script.WordCount(), script.EstimatedMinutes()))
	sb.WriteString("\n")

	count := min(len(script.Turns), maxItemsToShow)
	for i := 0; i < count; i++ {
		turn := script.Turns[i]
		sb.WriteString(fmt.Sprintf("%s: %s\n", turn.Speaker, turn.Text))
	}
	if len(script.Turns) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more turns\n", len(script.Turns)-maxItemsToShow))
	}

	p.printBox(strings.ToUpper(label), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintArtifact outputs the final summary of a completed run.
func (p *Printer) PrintArtifact(artifact *types.FinalPodcastArtifact) {
	if artifact == nil {
		return
	}

	var sb strings.Builder
	if artifact.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run:      %s\n", artifact.RunID))
	}
	if artifact.Plan != nil {
		sb.WriteString(fmt.Sprintf("Title:    %s\n", artifact.Plan.Title))
	}
	if artifact.Script != nil {
		sb.WriteString(fmt.Sprintf("Turns:    %d\n", len(artifact.Script.Turns)))
	}
	sb.WriteString(fmt.Sprintf("Duration: ~%.1f min\n", artifact.DurationMinutes))
	if artifact.Critique != "" {
		sb.WriteString(fmt.Sprintf("\nLast critique:\n%s\n", artifact.Critique))
	}

	p.printBox("PODCAST READY", strings.TrimSuffix(sb.String(), "\n"))
}
