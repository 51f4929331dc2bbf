package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() PodcastPlan {
	return PodcastPlan{
		Title:    "Attention, Explained",
		Overview: "A walk through the transformer paper for a general audience",
		Details: map[string]string{
			"Audience": "Curious non-specialists",
			"Tone":     "Conversational",
		},
		Segments: []string{
			"Why sequence models struggled",
			"What attention actually computes",
			"Where transformers went next",
		},
		AdditionalRequirements: []string{"Define jargon on first use"},
	}
}

func sampleScript() PodcastScript {
	return PodcastScript{
		Speakers: []string{"Host", "Guest"},
		Turns: []Turn{
			{Speaker: "Host", Text: "Welcome to the show."},
			{Speaker: "Guest", Text: "Thanks for having me, happy to talk attention."},
		},
	}
}

func TestPodcastPlan_RoundTrip(t *testing.T) {
	plan := samplePlan()

	data, err := json.Marshal(plan)
	require.NoError(t, err)

	var decoded PodcastPlan
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, plan, decoded)
}

func TestCritique_RoundTrip(t *testing.T) {
	critique := Critique{
		Feedback:    "Segment two assumes linear algebra.",
		Suggestions: []string{"Add an analogy", "Shorten the intro"},
	}

	data, err := json.Marshal(critique)
	require.NoError(t, err)

	var decoded Critique
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, critique, decoded)
}

func TestPodcastScript_RoundTrip(t *testing.T) {
	script := sampleScript()

	data, err := json.MarshalIndent(script, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content":`)
	assert.Contains(t, string(data), `"speaker": "Host"`)

	var decoded PodcastScript
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, script, decoded)
}

func TestPodcastPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *PodcastPlan)
		wantErr string
	}{
		{name: "valid", mutate: func(_ *PodcastPlan) {}},
		{name: "missing title", mutate: func(p *PodcastPlan) { p.Title = "  " }, wantErr: "title"},
		{name: "no segments", mutate: func(p *PodcastPlan) { p.Segments = nil }, wantErr: "segments"},
		{name: "blank segment", mutate: func(p *PodcastPlan) { p.Segments[1] = "" }, wantErr: "segments[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := samplePlan()
			tt.mutate(&plan)
			err := plan.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCritique_Validate(t *testing.T) {
	assert.NoError(t, (&Critique{Feedback: "ok"}).Validate())
	assert.Error(t, (&Critique{Suggestions: []string{"x"}}).Validate())
}

func TestPodcastScript_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *PodcastScript)
		wantErr string
	}{
		{name: "valid", mutate: func(_ *PodcastScript) {}},
		{name: "no speakers", mutate: func(s *PodcastScript) { s.Speakers = nil }, wantErr: "speakers"},
		{name: "no turns", mutate: func(s *PodcastScript) { s.Turns = nil }, wantErr: "content"},
		{
			name:    "unknown speaker",
			mutate:  func(s *PodcastScript) { s.Turns[1].Speaker = "Narrator" },
			wantErr: `speaker "Narrator" is not in the speaker list`,
		},
		{name: "empty text", mutate: func(s *PodcastScript) { s.Turns[0].Text = " " }, wantErr: "content[0].text"},
		{name: "blank speaker name", mutate: func(s *PodcastScript) { s.Speakers[0] = "" }, wantErr: "speakers[0]"},
		{
			name:    "duplicate speaker",
			mutate:  func(s *PodcastScript) { s.Speakers = []string{"Host", "Guest", "Host"} },
			wantErr: `speakers[2]: speaker "Host" is listed twice`,
		},
		{
			name:    "silent speaker",
			mutate:  func(s *PodcastScript) { s.Speakers = append(s.Speakers, "Producer") },
			wantErr: `speakers[2]: speaker "Producer" has no turns`,
		},
		{
			name:   "padded names match",
			mutate: func(s *PodcastScript) { s.Speakers[1] = " Guest " },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := sampleScript()
			tt.mutate(&script)
			err := script.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPodcastScript_EstimatedMinutes(t *testing.T) {
	script := PodcastScript{
		Speakers: []string{"Host"},
		Turns: []Turn{
			{Speaker: "Host", Text: strings.Repeat("word ", 300)},
			{Speaker: "Host", Text: strings.Repeat("word ", 75)},
		},
	}

	assert.Equal(t, 375, script.WordCount())
	assert.Equal(t, 2.5, script.EstimatedMinutes())
}

func TestCreatePodcastRequest_Validate(t *testing.T) {
	assert.NoError(t, (&CreatePodcastRequest{URL: "https://arxiv.org/abs/2106.14834"}).Validate())
	assert.Error(t, (&CreatePodcastRequest{}).Validate())
}

func TestFinalPodcastArtifact_JSON(t *testing.T) {
	plan := samplePlan()
	script := sampleScript()
	artifact := FinalPodcastArtifact{
		Plan:            &plan,
		Script:          &script,
		Critique:        "Tighten the ending.",
		DurationMinutes: 0.1,
	}

	data, err := json.Marshal(artifact)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"podcast_plan":`)
	assert.Contains(t, string(data), `"podcast_script":`)
	assert.Contains(t, string(data), `"critique":"Tighten the ending."`)
	assert.NotContains(t, string(data), `"run_id"`)
}
