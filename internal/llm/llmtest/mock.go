// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/podcast-planner/internal/llm"
)

// Response is one scripted reply. A non-nil Err is returned instead of Text.
type Response struct {
	Text string
	Err  error
}

// MockClient replays Responses in order and records every request.
// When the script runs out, Fallback (if set) answers the remaining calls.
type MockClient struct {
	Responses []Response
	Fallback  func(req llm.Request) (string, error)

	mu       sync.Mutex
	requests []llm.Request
}

// NewMockClient scripts plain text replies.
func NewMockClient(texts ...string) *MockClient {
	m := &MockClient{}
	for _, t := range texts {
		m.Responses = append(m.Responses, Response{Text: t})
	}
	return m
}

// Generate returns the next scripted response.
func (m *MockClient) Generate(_ context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	n := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if n < len(m.Responses) {
		r := m.Responses[n]
		return r.Text, r.Err
	}
	if m.Fallback != nil {
		return m.Fallback(req)
	}
	return "", fmt.Errorf("llmtest: unexpected call %d", n+1)
}

// GetModel returns a fixed model name.
func (m *MockClient) GetModel(_ llm.ModelTier) string {
	return "mock-model"
}

// Close is a no-op.
func (m *MockClient) Close() error {
	return nil
}

// Calls reports how many times Generate was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the recorded requests.
func (m *MockClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Canned stage outputs shared by pipeline tests.
const (
	PlanJSON = `{
  "title": "Attention, Explained",
  "overview": "Two hosts unpack the paper.",
  "details": {"Audience": "General", "Tone": "Friendly"},
  "segments": ["Intro", "Core idea", "Results"],
  "additional_requirements": ["Define jargon"]
}`
	PlanCritiqueJSON = `{"feedback": "Add an analogy for the core idea.", "suggestions": ["Use a cooking analogy"]}`
	RevisedPlanJSON  = `{
  "title": "Attention, Explained Simply",
  "overview": "Two hosts unpack the paper with analogies.",
  "segments": ["Intro", "Core idea via cooking analogy", "Results", "Wrap-up"]
}`
	ScriptJSON = `{
  "speakers": ["Host", "Guest"],
  "content": [
    {"speaker": "Host", "text": "Welcome to the show."},
    {"speaker": "Guest", "text": "Thanks for having me."}
  ]
}`
	ScriptCritiqueJSON = `{"feedback": "Final critique: tighten the ending.", "suggestions": []}`
	RevisedScriptJSON  = `{
  "speakers": ["Host", "Guest"],
  "content": [
    {"speaker": "Host", "text": "Welcome back, today we talk attention."},
    {"speaker": "Guest", "text": "Think of it as a chef tasting every ingredient."},
    {"speaker": "Host", "text": "That is all for today."}
  ]
}`
)

// HappyPath returns a client scripted with a valid response for all six stages.
func HappyPath() *MockClient {
	return NewMockClient(PlanJSON, PlanCritiqueJSON, RevisedPlanJSON, ScriptJSON, ScriptCritiqueJSON, RevisedScriptJSON)
}
