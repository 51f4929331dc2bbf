// Package pipeline provides the high-level orchestration for podcast generation:
// acquire the paper, then plan, critique and regenerate, then script, critique
// and regenerate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/podcast-planner/internal/generation"
	"github.com/jonathan/podcast-planner/internal/llm"
	"github.com/jonathan/podcast-planner/internal/observability"
	"github.com/jonathan/podcast-planner/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Acquirer retrieves source content for a URL and releases whatever it
// allocated for it.
type Acquirer interface {
	Acquire(ctx context.Context, rawURL string) (*types.SourceContent, error)
	Cleanup(src *types.SourceContent)
}

// ArtifactStore persists runs and their intermediate artifacts.
type ArtifactStore interface {
	CreateRun(ctx context.Context, runID uuid.UUID, sourceURL string) error
	SetRunSource(ctx context.Context, runID uuid.UUID, arxivID, title string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status, errMsg string) error
}

// Run statuses recorded in the ArtifactStore.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Artifact step names recorded in the ArtifactStore besides the stage names.
const (
	StepSource = "source"
	StepFinal  = "final"
)

// Config holds run-time settings for a Pipeline.
type Config struct {
	// StageTimeout bounds each acquisition and generation call. Zero disables it.
	StageTimeout time.Duration
	Verbose      bool
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStore records runs in store. Store failures are logged, never fatal.
func WithStore(store ArtifactStore) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithPrinter prints each artifact as it is produced.
func WithPrinter(printer *observability.Printer) Option {
	return func(p *Pipeline) { p.printer = printer }
}

// Pipeline runs the six-stage podcast chain. It holds no per-run state and is
// safe for concurrent use.
type Pipeline struct {
	cfg      Config
	acquirer Acquirer
	client   llm.Client
	store    ArtifactStore
	printer  *observability.Printer
}

// New creates a Pipeline.
func New(cfg Config, acquirer Acquirer, client llm.Client, opts ...Option) (*Pipeline, error) {
	if acquirer == nil {
		return nil, errors.New("acquirer is required")
	}
	if client == nil {
		return nil, errors.New("LLM client is required")
	}
	if cfg.StageTimeout < 0 {
		return nil, fmt.Errorf("stage timeout must not be negative, got %s", cfg.StageTimeout)
	}
	if err := generation.CheckPrompts(generation.Stages()); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg, acquirer: acquirer, client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Create runs the pipeline for rawURL without progress reporting.
func (p *Pipeline) Create(ctx context.Context, rawURL string) (*types.FinalPodcastArtifact, error) {
	return p.Run(ctx, rawURL, nil)
}

// Run executes acquisition and the six generative stages in order. Any
// failure stops the run and is returned as a *StageError; no partial result
// is ever returned.
func (p *Pipeline) Run(ctx context.Context, rawURL string, onProgress ProgressCallback) (*types.FinalPodcastArtifact, error) {
	r := &runState{
		p:          p,
		id:         uuid.New(),
		onProgress: onProgress,
	}
	r.createRun(ctx, rawURL)

	artifact, err := r.execute(ctx, rawURL)
	if err != nil {
		r.complete(ctx, StatusFailed, err.Error())
		r.emit(StateFailed, err.Error(), nil)
		return nil, err
	}

	r.complete(ctx, StatusCompleted, "")
	r.emit(StateDone, fmt.Sprintf("Podcast ready: %s", artifact.Plan.Title), nil)
	return artifact, nil
}

func (r *runState) execute(ctx context.Context, rawURL string) (*types.FinalPodcastArtifact, error) {
	p := r.p

	r.enter(StateAcquiring, fmt.Sprintf("Acquiring source content from %s", rawURL))
	src, err := p.acquire(ctx, rawURL)
	if err != nil {
		return nil, r.fail(StateAcquiring, err)
	}
	defer p.acquirer.Cleanup(src)

	if p.printer != nil {
		p.printer.PrintSource(src)
	}
	r.setSource(ctx, src)
	r.emit(StateAcquiring, fmt.Sprintf("Acquired %d chars for arXiv %s", len(src.Text), src.ID), src)

	// Plan, critique, regenerate.
	plan, err := runStage[types.PodcastPlan](ctx, r, StatePlanning, generation.PlanStage, map[string]string{
		generation.KeySourceID: src.ID,
		generation.KeyContent:  src.Text,
	})
	if err != nil {
		return nil, err
	}
	r.print(func(pr *observability.Printer) { pr.PrintPlan("Draft plan", plan) })

	planJSON, err := r.marshal(StateCritiquingPlan, plan)
	if err != nil {
		return nil, err
	}
	planCritique, err := runStage[types.Critique](ctx, r, StateCritiquingPlan, generation.CritiquePlanStage, map[string]string{
		generation.KeyPlan: planJSON,
	})
	if err != nil {
		return nil, err
	}
	r.print(func(pr *observability.Printer) { pr.PrintCritique("Plan critique", planCritique) })

	critiqueJSON, err := r.marshal(StateRegeneratingPlan, planCritique)
	if err != nil {
		return nil, err
	}
	revisedPlan, err := runStage[types.PodcastPlan](ctx, r, StateRegeneratingPlan, generation.RegeneratePlanStage, map[string]string{
		generation.KeyPlan:     planJSON,
		generation.KeyCritique: critiqueJSON,
	})
	if err != nil {
		return nil, err
	}
	r.print(func(pr *observability.Printer) { pr.PrintPlan("Revised plan", revisedPlan) })

	// Script, critique, regenerate.
	revisedPlanJSON, err := r.marshal(StateScripting, revisedPlan)
	if err != nil {
		return nil, err
	}
	script, err := runStage[types.PodcastScript](ctx, r, StateScripting, generation.ScriptStage, map[string]string{
		generation.KeyPlan: revisedPlanJSON,
	})
	if err != nil {
		return nil, err
	}
	r.print(func(pr *observability.Printer) { pr.PrintScript("Draft script", script) })

	scriptJSON, err := r.marshal(StateCritiquingScript, script)
	if err != nil {
		return nil, err
	}
	scriptCritique, err := runStage[types.Critique](ctx, r, StateCritiquingScript, generation.CritiqueScriptStage, map[string]string{
		generation.KeyScript: scriptJSON,
	})
	if err != nil {
		return nil, err
	}
	r.print(func(pr *observability.Printer) { pr.PrintCritique("Script critique", scriptCritique) })

	critiqueJSON, err = r.marshal(StateRegeneratingScript, scriptCritique)
	if err != nil {
		return nil, err
	}
	finalScript, err := runStage[types.PodcastScript](ctx, r, StateRegeneratingScript, generation.RegenerateScriptStage, map[string]string{
		generation.KeyScript:   scriptJSON,
		generation.KeyCritique: critiqueJSON,
	})
	if err != nil {
		return nil, err
	}

	artifact := &types.FinalPodcastArtifact{
		RunID:           r.id.String(),
		Source:          src,
		Plan:            revisedPlan,
		Script:          finalScript,
		Critique:        scriptCritique.Feedback,
		DurationMinutes: finalScript.EstimatedMinutes(),
	}
	r.print(func(pr *observability.Printer) { pr.PrintArtifact(artifact) })
	r.save(ctx, StepFinal, artifact)
	return artifact, nil
}

// runStage performs one generative stage under the stage timeout and records
// its artifact.
func runStage[T any](ctx context.Context, r *runState, state State, stage generation.Stage, data map[string]string) (*T, error) {
	r.enter(state, fmt.Sprintf("Step %d/7: %s", state.Step(), stage.Name))

	stageCtx, cancel := r.p.stageContext(ctx)
	defer cancel()

	out, err := generation.Run[T](stageCtx, r.p.client, stage, data)
	if err != nil {
		return nil, r.fail(state, err)
	}

	r.save(ctx, stage.Name, out)
	r.emit(state, fmt.Sprintf("Completed %s", stage.Name), out)
	return out, nil
}

func (p *Pipeline) acquire(ctx context.Context, rawURL string) (*types.SourceContent, error) {
	stageCtx, cancel := p.stageContext(ctx)
	defer cancel()
	return p.acquirer.Acquire(stageCtx, rawURL)
}

func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.StageTimeout > 0 {
		return context.WithTimeout(ctx, p.cfg.StageTimeout)
	}
	return context.WithCancel(ctx)
}

// runState carries per-run bookkeeping.
type runState struct {
	p          *Pipeline
	id         uuid.UUID
	onProgress ProgressCallback
	// stored is false when there is no store or the run row could not be created.
	stored bool
}

func (r *runState) enter(state State, message string) {
	if r.p.cfg.Verbose {
		log.Printf("[pipeline] run=%s state=%s", r.id, state)
	}
	r.emit(state, message, nil)
}

func (r *runState) emit(state State, message string, content any) {
	if r.onProgress == nil {
		return
	}
	r.onProgress(ProgressEvent{
		Step:     state.String(),
		Category: state.category(),
		Message:  message,
		RunID:    r.id.String(),
		Content:  content,
	})
}

func (r *runState) fail(state State, err error) error {
	if r.p.cfg.Verbose {
		log.Printf("[pipeline] run=%s failed while %s: %v", r.id, state, err)
	}
	return &StageError{State: state, Err: err}
}

func (r *runState) marshal(state State, v any) (string, error) {
	s, err := generation.MarshalArtifact(v)
	if err != nil {
		return "", r.fail(state, err)
	}
	return s, nil
}

func (r *runState) print(fn func(*observability.Printer)) {
	if r.p.printer != nil {
		fn(r.p.printer)
	}
}

func (r *runState) createRun(ctx context.Context, rawURL string) {
	if r.p.store == nil {
		return
	}
	if err := r.p.store.CreateRun(ctx, r.id, rawURL); err != nil {
		log.Printf("[pipeline] Warning: failed to record run %s: %v", r.id, err)
		return
	}
	r.stored = true
}

func (r *runState) setSource(ctx context.Context, src *types.SourceContent) {
	if !r.stored {
		return
	}
	if err := r.p.store.SetRunSource(ctx, r.id, src.ID, src.Title); err != nil {
		log.Printf("[pipeline] Warning: failed to record source for run %s: %v", r.id, err)
	}
	r.save(ctx, StepSource, src)
}

func (r *runState) save(ctx context.Context, step string, content any) {
	if !r.stored {
		return
	}
	if err := r.p.store.SaveArtifact(ctx, r.id, step, content); err != nil {
		log.Printf("[pipeline] Warning: failed to save %s artifact for run %s: %v", step, r.id, err)
	}
}

func (r *runState) complete(ctx context.Context, status, errMsg string) {
	if !r.stored {
		return
	}
	// The request context may already be cancelled; the final status should still land.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.p.store.CompleteRun(ctx, r.id, status, errMsg); err != nil {
		log.Printf("[pipeline] Warning: failed to complete run %s: %v", r.id, err)
	}
}
