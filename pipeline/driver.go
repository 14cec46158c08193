/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	"unicode"

	genmetrics "chainguard.dev/touchup/agents/metrics"
	"chainguard.dev/touchup/agents/textgen"
	"chainguard.dev/touchup/repos/githubsource"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// State is a step in the per-repository state machine. Outcomes only ever
// carry the terminal states StatePublished, StateSkipped and StateFailed.
type State string

const (
	StateDiscovered   State = "DISCOVERED"
	StateSynced       State = "SYNCED"
	StateEditProposed State = "EDIT_PROPOSED"
	StateAccepted     State = "ACCEPTED"
	StateRejected     State = "REJECTED"
	StatePublished    State = "PUBLISHED"
	StateSkipped      State = "SKIPPED"
	StateFailed       State = "FAILED"
)

// ErrDiscovery wraps failures to list repositories. It is the only error
// Run returns.
var ErrDiscovery = errors.New("repository discovery failed")

// Source lists the repositories to process.
type Source interface {
	List(ctx context.Context) ([]githubsource.Repository, error)
}

// Workspace is a synchronized working copy.
type Workspace interface {
	VersionControl
	// Name is the repository name used in commit messages.
	Name() string
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

// Synchronizer brings the working copy for a clone URL up to date.
type Synchronizer interface {
	Sync(ctx context.Context, cloneURL string) (Workspace, error)
}

// SynchronizerFunc adapts a function to Synchronizer.
type SynchronizerFunc func(ctx context.Context, cloneURL string) (Workspace, error)

// Sync implements Synchronizer.
func (f SynchronizerFunc) Sync(ctx context.Context, cloneURL string) (Workspace, error) {
	return f(ctx, cloneURL)
}

// Outcome is what happened to one repository.
type Outcome struct {
	Repository string
	State      State
	// Commit is set for StatePublished.
	Commit string
	// Reason says why a repository was skipped.
	Reason string
	// Err is set for StateFailed.
	Err error
}

// Report lists outcomes in the order repositories were listed.
type Report struct {
	Outcomes []Outcome
}

// Count returns how many outcomes ended in state.
func (r Report) Count(state State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

// Driver runs the pipeline over every listed repository.
type Driver struct {
	targetFile string
	source     Source
	sync       Synchronizer
	proposer   *Proposer
	gate       *Gate
	composer   *Composer
	publisher  *Publisher
	metrics    *Metrics
	tracer     oteltrace.Tracer

	summarizer     textgen.Interface
	chooser        Chooser
	tracerProvider oteltrace.TracerProvider
}

// Option configures a Driver.
type Option func(*Driver)

// WithSummarizer describes accepted changes with gen. Without it every commit
// uses the fallback summary.
func WithSummarizer(gen textgen.Interface) Option {
	return func(d *Driver) {
		d.summarizer = gen
	}
}

// WithChooser replaces the random commit message template choice.
func WithChooser(c Chooser) Option {
	return func(d *Driver) {
		d.chooser = c
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// WithTracerProvider creates spans for runs and repositories from tp instead
// of the global provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(d *Driver) {
		d.tracerProvider = tp
	}
}

// NewDriver wires the pipeline components from cfg.
func NewDriver(cfg Config, source Source, sync Synchronizer, gen textgen.Interface, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, errors.New("source cannot be nil")
	}
	if sync == nil {
		return nil, errors.New("synchronizer cannot be nil")
	}

	d := &Driver{
		targetFile: cfg.TargetFile,
		source:     source,
		sync:       sync,
		publisher:  NewPublisher(),
	}
	for _, opt := range opts {
		opt(d)
	}

	var err error
	if d.proposer, err = NewProposer(gen, cfg.GenerationTokenBudget, cfg.Temperature); err != nil {
		return nil, err
	}
	if d.gate, err = NewGate(cfg.AcceptanceLengthRatio); err != nil {
		return nil, err
	}
	d.composer = NewComposer(cfg.TargetFile, d.summarizer, cfg.SummaryTokenBudget, cfg.Temperature, d.chooser)
	d.tracer = newTracer(d.tracerProvider)
	return d, nil
}

// Run lists repositories and processes each in turn. Per-repository failures
// are recorded in the report; only a listing failure is returned, wrapped in
// ErrDiscovery, in which case no repository is touched.
func (d *Driver) Run(ctx context.Context) (rep Report, err error) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, spanRun)
	defer func() {
		d.metrics.observeRun(start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	log := clog.FromContext(ctx)

	log.Info("Starting repository updates")
	repos, err := d.source.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	span.SetAttributes(attribute.Int("repositories", len(repos)))

	rep.Outcomes = make([]Outcome, 0, len(repos))
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			log.Warnf("Stopping before %s: %v", repo.FullName, err)
			break
		}
		rctx := clog.WithValues(ctx, "repo", repo.FullName)
		rctx = genmetrics.WithAttributes(rctx, attribute.String("repository", repo.FullName))
		rctx, rspan := d.startRepository(rctx, repo.FullName, repo.CloneURL)
		out := d.process(rctx, repo)
		endRepository(rspan, out)
		d.metrics.observeOutcome(out.State)
		rep.Outcomes = append(rep.Outcomes, out)
	}

	log.With("published", rep.Count(StatePublished)).
		With("skipped", rep.Count(StateSkipped)).
		With("failed", rep.Count(StateFailed)).
		Info("Finished repository updates")
	return rep, nil
}

func (d *Driver) process(ctx context.Context, repo githubsource.Repository) Outcome {
	log := clog.FromContext(ctx)
	name := repo.FullName
	if name == "" {
		name = repo.Name
	}
	out := Outcome{Repository: name, State: StateDiscovered}
	fail := func(step string, err error) Outcome {
		out.State = StateFailed
		out.Err = fmt.Errorf("%s: %w", step, err)
		log.Errorf("Processing failed at %s: %v", step, err)
		return out
	}

	ws, err := d.sync.Sync(ctx, repo.CloneURL)
	if err != nil {
		return fail("sync", err)
	}
	out.State = StateSynced

	data, err := ws.ReadFile(d.targetFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Infof("No %s, nothing to do", d.targetFile)
		out.State = StateSkipped
		out.Reason = "missing " + d.targetFile
		return out
	case err != nil:
		return fail("read", err)
	}
	original := string(data)

	candidate, err := d.proposer.Propose(ctx, original)
	if err != nil {
		return fail("generate", err)
	}
	out.State = StateEditProposed

	candidate = restoreTrailingSpace(original, candidate)

	decision := d.gate.Evaluate(original, candidate)
	d.metrics.observeDecision(decision.Reason)
	if !decision.Accepted {
		log.With("reason", decision.Reason).
			With("original_length", decision.OriginalLength).
			With("candidate_length", decision.CandidateLength).
			Info("Candidate rejected")
		out.State = StateSkipped
		out.Reason = string(decision.Reason)
		return out
	}
	out.State = StateAccepted

	if err := ws.WriteFile(d.targetFile, []byte(candidate)); err != nil {
		return fail("write", err)
	}
	summary := d.composer.Summarize(ctx, original, candidate)
	message, err := d.composer.ComposeMessage(ws.Name(), summary)
	if err != nil {
		return fail("compose", err)
	}

	res, err := d.publisher.Publish(ctx, ws, ChangeRecord{
		CommitMessage: message,
		FilePath:      d.targetFile,
		Accepted:      decision.Accepted,
	})
	if err != nil {
		return fail("publish", err)
	}
	out.State = StatePublished
	out.Commit = res.Commit
	return out
}

// restoreTrailingSpace gives a non-empty candidate the trailing whitespace of
// original. Proposals come back trimmed, so an echoed file must get its
// ending back to compare equal.
func restoreTrailingSpace(original, candidate string) string {
	if candidate == "" {
		return candidate
	}
	tail := original[len(strings.TrimRightFunc(original, unicode.IsSpace)):]
	return strings.TrimRightFunc(candidate, unicode.IsSpace) + tail
}
