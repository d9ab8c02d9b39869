// Package pipeline drives generation over configured submodules: enumerate,
// generate in parallel, persist accepted pairs, write the index, and record
// every outcome.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"nodegen/internal/catalog"
	"nodegen/internal/emit"
	"nodegen/internal/ledger"
	"nodegen/internal/logging"
	"nodegen/internal/synth"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Recorder receives run bookkeeping. *ledger.Store implements it.
type Recorder interface {
	BeginRun(ctx context.Context, id string, dryRun bool) error
	RecordOutcome(ctx context.Context, o ledger.Outcome) error
	FinishRun(ctx context.Context, id string, accepted, rejected, skipped int) error
}

type nopRecorder struct{}

func (nopRecorder) BeginRun(context.Context, string, bool) error { return nil }
func (nopRecorder) RecordOutcome(context.Context, ledger.Outcome) error { return nil }
func (nopRecorder) FinishRun(context.Context, string, int, int, int) error { return nil }

// Options configures a Runner.
type Options struct {
	Workers int
	DryRun  bool
	Rules   synth.Rules
}

// Runner generates nodes for submodules.
type Runner struct {
	gen      *synth.Generator
	writer   *emit.Writer
	recorder Recorder
	opts     Options
	newID    func() string
}

// NewRunner creates a runner writing through w.
func NewRunner(w *emit.Writer, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		gen:      synth.NewGenerator(opts.Rules),
		writer:   w,
		recorder: nopRecorder{},
		opts:     opts,
		newID:    func() string { return uuid.New().String() },
	}
}

// WithRecorder sets where outcomes are recorded.
func (r *Runner) WithRecorder(rec Recorder) *Runner {
	if rec == nil {
		rec = nopRecorder{}
	}
	r.recorder = rec
	return r
}

// Close releases the generator.
func (r *Runner) Close() {
	r.gen.Close()
}

// Run processes subs in order and returns the report. Per-callable
// rejections never fail the run; enumeration, write, and cancellation
// errors do.
func (r *Runner) Run(ctx context.Context, subs []Submodule) (*Report, error) {
	report := &Report{RunID: r.newID(), DryRun: r.opts.DryRun}
	start := time.Now()

	if err := r.recorder.BeginRun(ctx, report.RunID, r.opts.DryRun); err != nil {
		logging.PipelineWarn("ledger unavailable: %v", err)
	}

	for _, sub := range subs {
		sr, err := r.RunSubmodule(ctx, report.RunID, sub)
		if err != nil {
			return report, err
		}
		report.Submodules = append(report.Submodules, sr)
	}
	report.Duration = time.Since(start)

	accepted, rejected, skipped := report.Totals()
	if err := r.recorder.FinishRun(ctx, report.RunID, accepted, rejected, skipped); err != nil {
		logging.PipelineWarn("ledger unavailable: %v", err)
	}
	logging.Pipeline("run %s: %d accepted, %d rejected, %d skipped in %s",
		report.RunID, accepted, rejected, skipped, report.Duration)
	return report, nil
}

// RunSubmodule generates every callable of sub, then writes the index with
// the accepted keys in discovery order.
func (r *Runner) RunSubmodule(ctx context.Context, runID string, sub Submodule) (SubmoduleReport, error) {
	timer := logging.StartTimer(logging.CategoryPipeline, "submodule "+sub.String())
	defer timer.Stop()

	sr := SubmoduleReport{Library: sub.Library, Submodule: sub.Name, Category: sub.Category()}
	callables, err := sub.Source.Callables(ctx)
	if err != nil {
		return sr, fmt.Errorf("failed to enumerate %s: %w", sub, err)
	}
	logging.PipelineDebug("%s: %d callables", sub, len(callables))

	results := make([]synth.Result, len(callables))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.opts.Workers)
	for i, c := range callables {
		i, c := i, c
		if c.Namespace == "" {
			c.Namespace = sub.Namespace
		}
		eg.Go(func() error {
			res, err := r.process(egCtx, runID, sub, c)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return sr, err
	}
	sr.Results = results

	if err := r.writer.WriteIndex(sub.Library, sub.Name, sr.Keys()); err != nil {
		return sr, err
	}
	return sr, nil
}

// process runs one callable to a terminal state.
func (r *Runner) process(ctx context.Context, runID string, sub Submodule, c catalog.Callable) (synth.Result, error) {
	res, err := r.gen.Generate(ctx, c, sub.Category())
	if err != nil {
		return res, err
	}
	if res.Accepted() {
		if err := r.writer.WriteArtifacts(sub.Library, sub.Name, c.Name, res.Artifacts); err != nil {
			return res, fmt.Errorf("failed to persist %s: %w", c.Name, err)
		}
		if !r.opts.DryRun {
			res = res.Persisted()
		}
	}

	o := ledger.Outcome{
		RunID:     runID,
		Library:   sub.Library,
		Submodule: sub.Name,
		Callable:  c.Name,
		State:     string(res.State),
		Reason:    string(res.Reason()),
	}
	if res.Err != nil {
		o.Detail = res.Err.Error()
	}
	if err := r.recorder.RecordOutcome(ctx, o); err != nil {
		logging.PipelineWarn("failed to record %s: %v", c.Name, err)
	}
	return res, nil
}

// Inspect generates a single callable of sub without persisting anything.
func (r *Runner) Inspect(ctx context.Context, sub Submodule, name string) (synth.Result, error) {
	c, err := sub.Find(ctx, name)
	if err != nil {
		return synth.Result{}, err
	}
	if c.Namespace == "" {
		c.Namespace = sub.Namespace
	}
	return r.gen.Generate(ctx, c, sub.Category())
}
