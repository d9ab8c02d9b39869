// Package synth turns an extracted callable into a node wrapper and its
// manifest. Stages are pure functions over immutable values:
// segment, classify, render, validate.
package synth

import (
	"context"

	"nodegen/internal/catalog"
	"nodegen/internal/logging"
)

// Artifacts is the generated pair for one callable. Both texts are empty or
// neither is.
type Artifacts struct {
	Wrapper  string
	Manifest string
}

// Empty reports whether the pair was discarded.
func (a Artifacts) Empty() bool {
	return a.Wrapper == "" && a.Manifest == ""
}

// State tracks a callable through generation.
type State string

const (
	StateDiscovered  State = "discovered"
	StateClassifying State = "classifying"
	StateSynthesized State = "synthesized"
	StateValid       State = "valid"
	StateInvalid     State = "invalid"
	StateRejected    State = "rejected"
	StatePersisted   State = "persisted"
	StateSkipped     State = "skipped" // filtered out before classification
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StatePersisted || s == StateRejected || s == StateSkipped
}

// Result is the outcome of generating one callable.
type Result struct {
	Name      string
	Namespace string
	Category  string
	State     State
	Err       error
	Params    Params
	Artifacts Artifacts
}

// Accepted reports whether the artifacts passed validation.
func (r Result) Accepted() bool {
	return r.State == StateValid || r.State == StatePersisted
}

// Reason is the rejection cause, or ReasonNone for accepted results.
func (r Result) Reason() Reason {
	return ReasonOf(r.Err)
}

// Persisted returns a copy of r marked as written.
func (r Result) Persisted() Result {
	if r.State == StateValid {
		r.State = StatePersisted
	}
	return r
}

// Generator runs the synthesis stages for one callable at a time. It is safe
// for concurrent use.
type Generator struct {
	rules     Rules
	validator *Validator
}

// NewGenerator creates a generator enforcing rules.
func NewGenerator(rules Rules) *Generator {
	return &Generator{rules: rules, validator: NewValidator()}
}

// Close releases the validator's parser.
func (g *Generator) Close() {
	g.validator.Close()
}

// Generate synthesizes and validates the artifacts for c. Rejections are
// reported through the Result; the returned artifacts are empty unless the
// result is accepted. A non-nil error means ctx was cancelled.
func (g *Generator) Generate(ctx context.Context, c catalog.Callable, category string) (Result, error) {
	res := Result{Name: c.Name, Namespace: c.Namespace, Category: category, State: StateDiscovered}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if !catalog.Eligible(c) {
		res.State = StateSkipped
		res.Err = reject(c.Name, ErrForbiddenShape, "first parameter must be x or data without y or plot")
		logging.SynthDebug("skip %s: %v", c.Name, res.Err)
		return res, nil
	}

	res.State = StateClassifying
	doc := SegmentDocstring(c.Doc)
	params, err := Classify(c, doc, g.rules)
	if err != nil {
		return g.discard(res, err), nil
	}
	res.Params = params
	if names := params.Unresolved(); len(names) > 0 {
		logging.SynthDebug("%s: %s for %v", c.Name, ReasonUnresolvableType, names)
	}

	wrapper, err := RenderWrapper(c, doc, params)
	if err != nil {
		return res, err
	}
	manifest, err := RenderManifest(c, params, category)
	if err != nil {
		return res, err
	}
	res.State = StateSynthesized
	res.Artifacts = Artifacts{Wrapper: wrapper, Manifest: manifest}

	if err := g.validator.Validate(ctx, c.Name, res.Artifacts); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		res.State = StateInvalid
		return g.discard(res, err), nil
	}
	res.State = StateValid
	logging.SynthDebug("accepted %s (%d params)", c.Name, len(params.Optional()))
	return res, nil
}

// discard drops both artifacts together and marks the result rejected.
func (g *Generator) discard(res Result, err error) Result {
	res.State = StateRejected
	res.Err = err
	res.Artifacts = Artifacts{}
	logging.SynthDebug("reject %s: %v", res.Name, err)
	return res
}
