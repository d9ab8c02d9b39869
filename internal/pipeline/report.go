package pipeline

import (
	"time"

	"nodegen/internal/synth"
)

// SubmoduleReport holds the results of one submodule in discovery order.
type SubmoduleReport struct {
	Library   string
	Submodule string
	Category  string
	Results   []synth.Result
}

// Keys returns the node keys of accepted callables in discovery order.
func (s SubmoduleReport) Keys() []string {
	var keys []string
	for _, r := range s.Results {
		if r.Accepted() {
			keys = append(keys, synth.NodeName(r.Name))
		}
	}
	return keys
}

// Accepted returns the names of accepted callables.
func (s SubmoduleReport) Accepted() []string {
	var names []string
	for _, r := range s.Results {
		if r.Accepted() {
			names = append(names, r.Name)
		}
	}
	return names
}

// Rejected returns the results that reached classification and failed.
func (s SubmoduleReport) Rejected() []synth.Result {
	var out []synth.Result
	for _, r := range s.Results {
		if r.State == synth.StateRejected {
			out = append(out, r)
		}
	}
	return out
}

// Skipped counts callables the shape filter dropped.
func (s SubmoduleReport) Skipped() int {
	n := 0
	for _, r := range s.Results {
		if r.State == synth.StateSkipped {
			n++
		}
	}
	return n
}

// Report summarizes a run.
type Report struct {
	RunID      string
	DryRun     bool
	Duration   time.Duration
	Submodules []SubmoduleReport
}

// Totals returns accepted, rejected and skipped counts across submodules.
func (r *Report) Totals() (accepted, rejected, skipped int) {
	for _, s := range r.Submodules {
		accepted += len(s.Accepted())
		rejected += len(s.Rejected())
		skipped += s.Skipped()
	}
	return accepted, rejected, skipped
}

// RejectionsByReason counts rejections per reason.
func (r *Report) RejectionsByReason() map[synth.Reason]int {
	counts := make(map[synth.Reason]int)
	for _, s := range r.Submodules {
		for _, res := range s.Rejected() {
			counts[res.Reason()]++
		}
	}
	return counts
}
