package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"nodegen/internal/ledger"
	"nodegen/internal/pipeline"
	"nodegen/internal/synth"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors
var (
	Success = lipgloss.Color("#8BC34A") // Lime Green
	Warning = lipgloss.Color("#FFC107") // Yellow
	Danger  = lipgloss.Color("#e53935") // Red
	Muted   = lipgloss.Color("#8a94a6")
	Primary = lipgloss.Color("#2196F3") // Blue
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	acceptedStyle = lipgloss.NewStyle().Foreground(Success)
	rejectedStyle = lipgloss.NewStyle().Foreground(Danger)
	skippedStyle  = lipgloss.NewStyle().Foreground(Warning)
	mutedStyle    = lipgloss.NewStyle().Foreground(Muted)
	sectionStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// renderReport prints a run summary.
func renderReport(w io.Writer, report *pipeline.Report) {
	title := "Generation run " + report.RunID
	if report.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(w, titleStyle.Render(title))

	for _, s := range report.Submodules {
		fmt.Fprintf(w, "\n%s %s\n", sectionStyle.Render(s.Library+"."+s.Submodule), mutedStyle.Render(s.Category))
		for _, name := range s.Accepted() {
			fmt.Fprintf(w, "  %s %s\n", acceptedStyle.Render("+"), name)
		}
		for _, r := range s.Rejected() {
			fmt.Fprintf(w, "  %s %s %s\n", rejectedStyle.Render("x"), r.Name, mutedStyle.Render(string(r.Reason())))
		}
		if n := s.Skipped(); n > 0 {
			fmt.Fprintf(w, "  %s\n", skippedStyle.Render(fmt.Sprintf("%d skipped", n)))
		}
	}

	accepted, rejected, skipped := report.Totals()
	fmt.Fprintf(w, "\n%s  %s  %s  %s\n",
		acceptedStyle.Render(fmt.Sprintf("%d accepted", accepted)),
		rejectedStyle.Render(fmt.Sprintf("%d rejected", rejected)),
		skippedStyle.Render(fmt.Sprintf("%d skipped", skipped)),
		mutedStyle.Render(report.Duration.Round(time.Millisecond).String()))

	byReason := report.RejectionsByReason()
	if len(byReason) == 0 {
		return
	}
	reasons := make([]string, 0, len(byReason))
	for r := range byReason {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	fmt.Fprintln(w, sectionStyle.Render("Rejections"))
	for _, r := range reasons {
		fmt.Fprintf(w, "  %-24s %d\n", r, byReason[synth.Reason(r)])
	}
}

// renderRuns prints ledger runs, newest first.
func renderRuns(w io.Writer, runs []ledger.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No runs recorded."))
		return
	}
	for _, r := range runs {
		status := r.FinishedAt.Format("2006-01-02 15:04:05")
		if r.FinishedAt.IsZero() {
			status = "unfinished"
		}
		line := fmt.Sprintf("%s  %s  %s  %s  %s",
			titleStyle.Render(r.ID),
			mutedStyle.Render(r.StartedAt.Format("2006-01-02 15:04:05")),
			acceptedStyle.Render(fmt.Sprintf("%d accepted", r.Accepted)),
			rejectedStyle.Render(fmt.Sprintf("%d rejected", r.Rejected)),
			skippedStyle.Render(fmt.Sprintf("%d skipped", r.Skipped)))
		if r.DryRun {
			line += mutedStyle.Render("  dry run")
		}
		fmt.Fprintf(w, "%s  %s\n", line, mutedStyle.Render(status))
	}
}

// renderOutcomes prints the per-callable outcomes of one run.
func renderOutcomes(w io.Writer, outcomes []ledger.Outcome) {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No outcomes recorded."))
		return
	}
	for _, o := range outcomes {
		style := acceptedStyle
		switch synth.State(o.State) {
		case synth.StateRejected, synth.StateInvalid:
			style = rejectedStyle
		case synth.StateSkipped:
			style = skippedStyle
		}
		line := fmt.Sprintf("%s.%s.%s %s", o.Library, o.Submodule, o.Callable, style.Render(o.State))
		if o.Reason != "" {
			line += " " + mutedStyle.Render(o.Reason)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
