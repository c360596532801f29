package bulk

import (
	"fmt"
	"strings"
	"time"
)

// maxSummaryFailures caps how many per-email failure messages appear in
// the human-readable summary.
const maxSummaryFailures = 5

// Report is the aggregated result of one bulk operation.
type Report struct {
	Kind       Kind      `json:"kind"`
	Successes  int       `json:"successes"`
	Failures   int       `json:"failures"`
	Outcomes   []Outcome `json:"outcomes"`
	FinishedAt time.Time `json:"finished_at"`
}

func newReport(kind Kind, outcomes []Outcome) *Report {
	r := &Report{
		Kind:       kind,
		Outcomes:   outcomes,
		FinishedAt: time.Now(),
	}
	for _, o := range outcomes {
		if o.Success {
			r.Successes++
		} else {
			r.Failures++
		}
	}
	return r
}

// Total returns the number of emails in the batch.
func (r *Report) Total() int {
	return len(r.Outcomes)
}

// FailedOutcomes returns the failures in batch order.
func (r *Report) FailedOutcomes() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Success {
			out = append(out, o)
		}
	}
	return out
}

// Summary renders the report for the status bar: counts plus the first
// few failure messages, with a "+N more" suffix when truncated.
func (r *Report) Summary() string {
	head := fmt.Sprintf("%s: %d succeeded, %d failed",
		r.Kind, r.Successes, r.Failures)
	if r.Failures == 0 {
		return head
	}

	failed := r.FailedOutcomes()
	shown := failed
	if len(shown) > maxSummaryFailures {
		shown = shown[:maxSummaryFailures]
	}

	lines := make([]string, 0, len(shown))
	for _, o := range shown {
		lines = append(lines, fmt.Sprintf("#%d: %s", o.EmailID, o.Message))
	}

	out := head + ": " + strings.Join(lines, "; ")
	if extra := len(failed) - len(shown); extra > 0 {
		out += fmt.Sprintf(" (+%d more)", extra)
	}
	return out
}
