// Package bulk fans a user-selected set of emails out to concurrent
// per-email remote operations and aggregates the outcomes into a single
// report. Per-email failures are data, never control flow: one email's
// exhausted retries or panic cannot cancel the rest of the batch.
package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// Precondition failures, raised before any network call is made.
var (
	ErrEmptySelection = errors.New("no emails selected")
	ErrNotConfirmed   = errors.New("bulk operation requires confirmation")
)

// Kind names a bulk operation for reports and history.
type Kind string

const (
	KindUnsubscribe Kind = "unsubscribe"
	KindSummarize   Kind = "summarize"
	KindCategorize  Kind = "categorize"
)

// Outcome is the per-email result of a bulk operation.
type Outcome struct {
	EmailID   int64  `json:"email_id"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type,omitempty"`
}

// ItemOp performs the operation against one email. It reports failure
// through the outcome, not through an error.
type ItemOp func(ctx context.Context, emailID int64) Outcome

// BatchOp performs the operation for all emails in a single remote call
// whose response is a per-email outcome map.
type BatchOp func(ctx context.Context, emailIDs []int64) (map[int64]Outcome, error)

// Runner executes bulk operations with a bounded worker pool.
type Runner struct {
	// Workers bounds concurrent per-email calls. Values below 1 run
	// the batch sequentially.
	Workers int
}

// Run requires a non-empty, confirmed selection, invokes op once per
// email concurrently, and assembles the report only after every
// invocation has settled. Outcomes keep the order of ids regardless of
// completion order.
func (r Runner) Run(ctx context.Context, kind Kind, ids []int64, confirmed bool, op ItemOp) (*Report, error) {
	if err := precheck(ids, confirmed); err != nil {
		return nil, err
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]Outcome, len(ids))
	p := pool.New().WithMaxGoroutines(workers)
	for i, id := range ids {
		p.Go(func() {
			outcomes[i] = invoke(ctx, op, id)
		})
	}
	p.Wait()

	return newReport(kind, outcomes), nil
}

// RunBatched is the single-request variant: one remote call covers the
// whole selection and returns an outcome per email. A call-level error
// becomes a failure outcome for every email; emails the response omits
// are reported as failures rather than silently dropped.
func (r Runner) RunBatched(ctx context.Context, kind Kind, ids []int64, confirmed bool, op BatchOp) (*Report, error) {
	if err := precheck(ids, confirmed); err != nil {
		return nil, err
	}

	results, err := op(ctx, ids)
	outcomes := make([]Outcome, len(ids))
	for i, id := range ids {
		switch {
		case err != nil:
			outcomes[i] = Outcome{EmailID: id, Message: err.Error()}
		default:
			outcome, ok := results[id]
			if !ok {
				outcomes[i] = Outcome{EmailID: id, Message: "no result returned for this email"}
				continue
			}
			outcome.EmailID = id
			outcomes[i] = outcome
		}
	}

	return newReport(kind, outcomes), nil
}

func precheck(ids []int64, confirmed bool) error {
	if len(ids) == 0 {
		return ErrEmptySelection
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	return nil
}

// invoke isolates one per-email call: a panic inside op becomes that
// email's failure outcome instead of taking the batch down.
func invoke(ctx context.Context, op ItemOp, id int64) (outcome Outcome) {
	defer func() {
		if v := recover(); v != nil {
			outcome = Outcome{
				EmailID: id,
				Message: fmt.Sprintf("operation panicked: %v", v),
			}
		}
	}()
	return op(ctx, id)
}
