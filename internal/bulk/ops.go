package bulk

import (
	"context"
	"fmt"
	"strings"

	"mailsort/internal/api"
)

// SummarizeOp adapts the per-email AI-summary endpoint. Retries for
// throttling happen inside the client; whatever error survives them
// becomes this email's failure message.
func SummarizeOp(client *api.Client) ItemOp {
	return func(ctx context.Context, emailID int64) Outcome {
		summary, err := client.GenerateSummary(ctx, emailID)
		if err != nil {
			return Outcome{EmailID: emailID, Message: err.Error()}
		}
		msg := "summary generated"
		if s := strings.TrimSpace(summary); s != "" {
			msg = truncate(s, 80)
		}
		return Outcome{EmailID: emailID, Success: true, Message: msg}
	}
}

// CategorizeOp adapts the per-email AI-categorization endpoint.
func CategorizeOp(client *api.Client) ItemOp {
	return func(ctx context.Context, emailID int64) Outcome {
		categories, err := client.CategorizeEmail(ctx, emailID)
		if err != nil {
			return Outcome{EmailID: emailID, Message: err.Error()}
		}
		msg := "no categories assigned"
		if len(categories) > 0 {
			msg = "assigned " + strings.Join(categories, ", ")
		}
		return Outcome{EmailID: emailID, Success: true, Message: msg}
	}
}

// UnsubscribeOp adapts the batched unsubscribe endpoint: one request
// covers the whole selection and answers with a per-email outcome map.
func UnsubscribeOp(client *api.Client) BatchOp {
	return func(ctx context.Context, emailIDs []int64) (map[int64]Outcome, error) {
		results, err := client.BulkUnsubscribe(ctx, emailIDs)
		if err != nil {
			return nil, err
		}
		outcomes := make(map[int64]Outcome, len(results))
		for id, res := range results {
			msg := res.Message
			if msg == "" {
				if res.Success {
					msg = "unsubscribed"
				} else {
					msg = "unsubscribe failed"
				}
			}
			outcomes[id] = Outcome{
				EmailID:   id,
				Success:   res.Success,
				Message:   msg,
				ErrorType: res.ErrorType,
			}
		}
		return outcomes, nil
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return fmt.Sprintf("%s...", string(runes[:n]))
}
