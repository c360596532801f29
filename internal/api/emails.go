package api

import (
	"context"
	"fmt"
	"strconv"

	"mailsort/internal/model"
)

// ListEmails fetches one page of an account's unfiltered email collection.
// Pagination metadata in the result is normalized so the page invariants
// hold even against a misbehaving server.
func (c *Client) ListEmails(ctx context.Context, accountID int64, page, pageSize int) (*model.EmailPage, error) {
	path := fmt.Sprintf("/accounts/%d/emails?page=%d&page_size=%d",
		accountID, page, pageSize)
	var result model.EmailPage
	if err := c.get(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("listing emails for account %d: %w", accountID, err)
	}
	result.Normalize()
	return &result, nil
}

// ListCategoryEmails fetches one page of an account's emails filtered to a
// category.
func (c *Client) ListCategoryEmails(ctx context.Context, accountID, categoryID int64, page, pageSize int) (*model.EmailPage, error) {
	path := fmt.Sprintf("/accounts/%d/categories/%d/emails?page=%d&page_size=%d",
		accountID, categoryID, page, pageSize)
	var result model.EmailPage
	if err := c.get(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("listing emails for category %d: %w", categoryID, err)
	}
	result.Normalize()
	return &result, nil
}

// RefreshEmails triggers a server-side re-ingest for an account. The call
// returns once ingestion completes; callers should re-fetch the first
// page and the category list afterwards, since both may have changed.
func (c *Client) RefreshEmails(ctx context.Context, accountID int64) error {
	path := fmt.Sprintf("/accounts/%d/emails/refresh", accountID)
	if err := c.post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("refreshing emails for account %d: %w", accountID, err)
	}
	return nil
}

// GenerateSummary asks the service to generate (or return the existing)
// AI summary for one email.
func (c *Client) GenerateSummary(ctx context.Context, emailID int64) (string, error) {
	path := fmt.Sprintf("/emails/%d/summary", emailID)
	var resp summaryResponse
	if err := c.post(ctx, path, nil, &resp); err != nil {
		return "", fmt.Errorf("generating summary for email %d: %w", emailID, err)
	}
	return resp.Summary, nil
}

// CategorizeEmail asks the service to AI-categorize one email. It returns
// the category names the service assigned.
func (c *Client) CategorizeEmail(ctx context.Context, emailID int64) ([]string, error) {
	path := fmt.Sprintf("/emails/%d/categorize", emailID)
	var resp categorizeResponse
	if err := c.post(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("categorizing email %d: %w", emailID, err)
	}
	return resp.Categories, nil
}

// Unsubscribe attempts to unsubscribe from one email's sender.
func (c *Client) Unsubscribe(ctx context.Context, emailID int64) (*UnsubscribeResult, error) {
	path := fmt.Sprintf("/emails/%d/unsubscribe", emailID)
	var result UnsubscribeResult
	if err := c.post(ctx, path, nil, &result); err != nil {
		return nil, fmt.Errorf("unsubscribing email %d: %w", emailID, err)
	}
	return &result, nil
}

// BulkUnsubscribe attempts to unsubscribe from many emails in a single
// request. The response carries an outcome per email ID; IDs missing from
// the response are reported to the caller as absent (nil entries are
// never invented).
func (c *Client) BulkUnsubscribe(ctx context.Context, emailIDs []int64) (map[int64]UnsubscribeResult, error) {
	var resp bulkUnsubscribeResponse
	req := bulkUnsubscribeRequest{EmailIDs: emailIDs}
	if err := c.post(ctx, "/emails/bulk-unsubscribe", req, &resp); err != nil {
		return nil, fmt.Errorf("bulk unsubscribe of %d emails: %w", len(emailIDs), err)
	}

	results := make(map[int64]UnsubscribeResult, len(resp.Results))
	for key, outcome := range resp.Results {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		results[id] = outcome
	}
	return results, nil
}
