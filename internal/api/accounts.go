package api

import (
	"context"
	"fmt"

	"mailsort/internal/model"
)

// ListAccounts returns all connected accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var resp accountsResponse
	if err := c.get(ctx, "/accounts", &resp); err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return resp.Accounts, nil
}

// DeleteAccount disconnects an account from the service.
func (c *Client) DeleteAccount(ctx context.Context, accountID int64) error {
	path := fmt.Sprintf("/accounts/%d", accountID)
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("deleting account %d: %w", accountID, err)
	}
	return nil
}
