package api

import (
	"context"
	"fmt"

	"mailsort/internal/model"
)

// ListCategories returns the categories for an account, system and custom
// alike.
func (c *Client) ListCategories(ctx context.Context, accountID int64) ([]model.Category, error) {
	path := fmt.Sprintf("/accounts/%d/categories", accountID)
	var resp categoriesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("listing categories for account %d: %w", accountID, err)
	}
	return resp.Categories, nil
}

// CreateCategory creates a custom label on an account.
func (c *Client) CreateCategory(ctx context.Context, accountID int64, name, description string) (*model.Category, error) {
	path := fmt.Sprintf("/accounts/%d/categories", accountID)
	var created model.Category
	req := createCategoryRequest{Name: name, Description: description}
	if err := c.post(ctx, path, req, &created); err != nil {
		return nil, fmt.Errorf("creating category %q: %w", name, err)
	}
	return &created, nil
}

// DeleteCategory removes a category from an account.
func (c *Client) DeleteCategory(ctx context.Context, accountID, categoryID int64) error {
	path := fmt.Sprintf("/accounts/%d/categories/%d", accountID, categoryID)
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("deleting category %d: %w", categoryID, err)
	}
	return nil
}
