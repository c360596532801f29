package api

import "mailsort/internal/model"

// errorResponse is the service's error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

type accountsResponse struct {
	Accounts []model.Account `json:"accounts"`
}

type categoriesResponse struct {
	Categories []model.Category `json:"categories"`
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type categorizeResponse struct {
	Categories []string `json:"categories"`
}

// UnsubscribeResult is the per-email outcome of an unsubscribe attempt.
type UnsubscribeResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

type bulkUnsubscribeRequest struct {
	EmailIDs []int64 `json:"email_ids"`
}

// bulkUnsubscribeResponse maps email IDs (as JSON object keys, so
// strings) to their outcomes.
type bulkUnsubscribeResponse struct {
	Results map[string]UnsubscribeResult `json:"results"`
}
