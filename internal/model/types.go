package model

import "time"

// Account is a connected Gmail account on the sorting service. It is the
// unit of data partitioning: every email and category belongs to exactly
// one account.
type Account struct {
	// ID is the server-assigned account identifier.
	ID int64 `json:"id"`

	// Email is the Gmail address of the account.
	Email string `json:"email"`

	// Name is the display name reported by the provider.
	Name string `json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is a label attachable to emails. Whether it is a system label
// or a user-created one is derived from its name (see internal/category),
// never stored.
type Category struct {
	// ID is the server-assigned category identifier.
	ID int64 `json:"id"`

	// AccountID is the owning account.
	AccountID int64 `json:"account_id"`

	// Name is the label name, unique per account.
	Name string `json:"name"`

	// Description is optional explanatory text for custom labels.
	Description *string `json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Email is a single message record surfaced to the user. It is immutable
// on the client; category assignment and summary generation happen on the
// server and become visible on the next fetch.
type Email struct {
	// ID is the server-assigned email identifier.
	ID int64 `json:"id"`

	// AccountID is the owning account.
	AccountID int64 `json:"account_id"`

	// CategoryIDs lists the categories currently assigned to this email.
	CategoryIDs []int64 `json:"category_ids"`

	// Sender is the From address as reported by the provider.
	Sender string `json:"sender"`

	// Subject is the message subject line.
	Subject string `json:"subject"`

	// Body is the raw message body (plain text or HTML).
	Body string `json:"body"`

	// AISummary is the server-generated summary, if one exists.
	AISummary *string `json:"ai_summary"`

	// UnsubscribeLink is the List-Unsubscribe target, if the message
	// carried one.
	UnsubscribeLink *string `json:"unsubscribe_link"`

	// ReceivedAt is when the message arrived at the provider.
	ReceivedAt time.Time `json:"received_at"`
}

// EmailPage is one bounded slice of an account's email collection, with
// the pagination metadata reported by the server.
type EmailPage struct {
	Emails     []Email `json:"emails"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// EmptyPage returns the canonical empty view: page 1 of 1, zero emails.
// Fetch failures and empty collections both reset to this shape.
func EmptyPage(pageSize int) EmailPage {
	return EmailPage{
		Emails:     []Email{},
		TotalCount: 0,
		Page:       1,
		PageSize:   pageSize,
		TotalPages: 1,
	}
}

// Normalize repairs pagination metadata from untrusted responses so the
// invariants total_pages = ceil(total_count/page_size) (minimum 1) and
// 1 <= page <= total_pages always hold locally.
func (p *EmailPage) Normalize() {
	if p.PageSize < 1 {
		p.PageSize = 1
	}
	want := (p.TotalCount + p.PageSize - 1) / p.PageSize
	if want < 1 {
		want = 1
	}
	p.TotalPages = want
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > p.TotalPages {
		p.Page = p.TotalPages
	}
	if p.Emails == nil {
		p.Emails = []Email{}
	}
}
