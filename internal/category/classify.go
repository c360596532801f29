// Package category decides whether a label is a provider-reserved system
// label or a user-created one. The distinction is derived from the name
// alone and is never stored.
package category

import "mailsort/internal/model"

// reservedNames is the fixed set of provider-reserved label names. It
// covers both the human-friendly folder names the service renders and the
// raw Gmail identifiers it may pass through. Matching is exact and
// case-sensitive: a user label "inbox" is custom, "Inbox" is not.
var reservedNames = map[string]bool{
	// Friendly folder names
	"Inbox": true, "Sent": true, "Drafts": true, "Spam": true, "Trash": true,
	"Important": true, "Starred": true, "All Mail": true, "Chats": true,

	// Gmail system label IDs
	"INBOX": true, "SENT": true, "DRAFT": true, "SPAM": true, "TRASH": true,
	"IMPORTANT": true, "STARRED": true, "UNREAD": true, "CHAT": true,

	// Star labels
	"YELLOW_STAR": true, "BLUE_STAR": true, "RED_STAR": true,
	"ORANGE_STAR": true, "GREEN_STAR": true, "PURPLE_STAR": true,

	// Category tabs
	"CATEGORY_PERSONAL": true, "CATEGORY_SOCIAL": true,
	"CATEGORY_PROMOTIONS": true, "CATEGORY_UPDATES": true,
	"CATEGORY_FORUMS": true,
}

// IsSystem reports whether name is a provider-reserved system label.
func IsSystem(name string) bool {
	return reservedNames[name]
}

// SystemOnly returns the categories whose names are system labels,
// preserving input order.
func SystemOnly(categories []model.Category) []model.Category {
	var out []model.Category
	for _, c := range categories {
		if IsSystem(c.Name) {
			out = append(out, c)
		}
	}
	return out
}

// CustomOnly returns the user-created categories, preserving input order.
func CustomOnly(categories []model.Category) []model.Category {
	var out []model.Category
	for _, c := range categories {
		if !IsSystem(c.Name) {
			out = append(out, c)
		}
	}
	return out
}
