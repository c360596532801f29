package category

import (
	"testing"

	"mailsort/internal/model"
)

func TestIsSystem(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Inbox", true},
		{"INBOX", true},
		{"All Mail", true},
		{"CATEGORY_SOCIAL", true},
		{"YELLOW_STAR", true},
		{"UNREAD", true},
		// Exact, case-sensitive matching.
		{"inbox", false},
		{"Unread", false},
		{"category_social", false},
		{"Receipts", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsSystem(tc.name); got != tc.want {
			t.Errorf("IsSystem(%q) = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsSystem_Stable(t *testing.T) {
	for _, name := range []string{"Inbox", "inbox", "Receipts", ""} {
		first := IsSystem(name)
		second := IsSystem(name)
		if first != second {
			t.Errorf("IsSystem(%q) unstable: %v then %v", name, first, second)
		}
	}
}

func TestSystemCustomPartition(t *testing.T) {
	cats := []model.Category{
		{ID: 1, Name: "Inbox"},
		{ID: 2, Name: "Receipts"},
		{ID: 3, Name: "SPAM"},
		{ID: 4, Name: "Newsletters"},
		{ID: 5, Name: "CATEGORY_UPDATES"},
	}

	system := SystemOnly(cats)
	custom := CustomOnly(cats)

	if len(system)+len(custom) != len(cats) {
		t.Fatalf("partition lost items: %d system + %d custom != %d",
			len(system), len(custom), len(cats))
	}

	seen := map[int64]int{}
	for _, c := range system {
		seen[c.ID]++
	}
	for _, c := range custom {
		if seen[c.ID] > 0 {
			t.Errorf("category %d (%s) in both partitions", c.ID, c.Name)
		}
		seen[c.ID]++
	}
	for _, c := range cats {
		if seen[c.ID] != 1 {
			t.Errorf("category %d (%s) appeared %d times", c.ID, c.Name, seen[c.ID])
		}
	}

	// Input order is preserved within each partition.
	wantSystem := []int64{1, 3, 5}
	for i, c := range system {
		if c.ID != wantSystem[i] {
			t.Errorf("system[%d] = %d; want %d", i, c.ID, wantSystem[i])
		}
	}
	wantCustom := []int64{2, 4}
	for i, c := range custom {
		if c.ID != wantCustom[i] {
			t.Errorf("custom[%d] = %d; want %d", i, c.ID, wantCustom[i])
		}
	}
}
