package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"mailsort/internal/bulk"
	"mailsort/tests/testutil"
)

func TestPrintReportsListsSavedReports(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	report := bulk.Report{
		Kind:      bulk.KindUnsubscribe,
		Successes: 2,
		Failures:  1,
		Outcomes: []bulk.Outcome{
			{EmailID: 1, Success: true},
			{EmailID: 2, Success: true},
			{EmailID: 3, Success: false, Message: "sender rejected the request"},
		},
		FinishedAt: time.Now(),
	}
	rec, err := s.SaveReport(ctx, 7, report)
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	var b strings.Builder
	if err := printReports(&b, s, ""); err != nil {
		t.Fatalf("printReports: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, string(bulk.KindUnsubscribe)) {
		t.Errorf("listing missing kind:\n%s", out)
	}
	if !strings.Contains(out, "2 ok, 1 failed") {
		t.Errorf("listing missing counts:\n%s", out)
	}
	if !strings.Contains(out, rec.ID) {
		t.Errorf("listing missing report id:\n%s", out)
	}
}

func TestPrintReportsSingleReportIncludesOutcomes(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	report := bulk.Report{
		Kind:      bulk.KindSummarize,
		Successes: 1,
		Failures:  1,
		Outcomes: []bulk.Outcome{
			{EmailID: 10, Success: true},
			{EmailID: 11, Success: false, Message: "rate limited"},
		},
		FinishedAt: time.Now(),
	}
	rec, err := s.SaveReport(ctx, 3, report)
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	var b strings.Builder
	if err := printReports(&b, s, rec.ID); err != nil {
		t.Fatalf("printReports: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		"1 succeeded, 1 failed",
		"email 10: ok",
		"email 11: failed: rate limited",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReportsUnknownID(t *testing.T) {
	s := testutil.NewTestStore(t)

	var b strings.Builder
	err := printReports(&b, s, "does-not-exist")
	if err == nil {
		t.Fatal("expected an error for an unknown report id")
	}
	if !strings.Contains(err.Error(), "does-not-exist") {
		t.Errorf("error should name the id, got: %v", err)
	}
}

func TestFormatReportsEmpty(t *testing.T) {
	out := formatReports(nil)
	if !strings.Contains(out, "no bulk operation reports") {
		t.Errorf("unexpected empty listing: %q", out)
	}
}
