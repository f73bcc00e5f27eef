package middleware_test

import (
	"context"
	"testing"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	recorder := &RecordingSink{}
	mw, err := middleware.NewPIIMiddleware([]string{"email", "^phone"})
	if err != nil {
		t.Fatal(err)
	}
	sink := mw(recorder)

	sub := &domain.Submission{
		SessionID: "pii-session",
		Answers: map[string]string{
			"role":       "Manager",
			"work_email": "jdoe@example.com",
			"phone":      "555-0100",
		},
		Path: []domain.PathEntry{
			{NodeID: "role", Answer: "Manager"},
			{NodeID: "work_email", Answer: "jdoe@example.com"},
			{NodeID: "phone", Answer: "555-0100"},
		},
	}

	if err := sink.Submit(context.Background(), sub); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The caller's submission is not modified.
	if sub.Answers["work_email"] != "jdoe@example.com" || sub.Path[1].Answer != "jdoe@example.com" {
		t.Error("Middleware modified original submission in memory!")
	}

	got := recorder.got[0]
	if got.Answers["role"] != "Manager" {
		t.Error("role shouldn't be masked")
	}
	if got.Answers["work_email"] != middleware.Mask || got.Answers["phone"] != middleware.Mask {
		t.Errorf("Sensitive answers should be masked, got: %v", got.Answers)
	}
	want := "role: Manager → work_email: *** → phone: ***"
	if got.PathString() != want {
		t.Errorf("Path not masked.\n got %q\nwant %q", got.PathString(), want)
	}
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"("}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}
