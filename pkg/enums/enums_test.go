package enums

import "testing"

func TestFeedStatusParse(t *testing.T) {
	for _, raw := range []string{"loading", "ready", "unavailable"} {
		status, err := ParseFeedStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !status.IsValid() || status.String() != raw {
			t.Fatalf("unexpected status %q", status)
		}
	}
	if _, err := ParseFeedStatus("stale"); err == nil {
		t.Fatalf("expected error for unknown feed status")
	}
}

func TestNewsletterStatusParse(t *testing.T) {
	status, err := ParseNewsletterStatus("submitting")
	if err != nil || status != NewsletterStatusSubmitting {
		t.Fatalf("unexpected parse result %q err=%v", status, err)
	}
	if NewsletterStatus("pending").IsValid() {
		t.Fatalf("pending should not be a valid status")
	}
}

func TestCartOperationValues(t *testing.T) {
	if !CartOperationClear.IsValid() {
		t.Fatalf("clear should be valid")
	}
	if _, err := ParseCartOperation("merge"); err == nil {
		t.Fatalf("expected error for unknown operation")
	}
}
