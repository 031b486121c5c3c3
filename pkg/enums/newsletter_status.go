package enums

import "fmt"

// NewsletterStatus is the wire name of a newsletter subscription state.
type NewsletterStatus string

const (
	NewsletterStatusIdle       NewsletterStatus = "idle"
	NewsletterStatusSubmitting NewsletterStatus = "submitting"
	NewsletterStatusSuccess    NewsletterStatus = "success"
	NewsletterStatusError      NewsletterStatus = "error"
)

var validNewsletterStatuses = []NewsletterStatus{
	NewsletterStatusIdle,
	NewsletterStatusSubmitting,
	NewsletterStatusSuccess,
	NewsletterStatusError,
}

// String implements fmt.Stringer.
func (s NewsletterStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known NewsletterStatus.
func (s NewsletterStatus) IsValid() bool {
	for _, candidate := range validNewsletterStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseNewsletterStatus converts raw input into a NewsletterStatus.
func ParseNewsletterStatus(value string) (NewsletterStatus, error) {
	for _, candidate := range validNewsletterStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid newsletter status %q", value)
}
