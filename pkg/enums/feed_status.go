package enums

import "fmt"

// FeedStatus reports whether catalog data is still loading, ready or unavailable.
type FeedStatus string

const (
	FeedStatusLoading     FeedStatus = "loading"
	FeedStatusReady       FeedStatus = "ready"
	FeedStatusUnavailable FeedStatus = "unavailable"
)

var validFeedStatuses = []FeedStatus{
	FeedStatusLoading,
	FeedStatusReady,
	FeedStatusUnavailable,
}

// String implements fmt.Stringer.
func (f FeedStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FeedStatus.
func (f FeedStatus) IsValid() bool {
	for _, candidate := range validFeedStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeedStatus converts raw input into a FeedStatus.
func ParseFeedStatus(value string) (FeedStatus, error) {
	for _, candidate := range validFeedStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feed status %q", value)
}
