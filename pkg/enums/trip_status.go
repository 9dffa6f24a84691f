package enums

import "fmt"

// TripStatus tracks the lifecycle of a trip. The transition is one-directional:
// a completed trip never reverts to planned.
type TripStatus string

const (
	TripStatusPlanned   TripStatus = "planned"
	TripStatusCompleted TripStatus = "completed"
)

var validTripStatuses = []TripStatus{
	TripStatusPlanned,
	TripStatusCompleted,
}

// String implements fmt.Stringer.
func (t TripStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TripStatus.
func (t TripStatus) IsValid() bool {
	for _, candidate := range validTripStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTripStatus converts raw input into a TripStatus.
func ParseTripStatus(value string) (TripStatus, error) {
	for _, candidate := range validTripStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trip status %q", value)
}
