package enums

import "fmt"

// RequestStatus tracks the lifecycle of a request item.
type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "open"
	RequestStatusClaimed   RequestStatus = "claimed"
	RequestStatusFulfilled RequestStatus = "fulfilled"
	RequestStatusCancelled RequestStatus = "cancelled"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusOpen,
	RequestStatusClaimed,
	RequestStatusFulfilled,
	RequestStatusCancelled,
}

// String implements fmt.Stringer.
func (r RequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RequestStatus.
func (r RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (r RequestStatus) IsTerminal() bool {
	return r == RequestStatusFulfilled || r == RequestStatusCancelled
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
