package enums

import "fmt"

// LockerStatus maps to the locker_status enum in Postgres.
type LockerStatus string

const (
	LockerStatusAvailable   LockerStatus = "available"
	LockerStatusOccupied    LockerStatus = "occupied"
	LockerStatusMaintenance LockerStatus = "maintenance"
)

var validLockerStatuses = []LockerStatus{
	LockerStatusAvailable,
	LockerStatusOccupied,
	LockerStatusMaintenance,
}

// String implements fmt.Stringer.
func (s LockerStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LockerStatus.
func (s LockerStatus) IsValid() bool {
	for _, candidate := range validLockerStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLockerStatus converts raw input into a LockerStatus.
func ParseLockerStatus(value string) (LockerStatus, error) {
	for _, candidate := range validLockerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid locker status %q", value)
}

var lockerTransitions = map[LockerStatus][]LockerStatus{
	LockerStatusAvailable:   {LockerStatusOccupied, LockerStatusMaintenance},
	LockerStatusOccupied:    {LockerStatusAvailable, LockerStatusMaintenance},
	LockerStatusMaintenance: {LockerStatusAvailable, LockerStatusMaintenance},
}

// CanTransitionTo reports whether moving from s to next is a legal edge.
func (s LockerStatus) CanTransitionTo(next LockerStatus) bool {
	for _, candidate := range lockerTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
