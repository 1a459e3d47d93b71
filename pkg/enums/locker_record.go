package enums

import "fmt"

// LockerRecordAction maps to the locker_record_action enum in Postgres.
type LockerRecordAction string

const (
	LockerRecordActionAssigned LockerRecordAction = "assigned"
	LockerRecordActionStore    LockerRecordAction = "store"
	LockerRecordActionRetrieve LockerRecordAction = "retrieve"
	LockerRecordActionReleased LockerRecordAction = "released"
)

var validLockerRecordActions = []LockerRecordAction{
	LockerRecordActionAssigned,
	LockerRecordActionStore,
	LockerRecordActionRetrieve,
	LockerRecordActionReleased,
}

// String implements fmt.Stringer.
func (s LockerRecordAction) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LockerRecordAction.
func (s LockerRecordAction) IsValid() bool {
	for _, candidate := range validLockerRecordActions {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLockerRecordAction converts raw input into a LockerRecordAction.
func ParseLockerRecordAction(value string) (LockerRecordAction, error) {
	for _, candidate := range validLockerRecordActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid locker record action %q", value)
}

// IsUsage reports whether the action is a user-driven store/retrieve event.
func (a LockerRecordAction) IsUsage() bool {
	return a == LockerRecordActionStore || a == LockerRecordActionRetrieve
}
