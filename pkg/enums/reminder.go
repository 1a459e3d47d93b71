package enums

import "fmt"

// ReminderType maps to the reminder_type enum in Postgres.
type ReminderType string

const (
	ReminderTypeGeneral     ReminderType = "general"
	ReminderTypeMaintenance ReminderType = "maintenance"
	ReminderTypeUrgent      ReminderType = "urgent"
)

var validReminderTypes = []ReminderType{
	ReminderTypeGeneral,
	ReminderTypeMaintenance,
	ReminderTypeUrgent,
}

// String implements fmt.Stringer.
func (s ReminderType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ReminderType.
func (s ReminderType) IsValid() bool {
	for _, candidate := range validReminderTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReminderType converts raw input into a ReminderType.
func ParseReminderType(value string) (ReminderType, error) {
	for _, candidate := range validReminderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reminder type %q", value)
}
