package enums

import "fmt"

// DispenseTrigger records how a feeding dispense was initiated.
type DispenseTrigger string

const (
	DispenseTriggerScheduled DispenseTrigger = "scheduled"
	DispenseTriggerManual    DispenseTrigger = "manual"
)

var validDispenseTriggers = []DispenseTrigger{
	DispenseTriggerScheduled,
	DispenseTriggerManual,
}

// String implements fmt.Stringer.
func (t DispenseTrigger) String() string {
	return string(t)
}

// IsValid reports whether the value is a known DispenseTrigger.
func (t DispenseTrigger) IsValid() bool {
	for _, candidate := range validDispenseTriggers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseDispenseTrigger converts raw input into a DispenseTrigger.
func ParseDispenseTrigger(value string) (DispenseTrigger, error) {
	for _, candidate := range validDispenseTriggers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispense trigger %q", value)
}
