package enums

import "fmt"

// EmailStatus records the outcome of one supplier notification attempt.
type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

var validEmailStatuses = []EmailStatus{
	EmailStatusSent,
	EmailStatusFailed,
}

// IsValid checks whether the given status matches the canonical enum.
func (s EmailStatus) IsValid() bool {
	for _, candidate := range validEmailStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEmailStatus converts raw strings into EmailStatus.
func ParseEmailStatus(value string) (EmailStatus, error) {
	for _, candidate := range validEmailStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email status %q", value)
}
