package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)

const (
	MaxPlayerNameLength = 12
	MaxGroupNameLength  = 30
)

// FieldError is a rejected input value. Callers surface Message as is.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePlayerName checks a hiscores player name
func ValidatePlayerName(name string) error {
	return validateName("player name", name, MaxPlayerNameLength)
}

// ValidateGroupName checks a group ironman group name
func ValidateGroupName(name string) error {
	return validateName("group name", name, MaxGroupNameLength)
}

func validateName(field, name string, max int) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return &FieldError{Field: field, Message: field + " is required"}
	}

	if len(trimmed) > max {
		return &FieldError{Field: field, Message: fmt.Sprintf("%s is too long (max %d characters)", field, max)}
	}

	if !namePattern.MatchString(trimmed) {
		return &FieldError{Field: field, Message: field + " may only contain letters, numbers, spaces, hyphens and underscores"}
	}

	return nil
}
