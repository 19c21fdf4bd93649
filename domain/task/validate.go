package task

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the maximum title length in characters.
const MaxTitleLength = 255

var (
	// ErrInvalid is wrapped by every validation error.
	ErrInvalid = errors.New("invalid task")

	ErrTitleRequired = fmt.Errorf("%w: title is required", ErrInvalid)
	ErrTitleTooLong  = fmt.Errorf("%w: title must be at most %d characters", ErrInvalid, MaxTitleLength)
	ErrDueDateInPast = fmt.Errorf("%w: due date must be today or later", ErrInvalid)
)

// NormalizeTitle trims surrounding whitespace and checks the title bounds.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// ValidateDueDate rejects due dates earlier than today. A nil due date is valid.
func ValidateDueDate(due *Date, today Date) error {
	if due == nil {
		return nil
	}
	if due.Before(today) {
		return ErrDueDateInPast
	}
	return nil
}
