// ABOUTME: Caller-side form validation run before any store call
// ABOUTME: Parses calendar dates and checks ranges and past/future constraints at day granularity
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Error is a validation failure. It blocks submission and never reaches the store.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a validation error for a field.
func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Errorf creates a validation error with a formatted message.
func Errorf(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a validation error.
func IsValidation(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}

// dateLayouts are the accepted input formats, most specific last.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses a date or datetime field in local time.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, Errorf(field, "%s is required", field)
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, Errorf(field, "%s is not a valid date: %q", field, raw)
}

// ParseClock parses a time-of-day field such as a shift start ("08:00").
func ParseClock(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05", "3:04PM", "3:04 PM"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, Errorf(field, "%s is not a valid time: %q", field, raw)
}

// Day truncates t to local midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// NotInPast fails when t falls on a day before now's day.
func NotInPast(field string, t, now time.Time, message string) error {
	if Day(t).Before(Day(now)) {
		return New(field, message)
	}
	return nil
}

// NotInFuture fails when t falls on a day after now's day.
func NotInFuture(field string, t, now time.Time, message string) error {
	if Day(t).After(Day(now)) {
		return New(field, message)
	}
	return nil
}

// Ordered fails unless start <= end, or start < end when strict.
func Ordered(field string, start, end time.Time, strict bool, message string) error {
	if end.Before(start) || (strict && end.Equal(start)) {
		return New(field, message)
	}
	return nil
}

// Email fails unless raw is a bare email address.
func Email(field, raw string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return Errorf(field, "%s is not a valid email address", field)
	}
	return nil
}
