// Package validate checks and normalizes the fields patients type into the
// chat before they reach the appointment store.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// DateLayout is the only accepted appointment date format.
	DateLayout = "2006-01-02"
	timeLayout = "15:04"

	maxDaysAhead  = 365
	openingHour   = 9
	closingHour   = 17
	minNameLength = 2
	maxNameLength = 100
	maxEmailLen   = 100
	minPhoneDigit = 10
	maxPhoneDigit = 15
)

var (
	namePattern    = regexp.MustCompile(`^[A-Za-z\s\-']+$`)
	phoneSeparator = regexp.MustCompile(`[\s\-().]+`)
	phonePattern   = regexp.MustCompile(`^\+?\d+$`)
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	sqlDenylist    = []string{"--", ";", "/*", "*/", "xp_", "sp_"}
)

// Validator validates user input relative to a clock. The zero value uses
// the local wall clock.
type Validator struct {
	Now func() time.Time
}

// New returns a Validator backed by time.Now.
func New() Validator {
	return Validator{Now: time.Now}
}

// At returns a Validator whose clock is fixed at t.
func At(t time.Time) Validator {
	return Validator{Now: func() time.Time { return t }}
}

func (v Validator) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

// Date parses an ISO calendar date and requires it to fall between today and
// one year from today, inclusive.
func (v Validator) Date(s string) (time.Time, error) {
	now := v.now()
	loc := now.Location()
	parsed, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, newError("date", KindFormat, "Invalid date format. Please use YYYY-MM-DD (e.g., 2024-12-25)")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if parsed.Before(today) {
		return time.Time{}, newError("date", KindOutOfRange, "Date cannot be in the past")
	}
	if parsed.After(today.AddDate(0, 0, maxDaysAhead)) {
		return time.Time{}, newError("date", KindOutOfRange, "Date cannot be more than 1 year in the future")
	}
	return parsed, nil
}

// Time parses HH:MM, enforces business hours and normalizes to HH:MM:00.
func (v Validator) Time(s string) (string, error) {
	parsed, err := time.Parse(timeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", newError("time", KindFormat, "Invalid time format. Please use HH:MM (e.g., 14:00)")
	}
	if parsed.Hour() < openingHour || parsed.Hour() >= closingHour {
		return "", newError("time", KindOutOfRange, "Time must be between 09:00 and 17:00")
	}
	return parsed.Format("15:04") + ":00", nil
}

// Name checks a patient name and capitalizes each word.
func (v Validator) Name(s string) (string, error) {
	name := strings.TrimSpace(s)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return "", newError("name", KindRequired, "Name cannot be empty")
	case n < minNameLength:
		return "", newError("name", KindTooShort, "Name is too short")
	case n > maxNameLength:
		return "", newError("name", KindTooLong, "Name is too long (max 100 characters)")
	}
	if !namePattern.MatchString(name) {
		return "", newError("name", KindCharset, "Name can only contain letters, spaces, hyphens, and apostrophes")
	}
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " "), nil
}

// Phone strips common separators. An empty phone is valid and yields "".
func (v Validator) Phone(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	cleaned := phoneSeparator.ReplaceAllString(s, "")
	if !phonePattern.MatchString(cleaned) {
		return "", newError("phone", KindCharset, "Phone number can only contain digits, +, and common separators")
	}
	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < minPhoneDigit || len(digits) > maxPhoneDigit {
		return "", newError("phone", KindOutOfRange, "Phone number must be 10-15 digits")
	}
	return cleaned, nil
}

// Email lower-cases and checks an address. An empty email is valid and yields "".
func (v Validator) Email(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	email := strings.ToLower(strings.TrimSpace(s))
	if !emailPattern.MatchString(email) {
		return "", newError("email", KindFormat, "Invalid email format")
	}
	if len(email) > maxEmailLen {
		return "", newError("email", KindTooLong, "Email is too long (max 100 characters)")
	}
	return email, nil
}

// AppointmentID parses a positive appointment identifier.
func (v Validator) AppointmentID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, newError("appointment_id", KindFormat, "Appointment ID must be a number")
	}
	if id < 1 {
		return 0, newError("appointment_id", KindOutOfRange, "Appointment ID must be a positive number")
	}
	return id, nil
}

// SanitizeText collapses whitespace, truncates to maxLen runes and removes a
// small denylist of SQL metacharacters. Queries are still parameterized.
func SanitizeText(s string, maxLen int) string {
	text := strings.Join(strings.Fields(s), " ")
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		text = string([]rune(text)[:maxLen])
	}
	for _, bad := range sqlDenylist {
		text = strings.ReplaceAll(text, bad, "")
	}
	return strings.TrimSpace(text)
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
