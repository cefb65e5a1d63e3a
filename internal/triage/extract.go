package triage

import (
	"regexp"
	"strings"

	"github.com/wolfman30/medtriage-assistant/internal/appointments"
	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
	"github.com/wolfman30/medtriage-assistant/internal/validate"
)

// BookingFields are the fields a booking command must carry. Time is HH:MM
// as typed; normalization happens during validation.
type BookingFields struct {
	Name   string
	Date   string
	Time   string
	Reason string
}

// Extractor pulls structured fields out of free text on a best-effort basis.
type Extractor interface {
	Booking(text string) (BookingFields, bool)
	// AppointmentID returns ErrAmbiguousInput when no id marker is present and
	// a *validate.Error when the marked id is not a valid identifier.
	AppointmentID(text string) (int64, error)
	Date(text string) (string, bool)
	PatientName(text string) (string, bool)
	Specialist(text string, known []string) string
}

var (
	namePattern   = regexp.MustCompile(`(?i)for\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	datePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	timePattern   = regexp.MustCompile(`\d{1,2}:\d{2}`)
	idPattern     = regexp.MustCompile(`(?i)(?:id|number|#)\s*(\d+)`)
	reasonPattern = regexp.MustCompile(`(?is)reason(.*)`)
)

// Words that end a captured name. The name pattern is case-insensitive, so
// "for John Doe on 2025-01-10" would otherwise capture "John Doe on".
var nameStopWords = map[string]bool{
	"on": true, "at": true, "with": true, "reason": true, "because": true,
	"to": true, "in": true, "from": true, "and": true, "for": true,
}

// RegexExtractor is the pattern-matching Extractor.
type RegexExtractor struct{}

func (e RegexExtractor) Booking(text string) (BookingFields, bool) {
	name, okName := e.PatientName(text)
	date, okDate := e.Date(text)
	clock := timePattern.FindString(text)
	if !okName || !okDate || clock == "" {
		return BookingFields{}, false
	}
	reason := appointments.DefaultReason
	if m := reasonPattern.FindStringSubmatch(text); m != nil {
		if r := strings.TrimSpace(m[1]); r != "" {
			reason = r
		}
	}
	return BookingFields{Name: name, Date: date, Time: clock, Reason: reason}, true
}

func (RegexExtractor) AppointmentID(text string) (int64, error) {
	m := idPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrAmbiguousInput
	}
	return validate.New().AppointmentID(m[1])
}

func (RegexExtractor) Date(text string) (string, bool) {
	d := datePattern.FindString(text)
	return d, d != ""
}

func (RegexExtractor) PatientName(text string) (string, bool) {
	m := namePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	words := strings.Fields(m[1])
	for i, w := range words {
		if nameStopWords[strings.ToLower(w)] {
			words = words[:i]
			break
		}
	}
	if len(words) == 0 {
		return "", false
	}
	return strings.Join(words, " "), true
}

// Specialist returns the first of known that appears in text, ignoring case.
func (RegexExtractor) Specialist(text string, known []string) string {
	lower := strings.ToLower(text)
	for _, s := range known {
		if strings.Contains(lower, strings.ToLower(s)) {
			return s
		}
	}
	return knowledge.GeneralPractitioner
}
