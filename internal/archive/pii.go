package archive

import "regexp"

// Patient names, dates and times stay readable: staff look appointments up by them.
var redactions = []struct {
	re   *regexp.Regexp
	mask string
}{
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), "[EMAIL]"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN]"},
	{regexp.MustCompile(`\+\d{10,15}\b`), "[PHONE]"},
	{regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\b\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`), "[PHONE]"},
}

// ScrubPII masks contact details and social security numbers in text.
func ScrubPII(text string) string {
	for _, r := range redactions {
		text = r.re.ReplaceAllString(text, r.mask)
	}
	return text
}

// ScrubMessages scrubs msgs in place.
func ScrubMessages(msgs []Message) {
	for i := range msgs {
		msgs[i].Content = ScrubPII(msgs[i].Content)
	}
}
