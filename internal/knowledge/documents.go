package knowledge

import (
	"fmt"
	"strings"
)

// Disclaimer is appended to every generated knowledge document.
const Disclaimer = "IMPORTANT MEDICAL DISCLAIMER: This information is for general educational purposes only and should not be considered as medical advice. Always consult with a qualified healthcare professional for proper diagnosis and treatment of any medical condition."

// Documents flattens each condition into a plain-text block suitable for
// retrieval or for seeding a model prompt.
func (b *Base) Documents() []string {
	docs := make([]string, 0, len(b.conditions))
	for _, c := range b.conditions {
		docs = append(docs, c.Document())
	}
	return docs
}

// Document renders the condition as a plain-text block.
func (c Condition) Document() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Medical Condition: %s\n\n", c.Name)
	fmt.Fprintf(&sb, "Description:\n%s\n\n", c.Description)
	fmt.Fprintf(&sb, "Common Symptoms:\n%s\n\n", strings.Join(c.Symptoms, ", "))
	fmt.Fprintf(&sb, "Recommended Specialist: %s\n\n", c.Specialist)
	fmt.Fprintf(&sb, "Urgency Level: %s\n\n", strings.ToUpper(string(c.Urgency)))
	fmt.Fprintf(&sb, "Treatment Options:\n%s\n\n", c.Treatment)
	fmt.Fprintf(&sb, "When to See a Doctor:\n%s\n\n", c.WhenToSeeDoctor)
	sb.WriteString("---\n")
	sb.WriteString(Disclaimer)
	sb.WriteString("\n---\n")
	return sb.String()
}
