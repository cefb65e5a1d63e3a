package triage

import (
	"fmt"
	"strings"

	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
)

const maxPromptSymptoms = 4

const promptGuidelines = `GUIDELINES:
1. Answer medical questions clearly and concisely
2. Always add: "This is general information. Please consult a healthcare provider for personalized advice."
3. For appointment booking, collect: name, date (YYYY-MM-DD), time, reason
4. Be empathetic and professional
5. If symptoms suggest a condition, recommend the appropriate specialist
6. Never diagnose - only provide general information`

// SystemPrompt builds the instructions sent with every general query from
// the conditions in kb.
func SystemPrompt(kb *knowledge.Base) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful medical assistant chatbot. Follow these guidelines:\n\n")
	sb.WriteString("MEDICAL KNOWLEDGE:\n")
	for _, c := range kb.Conditions() {
		symptoms := c.Symptoms
		if len(symptoms) > maxPromptSymptoms {
			symptoms = symptoms[:maxPromptSymptoms]
		}
		fmt.Fprintf(&sb, "- %s: Symptoms include %s. See %s.\n", c.Name, strings.Join(symptoms, ", "), c.Specialist)
	}
	sb.WriteString("\n")
	sb.WriteString(promptGuidelines)
	return sb.String()
}
