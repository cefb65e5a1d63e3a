package symptoms

import (
	"fmt"
	"strings"

	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
)

const (
	maxListedSymptoms = 5
	rule              = "============================================================"
)

// Disclaimer closes every recommendation.
const Disclaimer = "This is for general information only and not a substitute for professional medical advice, diagnosis, or treatment. Always seek the advice of your physician or other qualified health provider with any questions you may have regarding a medical condition."

var urgencyBadge = map[knowledge.Urgency]string{
	knowledge.UrgencyLow:       "🟢",
	knowledge.UrgencyMedium:    "🟡",
	knowledge.UrgencyHigh:      "🔴",
	knowledge.UrgencyEmergency: "🚨",
}

var urgencyMessage = map[knowledge.Urgency]string{
	knowledge.UrgencyLow:       "LOW PRIORITY - Schedule appointment when convenient",
	knowledge.UrgencyMedium:    "MODERATE PRIORITY - Schedule appointment within 1-2 weeks",
	knowledge.UrgencyHigh:      "HIGH PRIORITY - Schedule appointment within a few days",
	knowledge.UrgencyEmergency: "EMERGENCY - Seek immediate medical attention",
}

// UrgencyMessage returns the priority line for u.
func UrgencyMessage(u knowledge.Urgency) string {
	return urgencyMessage[u]
}

// CallToAction returns the closing offer for the top condition. Emergencies
// only ever get advisory text.
func CallToAction(c knowledge.Condition) string {
	switch c.Urgency {
	case knowledge.UrgencyEmergency:
		return "🚨 EMERGENCY: Please call emergency services (911) or go to the nearest emergency room immediately!"
	case knowledge.UrgencyHigh:
		return fmt.Sprintf("🔴 HIGH PRIORITY: Would you like me to book an urgent appointment with a %s?", c.Specialist)
	case knowledge.UrgencyMedium:
		return fmt.Sprintf("🟡 RECOMMENDED: Would you like to schedule an appointment with a %s?", c.Specialist)
	default:
		return fmt.Sprintf("🟢 If symptoms persist or worsen, would you like to book an appointment with a %s?", c.Specialist)
	}
}

// Render builds the recommendation block for ranked matches.
func Render(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}
	top := matches[0].Condition
	listed := matches[0].MatchedSymptoms
	more := ""
	if len(listed) > maxListedSymptoms {
		listed = listed[:maxListedSymptoms]
		more = "..."
	}

	var sb strings.Builder
	sb.WriteString("\n🔍 SYMPTOM ANALYSIS RESULTS:\n")
	sb.WriteString(rule + "\n\n")
	sb.WriteString("Based on your symptoms, you may be experiencing:\n")
	fmt.Fprintf(&sb, "📋 %s\n\n", top.Name)
	fmt.Fprintf(&sb, "Matched Symptoms: %s\n%s\n\n", strings.Join(listed, ", "), more)
	fmt.Fprintf(&sb, "📖 DESCRIPTION:\n%s\n\n", top.Description)
	fmt.Fprintf(&sb, "👨‍⚕️ RECOMMENDED SPECIALIST: %s\n\n", top.Specialist)
	fmt.Fprintf(&sb, "%s URGENCY LEVEL: %s\n\n", urgencyBadge[top.Urgency], urgencyMessage[top.Urgency])
	fmt.Fprintf(&sb, "💊 GENERAL TREATMENT APPROACH:\n%s\n\n", top.Treatment)
	fmt.Fprintf(&sb, "🏥 WHEN TO SEE A DOCTOR:\n%s\n", top.WhenToSeeDoctor)

	if len(matches) > 1 {
		sb.WriteString("\n\n📌 OTHER POSSIBLE CONDITIONS:\n")
		for i, m := range matches[1:] {
			fmt.Fprintf(&sb, "   %d. %s - See %s\n", i+1, m.Condition.Name, m.Condition.Specialist)
		}
	}

	sb.WriteString("\n" + rule + "\n\n")
	sb.WriteString(CallToAction(top))
	sb.WriteString("\n\n⚠️ IMPORTANT DISCLAIMER:\n")
	sb.WriteString(Disclaimer + "\n")
	return sb.String()
}
