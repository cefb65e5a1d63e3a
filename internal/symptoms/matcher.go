// Package symptoms scores free-text symptom reports against the knowledge
// base and renders a specialist recommendation.
package symptoms

import (
	"sort"
	"strings"

	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
)

// MaxMatches is the number of ranked conditions kept per analysis.
const MaxMatches = 3

// NoMatchMessage is returned when no indexed phrase appears in the input.
const NoMatchMessage = "I couldn't match your symptoms to specific conditions. I recommend seeing a General Practitioner for evaluation."

// Match is one ranked condition.
type Match struct {
	Condition       knowledge.Condition `json:"condition"`
	MatchedSymptoms []string            `json:"matched_symptoms"`
	Score           int                 `json:"score"`
}

// Analysis is the result of scoring one input.
type Analysis struct {
	Found               bool              `json:"found"`
	Matches             []Match           `json:"matches,omitempty"`
	Recommendation      string            `json:"recommendation,omitempty"`
	Message             string            `json:"message,omitempty"`
	SuggestedSpecialist string            `json:"suggested_specialist"`
	SuggestedUrgency    knowledge.Urgency `json:"suggested_urgency,omitempty"`
}

// Top returns the best match. It panics if Found is false.
func (a Analysis) Top() Match {
	return a.Matches[0]
}

// Names returns the ranked condition names.
func (a Analysis) Names() []string {
	out := make([]string, len(a.Matches))
	for i, m := range a.Matches {
		out[i] = m.Condition.Name
	}
	return out
}

type indexEntry struct {
	phrase     string
	conditions []int
}

// Matcher is an immutable inverted index from symptom phrase to condition.
// It is safe for concurrent use.
type Matcher struct {
	conditions []knowledge.Condition
	index      []indexEntry
	byPhrase   map[string]int
}

// NewMatcher indexes every symptom phrase of kb.
func NewMatcher(kb *knowledge.Base) *Matcher {
	m := &Matcher{
		conditions: kb.Conditions(),
		byPhrase:   make(map[string]int),
	}
	for ci, c := range m.conditions {
		for _, phrase := range c.Symptoms {
			pos, ok := m.byPhrase[phrase]
			if !ok {
				pos = len(m.index)
				m.byPhrase[phrase] = pos
				m.index = append(m.index, indexEntry{phrase: phrase})
			}
			m.index[pos].conditions = append(m.index[pos].conditions, ci)
		}
	}
	return m
}

// Analyze scores the input. A phrase matches when it occurs anywhere in the
// lower-cased input; each matched phrase adds one point to every condition
// that lists it. Ties keep knowledge-base order.
func (m *Matcher) Analyze(input string) Analysis {
	text := strings.ToLower(input)
	scored := make([]*Match, len(m.conditions))
	for _, entry := range m.index {
		if !strings.Contains(text, entry.phrase) {
			continue
		}
		for _, ci := range entry.conditions {
			if scored[ci] == nil {
				scored[ci] = &Match{Condition: m.conditions[ci]}
			}
			scored[ci].MatchedSymptoms = append(scored[ci].MatchedSymptoms, entry.phrase)
			scored[ci].Score++
		}
	}

	var matches []Match
	for _, s := range scored {
		if s != nil {
			matches = append(matches, *s)
		}
	}
	if len(matches) == 0 {
		return Analysis{
			Message:             NoMatchMessage,
			SuggestedSpecialist: knowledge.GeneralPractitioner,
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}
	top := matches[0].Condition
	return Analysis{
		Found:               true,
		Matches:             matches,
		Recommendation:      Render(matches),
		SuggestedSpecialist: top.Specialist,
		SuggestedUrgency:    top.Urgency,
	}
}

// SpecialistFor returns the specialist for a condition name, or a General
// Practitioner when the condition is unknown.
func (m *Matcher) SpecialistFor(condition string) string {
	if c, ok := m.find(condition); ok {
		return c.Specialist
	}
	return knowledge.GeneralPractitioner
}

// UrgencyFor returns the urgency for a condition name, defaulting to medium.
func (m *Matcher) UrgencyFor(condition string) knowledge.Urgency {
	if c, ok := m.find(condition); ok {
		return c.Urgency
	}
	return knowledge.UrgencyMedium
}

// BySpecialist lists the conditions a specialist handles.
func (m *Matcher) BySpecialist(specialist string) []knowledge.Condition {
	var out []knowledge.Condition
	for _, c := range m.conditions {
		if strings.EqualFold(c.Specialist, strings.TrimSpace(specialist)) {
			out = append(out, c)
		}
	}
	return out
}

// ConditionsForSymptom returns the names of conditions listing the exact phrase.
func (m *Matcher) ConditionsForSymptom(phrase string) []string {
	pos, ok := m.byPhrase[strings.ToLower(strings.TrimSpace(phrase))]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m.index[pos].conditions))
	for _, ci := range m.index[pos].conditions {
		out = append(out, m.conditions[ci].Name)
	}
	return out
}

// Specialists returns the specialists known to the index, sorted.
func (m *Matcher) Specialists() []string {
	set := make(map[string]struct{})
	for _, c := range m.conditions {
		set[c.Specialist] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (m *Matcher) find(name string) (knowledge.Condition, bool) {
	for _, c := range m.conditions {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return knowledge.Condition{}, false
}
