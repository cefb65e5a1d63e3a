package symptoms

import (
	"reflect"
	"strings"
	"testing"

	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
)

func newMatcher(t *testing.T) *Matcher {
	t.Helper()
	return NewMatcher(knowledge.Default())
}

func kbPosition(name string) int {
	for i, c := range knowledge.Default().Conditions() {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func TestEveryPhraseFindsItsCondition(t *testing.T) {
	m := newMatcher(t)
	for _, c := range knowledge.Default().Conditions() {
		for _, phrase := range c.Symptoms {
			a := m.Analyze(phrase)
			if !a.Found {
				t.Fatalf("%q: expected a match", phrase)
			}
			if containsName(a.Names(), c.Name) {
				continue
			}
			// Only acceptable miss: a tie at the cut-off where earlier
			// conditions in the table fill the three slots.
			last := a.Matches[len(a.Matches)-1]
			if len(a.Matches) < MaxMatches || last.Score != 1 || kbPosition(last.Condition.Name) > kbPosition(c.Name) {
				t.Fatalf("%q: expected %s in top matches, got %v", phrase, c.Name, a.Names())
			}
		}
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	m := newMatcher(t)
	input := "I have chest pain, fatigue and shortness of breath"
	first := m.Analyze(input)
	second := m.Analyze(input)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical analyses")
	}
}

func TestHigherScoreRanksFirst(t *testing.T) {
	m := newMatcher(t)
	a := m.Analyze("I have chest pain, increased thirst and frequent urination")
	if a.Top().Condition.Name != "Diabetes" || a.Top().Score != 2 {
		t.Fatalf("expected Diabetes with score 2 first, got %v", a.Names())
	}
	if a.Matches[1].Score != 1 {
		t.Fatalf("expected runner-up score 1, got %d", a.Matches[1].Score)
	}
}

func TestTiesKeepKnowledgeBaseOrder(t *testing.T) {
	m := newMatcher(t)
	a := m.Analyze("sneezing, dry skin")
	want := []string{"Thyroid Disorder", "Eczema", "Allergic Rhinitis"}
	if !reflect.DeepEqual(a.Names(), want) {
		t.Fatalf("expected %v, got %v", want, a.Names())
	}

	a = m.Analyze("heartburn and headaches")
	want = []string{"Hypertension", "GERD"}
	if !reflect.DeepEqual(a.Names(), want) {
		t.Fatalf("expected %v, got %v", want, a.Names())
	}
}

func TestSubstringMatching(t *testing.T) {
	m := newMatcher(t)
	a := m.Analyze("My DIZZINESS gets worse at night")
	if !a.Found {
		t.Fatalf("expected case-insensitive substring match")
	}
	if a.Top().Condition.Name != "Hypertension" || a.Matches[1].Condition.Name != "Migraine" {
		t.Fatalf("unexpected ranking %v", a.Names())
	}
}

func TestNoMatchFallsBackToGP(t *testing.T) {
	m := newMatcher(t)
	a := m.Analyze("I feel great today")
	if a.Found {
		t.Fatalf("expected no match")
	}
	if a.Message != NoMatchMessage || a.SuggestedSpecialist != knowledge.GeneralPractitioner {
		t.Fatalf("unexpected fallback %+v", a)
	}
	if a.Recommendation != "" || len(a.Matches) != 0 {
		t.Fatalf("fallback should carry no matches")
	}
}

func TestKeepsAtMostThreeMatches(t *testing.T) {
	m := newMatcher(t)
	a := m.Analyze("fatigue")
	if len(a.Matches) != MaxMatches {
		t.Fatalf("expected %d matches, got %d", MaxMatches, len(a.Matches))
	}
}

func TestLookups(t *testing.T) {
	m := newMatcher(t)
	if got := m.SpecialistFor("migraine"); got != "Neurologist" {
		t.Fatalf("unexpected specialist %s", got)
	}
	if got := m.SpecialistFor("unknown"); got != knowledge.GeneralPractitioner {
		t.Fatalf("expected GP fallback, got %s", got)
	}
	if got := m.UrgencyFor("Eczema"); got != knowledge.UrgencyLow {
		t.Fatalf("unexpected urgency %s", got)
	}
	if got := m.UrgencyFor("unknown"); got != knowledge.UrgencyMedium {
		t.Fatalf("expected medium fallback, got %s", got)
	}
	if got := m.BySpecialist("Cardiologist"); len(got) != 1 || got[0].Name != "Hypertension" {
		t.Fatalf("unexpected cardiologist conditions %+v", got)
	}
	if got := m.ConditionsForSymptom("Chest Pain"); !reflect.DeepEqual(got, []string{"Hypertension", "GERD"}) {
		t.Fatalf("unexpected conditions for chest pain %v", got)
	}
	if got := m.ConditionsForSymptom("hiccups"); got != nil {
		t.Fatalf("expected nil for unknown symptom, got %v", got)
	}
	if got := m.Specialists(); len(got) != 10 {
		t.Fatalf("expected 10 specialists, got %v", got)
	}
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
