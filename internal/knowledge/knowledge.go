// Package knowledge holds the static condition table used for triage.
package knowledge

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Urgency is the priority tag attached to a condition.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// Valid reports whether u is one of the known urgency levels.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

// GeneralPractitioner is the fallback specialist when nothing more specific applies.
const GeneralPractitioner = "General Practitioner"

// Condition is one record of the knowledge base.
type Condition struct {
	Name            string   `yaml:"name" json:"name"`
	Symptoms        []string `yaml:"symptoms" json:"symptoms"`
	Specialist      string   `yaml:"specialist" json:"specialist"`
	Urgency         Urgency  `yaml:"urgency" json:"urgency"`
	Description     string   `yaml:"description" json:"description"`
	Treatment       string   `yaml:"treatment" json:"treatment"`
	WhenToSeeDoctor string   `yaml:"when_to_see_doctor" json:"when_to_see_doctor"`
}

type document struct {
	Conditions []Condition `yaml:"conditions"`
}

// Base is an immutable, ordered set of conditions.
type Base struct {
	conditions []Condition
}

//go:embed conditions.yaml
var embedded []byte

var defaultBase = mustLoadEmbedded()

func mustLoadEmbedded() *Base {
	kb, err := Load(bytes.NewReader(embedded))
	if err != nil {
		panic(fmt.Sprintf("knowledge: embedded conditions are invalid: %v", err))
	}
	return kb
}

// Default returns the built-in knowledge base.
func Default() *Base {
	return defaultBase
}

// Load decodes and validates a YAML condition table.
func Load(r io.Reader) (*Base, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("knowledge: decode: %w", err)
	}
	return New(doc.Conditions)
}

// New validates the given conditions and returns a Base owning a copy of them.
func New(conditions []Condition) (*Base, error) {
	if len(conditions) == 0 {
		return nil, errors.New("knowledge: no conditions")
	}
	seen := make(map[string]struct{}, len(conditions))
	out := make([]Condition, 0, len(conditions))
	for i, c := range conditions {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("knowledge: condition %d has no name", i)
		}
		key := strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("knowledge: duplicate condition %q", c.Name)
		}
		seen[key] = struct{}{}
		if strings.TrimSpace(c.Specialist) == "" {
			return nil, fmt.Errorf("knowledge: condition %q has no specialist", c.Name)
		}
		c.Urgency = Urgency(strings.ToLower(string(c.Urgency)))
		if !c.Urgency.Valid() {
			return nil, fmt.Errorf("knowledge: condition %q has unknown urgency %q", c.Name, c.Urgency)
		}
		if len(c.Symptoms) == 0 {
			return nil, fmt.Errorf("knowledge: condition %q has no symptoms", c.Name)
		}
		symptoms := make([]string, 0, len(c.Symptoms))
		for _, s := range c.Symptoms {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" {
				return nil, fmt.Errorf("knowledge: condition %q has an empty symptom", c.Name)
			}
			symptoms = append(symptoms, s)
		}
		c.Symptoms = symptoms
		out = append(out, c)
	}
	return &Base{conditions: out}, nil
}

// Conditions returns the conditions in table order. The slice is a copy.
func (b *Base) Conditions() []Condition {
	out := make([]Condition, len(b.conditions))
	for i, c := range b.conditions {
		out[i] = c.clone()
	}
	return out
}

// Len returns the number of conditions.
func (b *Base) Len() int { return len(b.conditions) }

// Find looks a condition up by name, ignoring case.
func (b *Base) Find(name string) (Condition, bool) {
	name = strings.TrimSpace(name)
	for _, c := range b.conditions {
		if strings.EqualFold(c.Name, name) {
			return c.clone(), true
		}
	}
	return Condition{}, false
}

// Symptoms returns every distinct symptom phrase, sorted.
func (b *Base) Symptoms() []string {
	set := make(map[string]struct{})
	for _, c := range b.conditions {
		for _, s := range c.Symptoms {
			set[s] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Specialists returns every distinct specialist, sorted.
func (b *Base) Specialists() []string {
	set := make(map[string]struct{})
	for _, c := range b.conditions {
		set[c.Specialist] = struct{}{}
	}
	return sortedKeys(set)
}

// ByUrgency returns the conditions tagged with u, in table order.
func (b *Base) ByUrgency(u Urgency) []Condition {
	var out []Condition
	for _, c := range b.conditions {
		if c.Urgency == u {
			out = append(out, c.clone())
		}
	}
	return out
}

// BySpecialist returns the conditions handled by the named specialist, ignoring case.
func (b *Base) BySpecialist(name string) []Condition {
	name = strings.TrimSpace(name)
	var out []Condition
	for _, c := range b.conditions {
		if strings.EqualFold(c.Specialist, name) {
			out = append(out, c.clone())
		}
	}
	return out
}

func (c Condition) clone() Condition {
	c.Symptoms = append([]string(nil), c.Symptoms...)
	return c
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
