// Package intensity classifies workout template names into intensity labels.
package intensity

import "strings"

// Intensity is the physical-demand bucket assigned to a workout template.
type Intensity string

const (
	// Sanft marks gentle, recovery-oriented sessions.
	Sanft Intensity = "SANFT"
	// Aktiv is the moderate default bucket.
	Aktiv Intensity = "AKTIV"
	// Power marks high-intensity sessions.
	Power Intensity = "POWER"
)

// Valid reports whether the value is one of the three known labels.
func (i Intensity) Valid() bool {
	switch i {
	case Sanft, Aktiv, Power:
		return true
	}
	return false
}

// RuleGroup binds a set of case-insensitive substring patterns to a label.
// Groups are evaluated in declared order and a later matching group
// overwrites the result of an earlier one, so group position is the
// priority rule, not an accident of evaluation.
type RuleGroup struct {
	Label    Intensity
	Patterns []string
}

// DefaultRules reproduce the production classification table: gentle
// patterns first, power patterns second. A name matching both groups is
// therefore classified as Power.
var DefaultRules = []RuleGroup{
	{
		Label:    Sanft,
		Patterns: []string{"stretch", "yoga", "mobility", "beckenboden", "entspannung", "morgen"},
	},
	{
		Label:    Power,
		Patterns: []string{"hiit", "power", "crossfit", "tabata", "intensiv"},
	},
}

// Classifier assigns intensity labels based on an ordered rule table.
type Classifier struct {
	groups []RuleGroup
}

// NewClassifier builds a Classifier over the provided groups. Passing nil
// selects DefaultRules.
func NewClassifier(groups []RuleGroup) *Classifier {
	if groups == nil {
		groups = DefaultRules
	}
	return &Classifier{groups: groups}
}

// Classify returns the label for the given template name. Every input maps
// to a valid label; names matching no pattern fall back to Aktiv.
func (c *Classifier) Classify(name string) Intensity {
	lowered := strings.ToLower(name)

	label := Aktiv
	for _, group := range c.groups {
		for _, pattern := range group.Patterns {
			if strings.Contains(lowered, pattern) {
				label = group.Label
				break
			}
		}
	}
	return label
}

// Classify runs the default rule table.
func Classify(name string) Intensity {
	return defaultClassifier.Classify(name)
}

var defaultClassifier = NewClassifier(nil)
