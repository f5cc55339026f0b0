package classify

import (
	"strings"

	"spokesbot/internal/model"
)

// LabelRule binds one label to its trigger keywords. Rule order is the
// classification priority order.
type LabelRule struct {
	Label    model.Label
	Keywords []string
}

// Rules is the full keyword table for a deployment. It is built explicitly
// and passed to NewClassifier so tests can substitute their own tables.
type Rules struct {
	// Labels are evaluated in order; the first keyword hit wins.
	Labels []LabelRule
	// Comparative keywords force the result to cover every known label,
	// overriding any single-label hit.
	Comparative []string
	// Default is assigned when nothing matches. Empty means the deployment
	// defines no default and unmatched questions are out of scope.
	Default model.Label
}

// Result is the outcome of classifying one question. An empty label set
// means the question is out of scope.
type Result struct {
	Labels      []model.Label
	Comparative bool
}

// OutOfScope reports whether no label applies.
func (r Result) OutOfScope() bool { return len(r.Labels) == 0 }

// Classifier routes a question to the label(s) whose documents should be
// searched. Matching is deterministic, case-insensitive substring matching
// against fixed tables; there is no model call and no state.
type Classifier struct {
	rules Rules
}

func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Labels returns every known label in priority order.
func (c *Classifier) Labels() []model.Label {
	out := make([]model.Label, len(c.rules.Labels))
	for i, lr := range c.rules.Labels {
		out[i] = lr.Label
	}
	return out
}

// Classify maps a question to its label set.
//
// Precedence: a comparative keyword selects all known labels; otherwise the
// first label (in rule order) with a keyword hit is selected alone; otherwise
// the configured default applies, and with no default the question is out of
// scope.
func (c *Classifier) Classify(question string) Result {
	q := strings.ToLower(question)

	for _, kw := range c.rules.Comparative {
		if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
			return Result{Labels: c.Labels(), Comparative: true}
		}
	}

	for _, lr := range c.rules.Labels {
		for _, kw := range lr.Keywords {
			if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
				return Result{Labels: []model.Label{lr.Label}}
			}
		}
	}

	if c.rules.Default != "" {
		return Result{Labels: []model.Label{c.rules.Default}}
	}
	return Result{}
}

// DefaultRules is the keyword table for the party spokesbot deployment:
// history questions route to the historical documents, policy questions to
// the platform, comparisons span both, and anything else defaults to the
// platform.
func DefaultRules() Rules {
	return Rules{
		Labels: []LabelRule{
			{
				Label: model.LabelHistorical,
				Keywords: []string{
					"history", "historical", "founded", "founding", "origin",
					"jefferson", "madison", "1792", "19th century", "originally",
					"when was", "past",
				},
			},
			{
				Label: model.LabelPlatform,
				Keywords: []string{
					"platform", "policy", "policies", "position", "stance",
					"support", "oppose", "believe", "plan", "propose", "today",
					"current",
				},
			},
		},
		Comparative: []string{
			"compare", "comparison", "versus", " vs ", "difference", "differ",
			"both", "then and now", "changed", "change over", "evolve", "evolved",
		},
		Default: model.LabelPlatform,
	}
}
