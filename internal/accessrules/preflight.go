package accessrules

import (
	"fmt"
	"sort"
)

// PreflightField describes one input a rule needs before an attempt starts.
type PreflightField struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // "password" or "checkbox"
	Label    string `json:"label"`
	Help     string `json:"help,omitempty"`
	RuleKind Kind   `json:"rule"`
}

// PreflightData is the submitted preflight form, keyed by field name.
type PreflightData map[string]string

// Checked reports whether a checkbox field was ticked.
func (d PreflightData) Checked(field string) bool {
	switch d[field] {
	case "", "0", "false", "off":
		return false
	}
	return true
}

// ValidationError is a field-level preflight failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Rule    Kind   `json:"rule"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "preflight check failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("preflight check failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("preflight check failed: %d field errors", len(ve))
}

// PreflightState is the per-session record of which checks already passed for one quiz.
// It is a value: rules never mutate it, they return a StateDelta instead.
type PreflightState struct {
	QuizID  uint          `json:"quiz_id"`
	Checked map[Kind]bool `json:"checked"`
}

// NewPreflightState returns an empty state for a quiz.
func NewPreflightState(quizID uint) PreflightState {
	return PreflightState{QuizID: quizID, Checked: map[Kind]bool{}}
}

// IsChecked reports whether the rule kind has passed its check in this session.
func (s PreflightState) IsChecked(kind Kind) bool {
	return s.Checked[kind]
}

// Kinds returns the checked kinds in sorted order.
func (s PreflightState) Kinds() []Kind {
	kinds := make([]Kind, 0, len(s.Checked))
	for k, ok := range s.Checked {
		if ok {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// StateDelta is a change a rule wants applied to the session state.
type StateDelta struct {
	Set   []Kind
	Clear []Kind
}

// IsEmpty reports whether applying the delta would be a no-op.
func (d StateDelta) IsEmpty() bool {
	return len(d.Set) == 0 && len(d.Clear) == 0
}

// Apply returns a copy of the state with the delta applied.
func (s PreflightState) Apply(deltas ...StateDelta) PreflightState {
	next := PreflightState{QuizID: s.QuizID, Checked: make(map[Kind]bool, len(s.Checked))}
	for k, v := range s.Checked {
		if v {
			next.Checked[k] = true
		}
	}
	for _, d := range deltas {
		for _, k := range d.Set {
			next.Checked[k] = true
		}
		for _, k := range d.Clear {
			delete(next.Checked, k)
		}
	}
	return next
}
