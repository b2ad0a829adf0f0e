package accessrules

import "fmt"

// NumAttempts caps how many attempts a user may make.
type NumAttempts struct {
	quiz *Settings
}

// MakeNumAttempts applies when an attempt limit is set.
func MakeNumAttempts(quiz *Settings, _ int64, _ Caller) (Rule, bool) {
	if quiz.Attempts <= 0 {
		return nil, false
	}
	return &NumAttempts{quiz: quiz}, true
}

func (r *NumAttempts) Kind() Kind { return KindNumAttempts }

func (r *NumAttempts) Description() []string {
	return []string{fmt.Sprintf("Attempts allowed: %d", r.quiz.Attempts)}
}

func (r *NumAttempts) PreventNewAttempt(numPrevAttempts int, _ *Attempt) string {
	if numPrevAttempts >= r.quiz.Attempts {
		return "No more attempts are allowed"
	}
	return ""
}

func (r *NumAttempts) IsFinished(numPrevAttempts int, _ *Attempt) bool {
	return numPrevAttempts >= r.quiz.Attempts
}
