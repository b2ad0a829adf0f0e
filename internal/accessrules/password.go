package accessrules

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password asks for the quiz password once per session.
type Password struct {
	quiz *Settings
}

// MakePassword applies when the quiz has a password.
func MakePassword(quiz *Settings, _ int64, _ Caller) (Rule, bool) {
	if quiz.Password == "" {
		return nil, false
	}
	return &Password{quiz: quiz}, true
}

func (r *Password) Kind() Kind { return KindPassword }

func (r *Password) Description() []string {
	return []string{"To attempt this quiz you need to know the quiz password"}
}

func (r *Password) IsPreflightCheckRequired(_ *Attempt, state PreflightState) bool {
	return !state.IsChecked(KindPassword)
}

func (r *Password) PreflightFields() []PreflightField {
	return []PreflightField{{
		Name:     "quizpassword",
		Type:     "password",
		Label:    "Quiz password",
		Help:     "This quiz requires a password to attempt it.",
		RuleKind: KindPassword,
	}}
}

func (r *Password) ValidatePreflightCheck(data PreflightData, _ *Attempt) ValidationErrors {
	if !r.CheckPassword(data["quizpassword"]) {
		return ValidationErrors{{Field: "quizpassword", Message: "The password entered was incorrect", Rule: KindPassword}}
	}
	return nil
}

func (r *Password) NotifyPreflightCheckPassed(_ *Attempt) StateDelta {
	return StateDelta{Set: []Kind{KindPassword}}
}

func (r *Password) CurrentAttemptFinished() StateDelta {
	return StateDelta{Clear: []Kind{KindPassword}}
}

// CheckPassword reports whether the entry matches the quiz password or one of the extra passwords.
func (r *Password) CheckPassword(entered string) bool {
	if entered == "" {
		return false
	}
	candidates := append([]string{r.quiz.Password}, r.quiz.ExtraPasswords...)
	for _, stored := range candidates {
		if stored == "" {
			continue
		}
		if passwordMatches(stored, entered) {
			return true
		}
	}
	return false
}

func passwordMatches(stored, entered string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(entered)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(entered)) == 1
}

func isBcryptHash(s string) bool {
	if !strings.HasPrefix(s, "$2") {
		return false
	}
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
