package accessrules

import "fmt"

// TimeLimit bounds each attempt to a fixed duration.
type TimeLimit struct {
	quiz *Settings
}

// MakeTimeLimit applies when a limit is set and the caller may not ignore it.
func MakeTimeLimit(quiz *Settings, _ int64, caller Caller) (Rule, bool) {
	if quiz.TimeLimit <= 0 || caller.CanIgnoreTimeLimits {
		return nil, false
	}
	return &TimeLimit{quiz: quiz}, true
}

func (r *TimeLimit) Kind() Kind { return KindTimeLimit }

func (r *TimeLimit) Description() []string {
	return []string{fmt.Sprintf("Time limit: %s", FormatDuration(r.quiz.TimeLimit))}
}

func (r *TimeLimit) EndTime(attempt *Attempt) (int64, bool) {
	due := attempt.TimeStart + r.quiz.TimeLimit
	if r.quiz.TimeClose != 0 {
		due = min(due, r.quiz.TimeClose)
	}
	return due, true
}

func (r *TimeLimit) TimeLeftDisplay(attempt *Attempt, now int64) (int64, bool) {
	end, _ := r.EndTime(attempt)
	if attempt.Preview && now > end {
		return 0, false
	}
	return end - now, true
}

func (r *TimeLimit) IsPreflightCheckRequired(current *Attempt, _ PreflightState) bool {
	return current == nil
}

func (r *TimeLimit) PreflightFields() []PreflightField {
	return []PreflightField{{
		Name:     "timelimitconfirm",
		Type:     "checkbox",
		Label:    "Start attempt",
		Help:     fmt.Sprintf("Your attempt will have a time limit of %s. When you start, the timer will begin to count down and cannot be paused.", FormatDuration(r.quiz.TimeLimit)),
		RuleKind: KindTimeLimit,
	}}
}

func (r *TimeLimit) ValidatePreflightCheck(data PreflightData, _ *Attempt) ValidationErrors {
	if !data.Checked("timelimitconfirm") {
		return ValidationErrors{{Field: "timelimitconfirm", Message: "Please confirm that you want to start the timed attempt", Rule: KindTimeLimit}}
	}
	return nil
}

// The confirmation is asked for every fresh attempt, so nothing is remembered.
func (r *TimeLimit) NotifyPreflightCheckPassed(_ *Attempt) StateDelta { return StateDelta{} }

func (r *TimeLimit) CurrentAttemptFinished() StateDelta { return StateDelta{} }
