package accessrules

import "fmt"

// OpenCloseDate restricts access to the window between the open and close dates.
type OpenCloseDate struct {
	quiz *Settings
	now  int64
}

// MakeOpenCloseDate always applies; with no dates set it never vetoes.
func MakeOpenCloseDate(quiz *Settings, now int64, _ Caller) (Rule, bool) {
	return &OpenCloseDate{quiz: quiz, now: now}, true
}

func (r *OpenCloseDate) Kind() Kind { return KindOpenCloseDate }

func (r *OpenCloseDate) Description() []string {
	var out []string
	if r.now < r.quiz.TimeOpen {
		out = append(out, fmt.Sprintf("The quiz will not be available until %s", FormatTime(r.quiz.TimeOpen)))
		if r.quiz.TimeClose != 0 {
			out = append(out, fmt.Sprintf("This quiz will close on %s.", FormatTime(r.quiz.TimeClose)))
		}
		return out
	}
	if r.quiz.TimeClose != 0 && r.now > r.quiz.TimeClose {
		out = append(out, fmt.Sprintf("This quiz closed on %s", FormatTime(r.quiz.TimeClose)))
		return out
	}
	if r.quiz.TimeOpen != 0 {
		out = append(out, fmt.Sprintf("This quiz opened at %s", FormatTime(r.quiz.TimeOpen)))
	}
	if r.quiz.TimeClose != 0 {
		out = append(out, fmt.Sprintf("This quiz will close on %s.", FormatTime(r.quiz.TimeClose)))
	}
	return out
}

func (r *OpenCloseDate) PreventAccess() string {
	const notAvailable = "This quiz is not currently available"

	if r.now < r.quiz.TimeOpen {
		return notAvailable
	}
	if r.quiz.TimeClose == 0 || r.now <= r.quiz.TimeClose {
		return ""
	}
	if r.quiz.OverdueHandling != OverdueGracePeriod {
		return notAvailable
	}
	if r.now <= r.quiz.TimeClose+r.quiz.GracePeriod {
		return ""
	}
	return notAvailable
}

func (r *OpenCloseDate) IsFinished(_ int, _ *Attempt) bool {
	return r.quiz.TimeClose != 0 && r.now > r.quiz.TimeClose
}

func (r *OpenCloseDate) EndTime(_ *Attempt) (int64, bool) {
	if r.quiz.TimeClose != 0 {
		return r.quiz.TimeClose, true
	}
	return 0, false
}

func (r *OpenCloseDate) TimeLeftDisplay(attempt *Attempt, now int64) (int64, bool) {
	// previews past the close date get no countdown
	if attempt.Preview && now > r.quiz.TimeClose {
		return 0, false
	}
	end, ok := r.EndTime(attempt)
	if ok && now > end-ShowTimeBeforeDeadline {
		return end - now, true
	}
	return 0, false
}
