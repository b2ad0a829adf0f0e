package accessrules

import "fmt"

// DelayBetweenAttempts enforces a waiting period after the first and later attempts.
type DelayBetweenAttempts struct {
	quiz *Settings
	now  int64
}

// MakeDelayBetweenAttempts applies when either delay is configured.
func MakeDelayBetweenAttempts(quiz *Settings, now int64, _ Caller) (Rule, bool) {
	if quiz.Delay1 == 0 && quiz.Delay2 == 0 {
		return nil, false
	}
	return &DelayBetweenAttempts{quiz: quiz, now: now}, true
}

func (r *DelayBetweenAttempts) Kind() Kind { return KindDelayBetweenAttempts }

func (r *DelayBetweenAttempts) Description() []string {
	var out []string
	if r.quiz.Delay1 > 0 {
		out = append(out, fmt.Sprintf("You must wait %s between your first and second attempt.", FormatDuration(r.quiz.Delay1)))
	}
	if r.quiz.Delay2 > 0 && r.quiz.Attempts != 2 {
		out = append(out, fmt.Sprintf("You must wait %s between later attempts.", FormatDuration(r.quiz.Delay2)))
	}
	return out
}

func (r *DelayBetweenAttempts) PreventNewAttempt(numPrevAttempts int, lastAttempt *Attempt) string {
	if r.quiz.Attempts > 0 && numPrevAttempts >= r.quiz.Attempts {
		// numattempts owns this message
		return ""
	}
	if r.quiz.TimeClose != 0 && r.now > r.quiz.TimeClose {
		// openclosedate owns this message
		return ""
	}

	nextStart := r.NextStartTime(numPrevAttempts, lastAttempt)
	if r.now < nextStart {
		if r.quiz.TimeClose == 0 || nextStart <= r.quiz.TimeClose {
			return fmt.Sprintf("You must wait before you may re-attempt this quiz. You will be allowed to start another attempt after %s.", FormatTime(nextStart))
		}
		return "This quiz closes before you will be allowed to start another attempt."
	}
	return ""
}

func (r *DelayBetweenAttempts) IsFinished(numPrevAttempts int, lastAttempt *Attempt) bool {
	nextStart := r.NextStartTime(numPrevAttempts, lastAttempt)
	return r.now <= nextStart &&
		r.quiz.TimeClose != 0 &&
		nextStart >= r.quiz.TimeClose
}

// NextStartTime is the earliest time another attempt may begin, or 0 when there is no wait.
func (r *DelayBetweenAttempts) NextStartTime(numPrevAttempts int, lastAttempt *Attempt) int64 {
	if numPrevAttempts == 0 || lastAttempt == nil {
		return 0
	}

	lastFinish := lastAttempt.TimeFinish
	if r.quiz.TimeLimit > 0 {
		lastFinish = min(lastFinish, lastAttempt.TimeStart+r.quiz.TimeLimit)
	}

	switch {
	case numPrevAttempts == 1 && r.quiz.Delay1 > 0:
		return lastFinish + r.quiz.Delay1
	case numPrevAttempts > 1 && r.quiz.Delay2 > 0:
		return lastFinish + r.quiz.Delay2
	}
	return 0
}
