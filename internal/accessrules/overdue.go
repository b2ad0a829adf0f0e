package accessrules

// Transition is the state change an expired attempt has to go through.
type Transition struct {
	State      AttemptState
	TimeFinish int64
}

// HandleIfTimeExpired decides what happens to an attempt whose end time may have passed.
// It returns false when the attempt should be left alone.
func HandleIfTimeExpired(attempt *Attempt, endTime int64, quiz *Settings, now int64) (Transition, bool) {
	if attempt == nil || attempt.IsFinishedState() || endTime == 0 || now < endTime {
		return Transition{}, false
	}

	switch quiz.OverdueHandling {
	case OverdueAutoSubmit:
		return Transition{State: StateFinished, TimeFinish: endTime}, true

	case OverdueGracePeriod:
		if now > endTime+quiz.GracePeriod {
			return Transition{State: StateAbandoned}, true
		}
		if attempt.State == StateInProgress {
			return Transition{State: StateOverdue}, true
		}
		return Transition{}, false

	case OverdueAutoAbandon:
		return Transition{State: StateAbandoned}, true
	}
	return Transition{}, false
}
