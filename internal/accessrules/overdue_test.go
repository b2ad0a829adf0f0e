package accessrules

import "testing"

func TestHandleIfTimeExpired(t *testing.T) {
	const end = int64(1000)
	tests := []struct {
		name     string
		handling OverdueHandling
		grace    int64
		state    AttemptState
		now      int64
		want     Transition
		changed  bool
	}{
		{name: "not yet expired", handling: OverdueAutoSubmit, state: StateInProgress, now: 999},
		{name: "already finished", handling: OverdueAutoAbandon, state: StateFinished, now: 5000},
		{name: "already abandoned", handling: OverdueAutoSubmit, state: StateAbandoned, now: 5000},
		{name: "autosubmit", handling: OverdueAutoSubmit, state: StateInProgress, now: 1200, want: Transition{State: StateFinished, TimeFinish: end}, changed: true},
		{name: "grace period starts", handling: OverdueGracePeriod, grace: 300, state: StateInProgress, now: 1000, want: Transition{State: StateOverdue}, changed: true},
		{name: "grace boundary is still overdue", handling: OverdueGracePeriod, grace: 300, state: StateInProgress, now: 1300, want: Transition{State: StateOverdue}, changed: true},
		{name: "overdue stays overdue in grace", handling: OverdueGracePeriod, grace: 300, state: StateOverdue, now: 1100},
		{name: "grace period over", handling: OverdueGracePeriod, grace: 300, state: StateOverdue, now: 1301, want: Transition{State: StateAbandoned}, changed: true},
		{name: "autoabandon", handling: OverdueAutoAbandon, state: StateInProgress, now: 1000, want: Transition{State: StateAbandoned}, changed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := &Settings{OverdueHandling: tt.handling, GracePeriod: tt.grace}
			got, changed := HandleIfTimeExpired(&Attempt{State: tt.state, TimeStart: 1}, end, quiz, tt.now)
			if changed != tt.changed || got != tt.want {
				t.Errorf("HandleIfTimeExpired() = %+v, %v, want %+v, %v", got, changed, tt.want, tt.changed)
			}
		})
	}
}
