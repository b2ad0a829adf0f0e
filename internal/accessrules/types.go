package accessrules

// OverdueHandling controls what happens to an attempt that is still open when its end time passes.
type OverdueHandling string

const (
	OverdueAutoSubmit  OverdueHandling = "autosubmit"
	OverdueGracePeriod OverdueHandling = "graceperiod"
	OverdueAutoAbandon OverdueHandling = "autoabandon"
)

// BrowserSecurity selects extra browser restrictions for an attempt.
type BrowserSecurity string

const (
	BrowserSecurityNone         BrowserSecurity = ""
	BrowserSecuritySecureWindow BrowserSecurity = "securewindow"
)

// AttemptState is the lifecycle state of an attempt.
type AttemptState string

const (
	StateInProgress AttemptState = "inprogress"
	StateOverdue    AttemptState = "overdue"
	StateFinished   AttemptState = "finished"
	StateAbandoned  AttemptState = "abandoned"
)

// ShowTimeBeforeDeadline is how close (in seconds) to the close date the countdown starts being shown.
const ShowTimeBeforeDeadline int64 = 3600

// Settings is the snapshot of quiz settings the rules are evaluated against.
// Times are Unix seconds; durations are seconds. Zero means "not set".
type Settings struct {
	QuizID          uint
	Attempts        int
	TimeOpen        int64
	TimeClose       int64
	TimeLimit       int64
	GracePeriod     int64
	OverdueHandling OverdueHandling
	Subnet          string
	Password        string
	ExtraPasswords  []string
	Delay1          int64
	Delay2          int64
	BrowserSecurity BrowserSecurity
	AllowOffline    bool
}

// Attempt is a prior or current attempt record.
type Attempt struct {
	ID                  uint
	AttemptNumber       int
	TimeStart           int64
	TimeFinish          int64
	TimeModifiedOffline int64
	Preview             bool
	State               AttemptState
}

// IsFinishedState reports whether the attempt can no longer be worked on.
func (a *Attempt) IsFinishedState() bool {
	return a.State == StateFinished || a.State == StateAbandoned
}

// Caller describes who is asking. It replaces values the rules would otherwise read from ambient request state.
type Caller struct {
	RemoteAddr          string
	IsPreviewUser       bool
	CanIgnoreTimeLimits bool
}
