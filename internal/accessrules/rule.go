package accessrules

// Kind names a rule variant. The string doubles as its registry sort key.
type Kind string

const (
	KindDelayBetweenAttempts Kind = "delaybetweenattempts"
	KindIPAddress            Kind = "ipaddress"
	KindNumAttempts          Kind = "numattempts"
	KindOfflineAttempts      Kind = "offlineattempts"
	KindOpenCloseDate        Kind = "openclosedate"
	KindPassword             Kind = "password"
	KindSecureWindow         Kind = "securewindow"
	KindTimeLimit            Kind = "timelimit"
)

// Rule is the base every access rule implements. The remaining behaviour is
// opted into through the capability interfaces below.
type Rule interface {
	Kind() Kind
	Description() []string
}

// AccessPreventer vetoes any access to the quiz.
type AccessPreventer interface {
	PreventAccess() string
}

// NewAttemptPreventer vetoes starting another attempt.
type NewAttemptPreventer interface {
	PreventNewAttempt(numPrevAttempts int, lastAttempt *Attempt) string
}

// Finisher reports that the user can never start another attempt.
type Finisher interface {
	IsFinished(numPrevAttempts int, lastAttempt *Attempt) bool
}

// EndTimer bounds how long an attempt may stay open.
type EndTimer interface {
	EndTime(attempt *Attempt) (int64, bool)
	TimeLeftDisplay(attempt *Attempt, now int64) (int64, bool)
}

// PreflightChecker gates the start of an attempt on extra input.
// current is nil when a fresh attempt is about to start.
type PreflightChecker interface {
	IsPreflightCheckRequired(current *Attempt, state PreflightState) bool
	PreflightFields() []PreflightField
	ValidatePreflightCheck(data PreflightData, current *Attempt) ValidationErrors
	NotifyPreflightCheckPassed(current *Attempt) StateDelta
	CurrentAttemptFinished() StateDelta
}

// PopupEnforcer restricts the browser window an attempt runs in.
type PopupEnforcer interface {
	AttemptMustBeInPopup() bool
	PopupOptions() PopupOptions
	PageLayout() PageLayout
}

// PageLayout is the security classification of the attempt page.
type PageLayout string

const (
	PageLayoutIncourse PageLayout = "incourse"
	PageLayoutSecure   PageLayout = "secure"
)

// PopupOptions is the window geometry requested for secure attempts.
type PopupOptions struct {
	Left        int  `json:"left"`
	Top         int  `json:"top"`
	Fullscreen  bool `json:"fullscreen"`
	Scrollbars  bool `json:"scrollbars"`
	Resizeable  bool `json:"resizeable"`
	Directories bool `json:"directories"`
	Toolbar     bool `json:"toolbar"`
	Titlebar    bool `json:"titlebar"`
	Location    bool `json:"location"`
	Status      bool `json:"status"`
	Menubar     bool `json:"menubar"`
}

// Factory builds a rule when its governing setting is configured.
type Factory func(quiz *Settings, now int64, caller Caller) (Rule, bool)

// registry lists every factory in the fixed evaluation order.
var registry = []struct {
	kind Kind
	make Factory
}{
	{KindDelayBetweenAttempts, MakeDelayBetweenAttempts},
	{KindIPAddress, MakeIPAddress},
	{KindNumAttempts, MakeNumAttempts},
	{KindOfflineAttempts, MakeOfflineAttempts},
	{KindOpenCloseDate, MakeOpenCloseDate},
	{KindPassword, MakePassword},
	{KindSecureWindow, MakeSecureWindow},
	{KindTimeLimit, MakeTimeLimit},
}

// MakeRules runs every factory and keeps the rules that apply.
func MakeRules(quiz *Settings, now int64, caller Caller) []Rule {
	rules := make([]Rule, 0, len(registry))
	for _, entry := range registry {
		if rule, ok := entry.make(quiz, now, caller); ok {
			rules = append(rules, rule)
		}
	}
	return rules
}
