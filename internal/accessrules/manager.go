package accessrules

// Manager evaluates the active rule chain of one quiz for one caller at one instant.
type Manager struct {
	quiz   Settings
	now    int64
	caller Caller
	rules  []Rule
}

// Decision is the outcome of asking whether a new attempt may start.
type Decision struct {
	Allowed bool     `json:"allowed"`
	Reason  string   `json:"reason,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

// NewManager builds the rule chain for the given settings snapshot.
func NewManager(quiz Settings, now int64, caller Caller) *Manager {
	m := &Manager{quiz: quiz, now: now, caller: caller}
	m.rules = MakeRules(&m.quiz, now, caller)
	return m
}

// Rules returns the active rules in evaluation order.
func (m *Manager) Rules() []Rule {
	return m.rules
}

// Settings returns the snapshot the chain was built from.
func (m *Manager) Settings() Settings {
	return m.quiz
}

// HasRule reports whether a rule of the given kind is active.
func (m *Manager) HasRule(kind Kind) bool {
	for _, r := range m.rules {
		if r.Kind() == kind {
			return true
		}
	}
	return false
}

// DescribeRules collects what every active rule wants to tell the user.
func (m *Manager) DescribeRules() []string {
	var out []string
	for _, r := range m.rules {
		out = append(out, r.Description()...)
	}
	return out
}

// PreventAccess returns every reason the caller may not access the quiz at all.
func (m *Manager) PreventAccess() []string {
	var reasons []string
	for _, r := range m.rules {
		if p, ok := r.(AccessPreventer); ok {
			if msg := p.PreventAccess(); msg != "" {
				reasons = append(reasons, msg)
			}
		}
	}
	return reasons
}

// PreventNewAttempt returns every reason another attempt may not start.
func (m *Manager) PreventNewAttempt(numPrevAttempts int, lastAttempt *Attempt) []string {
	var reasons []string
	for _, r := range m.rules {
		if p, ok := r.(NewAttemptPreventer); ok {
			if msg := p.PreventNewAttempt(numPrevAttempts, lastAttempt); msg != "" {
				reasons = append(reasons, msg)
			}
		}
	}
	return reasons
}

// CanStartNewAttempt combines access and new-attempt vetoes; the first reason wins.
func (m *Manager) CanStartNewAttempt(numPrevAttempts int, lastAttempt *Attempt) Decision {
	reasons := append(m.PreventAccess(), m.PreventNewAttempt(numPrevAttempts, lastAttempt)...)
	if len(reasons) == 0 {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, Reason: reasons[0], Reasons: reasons}
}

// IsFinished reports whether any rule says the user is done with this quiz.
func (m *Manager) IsFinished(numPrevAttempts int, lastAttempt *Attempt) bool {
	for _, r := range m.rules {
		if f, ok := r.(Finisher); ok && f.IsFinished(numPrevAttempts, lastAttempt) {
			return true
		}
	}
	return false
}

// EndTime is the tightest end time any rule imposes on the attempt.
func (m *Manager) EndTime(attempt *Attempt) (int64, bool) {
	var (
		end   int64
		found bool
	)
	for _, r := range m.rules {
		t, ok := r.(EndTimer)
		if !ok {
			continue
		}
		if ruleEnd, ok := t.EndTime(attempt); ok && (!found || ruleEnd < end) {
			end, found = ruleEnd, true
		}
	}
	return end, found
}

// TimeLeftDisplay is the smallest countdown any rule wants to show.
func (m *Manager) TimeLeftDisplay(attempt *Attempt, now int64) (int64, bool) {
	var (
		left  int64
		found bool
	)
	for _, r := range m.rules {
		t, ok := r.(EndTimer)
		if !ok {
			continue
		}
		if ruleLeft, ok := t.TimeLeftDisplay(attempt, now); ok && (!found || ruleLeft < left) {
			left, found = ruleLeft, true
		}
	}
	return left, found
}

// ===== PREFLIGHT =====

func (m *Manager) rulesRequiringPreflight(current *Attempt, state PreflightState) []PreflightChecker {
	var out []PreflightChecker
	for _, r := range m.rules {
		if p, ok := r.(PreflightChecker); ok && p.IsPreflightCheckRequired(current, state) {
			out = append(out, p)
		}
	}
	return out
}

// IsPreflightCheckRequired reports whether any rule needs input before the attempt may (re)start.
func (m *Manager) IsPreflightCheckRequired(current *Attempt, state PreflightState) bool {
	return len(m.rulesRequiringPreflight(current, state)) > 0
}

// PreflightFields is the union of the fields every requiring rule asks for.
func (m *Manager) PreflightFields(current *Attempt, state PreflightState) []PreflightField {
	var fields []PreflightField
	for _, p := range m.rulesRequiringPreflight(current, state) {
		fields = append(fields, p.PreflightFields()...)
	}
	return fields
}

// ValidatePreflightCheck validates every requiring rule independently and merges their errors.
func (m *Manager) ValidatePreflightCheck(data PreflightData, current *Attempt, state PreflightState) ValidationErrors {
	var errs ValidationErrors
	for _, p := range m.rulesRequiringPreflight(current, state) {
		errs = append(errs, p.ValidatePreflightCheck(data, current)...)
	}
	return errs
}

// NotifyPreflightCheckPassed returns the session state after every requiring rule recorded its pass.
func (m *Manager) NotifyPreflightCheckPassed(current *Attempt, state PreflightState) PreflightState {
	var deltas []StateDelta
	for _, p := range m.rulesRequiringPreflight(current, state) {
		deltas = append(deltas, p.NotifyPreflightCheckPassed(current))
	}
	return state.Apply(deltas...)
}

// CurrentAttemptFinished returns the session state with every rule's flags cleared.
func (m *Manager) CurrentAttemptFinished(state PreflightState) PreflightState {
	var deltas []StateDelta
	for _, r := range m.rules {
		if p, ok := r.(PreflightChecker); ok {
			deltas = append(deltas, p.CurrentAttemptFinished())
		}
	}
	return state.Apply(deltas...)
}

// ===== BROWSER SECURITY =====

// AttemptMustBeInPopup reports whether any rule forces a popup window.
func (m *Manager) AttemptMustBeInPopup() bool {
	for _, r := range m.rules {
		if p, ok := r.(PopupEnforcer); ok && p.AttemptMustBeInPopup() {
			return true
		}
	}
	return false
}

// PopupOptions returns the window options of the first rule that forces a popup.
func (m *Manager) PopupOptions() (PopupOptions, bool) {
	for _, r := range m.rules {
		if p, ok := r.(PopupEnforcer); ok && p.AttemptMustBeInPopup() {
			return p.PopupOptions(), true
		}
	}
	return PopupOptions{}, false
}

// PageLayout is secure when any rule asks for it.
func (m *Manager) PageLayout() PageLayout {
	for _, r := range m.rules {
		if p, ok := r.(PopupEnforcer); ok && p.PageLayout() == PageLayoutSecure {
			return PageLayoutSecure
		}
	}
	return PageLayoutIncourse
}
