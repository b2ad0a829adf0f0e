package accessrules

// SecureWindow forces the attempt into a locked-down popup window.
type SecureWindow struct {
	quiz   *Settings
	caller Caller
}

// MakeSecureWindow applies when browser security is set to a secure window.
func MakeSecureWindow(quiz *Settings, _ int64, caller Caller) (Rule, bool) {
	if quiz.BrowserSecurity != BrowserSecuritySecureWindow {
		return nil, false
	}
	return &SecureWindow{quiz: quiz, caller: caller}, true
}

func (r *SecureWindow) Kind() Kind { return KindSecureWindow }

func (r *SecureWindow) Description() []string {
	return []string{"This quiz must be attempted in a full screen popup window"}
}

func (r *SecureWindow) AttemptMustBeInPopup() bool {
	return !r.caller.IsPreviewUser
}

func (r *SecureWindow) PopupOptions() PopupOptions {
	return PopupOptions{
		Left:       0,
		Top:        0,
		Fullscreen: true,
		Scrollbars: true,
	}
}

func (r *SecureWindow) PageLayout() PageLayout {
	return PageLayoutSecure
}

func (r *SecureWindow) IsPreflightCheckRequired(_ *Attempt, state PreflightState) bool {
	return !r.caller.IsPreviewUser && !state.IsChecked(KindSecureWindow)
}

func (r *SecureWindow) PreflightFields() []PreflightField {
	return []PreflightField{{
		Name:     "securewindowconfirm",
		Type:     "checkbox",
		Label:    "I understand the attempt will open in a secure window",
		Help:     "Copy, paste and navigation are restricted while the attempt is open.",
		RuleKind: KindSecureWindow,
	}}
}

func (r *SecureWindow) ValidatePreflightCheck(data PreflightData, _ *Attempt) ValidationErrors {
	if !data.Checked("securewindowconfirm") {
		return ValidationErrors{{Field: "securewindowconfirm", Message: "Please confirm", Rule: KindSecureWindow}}
	}
	return nil
}

func (r *SecureWindow) NotifyPreflightCheckPassed(_ *Attempt) StateDelta {
	return StateDelta{Set: []Kind{KindSecureWindow}}
}

func (r *SecureWindow) CurrentAttemptFinished() StateDelta {
	return StateDelta{Clear: []Kind{KindSecureWindow}}
}
