package accessrules

// OfflineAttempts asks the user to confirm their offline work was synced before resuming.
type OfflineAttempts struct {
	quiz *Settings
}

// MakeOfflineAttempts applies when the quiz allows attempts from an offline client.
func MakeOfflineAttempts(quiz *Settings, _ int64, _ Caller) (Rule, bool) {
	if !quiz.AllowOffline {
		return nil, false
	}
	return &OfflineAttempts{quiz: quiz}, true
}

func (r *OfflineAttempts) Kind() Kind { return KindOfflineAttempts }

func (r *OfflineAttempts) Description() []string { return nil }

// Only an existing attempt that was changed offline needs the confirmation.
func (r *OfflineAttempts) IsPreflightCheckRequired(current *Attempt, state PreflightState) bool {
	if current == nil || current.TimeModifiedOffline == 0 {
		return false
	}
	return !state.IsChecked(KindOfflineAttempts)
}

func (r *OfflineAttempts) PreflightFields() []PreflightField {
	return []PreflightField{{
		Name:     "confirmdatasaved",
		Type:     "checkbox",
		Label:    "I confirm that all the work I did offline has been synchronised",
		Help:     "This attempt was last changed from an offline device. Continuing here may overwrite unsynchronised answers.",
		RuleKind: KindOfflineAttempts,
	}}
}

func (r *OfflineAttempts) ValidatePreflightCheck(data PreflightData, _ *Attempt) ValidationErrors {
	if !data.Checked("confirmdatasaved") {
		return ValidationErrors{{Field: "confirmdatasaved", Message: "Please confirm", Rule: KindOfflineAttempts}}
	}
	return nil
}

func (r *OfflineAttempts) NotifyPreflightCheckPassed(_ *Attempt) StateDelta {
	return StateDelta{Set: []Kind{KindOfflineAttempts}}
}

func (r *OfflineAttempts) CurrentAttemptFinished() StateDelta {
	return StateDelta{Clear: []Kind{KindOfflineAttempts}}
}
