package accessrules

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestMakeRules(t *testing.T) {
	tests := []struct {
		name   string
		quiz   Settings
		caller Caller
		want   []Kind
	}{
		{name: "nothing configured", want: []Kind{KindOpenCloseDate}},
		{
			name: "every rule in registry order",
			quiz: Settings{
				Attempts: 3, Delay1: 60, Subnet: "10.0.0.0/8", Password: "secret",
				TimeLimit: 600, BrowserSecurity: BrowserSecuritySecureWindow, AllowOffline: true,
			},
			want: []Kind{
				KindDelayBetweenAttempts, KindIPAddress, KindNumAttempts, KindOfflineAttempts,
				KindOpenCloseDate, KindPassword, KindSecureWindow, KindTimeLimit,
			},
		},
		{
			name:   "time limit ignored by privileged caller",
			quiz:   Settings{TimeLimit: 600},
			caller: Caller{CanIgnoreTimeLimits: true},
			want:   []Kind{KindOpenCloseDate},
		},
		{name: "delay2 alone", quiz: Settings{Delay2: 30}, want: []Kind{KindDelayBetweenAttempts, KindOpenCloseDate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := MakeRules(&tt.quiz, 0, tt.caller)
			if len(rules) != len(tt.want) {
				t.Fatalf("MakeRules() made %d rules, want %d", len(rules), len(tt.want))
			}
			for i, r := range rules {
				if r.Kind() != tt.want[i] {
					t.Errorf("rule %d = %s, want %s", i, r.Kind(), tt.want[i])
				}
			}
		})
	}
}

func TestDelayBetweenAttempts_PreventNewAttempt(t *testing.T) {
	last := &Attempt{AttemptNumber: 1, TimeStart: 400, TimeFinish: 1000, State: StateFinished}
	tests := []struct {
		name     string
		quiz     Settings
		now      int64
		numPrev  int
		last     *Attempt
		wantPart string
	}{
		{name: "still waiting", quiz: Settings{Delay1: 600}, now: 1500, numPrev: 1, last: last, wantPart: FormatTime(1600)},
		{name: "wait over", quiz: Settings{Delay1: 600}, now: 1600, numPrev: 1, last: last},
		{name: "no prior attempts", quiz: Settings{Delay1: 600}, now: 0, numPrev: 0},
		{name: "delay2 applies after second attempt", quiz: Settings{Delay1: 10, Delay2: 900}, now: 1500, numPrev: 2, last: last, wantPart: FormatTime(1900)},
		{name: "delay1 only ignores later attempts", quiz: Settings{Delay1: 600}, now: 1500, numPrev: 2, last: last},
		{
			name: "finish capped at start plus time limit", quiz: Settings{Delay1: 600, TimeLimit: 100},
			now: 1050, numPrev: 1, last: last, wantPart: FormatTime(1100),
		},
		{
			name: "closes before next start", quiz: Settings{Delay1: 600, TimeClose: 1200},
			now: 1100, numPrev: 1, last: last, wantPart: "closes before",
		},
		{
			name: "next start equal to close still must wait", quiz: Settings{Delay1: 600, TimeClose: 1600},
			now: 1100, numPrev: 1, last: last, wantPart: "You must wait",
		},
		{name: "attempt limit reached leaves message to numattempts", quiz: Settings{Delay1: 600, Attempts: 1}, now: 1100, numPrev: 1, last: last},
		{name: "closed quiz leaves message to openclosedate", quiz: Settings{Delay1: 600, TimeClose: 1050}, now: 1100, numPrev: 1, last: last},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := MakeDelayBetweenAttempts(&tt.quiz, tt.now, Caller{})
			if !ok {
				t.Fatal("MakeDelayBetweenAttempts() did not apply")
			}
			got := rule.(NewAttemptPreventer).PreventNewAttempt(tt.numPrev, tt.last)
			if tt.wantPart == "" {
				if got != "" {
					t.Errorf("PreventNewAttempt() = %q, want no veto", got)
				}
				return
			}
			if !strings.Contains(got, tt.wantPart) {
				t.Errorf("PreventNewAttempt() = %q, want it to contain %q", got, tt.wantPart)
			}
		})
	}
}

func TestDelayBetweenAttempts_IsFinished(t *testing.T) {
	last := &Attempt{TimeStart: 400, TimeFinish: 1000}
	tests := []struct {
		name string
		quiz Settings
		now  int64
		want bool
	}{
		{name: "next start after close", quiz: Settings{Delay1: 600, TimeClose: 1200}, now: 1100, want: true},
		{name: "next start before close", quiz: Settings{Delay1: 600, TimeClose: 5000}, now: 1100, want: false},
		{name: "no close date", quiz: Settings{Delay1: 600}, now: 1100, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, _ := MakeDelayBetweenAttempts(&tt.quiz, tt.now, Caller{})
			if got := rule.(Finisher).IsFinished(1, last); got != tt.want {
				t.Errorf("IsFinished() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNumAttempts(t *testing.T) {
	quiz := Settings{Attempts: 2}
	rule, ok := MakeNumAttempts(&quiz, 0, Caller{})
	if !ok {
		t.Fatal("MakeNumAttempts() did not apply")
	}
	if got := rule.(NewAttemptPreventer).PreventNewAttempt(1, nil); got != "" {
		t.Errorf("PreventNewAttempt(1) = %q, want no veto", got)
	}
	if got := rule.(NewAttemptPreventer).PreventNewAttempt(2, nil); got != "No more attempts are allowed" {
		t.Errorf("PreventNewAttempt(2) = %q", got)
	}
	if !rule.(Finisher).IsFinished(2, nil) {
		t.Error("IsFinished(2) = false, want true")
	}
	if _, ok := MakeNumAttempts(&Settings{}, 0, Caller{}); ok {
		t.Error("MakeNumAttempts() applied to unlimited attempts")
	}
}

func TestOpenCloseDate_PreventAccess(t *testing.T) {
	tests := []struct {
		name  string
		quiz  Settings
		now   int64
		allow bool
	}{
		{name: "no dates", now: 100, allow: true},
		{name: "before open", quiz: Settings{TimeOpen: 200}, now: 100},
		{name: "at open", quiz: Settings{TimeOpen: 200}, now: 200, allow: true},
		{name: "at close", quiz: Settings{TimeClose: 200}, now: 200, allow: true},
		{name: "after close", quiz: Settings{TimeClose: 200, OverdueHandling: OverdueAutoSubmit}, now: 201},
		{name: "inside grace period", quiz: Settings{TimeClose: 200, GracePeriod: 50, OverdueHandling: OverdueGracePeriod}, now: 250, allow: true},
		{name: "after grace period", quiz: Settings{TimeClose: 200, GracePeriod: 50, OverdueHandling: OverdueGracePeriod}, now: 251},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, _ := MakeOpenCloseDate(&tt.quiz, tt.now, Caller{})
			got := rule.(AccessPreventer).PreventAccess()
			if (got == "") != tt.allow {
				t.Errorf("PreventAccess() = %q, allow = %v", got, tt.allow)
			}
		})
	}
}

func TestOpenCloseDate_TimeLeftDisplay(t *testing.T) {
	quiz := Settings{TimeClose: 10000}
	rule, _ := MakeOpenCloseDate(&quiz, 0, Caller{})
	timer := rule.(EndTimer)

	if _, ok := timer.TimeLeftDisplay(&Attempt{}, 10000-ShowTimeBeforeDeadline); ok {
		t.Error("countdown shown before the deadline threshold")
	}
	if left, ok := timer.TimeLeftDisplay(&Attempt{}, 9000); !ok || left != 1000 {
		t.Errorf("TimeLeftDisplay() = %d, %v, want 1000, true", left, ok)
	}
	if _, ok := timer.TimeLeftDisplay(&Attempt{Preview: true}, 10001); ok {
		t.Error("countdown shown for a preview past close")
	}
}

func TestTimeLimit_EndTime(t *testing.T) {
	tests := []struct {
		name string
		quiz Settings
		want int64
	}{
		{name: "start plus limit", quiz: Settings{TimeLimit: 600}, want: 1600},
		{name: "capped by close", quiz: Settings{TimeLimit: 600, TimeClose: 1300}, want: 1300},
		{name: "close after limit", quiz: Settings{TimeLimit: 600, TimeClose: 5000}, want: 1600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, _ := MakeTimeLimit(&tt.quiz, 0, Caller{})
			got, ok := rule.(EndTimer).EndTime(&Attempt{TimeStart: 1000})
			if !ok || got != tt.want {
				t.Errorf("EndTime() = %d, %v, want %d", got, ok, tt.want)
			}
		})
	}
}

func TestTimeLimit_Preflight(t *testing.T) {
	quiz := Settings{TimeLimit: 600}
	rule, _ := MakeTimeLimit(&quiz, 0, Caller{})
	pc := rule.(PreflightChecker)
	state := NewPreflightState(1)

	if !pc.IsPreflightCheckRequired(nil, state) {
		t.Error("fresh attempt should need confirmation")
	}
	if pc.IsPreflightCheckRequired(&Attempt{TimeStart: 1}, state) {
		t.Error("continuing attempt should not need confirmation")
	}
	if errs := pc.ValidatePreflightCheck(PreflightData{}, nil); len(errs) != 1 {
		t.Errorf("ValidatePreflightCheck(empty) = %v, want one error", errs)
	}
	if errs := pc.ValidatePreflightCheck(PreflightData{"timelimitconfirm": "1"}, nil); len(errs) != 0 {
		t.Errorf("ValidatePreflightCheck(checked) = %v", errs)
	}
	if d := pc.NotifyPreflightCheckPassed(nil); !d.IsEmpty() {
		t.Errorf("NotifyPreflightCheckPassed() = %+v, want empty", d)
	}
	if _, ok := rule.(EndTimer).TimeLeftDisplay(&Attempt{TimeStart: 0, Preview: true}, 700); ok {
		t.Error("countdown shown for a preview past its end")
	}
}

func TestIPAddress_PreventAccess(t *testing.T) {
	quiz := Settings{Subnet: "10.0.0.0/8"}
	for addr, allow := range map[string]bool{
		"10.1.2.3":       true,
		"10.1.2.3:52311": true,
		"192.168.1.1":    false,
		"":               false,
	} {
		rule, _ := MakeIPAddress(&quiz, 0, Caller{RemoteAddr: addr})
		got := rule.(AccessPreventer).PreventAccess()
		if (got == "") != allow {
			t.Errorf("PreventAccess(%q) = %q, allow = %v", addr, got, allow)
		}
	}
}

func TestPassword(t *testing.T) {
	quiz := Settings{Password: "frog", ExtraPasswords: []string{"toad"}}
	rule, ok := MakePassword(&quiz, 0, Caller{})
	if !ok {
		t.Fatal("MakePassword() did not apply")
	}
	pc := rule.(PreflightChecker)
	state := NewPreflightState(7)

	if !pc.IsPreflightCheckRequired(nil, state) {
		t.Fatal("password should be asked for")
	}
	if errs := pc.ValidatePreflightCheck(PreflightData{"quizpassword": "newt"}, nil); len(errs) != 1 || errs[0].Field != "quizpassword" {
		t.Errorf("wrong password errors = %v", errs)
	}
	for _, pw := range []string{"frog", "toad"} {
		if errs := pc.ValidatePreflightCheck(PreflightData{"quizpassword": pw}, nil); len(errs) != 0 {
			t.Errorf("password %q rejected: %v", pw, errs)
		}
	}

	state = state.Apply(pc.NotifyPreflightCheckPassed(nil))
	if pc.IsPreflightCheckRequired(nil, state) {
		t.Error("password asked again after passing")
	}
	state = state.Apply(pc.CurrentAttemptFinished())
	if !pc.IsPreflightCheckRequired(nil, state) {
		t.Error("password not asked after the attempt finished")
	}
}

func TestPassword_Bcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("frog"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	if isBcryptHash("$2plain") {
		t.Error("isBcryptHash() accepted a non-hash")
	}
	if !isBcryptHash(string(hash)) {
		t.Fatal("isBcryptHash() rejected a hash")
	}
	r := &Password{quiz: &Settings{Password: string(hash)}}
	if !r.CheckPassword("frog") {
		t.Error("CheckPassword() rejected the right password")
	}
	if r.CheckPassword("toad") {
		t.Error("CheckPassword() accepted the wrong password")
	}
}

func TestSecureWindow(t *testing.T) {
	quiz := Settings{BrowserSecurity: BrowserSecuritySecureWindow}

	rule, _ := MakeSecureWindow(&quiz, 0, Caller{})
	pe := rule.(PopupEnforcer)
	if !pe.AttemptMustBeInPopup() || pe.PageLayout() != PageLayoutSecure {
		t.Error("student attempt should be forced into a secure popup")
	}
	opts := pe.PopupOptions()
	if !opts.Fullscreen || !opts.Scrollbars || opts.Toolbar || opts.Resizeable {
		t.Errorf("PopupOptions() = %+v", opts)
	}

	preview, _ := MakeSecureWindow(&quiz, 0, Caller{IsPreviewUser: true})
	if preview.(PopupEnforcer).AttemptMustBeInPopup() {
		t.Error("preview user forced into a popup")
	}
	if preview.(PreflightChecker).IsPreflightCheckRequired(nil, NewPreflightState(1)) {
		t.Error("preview user asked to confirm the secure window")
	}
}

func TestOfflineAttempts_Preflight(t *testing.T) {
	quiz := Settings{AllowOffline: true}
	rule, _ := MakeOfflineAttempts(&quiz, 0, Caller{})
	pc := rule.(PreflightChecker)
	state := NewPreflightState(1)

	if pc.IsPreflightCheckRequired(nil, state) {
		t.Error("fresh attempt should not need offline confirmation")
	}
	if pc.IsPreflightCheckRequired(&Attempt{TimeStart: 10}, state) {
		t.Error("online attempt should not need offline confirmation")
	}
	offline := &Attempt{TimeStart: 10, TimeModifiedOffline: 20}
	if !pc.IsPreflightCheckRequired(offline, state) {
		t.Fatal("offline-modified attempt should need confirmation")
	}
	if errs := pc.ValidatePreflightCheck(PreflightData{"confirmdatasaved": "off"}, offline); len(errs) != 1 {
		t.Errorf("unchecked box accepted: %v", errs)
	}
	state = state.Apply(pc.NotifyPreflightCheckPassed(offline))
	if pc.IsPreflightCheckRequired(offline, state) {
		t.Error("confirmation asked again after passing")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{
		0:     "0 secs",
		1:     "1 sec",
		600:   "10 mins",
		3660:  "1 hour 1 min",
		93900: "1 day 2 hours 5 mins",
	}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
