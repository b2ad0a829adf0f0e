package accessrules

import (
	"reflect"
	"testing"
)

func TestApplyOverrides(t *testing.T) {
	base := Settings{QuizID: 1, TimeOpen: 1000, TimeClose: 2000, TimeLimit: 600, Attempts: 1, Password: "base"}

	tests := []struct {
		name   string
		user   *Override
		groups []Override
		want   Settings
	}{
		{name: "no overrides", want: base},
		{
			name:   "user override wins over groups",
			user:   &Override{TimeClose: ptr(int64(3000))},
			groups: []Override{{TimeClose: ptr(int64(9000)), Attempts: ptr(5)}},
			want:   Settings{QuizID: 1, TimeOpen: 1000, TimeClose: 3000, TimeLimit: 600, Attempts: 1, Password: "base"},
		},
		{
			name: "groups merge leniently",
			groups: []Override{
				{TimeOpen: ptr(int64(900)), TimeClose: ptr(int64(2500)), TimeLimit: ptr(int64(900)), Attempts: ptr(2)},
				{TimeOpen: ptr(int64(800)), TimeClose: ptr(int64(2200)), TimeLimit: ptr(int64(1200)), Attempts: ptr(3)},
			},
			want: Settings{QuizID: 1, TimeOpen: 800, TimeClose: 2500, TimeLimit: 1200, Attempts: 3, Password: "base"},
		},
		{
			name: "zero means unlimited and wins",
			groups: []Override{
				{TimeClose: ptr(int64(2500)), TimeLimit: ptr(int64(0)), Attempts: ptr(4)},
				{TimeClose: ptr(int64(0)), TimeLimit: ptr(int64(1200)), Attempts: ptr(0)},
			},
			want: Settings{QuizID: 1, TimeOpen: 1000, TimeClose: 0, TimeLimit: 0, Attempts: 0, Password: "base"},
		},
		{
			name:   "group passwords become extra passwords",
			groups: []Override{{Password: ptr("red")}, {Password: ptr("blue")}, {Password: ptr("red")}},
			want:   Settings{QuizID: 1, TimeOpen: 1000, TimeClose: 2000, TimeLimit: 600, Attempts: 1, Password: "base", ExtraPasswords: []string{"red", "blue"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyOverrides(base, tt.user, tt.groups)
			if len(got.ExtraPasswords) == 0 {
				got.ExtraPasswords = nil
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ApplyOverrides() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyOverrides_GroupPasswordWithoutBase(t *testing.T) {
	got := ApplyOverrides(Settings{}, nil, []Override{{Password: ptr("red")}, {Password: ptr("blue")}})
	if got.Password != "red" || !reflect.DeepEqual(got.ExtraPasswords, []string{"blue"}) {
		t.Errorf("ApplyOverrides() password = %q extra = %v", got.Password, got.ExtraPasswords)
	}
}
