package accessrules

// Override replaces selected settings for one user or one group. Nil fields keep the quiz value.
type Override struct {
	TimeOpen  *int64
	TimeClose *int64
	TimeLimit *int64
	Attempts  *int
	Password  *string
}

// ApplyOverrides returns the effective settings for a user.
// A user override wins outright; otherwise every group override the user belongs to is merged
// in the user's favour.
func ApplyOverrides(base Settings, user *Override, groups []Override) Settings {
	out := base
	out.ExtraPasswords = append([]string(nil), base.ExtraPasswords...)

	if user != nil {
		applyOne(&out, user)
		return out
	}
	if len(groups) == 0 {
		return out
	}

	merged := mergeGroups(groups)
	applyOne(&out, &merged.Override)
	for _, pw := range merged.passwords {
		if out.Password == "" {
			out.Password = pw
			continue
		}
		out.ExtraPasswords = append(out.ExtraPasswords, pw)
	}
	return out
}

func applyOne(s *Settings, o *Override) {
	if o.TimeOpen != nil {
		s.TimeOpen = *o.TimeOpen
	}
	if o.TimeClose != nil {
		s.TimeClose = *o.TimeClose
	}
	if o.TimeLimit != nil {
		s.TimeLimit = *o.TimeLimit
	}
	if o.Attempts != nil {
		s.Attempts = *o.Attempts
	}
	if o.Password != nil {
		s.Password = *o.Password
	}
}

type groupMerge struct {
	Override
	passwords []string
}

// mergeGroups picks the most lenient value of each field across group overrides.
// For close, time limit and attempts a zero means unlimited and beats any number.
func mergeGroups(groups []Override) groupMerge {
	var m groupMerge
	seen := map[string]bool{}
	for _, g := range groups {
		if g.TimeOpen != nil && (m.TimeOpen == nil || *g.TimeOpen < *m.TimeOpen) {
			m.TimeOpen = ptr(*g.TimeOpen)
		}
		if g.TimeClose != nil {
			m.TimeClose = lenientMax(m.TimeClose, *g.TimeClose)
		}
		if g.TimeLimit != nil {
			m.TimeLimit = lenientMax(m.TimeLimit, *g.TimeLimit)
		}
		if g.Attempts != nil {
			n := int64(*g.Attempts)
			merged := lenientMax(toInt64(m.Attempts), n)
			m.Attempts = ptr(int(*merged))
		}
		if g.Password != nil && *g.Password != "" && !seen[*g.Password] {
			seen[*g.Password] = true
			m.passwords = append(m.passwords, *g.Password)
		}
	}
	return m
}

func lenientMax(cur *int64, v int64) *int64 {
	if cur == nil {
		return ptr(v)
	}
	if *cur == 0 || v == 0 {
		return ptr(int64(0))
	}
	return ptr(max(*cur, v))
}

func toInt64(v *int) *int64 {
	if v == nil {
		return nil
	}
	return ptr(int64(*v))
}

func ptr[T any](v T) *T { return &v }
