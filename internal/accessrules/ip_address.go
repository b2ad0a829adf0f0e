package accessrules

// IPAddress only lets callers from the configured subnets in.
type IPAddress struct {
	quiz   *Settings
	caller Caller
}

// MakeIPAddress applies when a subnet list is configured.
func MakeIPAddress(quiz *Settings, _ int64, caller Caller) (Rule, bool) {
	if quiz.Subnet == "" {
		return nil, false
	}
	return &IPAddress{quiz: quiz, caller: caller}, true
}

func (r *IPAddress) Kind() Kind { return KindIPAddress }

func (r *IPAddress) Description() []string { return nil }

func (r *IPAddress) PreventAccess() string {
	if AddressInSubnet(r.caller.RemoteAddr, r.quiz.Subnet) {
		return ""
	}
	return "This quiz is only accessible from certain locations, and this computer is not on the allowed list."
}
