package accessrules

import "testing"

func TestAddressInSubnet(t *testing.T) {
	tests := []struct {
		addr    string
		subnets string
		want    bool
	}{
		{"10.1.2.3", "10.0.0.0/8", true},
		{"192.168.1.1", "10.0.0.0/8", false},
		{"192.168.1.5", "192.168", true},
		{"192.168.1.5", "192.16", false},
		{"10.9.9.9", "10.", true},
		{"10.1.2.3", "10.1.2.3", true},
		{"10.1.2.30", "10.1.2.3", false},
		{"10.1.2.15", "10.1.2.10-20", true},
		{"10.1.2.21", "10.1.2.10-20", false},
		{"10.1.5.5", "10.1/16", true},
		{"10.2.5.5", "10.1/16", false},
		{"172.16.0.4", "192.168.0.0/16, 172.16.0.4", true},
		{"10.1.2.3:55000", "10.0.0.0/8", true},
		{"::ffff:10.1.2.3", "10.0.0.0/8", true},
		{"0.0.0.0", "0.0.0.0/0", false},
		{"not-an-ip", "10.0.0.0/8", false},
		{"2001:db8::1", "2001:db8::/32", true},
		{"2001:db9::1", "2001:db8::/32", false},
		{"2001:db8::1", "2001:db8::1", true},
		{"2001:db8::5", "2001:db8::1-ff", true},
		{"2001:db8::100", "2001:db8::1-ff", false},
		{"2001:db8::1", "2001:db8", true},
		{"2001:db8::1", "2001:db8:", true},
		{"[2001:db8::1]:443", "2001:db8::/32", true},
		{"2001:db8::1", "10.0.0.0/8", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr+" in "+tt.subnets, func(t *testing.T) {
			if got := AddressInSubnet(tt.addr, tt.subnets); got != tt.want {
				t.Errorf("AddressInSubnet(%q, %q) = %v, want %v", tt.addr, tt.subnets, got, tt.want)
			}
		})
	}
}

func TestValidSubnetList(t *testing.T) {
	tests := []struct {
		subnets string
		want    bool
	}{
		{"", true},
		{"192.168.1.1", true},
		{"192.168, 10.", true},
		{"10.0.0.0/8, 10.1/16", true},
		{"10.1.2.10-20", true},
		{"2001:db8::/32", true},
		{"2001:db8::1-ff", true},
		{"2001:db8", true},
		{"10.1.2.30-20", false},
		{"300.1", false},
		{"10.0.0.0/40", false},
		{"abc", false},
		{"10.1.2.3, nope", false},
	}
	for _, tt := range tests {
		if got := ValidSubnetList(tt.subnets); got != tt.want {
			t.Errorf("ValidSubnetList(%q) = %v, want %v", tt.subnets, got, tt.want)
		}
	}
}
