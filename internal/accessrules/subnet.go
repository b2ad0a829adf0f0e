package accessrules

import (
	"net/netip"
	"strconv"
	"strings"
)

// AddressInSubnet reports whether addr matches any entry of a comma separated subnet list.
//
// Entries may be a full address, a dotted prefix ("192.168" or "10."), a CIDR block
// ("10.0.0.0/8", "2001:db8::/32") or a range in the last group ("10.1.2.10-20",
// "2001:db8::1-ff"). IPv6 prefixes are matched group by group ("2001:db8").
func AddressInSubnet(addr, subnets string) bool {
	ip, ok := parseRemoteAddr(addr)
	if !ok {
		return false
	}
	if ip.Is4() && ip == netip.IPv4Unspecified() {
		return false
	}

	for _, entry := range strings.Split(subnets, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		var match bool
		switch {
		case strings.Contains(entry, "/"):
			match = matchCIDR(ip, entry)
		case strings.Contains(entry, "-"):
			match = matchRange(ip, entry)
		default:
			match = matchPrefix(ip, entry)
		}
		if match {
			return true
		}
	}
	return false
}

func parseRemoteAddr(addr string) (netip.Addr, bool) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().Unmap(), true
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.WithZone("").Unmap(), true
}

func matchCIDR(ip netip.Addr, entry string) bool {
	prefix, err := netip.ParsePrefix(entry)
	if err != nil {
		// "10.1/16" is accepted as shorthand for "10.1.0.0/16"
		base, bits, found := strings.Cut(entry, "/")
		if !found || strings.Contains(base, ":") {
			return false
		}
		octets := strings.Split(strings.TrimSuffix(base, "."), ".")
		for len(octets) < 4 {
			octets = append(octets, "0")
		}
		prefix, err = netip.ParsePrefix(strings.Join(octets, ".") + "/" + bits)
		if err != nil {
			return false
		}
	}
	return prefix.Masked().Contains(ip)
}

func matchRange(ip netip.Addr, entry string) bool {
	from, to, found := strings.Cut(entry, "-")
	if !found || strings.Contains(to, "-") {
		return false
	}
	start, err := netip.ParseAddr(strings.TrimSpace(from))
	if err != nil || start.Is4() != ip.Is4() {
		return false
	}

	to = strings.TrimSpace(to)
	if start.Is4() {
		last, err := strconv.ParseUint(to, 10, 8)
		if err != nil {
			return false
		}
		a, s := ip.As4(), start.As4()
		if a[0] != s[0] || a[1] != s[1] || a[2] != s[2] {
			return false
		}
		return uint64(a[3]) >= uint64(s[3]) && uint64(a[3]) <= last
	}

	last, err := strconv.ParseUint(to, 16, 16)
	if err != nil {
		return false
	}
	a, s := ip.As16(), start.As16()
	for i := 0; i < 14; i++ {
		if a[i] != s[i] {
			return false
		}
	}
	group := uint64(a[14])<<8 | uint64(a[15])
	first := uint64(s[14])<<8 | uint64(s[15])
	return group >= first && group <= last
}

func matchPrefix(ip netip.Addr, entry string) bool {
	if !strings.Contains(entry, ":") {
		if !ip.Is4() {
			return false
		}
		entry = strings.TrimSuffix(entry, ".")
		return strings.HasPrefix(ip.String()+".", entry+".")
	}

	if ip.Is4() {
		return false
	}
	if !strings.HasSuffix(entry, ":") {
		if full, err := netip.ParseAddr(entry); err == nil {
			return full.Unmap() == ip
		}
	}
	groups := strings.Split(strings.Trim(entry, ":"), ":")
	expanded := strings.Split(ip.StringExpanded(), ":")
	if len(groups) > len(expanded) {
		return false
	}
	for i, g := range groups {
		want, err := strconv.ParseUint(g, 16, 16)
		if err != nil {
			return false
		}
		have, _ := strconv.ParseUint(expanded[i], 16, 16)
		if want != have {
			return false
		}
	}
	return true
}

// ValidSubnetList reports whether every entry of a comma separated subnet list is well formed.
// An empty list is valid.
func ValidSubnetList(subnets string) bool {
	for _, entry := range strings.Split(subnets, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !validSubnetEntry(entry) {
			return false
		}
	}
	return true
}

func validSubnetEntry(entry string) bool {
	switch {
	case strings.Contains(entry, "/"):
		base, bits, _ := strings.Cut(entry, "/")
		if _, err := netip.ParsePrefix(entry); err == nil {
			return true
		}
		n, err := strconv.Atoi(bits)
		return err == nil && n >= 0 && n <= 32 && validIPv4Prefix(base)
	case strings.Contains(entry, "-"):
		from, to, _ := strings.Cut(entry, "-")
		start, err := netip.ParseAddr(strings.TrimSpace(from))
		if err != nil {
			return false
		}
		to = strings.TrimSpace(to)
		if start.Is4() {
			last, err := strconv.ParseUint(to, 10, 8)
			return err == nil && uint64(start.As4()[3]) <= last
		}
		_, err = strconv.ParseUint(to, 16, 16)
		return err == nil
	case strings.Contains(entry, ":"):
		if _, err := netip.ParseAddr(entry); err == nil {
			return true
		}
		for _, g := range strings.Split(strings.Trim(entry, ":"), ":") {
			if _, err := strconv.ParseUint(g, 16, 16); err != nil {
				return false
			}
		}
		return true
	default:
		return validIPv4Prefix(entry)
	}
}

func validIPv4Prefix(prefix string) bool {
	octets := strings.Split(strings.TrimSuffix(prefix, "."), ".")
	if len(octets) == 0 || len(octets) > 4 {
		return false
	}
	for _, o := range octets {
		if _, err := strconv.ParseUint(o, 10, 8); err != nil {
			return false
		}
	}
	return true
}
