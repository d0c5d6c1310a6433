package middleware

import "net/netip"

// anonymizeIP keeps the network prefix (/24 for IPv4, /48 for IPv6) for logs.
func anonymizeIP(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	bits := 24
	if !addr.Unmap().Is4() {
		bits = 48
	}
	prefix, err := addr.Unmap().Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.String()
}
