package auth

import (
	"net/netip"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// splitNetworks breaks an allowed network claim into its entries.
func splitNetworks(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateNetworks checks that every entry is a CIDR or a single IP.
func validateNetworks(value any) error {
	s, _ := value.(string)
	for _, entry := range splitNetworks(s) {
		err := validation.Validate(entry, validation.By(func(any) error {
			if _, perr := netip.ParsePrefix(entry); perr == nil {
				return nil
			}
			return is.IP.Validate(entry)
		}))
		if err != nil {
			return err
		}
	}
	return nil
}

// networkAllows reports whether addr falls inside one of the networks in
// restriction. An empty restriction allows every address.
func networkAllows(restriction, addr string) bool {
	entries := splitNetworks(restriction)
	if len(entries) == 0 {
		return true
	}

	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return false
	}
	ip = ip.Unmap()

	for _, entry := range entries {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			if prefix.Masked().Contains(ip) {
				return true
			}
			continue
		}
		if single, err := netip.ParseAddr(entry); err == nil && single.Unmap() == ip {
			return true
		}
	}
	return false
}
