package mailcheck

import (
	"regexp"
	"strings"
)

var (
	angleAddr   = regexp.MustCompile(`<(.+)>`)
	displayName = regexp.MustCompile(`^([^<]+)<`)
	anyAddress  = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
)

// ExtractAddress pulls the bare address out of a From/To header value
// like `Jane Doe <jane@acme.com>`. Falls back to the first token for
// headers without angle brackets.
func ExtractAddress(header string) string {
	if m := angleAddr.FindStringSubmatch(header); m != nil {
		return strings.TrimSpace(m[1])
	}
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ExtractDisplayName returns the display-name part of a From header,
// quotes stripped. Empty when the header is a bare address.
func ExtractDisplayName(header string) string {
	m := displayName.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(m[1])
	return strings.Trim(name, `'"`)
}

// SplitDisplayName splits a display name on whitespace into first and
// last name, best effort: first token, then the remainder.
func SplitDisplayName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// EmailDomain returns the lowercased domain of an address, or "" when
// the input is not an address.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// FirstAddressIn scans free text for the first thing shaped like an
// email address.
func FirstAddressIn(text string) string {
	return anyAddress.FindString(text)
}
