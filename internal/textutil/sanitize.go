package textutil

import "strings"

// SanitizeFileName makes an uploaded file name safe to reuse on disk or in an
// object key. Path separators, colons, and asterisks become dashes; quotes,
// wildcards, redirects, pipes, and control characters are dropped.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			return '-'
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|' || r < ' ':
			return -1
		default:
			return r
		}
	}, name))
}

// SanitizeToken lowercases ASCII letters, keeps digits, dashes, and
// underscores, and replaces everything else with an underscore. Blank or
// fully stripped input yields "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return "unknown"
	}
	return token
}
