package corral

import "strings"

// CookieName is the session cookie Better Auth sets on login.
const CookieName = "better-auth.session_token"

// bearerScheme is matched exactly: capital B, single trailing space.
const bearerScheme = "Bearer "

// HeaderPair is one entry of an ordered header collection, the lowest common
// denominator across hosting frameworks.
type HeaderPair struct {
	Name  string
	Value string
}

// ExtractToken pulls a session token out of an ordered header collection.
// The session cookie wins over the Authorization header regardless of header
// order, and only the first matching cookie segment is used when several
// cookies share the name. A request without a token is a normal outcome, so
// the second return is false rather than an error.
func ExtractToken(headers []HeaderPair) (string, bool) {
	for _, h := range headers {
		if !strings.EqualFold(h.Name, "cookie") {
			continue
		}
		if token, ok := tokenFromCookieValue(h.Value); ok {
			return token, true
		}
	}

	for _, h := range headers {
		if !strings.EqualFold(h.Name, "authorization") {
			continue
		}
		if token, ok := strings.CutPrefix(h.Value, bearerScheme); ok && token != "" {
			return token, true
		}
	}

	return "", false
}

// tokenFromCookieValue scans a serialized Cookie header value in segment
// order and returns the value of the first session-token cookie.
func tokenFromCookieValue(value string) (string, bool) {
	for _, segment := range strings.Split(value, ";") {
		segment = strings.TrimSpace(segment)
		if token, ok := strings.CutPrefix(segment, CookieName+"="); ok && token != "" {
			return token, true
		}
	}
	return "", false
}
