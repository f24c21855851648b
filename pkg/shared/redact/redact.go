package redact

import (
	"net/url"
	"strings"
)

var sensitiveKeys = []string{"authorization", "token", "access_token", "api_auth_token", "session", "apikey"}

// URL masks credentials in a node address so it can be logged or shown:
// the userinfo password and any sensitive query values become "***".
// Strings that do not parse are returned unchanged.
func URL(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if isSensitiveKey(k) {
				q.Set(k, "***")
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func isSensitiveKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if k == s {
			return true
		}
	}
	return false
}
