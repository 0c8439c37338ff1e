package logging

import (
	"net/url"
	"strings"
)

// sensitiveKeys are substrings of attribute keys whose values are masked.
// Matching is case-insensitive.
var sensitiveKeys = []string{
	"PASSWORD",
	"PASSWD",
	"SECRET",
	"TOKEN",
	"CREDENTIAL",
	"DSN",
}

// ShouldMask reports whether an attribute key names sensitive data.
func ShouldMask(key string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range sensitiveKeys {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// MaskValue masks a sensitive string.
// Values of 4 or fewer characters become "********";
// longer values keep their last 4 characters: "****xxxx".
func MaskValue(value string) string {
	if len(value) <= 4 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}

// MaskURL replaces the password of a URL with a mask, leaving the rest intact.
// Unparseable input and URLs without a password are returned unchanged.
func MaskURL(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	password, ok := u.User.Password()
	if !ok || password == "" {
		return raw
	}

	u.User = url.UserPassword(u.User.Username(), MaskValue(password))
	return u.String()
}
