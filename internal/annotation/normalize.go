package annotation

import (
	"net/url"
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

// ValidationError reports user input that is not a usable URL.
type ValidationError struct {
	Input string
}

func (e *ValidationError) Error() string {
	return "Invalid URL format. Example: google.com"
}

// Normalize trims input, defaults the scheme to https and checks that the
// result is an absolute URL.
func Normalize(raw string) (string, error) {
	normalized := strings.TrimSpace(raw)
	if !schemePrefix.MatchString(normalized) {
		normalized = "https://" + normalized
	}

	if strings.ContainsAny(normalized, " \t\r\n") {
		return "", &ValidationError{Input: raw}
	}

	u, err := url.Parse(normalized)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return "", &ValidationError{Input: raw}
	}

	return normalized, nil
}
