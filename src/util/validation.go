package util

import (
	"regexp"
	"strings"
	"time"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateISODate accepts calendar dates in YYYY-MM-DD form.
func ValidateISODate(date string) bool {
	if !isoDate.MatchString(date) {
		return false
	}
	_, err := time.Parse(time.DateOnly, date)
	return err == nil
}

// ValidateIdentifier accepts non-blank identifiers without surrounding
// whitespace, the shape Plaid uses for account and item ids.
func ValidateIdentifier(id string) bool {
	return id != "" && strings.TrimSpace(id) == id && len(id) <= 256
}

// ValidateToken accepts non-blank tokens with no whitespace anywhere.
func ValidateToken(token string) bool {
	return token != "" && !strings.ContainsAny(token, " \t\r\n")
}
