// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
)

// doiPattern matches a registrant prefix ("10." plus 4-9 digits), a slash and
// a non-blank suffix, e.g. 10.5281/zenodo.1234.
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// emailPattern is intentionally loose; the mailer is the real authority.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateDOI checks that a DOI string has the canonical 10.prefix/suffix form.
func ValidateDOI(doi string) bool {
	return doiPattern.MatchString(strings.TrimSpace(doi))
}

// ValidateRating checks a review criterion rating against the 1-5 scale.
func ValidateRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// ValidatePassword checks password strength
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	return true, ""
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}
