package auth

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	MinPasswordLen  = 8
	MaxPasswordLen  = 72 // bcrypt ignores input past 72 bytes
	PasswordSymbols = "@$!%*?&"
)

var emailRe = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// ValidEmail reports whether email has the user@domain.tld shape.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// Strength is the verdict shown next to the password field.
type Strength string

const (
	Strong Strength = "Strong"
	Weak   Strength = "Weak"
)

// PasswordStrength applies the password policy.
func PasswordStrength(pw string) Strength {
	if len(pw) < MinPasswordLen || len(pw) > MaxPasswordLen {
		return Weak
	}
	var upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	if upper && digit && symbol {
		return Strong
	}
	return Weak
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
