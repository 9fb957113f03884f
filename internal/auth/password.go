package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted on registration and change.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {}, "12345678": {},
	"123456789": {}, "1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {},
	"sunshine": {}, "princess": {}, "football": {}, "baseball": {}, "welcome1": {},
	"abc12345": {}, "letmein1": {}, "trustno1": {}, "superman": {}, "starwars": {},
	"whatever": {}, "dragon123": {}, "michael1": {}, "computer": {}, "internet": {},
	"11111111": {}, "00000000": {}, "87654321": {}, "asdfghjkl": {}, "zaq12wsx": {},
	"1q2w3e4r": {}, "changeme": {}, "administrator": {}, "monkey123": {}, "qwerty12": {},
}

// ValidateStrength returns every rule the password breaks; nil means it is acceptable.
// attrs are user attributes (email, username, names) the password must not resemble.
func ValidateStrength(password string, attrs ...string) []string {
	var problems []string
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, "This password is too long. It must contain at most 72 bytes.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		problems = append(problems, "This password is entirely numeric.")
	}
	lower := strings.ToLower(password)
	if _, ok := commonPasswords[lower]; ok {
		problems = append(problems, "This password is too common.")
	}
	if similarToAny(lower, attrs) {
		problems = append(problems, "The password is too similar to your personal information.")
	}
	return problems
}

func similarToAny(lowerPassword string, attrs []string) bool {
	if lowerPassword == "" {
		return false
	}
	for _, attr := range attrs {
		parts := strings.FieldsFunc(strings.ToLower(attr), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, p := range parts {
			if len(p) < 4 {
				continue
			}
			if strings.Contains(lowerPassword, p) || strings.Contains(p, lowerPassword) {
				return true
			}
		}
	}
	return false
}
