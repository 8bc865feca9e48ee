package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxWordLength = 64
	maxTagLength  = 32
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ParseEmailList splits a comma separated recipient list, skipping blanks
func ParseEmailList(list string) ([]string, error) {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if err := ValidateEmail(addr); err != nil {
			return nil, fmt.Errorf("%q: %w", addr, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

// ValidateWord checks a vocabulary entry. Letters, digits, spaces, hyphens,
// apostrophes and dots are allowed so phrases like "take off" pass.
func ValidateWord(word string) error {
	if strings.TrimSpace(word) == "" {
		return ValidationError{Field: "word", Message: "word is required"}
	}
	if word != strings.TrimSpace(word) {
		return ValidationError{Field: "word", Message: "word must not start or end with spaces"}
	}
	if utf8.RuneCountInString(word) > maxWordLength {
		return ValidationError{Field: "word", Message: fmt.Sprintf("word must be at most %d characters", maxWordLength)}
	}
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case ' ', '-', '\'', '.':
			continue
		}
		return ValidationError{Field: "word", Message: fmt.Sprintf("invalid character %q in %q", r, word)}
	}
	return nil
}

// ValidateWords checks every word of a list
func ValidateWords(words []string) error {
	for _, w := range words {
		if err := ValidateWord(w); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTag checks a word tag
func ValidateTag(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ValidationError{Field: "tag", Message: "tag is required"}
	}
	if utf8.RuneCountInString(tag) > maxTagLength {
		return ValidationError{Field: "tag", Message: fmt.Sprintf("tag must be at most %d characters", maxTagLength)}
	}
	return nil
}
