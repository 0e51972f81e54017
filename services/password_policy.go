package services

import (
	"errors"
	"fmt"
	"unicode"
)

// MinPasswordLength applies to passwords set by staff accounts
const MinPasswordLength = 12

type passwordRule struct {
	message string
	match   func(rune) bool
}

var passwordRules = []passwordRule{
	{"password must contain at least one uppercase letter", unicode.IsUpper},
	{"password must contain at least one lowercase letter", unicode.IsLower},
	{"password must contain at least one number", unicode.IsNumber},
	{"password must contain at least one special character", func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}},
}

// ValidatePassword reports every complexity rule the password breaks, joined into one error
func ValidatePassword(password string) error {
	var errs []error
	if len([]rune(password)) < MinPasswordLength {
		errs = append(errs, fmt.Errorf("password must be at least %d characters long", MinPasswordLength))
	}

	for _, rule := range passwordRules {
		found := false
		for _, r := range password {
			if rule.match(r) {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, errors.New(rule.message))
		}
	}
	return errors.Join(errs...)
}
