package auth

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest definitive password accepted.
const MinPasswordLength = 8

// Password policy violations, in the order ValidatePassword reports them.
var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordNoUpper  = errors.New("password must contain an uppercase letter")
	ErrPasswordNoLower  = errors.New("password must contain a lowercase letter")
	ErrPasswordNoDigit  = errors.New("password must contain a digit")
)

const specialChars = `!@#$%^&*(),.?":{}|<>`

type charClasses struct {
	upper, lower, digit, special bool
}

func classify(pw string) charClasses {
	var c charClasses
	for i := 0; i < len(pw); i++ {
		b := pw[i]
		switch {
		case b >= 'A' && b <= 'Z':
			c.upper = true
		case b >= 'a' && b <= 'z':
			c.lower = true
		case b >= '0' && b <= '9':
			c.digit = true
		case strings.IndexByte(specialChars, b) >= 0:
			c.special = true
		}
	}
	return c
}

// ValidatePassword returns every policy rule pw breaks, in a fixed order,
// or nil when pw is acceptable. Special characters are not required.
// Letters outside ASCII do not count as upper or lower case.
func ValidatePassword(pw string) []error {
	var errs []error
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		errs = append(errs, ErrPasswordTooShort)
	}
	c := classify(pw)
	if !c.upper {
		errs = append(errs, ErrPasswordNoUpper)
	}
	if !c.lower {
		errs = append(errs, ErrPasswordNoLower)
	}
	if !c.digit {
		errs = append(errs, ErrPasswordNoDigit)
	}
	return errs
}

// Strength is a coarse rating shown while a new password is typed.
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthMedium
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthMedium:
		return "medium"
	case StrengthStrong:
		return "strong"
	default:
		return "weak"
	}
}

// PasswordStrength scores pw one point each for length >= 8, length >= 12
// and each character class present.
func PasswordStrength(pw string) Strength {
	score := 0
	n := utf8.RuneCountInString(pw)
	if n >= 8 {
		score++
	}
	if n >= 12 {
		score++
	}
	c := classify(pw)
	for _, ok := range []bool{c.lower, c.upper, c.digit, c.special} {
		if ok {
			score++
		}
	}
	switch {
	case score <= 2:
		return StrengthWeak
	case score <= 4:
		return StrengthMedium
	default:
		return StrengthStrong
	}
}
