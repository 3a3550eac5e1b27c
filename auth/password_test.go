package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw   string
		want []error
	}{
		{"abc12345", []error{ErrPasswordNoUpper}},
		{"Abcdefg1", nil},
		{"ABCDEFG1", []error{ErrPasswordNoLower}},
		{"Abcdefgh", []error{ErrPasswordNoDigit}},
		{"Ab1", []error{ErrPasswordTooShort}},
		{"", []error{ErrPasswordTooShort, ErrPasswordNoUpper, ErrPasswordNoLower, ErrPasswordNoDigit}},
		{"Ñandú123", []error{ErrPasswordNoUpper}},
	}
	for _, tt := range tests {
		t.Run(tt.pw, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.pw))
		})
	}
}

func TestPasswordStrength(t *testing.T) {
	assert.Equal(t, StrengthWeak, PasswordStrength("abc"))
	assert.Equal(t, StrengthWeak, PasswordStrength("abcdefgh"))
	assert.Equal(t, StrengthMedium, PasswordStrength("Abcdefg1"))
	assert.Equal(t, StrengthStrong, PasswordStrength("Abcdefg1!"))
	assert.Equal(t, StrengthStrong, PasswordStrength("Abcdefghijk1"))
	assert.Equal(t, "medium", StrengthMedium.String())
}
