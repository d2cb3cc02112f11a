package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		wantValid bool
		wantErrs  int
	}{
		{
			name:      "valid password",
			password:  "Abcdef1!",
			wantValid: true,
			wantErrs:  0,
		},
		{
			name:      "too short",
			password:  "Ab1!",
			wantValid: false,
			wantErrs:  1,
		},
		{
			name:      "no uppercase",
			password:  "abcdef1!",
			wantValid: false,
			wantErrs:  1,
		},
		{
			name:      "no lowercase",
			password:  "ABCDEF1!",
			wantValid: false,
			wantErrs:  1,
		},
		{
			name:      "no digit",
			password:  "Abcdefg!",
			wantValid: false,
			wantErrs:  1,
		},
		{
			name:      "no symbol",
			password:  "Abcdefg1",
			wantValid: false,
			wantErrs:  1,
		},
		{
			name:      "empty password fails every rule",
			password:  "",
			wantValid: false,
			wantErrs:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := ValidatePasswordStrength(tt.password, 8)
			assert.Equal(t, tt.wantValid, valid)
			assert.Len(t, errs, tt.wantErrs)
		})
	}
}

func TestValidatePasswordStrength_StableOrder(t *testing.T) {
	// Порядок правил стабилен: длина, верхний регистр, нижний, цифра, символ
	_, errs := ValidatePasswordStrength("", 8)
	assert.Equal(t, []string{
		"password must be at least 8 characters long",
		"password must contain at least one uppercase letter",
		"password must contain at least one lowercase letter",
		"password must contain at least one number",
		"password must contain at least one special symbol",
	}, errs)
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"a@b.cd", true},
		{"user.name+tag@sub.example.org", true},
		{"", false},
		{"plainaddress", false},
		{"no@tld", false},
		{"spaces in@example.com", false},
		{"@example.com", false},
		{"user@", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  user  ", "user"},
		{"strips angle brackets", "<script>alert</script>", "scriptalert/script"},
		{"plain input unchanged", "driver_42", "driver_42"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeInput(tt.input))
		})
	}
}
