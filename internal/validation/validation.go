package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Паттерны классов символов для проверки силы пароля
var (
	upperPattern  = regexp.MustCompile(`[A-Z]`)
	lowerPattern  = regexp.MustCompile(`[a-z]`)
	digitPattern  = regexp.MustCompile(`\d`)
	symbolPattern = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)

	// EmailPattern - упрощенная проверка формата local@domain.tld.
	// Намеренно не RFC-полная.
	EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidatePasswordStrength проверяет пароль на соответствие политике:
// минимальная длина, заглавные, строчные, цифры и спецсимволы.
// Каждое правило проверяется независимо, errors перечисляет все
// нарушенные правила в стабильном порядке.
func ValidatePasswordStrength(password string, minLength int) (bool, []string) {
	var errs []string

	if len(password) < minLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters long", minLength))
	}
	if !upperPattern.MatchString(password) {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if !lowerPattern.MatchString(password) {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if !digitPattern.MatchString(password) {
		errs = append(errs, "password must contain at least one number")
	}
	if !symbolPattern.MatchString(password) {
		errs = append(errs, "password must contain at least one special symbol")
	}

	return len(errs) == 0, errs
}

// ValidateEmail проверяет формат email
func ValidateEmail(email string) bool {
	return EmailPattern.MatchString(email)
}

// SanitizeInput обрезает пробелы и удаляет угловые скобки.
// Минимальная защита от XSS, не полноценный санитайзер.
func SanitizeInput(input string) string {
	trimmed := strings.TrimSpace(input)
	return strings.NewReplacer("<", "", ">", "").Replace(trimmed)
}
