package cli

// IO абстрагирует терминальный ввод-вывод, чтобы команды можно было
// тестировать со скриптованным вводом
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)

	// ReadInput читает строку с приглашением
	ReadInput(prompt string) (string, error)

	// ReadPassword читает пароль без эха
	ReadPassword(prompt string) (string, error)
}
