package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит политику безопасности и настройки хранилища.
// Значения по умолчанию повторяют принятую политику системы,
// каждое из них можно переопределить через переменные окружения
// (или .env файл в рабочей директории).
type Config struct {
	// DBPath - путь к файлу локальной базы данных (bbolt)
	DBPath string
	// Secret - секрет приложения: им подписываются session токены
	// и из него выводится ключ шифрования коллекций
	Secret string

	// Политика паролей
	PasswordMinLength int

	// Блокировка учетной записи
	MaxFailedAttempts int
	LockoutDuration   time.Duration

	// Время жизни токенов
	SessionDuration    time.Duration
	ResetTokenDuration time.Duration

	// HashCost - стоимость bcrypt (work factor)
	HashCost int

	// Учетная запись администратора по умолчанию (bootstrap).
	// Пароль обязателен к смене при первом входе.
	AdminUsername         string
	AdminPassword         string
	AdminEmail            string
	AdminSecurityQuestion string
	AdminSecurityAnswer   string

	// AttemptRetention - сколько хранить журнал попыток входа,
	// применяется только явной операцией prune
	AttemptRetention time.Duration
}

// Load читает конфигурацию из окружения, подставляя значения по умолчанию.
// .env файл загружается если присутствует (ошибка отсутствия игнорируется).
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DBPath:            getEnv("FLEETDOCS_DB_PATH", "fleetdocs.db"),
		Secret:            getEnv("FLEETDOCS_SECRET", "fleetdocs-jwt-secret-key-2025"),
		PasswordMinLength: getEnvInt("FLEETDOCS_PASSWORD_MIN_LENGTH", 8),
		MaxFailedAttempts: getEnvInt("FLEETDOCS_MAX_FAILED_ATTEMPTS", 5),
		LockoutDuration:   time.Duration(getEnvInt("FLEETDOCS_LOCKOUT_MINUTES", 15)) * time.Minute,
		SessionDuration:   time.Duration(getEnvInt("FLEETDOCS_SESSION_HOURS", 24)) * time.Hour,
		ResetTokenDuration: time.Duration(
			getEnvInt("FLEETDOCS_RESET_TOKEN_MINUTES", 60)) * time.Minute,
		HashCost:              getEnvInt("FLEETDOCS_HASH_COST", 12),
		AdminUsername:         getEnv("FLEETDOCS_ADMIN_USERNAME", "adm"),
		AdminPassword:         getEnv("FLEETDOCS_ADMIN_PASSWORD", "adm2025"),
		AdminEmail:            getEnv("FLEETDOCS_ADMIN_EMAIL", "admin@fleetdocs.local"),
		AdminSecurityQuestion: getEnv("FLEETDOCS_ADMIN_QUESTION", "What is the name of the system?"),
		AdminSecurityAnswer:   getEnv("FLEETDOCS_ADMIN_ANSWER", "fleetdocs"),
		AttemptRetention: time.Duration(
			getEnvInt("FLEETDOCS_ATTEMPT_RETENTION_DAYS", 90)) * 24 * time.Hour,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
