package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const (
	// SaltSize - размер соли в байтах
	SaltSize = 32
	// ResetTokenSize - размер reset токена в байтах
	ResetTokenSize = 32
)

// GenerateSalt генерирует криптографически случайную соль, hex-encoded
func GenerateSalt() (string, error) {
	return randomHex(SaltSize)
}

// GenerateResetToken генерирует одноразовый токен восстановления пароля.
// Тот же генератор, что и у соли, но токены одноразовые и ограничены по времени.
func GenerateResetToken() (string, error) {
	return randomHex(ResetTokenSize)
}

// NewID возвращает новый уникальный идентификатор сущности (UUID v4)
func NewID() string {
	return uuid.NewString()
}

// DeriveStorageKey выводит 32-байтовый ключ шифрования коллекций
// из секрета приложения. Ключ общий для всего приложения: это защита
// от случайного просмотра файла, а не граница безопасности (секрет
// распространяется вместе с приложением).
func DeriveStorageKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func randomHex(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
