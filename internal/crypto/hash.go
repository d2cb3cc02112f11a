package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword хеширует пароль через bcrypt с персональной солью пользователя.
// Если salt пустая строка - генерируется новая соль. Соль конкатенируется
// с паролем до хеширования, поэтому возвращается вместе с хешем,
// чтобы вызывающая сторона могла ее сохранить.
//
// bcrypt ограничен 72 байтами входа, поэтому пароль с солью предварительно
// сжимается через SHA-256 (hex, всегда 64 байта).
func HashPassword(password, salt string, cost int) (string, string, error) {
	if password == "" {
		return "", "", fmt.Errorf("password cannot be empty")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", "", fmt.Errorf("invalid bcrypt cost: %d", cost)
	}

	if salt == "" {
		generated, err := GenerateSalt()
		if err != nil {
			return "", "", fmt.Errorf("failed to generate salt: %w", err)
		}
		salt = generated
	}

	hash, err := bcrypt.GenerateFromPassword(saltedDigest(password, salt), cost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), salt, nil
}

// VerifyPassword проверяет, соответствует ли пароль сохраненной паре hash/salt.
// Никогда не возвращает ошибку: любой внутренний сбой трактуется как несовпадение.
func VerifyPassword(password, hash, salt string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), saltedDigest(password, salt)) == nil
}

// saltedDigest возвращает SHA-256(password + salt) в hex.
// Детерминирован для пары (password, salt), фиксированная длина входа для bcrypt.
func saltedDigest(password, salt string) []byte {
	sum := sha256.Sum256([]byte(password + salt))
	return []byte(hex.EncodeToString(sum[:]))
}
