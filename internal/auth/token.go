package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims представляет JWT claims session токена
type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateSessionToken создает новый JWT session токен (HS256).
// Токен самодостаточный: проверяется без обращения к хранилищу.
func GenerateSessionToken(secret []byte, ttl time.Duration, userID string) (string, error) {
	now := time.Now()

	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "fleetdocs",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifySessionToken валидирует и парсит session токен.
// Никогда не возвращает ошибку: при любом сбое (битая структура,
// неверная подпись, истекший срок) возвращает nil.
func VerifySessionToken(secret []byte, tokenString string) *SessionClaims {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims
	}

	return nil
}
