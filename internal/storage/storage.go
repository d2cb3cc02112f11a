package storage

import (
	"context"
	"errors"
)

// Фиксированные ключи хранилища. Каждая коллекция шифруется и пишется
// отдельным блобом, session хранится в открытом виде (это уже подписанный
// токен со встроенным сроком действия).
const (
	KeyUsers         = "users"
	KeyLoginAttempts = "login_attempts"
	KeyResetTokens   = "reset_tokens"
	KeySession       = "session"
)

// ErrNotFound возвращается когда ключ отсутствует в хранилище
var ErrNotFound = errors.New("key not found")

// KV описывает key-value подложку для персистентности.
// Реализация: bbolt (boltdb пакет), в тестах - in-memory мок.
type KV interface {
	// Get возвращает значение по ключу, ErrNotFound если ключа нет
	Get(ctx context.Context, key string) ([]byte, error)

	// Put записывает значение по ключу, перезаписывая существующее
	Put(ctx context.Context, key string, value []byte) error

	// Delete удаляет ключ. Отсутствие ключа не является ошибкой.
	Delete(ctx context.Context, key string) error

	// Close закрывает хранилище
	Close() error
}
