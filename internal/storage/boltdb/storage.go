package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fleetdocs/internal/storage"
)

// bucketState - единственный bucket с коллекциями и session токеном
var bucketState = []byte("state")

// Storage represents BoltDB implementation of the storage.KV substrate
type Storage struct {
	db *bbolt.DB
}

// Compile-time check that Storage implements storage.KV
var _ storage.KV = (*Storage)(nil)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	// Инициализируем bucket
	if err := s.initBucket(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return s, nil
}

// initBucket создает bucket если он не существует
func (s *Storage) initBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketState); err != nil {
			return fmt.Errorf("failed to create state bucket: %w", err)
		}
		return nil
	})
}

// Get возвращает значение по ключу
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return fmt.Errorf("state bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrNotFound
		}

		// Копируем: данные bbolt валидны только внутри транзакции
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return value, nil
}

// Put записывает значение по ключу
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return fmt.Errorf("state bucket not found")
		}

		if err := bucket.Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to put %q: %w", key, err)
		}
		return nil
	})
}

// Delete удаляет ключ, отсутствие ключа не ошибка
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return fmt.Errorf("state bucket not found")
		}

		if err := bucket.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete %q: %w", key, err)
		}
		return nil
	})
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
