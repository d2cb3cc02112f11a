package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/fleetdocs/internal/config"
	"github.com/iudanet/fleetdocs/internal/crypto"
	"github.com/iudanet/fleetdocs/internal/storage"
)

// State - коллекции, которыми монопольно владеет Store.
// Доступ только изнутри колбеков View/Update, под блокировкой.
type State struct {
	Users       []User
	Attempts    []LoginAttempt
	ResetTokens []PasswordResetToken
	Session     string // текущий session токен, "" = нет сессии
}

// FindUserByUsername возвращает пользователя по username (точное совпадение,
// case-sensitive) или nil. Указатель валиден только внутри колбека.
func (st *State) FindUserByUsername(username string) *User {
	for i := range st.Users {
		if st.Users[i].Username == username {
			return &st.Users[i]
		}
	}
	return nil
}

// FindUserByEmail возвращает пользователя по email или nil
func (st *State) FindUserByEmail(email string) *User {
	for i := range st.Users {
		if st.Users[i].Email == email {
			return &st.Users[i]
		}
	}
	return nil
}

// FindUserByID возвращает пользователя по id или nil
func (st *State) FindUserByID(id string) *User {
	for i := range st.Users {
		if st.Users[i].ID == id {
			return &st.Users[i]
		}
	}
	return nil
}

// FindResetToken возвращает неиспользованный токен с данной строкой или nil
func (st *State) FindResetToken(token string) *PasswordResetToken {
	for i := range st.ResetTokens {
		if st.ResetTokens[i].Token == token && !st.ResetTokens[i].Used {
			return &st.ResetTokens[i]
		}
	}
	return nil
}

// Store хранит коллекции аутентификации в памяти и персистит их
// в key-value подложку, шифруя каждую коллекцию отдельным блобом.
//
// Все чтения и изменения идут через View/Update: каждая операция сервиса
// выполняется атомарно под одной блокировкой, поэтому последовательность
// load-mutate-save не гонится между конкурентными вызовами.
type Store struct {
	mu    sync.Mutex
	kv    storage.KV
	key   []byte // ключ шифрования коллекций
	state State
}

// NewStore загружает состояние из хранилища и при необходимости создает
// администратора по умолчанию (bootstrap первого запуска).
//
// Поврежденный или нечитаемый блоб отдельной коллекции не фатален:
// эта коллекция молча начинается пустой (с записью в лог).
func NewStore(ctx context.Context, kv storage.KV, cfg config.Config) (*Store, error) {
	s := &Store{
		kv:  kv,
		key: crypto.DeriveStorageKey(cfg.Secret),
	}

	s.load(ctx)

	if err := s.bootstrap(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to bootstrap default admin: %w", err)
	}

	return s, nil
}

// View выполняет fn под блокировкой без сохранения изменений.
// fn не должна изменять состояние.
func (s *Store) View(ctx context.Context, fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// Update выполняет fn под блокировкой и, если fn вернула nil,
// сохраняет все коллекции и session токен. Последовательность
// read-modify-write внутри fn атомарна относительно других вызовов.
func (s *Store) Update(ctx context.Context, fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(&s.state); err != nil {
		return err
	}

	return s.save(ctx)
}

// load читает и расшифровывает коллекции. Вызывается один раз при создании.
func (s *Store) load(ctx context.Context) {
	loadCollection(ctx, s, storage.KeyUsers, &s.state.Users)
	loadCollection(ctx, s, storage.KeyLoginAttempts, &s.state.Attempts)
	loadCollection(ctx, s, storage.KeyResetTokens, &s.state.ResetTokens)

	// Session токен хранится в открытом виде
	if data, err := s.kv.Get(ctx, storage.KeySession); err == nil {
		s.state.Session = string(data)
	}
}

// loadCollection расшифровывает и декодирует одну коллекцию.
// Любой сбой деградирует до пустой коллекции, без ошибки.
func loadCollection[T any](ctx context.Context, s *Store, key string, dest *[]T) {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if err != storage.ErrNotFound {
			slog.Warn("failed to read collection, starting empty", "key", key, "error", err)
		}
		return
	}

	plaintext, ok := crypto.DecryptFromBase64(string(data), s.key)
	if !ok {
		slog.Warn("failed to decrypt collection, starting empty", "key", key)
		return
	}

	if err := json.Unmarshal(plaintext, dest); err != nil {
		slog.Warn("failed to decode collection, starting empty", "key", key, "error", err)
		*dest = nil
	}
}

// save шифрует и записывает все коллекции. Вызывается под блокировкой.
func (s *Store) save(ctx context.Context) error {
	if err := s.saveCollection(ctx, storage.KeyUsers, s.state.Users); err != nil {
		return err
	}
	if err := s.saveCollection(ctx, storage.KeyLoginAttempts, s.state.Attempts); err != nil {
		return err
	}
	if err := s.saveCollection(ctx, storage.KeyResetTokens, s.state.ResetTokens); err != nil {
		return err
	}

	if s.state.Session == "" {
		if err := s.kv.Delete(ctx, storage.KeySession); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	}
	if err := s.kv.Put(ctx, storage.KeySession, []byte(s.state.Session)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) saveCollection(ctx context.Context, key string, collection any) error {
	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("failed to encode collection %q: %w", key, err)
	}

	encrypted, err := crypto.EncryptToBase64(data, s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt collection %q: %w", key, err)
	}

	if err := s.kv.Put(ctx, key, []byte(encrypted)); err != nil {
		return fmt.Errorf("failed to save collection %q: %w", key, err)
	}
	return nil
}

// bootstrap создает администратора по умолчанию, если пользователя
// с зарезервированным username еще нет. Пароль обязателен к смене
// при первом входе (IsFirstLogin).
func (s *Store) bootstrap(ctx context.Context, cfg config.Config) error {
	return s.Update(ctx, func(st *State) error {
		if st.FindUserByUsername(cfg.AdminUsername) != nil {
			return nil
		}

		hash, salt, err := crypto.HashPassword(cfg.AdminPassword, "", cfg.HashCost)
		if err != nil {
			return err
		}

		// Ответ на секретный вопрос хешируется той же солью, в нижнем регистре
		answerHash, _, err := crypto.HashPassword(
			strings.ToLower(cfg.AdminSecurityAnswer), salt, cfg.HashCost)
		if err != nil {
			return err
		}

		now := time.Now()
		st.Users = append(st.Users, User{
			ID:                 crypto.NewID(),
			Username:           cfg.AdminUsername,
			Email:              cfg.AdminEmail,
			PasswordHash:       hash,
			Salt:               salt,
			SecurityQuestion:   cfg.AdminSecurityQuestion,
			SecurityAnswerHash: answerHash,
			IsFirstLogin:       true,
			IsLocked:           false,
			FailedAttempts:     0,
			CreatedAt:          now,
			UpdatedAt:          now,
		})

		slog.Info("default admin account created", "username", cfg.AdminUsername)
		return nil
	})
}

// PruneLoginAttempts удаляет записи журнала старше cutoff.
// Возвращает количество удаленных записей.
func (s *Store) PruneLoginAttempts(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := s.Update(ctx, func(st *State) error {
		kept := st.Attempts[:0]
		for _, a := range st.Attempts {
			if a.Timestamp.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		st.Attempts = kept
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// PruneResetTokens удаляет использованные и истекшие к cutoff токены.
// Возвращает количество удаленных записей.
func (s *Store) PruneResetTokens(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := s.Update(ctx, func(st *State) error {
		kept := st.ResetTokens[:0]
		for _, tok := range st.ResetTokens {
			if tok.Used || tok.ExpiresAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, tok)
		}
		st.ResetTokens = kept
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
