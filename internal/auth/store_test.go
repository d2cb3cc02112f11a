package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/fleetdocs/internal/config"
	"github.com/iudanet/fleetdocs/internal/crypto"
	"github.com/iudanet/fleetdocs/internal/storage"
)

// memKV implements storage.KV in memory for tests
type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, exists := m.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return value, nil
}

func (m *memKV) Put(ctx context.Context, key string, value []byte) error {
	copied := make([]byte, len(value))
	copy(copied, value)
	m.data[key] = copied
	return nil
}

func (m *memKV) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memKV) Close() error { return nil }

// testConfig - конфигурация с минимальной стоимостью bcrypt,
// чтобы не замедлять тесты
func testConfig() config.Config {
	return config.Config{
		DBPath:                "unused",
		Secret:                "test-secret",
		PasswordMinLength:     8,
		MaxFailedAttempts:     5,
		LockoutDuration:       15 * time.Minute,
		SessionDuration:       24 * time.Hour,
		ResetTokenDuration:    time.Hour,
		HashCost:              bcrypt.MinCost,
		AdminUsername:         "adm",
		AdminPassword:         "adm2025",
		AdminEmail:            "admin@fleetdocs.local",
		AdminSecurityQuestion: "What is the name of the system?",
		AdminSecurityAnswer:   "fleetdocs",
		AttemptRetention:      90 * 24 * time.Hour,
	}
}

func TestNewStore_BootstrapsDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()

	store, err := NewStore(ctx, kv, testConfig())
	require.NoError(t, err)

	err = store.View(ctx, func(st *State) error {
		require.Len(t, st.Users, 1)
		admin := st.Users[0]
		assert.Equal(t, "adm", admin.Username)
		assert.True(t, admin.IsFirstLogin)
		assert.False(t, admin.IsLocked)
		assert.Zero(t, admin.FailedAttempts)
		assert.NotEmpty(t, admin.ID)
		assert.NotEmpty(t, admin.Salt)
		// Пароль по умолчанию проверяется против сохраненного хеша
		assert.True(t, crypto.VerifyPassword("adm2025", admin.PasswordHash, admin.Salt))
		return nil
	})
	require.NoError(t, err)
}

func TestNewStore_BootstrapOnlyOnce(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	cfg := testConfig()

	store1, err := NewStore(ctx, kv, cfg)
	require.NoError(t, err)

	var adminID string
	_ = store1.View(ctx, func(st *State) error {
		adminID = st.Users[0].ID
		return nil
	})

	// Повторное создание над тем же хранилищем не плодит второго админа
	store2, err := NewStore(ctx, kv, cfg)
	require.NoError(t, err)

	_ = store2.View(ctx, func(st *State) error {
		require.Len(t, st.Users, 1)
		assert.Equal(t, adminID, st.Users[0].ID)
		return nil
	})
}

func TestStore_PersistsEncrypted(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	cfg := testConfig()

	_, err := NewStore(ctx, kv, cfg)
	require.NoError(t, err)

	// Блоб коллекции на диске зашифрован: JSON в открытом виде не встречается
	blob := kv.data[storage.KeyUsers]
	require.NotEmpty(t, blob)
	assert.NotContains(t, string(blob), `"username"`)

	// Но читается обратно тем же ключом
	plaintext, decrypted := crypto.DecryptFromBase64(string(blob), crypto.DeriveStorageKey(cfg.Secret))
	require.True(t, decrypted)
	assert.Contains(t, string(plaintext), `"adm"`)
}

func TestStore_CorruptedBlobStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	cfg := testConfig()

	_, err := NewStore(ctx, kv, cfg)
	require.NoError(t, err)

	// Портим блоб пользователей
	kv.data[storage.KeyUsers] = []byte("garbage-not-base64!!!")

	// Коллекция молча начинается пустой, bootstrap создает админа заново
	store, err := NewStore(ctx, kv, cfg)
	require.NoError(t, err)

	_ = store.View(ctx, func(st *State) error {
		require.Len(t, st.Users, 1)
		assert.Equal(t, "adm", st.Users[0].Username)
		return nil
	})
}

func TestStore_UpdatePersists(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	cfg := testConfig()

	store1, err := NewStore(ctx, kv, cfg)
	require.NoError(t, err)

	err = store1.Update(ctx, func(st *State) error {
		st.Attempts = append(st.Attempts, LoginAttempt{
			ID:        crypto.NewID(),
			Username:  "ghost",
			Success:   false,
			Timestamp: time.Now(),
			IPAddress: "unknown",
		})
		st.Session = "session-token"
		return nil
	})
	require.NoError(t, err)

	// Новый Store над тем же KV видит сохраненное состояние
	store2, err := NewStore(ctx, kv, cfg)
	require.NoError(t, err)

	_ = store2.View(ctx, func(st *State) error {
		require.Len(t, st.Attempts, 1)
		assert.Equal(t, "ghost", st.Attempts[0].Username)
		assert.Equal(t, "session-token", st.Session)
		return nil
	})
}

func TestStore_UpdateErrorDoesNotSave(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()

	store, err := NewStore(ctx, kv, testConfig())
	require.NoError(t, err)

	before := string(kv.data[storage.KeyLoginAttempts])

	err = store.Update(ctx, func(st *State) error {
		st.Attempts = append(st.Attempts, LoginAttempt{ID: "x"})
		return assert.AnError
	})
	require.Error(t, err)

	// Ошибка колбека не должна приводить к записи
	assert.Equal(t, before, string(kv.data[storage.KeyLoginAttempts]))
}

func TestStore_PruneLoginAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	store, err := NewStore(ctx, newMemKV(), testConfig())
	require.NoError(t, err)

	err = store.Update(ctx, func(st *State) error {
		st.Attempts = []LoginAttempt{
			{ID: "old", Timestamp: now.AddDate(0, 0, -100)},
			{ID: "recent", Timestamp: now.AddDate(0, 0, -1)},
		}
		return nil
	})
	require.NoError(t, err)

	removed, err := store.PruneLoginAttempts(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_ = store.View(ctx, func(st *State) error {
		require.Len(t, st.Attempts, 1)
		assert.Equal(t, "recent", st.Attempts[0].ID)
		return nil
	})
}

func TestStore_PruneResetTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	store, err := NewStore(ctx, newMemKV(), testConfig())
	require.NoError(t, err)

	err = store.Update(ctx, func(st *State) error {
		st.ResetTokens = []PasswordResetToken{
			{ID: "used", Used: true, ExpiresAt: now.Add(time.Hour)},
			{ID: "expired", Used: false, ExpiresAt: now.Add(-time.Hour)},
			{ID: "live", Used: false, ExpiresAt: now.Add(time.Hour)},
		}
		return nil
	})
	require.NoError(t, err)

	removed, err := store.PruneResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_ = store.View(ctx, func(st *State) error {
		require.Len(t, st.ResetTokens, 1)
		assert.Equal(t, "live", st.ResetTokens[0].ID)
		return nil
	})
}
