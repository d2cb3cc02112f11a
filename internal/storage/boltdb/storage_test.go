package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fleetdocs/internal/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func TestStorage_PutGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, storage.KeyUsers, []byte("encrypted-users-blob"))
	require.NoError(t, err)

	value, err := s.Get(ctx, storage.KeyUsers)
	require.NoError(t, err)
	assert.Equal(t, []byte("encrypted-users-blob"), value)
}

func TestStorage_GetMissing(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_Overwrite(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storage.KeySession, []byte("token-one")))
	require.NoError(t, s.Put(ctx, storage.KeySession, []byte("token-two")))

	value, err := s.Get(ctx, storage.KeySession)
	require.NoError(t, err)
	assert.Equal(t, []byte("token-two"), value)
}

func TestStorage_Delete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storage.KeySession, []byte("token")))
	require.NoError(t, s.Delete(ctx, storage.KeySession))

	_, err := s.Get(ctx, storage.KeySession)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Повторное удаление - не ошибка
	assert.NoError(t, s.Delete(ctx, storage.KeySession))
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, storage.KeyResetTokens, []byte("blob")))
	require.NoError(t, s.Close())

	// Открываем заново и проверяем, что данные на месте
	s2, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	value, err := s2.Get(ctx, storage.KeyResetTokens)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), value)
}
