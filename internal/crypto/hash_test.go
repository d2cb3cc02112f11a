package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

// В тестах используем минимальную стоимость bcrypt, чтобы не замедлять прогон
const testCost = bcrypt.MinCost

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		salt     string
		cost     int
		wantErr  bool
	}{
		{
			name:     "fresh salt generated when omitted",
			password: "Sup3rSecret!",
			salt:     "",
			cost:     testCost,
		},
		{
			name:     "existing salt reused",
			password: "Sup3rSecret!",
			salt:     "deadbeef",
			cost:     testCost,
		},
		{
			name:     "empty password",
			password: "",
			salt:     "",
			cost:     testCost,
			wantErr:  true,
		},
		{
			name:     "invalid cost",
			password: "Sup3rSecret!",
			salt:     "",
			cost:     100,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, salt, err := HashPassword(tt.password, tt.salt, tt.cost)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEmpty(t, salt)
			if tt.salt != "" {
				assert.Equal(t, tt.salt, salt, "переданная соль должна вернуться без изменений")
			}
		})
	}
}

func TestVerifyPassword_RoundTrip(t *testing.T) {
	hash, salt, err := HashPassword("Correct1!", "", testCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword("Correct1!", hash, salt))
	assert.False(t, VerifyPassword("Wrong1!", hash, salt))
	// Та же пара пароль/хеш, но чужая соль - несовпадение
	assert.False(t, VerifyPassword("Correct1!", hash, "anothersalt"))
}

func TestVerifyPassword_NeverPanics(t *testing.T) {
	// Любой мусор на входе дает false, а не ошибку
	assert.False(t, VerifyPassword("password", "not-a-bcrypt-hash", "salt"))
	assert.False(t, VerifyPassword("", "", ""))
	assert.False(t, VerifyPassword("password", "", "salt"))
}

func TestGenerateSalt_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		salt, err := GenerateSalt()
		require.NoError(t, err)
		assert.Len(t, salt, SaltSize*2, "hex-encoded salt")
		assert.False(t, seen[salt], "соль не должна повторяться")
		seen[salt] = true
	}
}

func TestGenerateResetToken(t *testing.T) {
	token1, err := GenerateResetToken()
	require.NoError(t, err)
	token2, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, token1, ResetTokenSize*2)
	assert.NotEqual(t, token1, token2)
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}
