package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name     string
		username string
		role     string
	}{
		{
			name:     "regular user",
			username: "regular_user",
			role:     "user",
		},
		{
			name:     "moderator",
			username: "mod_user",
			role:     "moderator",
		},
		{
			name:     "user with email username",
			username: "user@domain.com",
			role:     "user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.username, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.role, claims.Role)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidCases(t *testing.T) {
	maker := NewJWTMaker("secret-one", time.Minute)

	t.Run("токен подписан другим ключом", func(t *testing.T) {
		other := NewJWTMaker("secret-two", time.Minute)
		token, err := other.GenerateToken("alice", "user")
		require.NoError(t, err)

		_, err = maker.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("истёкший токен", func(t *testing.T) {
		expired := NewJWTMaker("secret-one", -time.Minute)
		token, err := expired.GenerateToken("alice", "user")
		require.NoError(t, err)

		_, err = maker.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("мусор вместо токена", func(t *testing.T) {
		_, err := maker.ParseToken("not-a-token")
		assert.Error(t, err)
	})
}
