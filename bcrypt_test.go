package users_test

import (
	"encoding/hex"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := users.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = users.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestHashCostTiers(t *testing.T) {
	pwHash, err := users.HashPassword("secret123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(pwHash))
	require.NoError(t, err)
	assert.Equal(t, 12, cost)

	tokenHash, err := users.HashToken("deadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, err)

	cost, err = bcrypt.Cost([]byte(tokenHash))
	require.NoError(t, err)
	assert.Equal(t, 8, cost)
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := users.HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Invalid hash",
			password: password,
			hash:     "invalidhash",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.hash == hash {
					assert.Equal(t, users.ErrMismatchedHashAndPassword, err)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	token1, err := users.GenerateToken()
	require.NoError(t, err)
	token2, err := users.GenerateToken()
	require.NoError(t, err)

	// 16 random bytes rendered as hex
	assert.Len(t, token1, 32)
	assert.NotEqual(t, token1, token2)

	_, err = hex.DecodeString(token1)
	assert.NoError(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	raw, err := users.GenerateToken()
	require.NoError(t, err)

	hash, err := users.HashToken(raw)
	require.NoError(t, err)

	assert.NoError(t, users.CompareTokenAndHash(raw, hash))
	assert.Equal(t, users.ErrMismatchedHashAndPassword, users.CompareTokenAndHash("not-the-token", hash))
}
