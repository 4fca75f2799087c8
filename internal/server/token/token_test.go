package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	c, err := NewCodec(Config{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)
	return c
}

func TestNewCodec(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{Secret: []byte("s"), TTL: time.Minute}},
		{name: "empty secret", cfg: Config{TTL: time.Minute}, wantErr: true},
		{name: "zero ttl", cfg: Config{Secret: []byte("s")}, wantErr: true},
		{name: "negative ttl", cfg: Config{Secret: []byte("s"), TTL: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCodec(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultIssuer, c.issuer)
		})
	}
}

func TestCodec_GenerateAndValidate(t *testing.T) {
	c := newTestCodec(t)

	signed, expiresAt, err := c.Generate("user-123", "alice")
	require.NoError(t, err)
	assert.Len(t, strings.Split(signed, "."), 3)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := c.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "alice", claims.Identifier)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
}

func TestCodec_ValidateExpired(t *testing.T) {
	c := newTestCodec(t)
	c.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	signed, _, err := c.Generate("user-123", "alice")
	require.NoError(t, err)

	c.now = time.Now
	_, err = c.Validate(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_ValidateRejects(t *testing.T) {
	c := newTestCodec(t)

	signed, _, err := c.Generate("user-123", "alice")
	require.NoError(t, err)

	other, err := NewCodec(Config{Secret: []byte("another-secret"), TTL: time.Hour})
	require.NoError(t, err)
	foreign, _, err := other.Generate("user-123", "alice")
	require.NoError(t, err)

	otherIssuer, err := NewCodec(Config{Secret: []byte("test-secret"), TTL: time.Hour, Issuer: "someone-else"})
	require.NoError(t, err)
	wrongIssuer, _, err := otherIssuer.Generate("user-123", "alice")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    DefaultIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "tampered payload", token: tamper(signed)},
		{name: "foreign secret", token: foreign},
		{name: "wrong issuer", token: wrongIssuer},
		{name: "alg none", token: noneToken},
		{name: "missing subject", token: noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := c.Validate(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
			assert.NotErrorIs(t, err, ErrTokenExpired)
		})
	}
}

// tamper заменяет payload токена, сохраняя исходную подпись
func tamper(signed string) string {
	parts := strings.Split(signed, ".")
	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Identifier: "mallory",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-666",
			Issuer:    DefaultIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("whatever"))
	forgedParts := strings.Split(forged, ".")
	return parts[0] + "." + forgedParts[1] + "." + parts[2]
}
