package sessiontoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	s, err := New("secret", time.Hour)
	require.NoError(t, err)

	token, err := s.Issue("session-1")
	require.NoError(t, err)

	id, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
}

func TestParseRejects(t *testing.T) {
	s, err := New("secret", time.Hour)
	require.NoError(t, err)
	other, err := New("other", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("session-1")
	require.NoError(t, err)

	expired, err := New("secret", time.Hour)
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("session-1")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "session-1", Issuer: issuer})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret": foreign,
		"expired":      old,
		"garbage":      "not-a-token",
		"unsigned":     unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("", time.Hour)
	assert.Error(t, err)
}
