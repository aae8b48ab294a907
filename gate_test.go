package folio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGateFailsClosed(t *testing.T) {
	_, err := NewGate("", "signing-secret", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = NewGate("hunter2", "", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = NewGate("", "", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestVerifyExactMatchOnly(t *testing.T) {
	g, err := NewGate("correct horse battery staple", "signing-secret", time.Hour)
	require.NoError(t, err)

	assert.True(t, g.Verify("correct horse battery staple"))
	assert.False(t, g.Verify(""))
	assert.False(t, g.Verify("correct horse battery staple "))
	assert.False(t, g.Verify("correct horse battery"))
	assert.False(t, g.Verify("CORRECT HORSE BATTERY STAPLE"))
}

func TestTokenRoundTrip(t *testing.T) {
	g, err := NewGate("pw", "signing-secret", time.Hour)
	require.NoError(t, err)

	token, err := g.IssueToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, g.CheckToken(token))
}

func TestTokenExpiry(t *testing.T) {
	g, err := NewGate("pw", "signing-secret", time.Minute)
	require.NoError(t, err)

	issued := time.Now()
	g.now = func() time.Time { return issued }
	token, err := g.IssueToken()
	require.NoError(t, err)

	g.now = func() time.Time { return issued.Add(30 * time.Second) }
	assert.NoError(t, g.CheckToken(token), "token should be valid within its TTL")

	g.now = func() time.Time { return issued.Add(2 * time.Minute) }
	assert.ErrorIs(t, g.CheckToken(token), ErrUnauthorized, "expired token must be rejected")
}

func TestTokenRejectsGarbageAndForeignSignatures(t *testing.T) {
	g, err := NewGate("pw", "signing-secret", time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, g.CheckToken(""), ErrUnauthorized)
	assert.ErrorIs(t, g.CheckToken("not-a-jwt"), ErrUnauthorized)

	other, err := NewGate("pw", "different-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := other.IssueToken()
	require.NoError(t, err)
	assert.ErrorIs(t, g.CheckToken(foreign), ErrUnauthorized)

	// Tampering with the payload invalidates the signature.
	token, err := g.IssueToken()
	require.NoError(t, err)
	tampered := token[:len(token)-4] + "AAAA"
	assert.ErrorIs(t, g.CheckToken(tampered), ErrUnauthorized)
}
