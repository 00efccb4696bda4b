package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSigner(secret string, ttl time.Duration, now *time.Time) *SignedURLSigner {
	s := NewSignedURLSigner(secret, ttl)
	s.now = func() time.Time { return *now }
	return s
}

func TestSignedURLSignerRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	signer := fixedSigner("secret", time.Hour, &now)

	token, expiresAt, err := signer.Sign("job-1", "reports/performance_report_group-a_2026-03-01.csv")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	grant, err := signer.Verify(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", grant.Subject)
	assert.Equal(t, "reports/performance_report_group-a_2026-03-01.csv", grant.Key)
	assert.True(t, expiresAt.Equal(grant.ExpiresAt))
}

func TestSignedURLSignerExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	signer := fixedSigner("secret", time.Minute, &now)

	token, _, err := signer.Sign("job-1", "reports/file.pdf")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = signer.Verify(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	grant, err := signer.Verify(token, true)
	require.NoError(t, err)
	assert.Equal(t, "reports/file.pdf", grant.Key)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	now := time.Now()
	signer := fixedSigner("secret", time.Hour, &now)
	other := fixedSigner("other-secret", time.Hour, &now)

	token, _, err := signer.Sign("job-1", "reports/file.pdf")
	require.NoError(t, err)

	_, err = other.Verify(token, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged, _, err := signer.Sign("job-1", "reports/other.pdf")
	require.NoError(t, err)
	mixed := token[:len(token)-10] + forged[len(forged)-10:]
	_, err = signer.Verify(mixed, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Verify("not-a-token", false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignedURLSignerRequiresSecret(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Sign("job-1", "a.csv")
	assert.Error(t, err)
}
