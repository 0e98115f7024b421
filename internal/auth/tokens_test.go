package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens() *Tokens {
	return NewTokens("test-secret", time.Hour, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens := newTestTokens()
	userID := uuid.New()

	signed, err := tokens.MintAccessToken(userID, RoleDoctor)
	require.NoError(t, err)

	claims, err := tokens.ParseAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Sub)
	assert.Equal(t, RoleDoctor, claims.Role)
}

func TestAccessTokenExpiry(t *testing.T) {
	tokens := newTestTokens()

	minted := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return minted }

	signed, err := tokens.MintAccessToken(uuid.New(), RoleUser)
	require.NoError(t, err)

	// Still valid just inside the TTL.
	tokens.now = func() time.Time { return minted.Add(59 * time.Minute) }
	_, err = tokens.ParseAccessToken(signed)
	require.NoError(t, err)

	tokens.now = func() time.Time { return minted.Add(2 * time.Hour) }
	_, err = tokens.ParseAccessToken(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	signed, err := newTestTokens().MintAccessToken(uuid.New(), RoleUser)
	require.NoError(t, err)

	other := NewTokens("different-secret", time.Hour, 24*time.Hour)
	_, err = other.ParseAccessToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := newTestTokens().ParseAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRestockTokenRoundTrip(t *testing.T) {
	tokens := newTestTokens()
	medicineID := uuid.New()

	minted := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return minted }

	signed, expiresAt, err := tokens.MintRestockToken(medicineID)
	require.NoError(t, err)
	assert.Equal(t, minted.Add(24*time.Hour), expiresAt)

	tokenID, parsedMedicine, parsedExpiry, err := tokens.ParseRestockToken(signed)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenID)
	assert.Equal(t, medicineID, parsedMedicine)
	assert.Equal(t, expiresAt.Unix(), parsedExpiry.Unix())
}

func TestRestockTokenUniqueIDs(t *testing.T) {
	tokens := newTestTokens()
	medicineID := uuid.New()

	first, _, err := tokens.MintRestockToken(medicineID)
	require.NoError(t, err)
	second, _, err := tokens.MintRestockToken(medicineID)
	require.NoError(t, err)

	firstID, _, _, err := tokens.ParseRestockToken(first)
	require.NoError(t, err)
	secondID, _, _, err := tokens.ParseRestockToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstID, secondID)
}

func TestRestockTokenExpiry(t *testing.T) {
	tokens := newTestTokens()

	minted := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return minted }

	signed, _, err := tokens.MintRestockToken(uuid.New())
	require.NoError(t, err)

	tokens.now = func() time.Time { return minted.Add(25 * time.Hour) }
	_, _, _, err = tokens.ParseRestockToken(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.True(t, tokens.IsExpired(err))
}

// An access token presented on the restock path must be rejected: it carries
// no restock action claim.
func TestRestockTokenRejectsAccessToken(t *testing.T) {
	tokens := newTestTokens()

	signed, err := tokens.MintAccessToken(uuid.New(), RoleAdmin)
	require.NoError(t, err)

	_, _, _, err = tokens.ParseRestockToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.False(t, tokens.IsExpired(err))
}
