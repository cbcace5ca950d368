package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!"

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, err := tm.Issue("a@x.com")
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_Validate_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := tm.Issue("a@x.com")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestTokenManager_Validate_StillValidJustBeforeExpiry(t *testing.T) {
	issued := time.Now()
	tm := NewTokenManager(testSecret, time.Hour)
	tm.now = func() time.Time { return issued }

	token, err := tm.Issue("a@x.com")
	require.NoError(t, err)

	tm.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = tm.Validate(token)
	assert.NoError(t, err)
}

func TestTokenManager_Validate_WrongSecret(t *testing.T) {
	token, err := NewTokenManager(testSecret, time.Hour).Issue("a@x.com")
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret-32-characters-long", time.Hour).Validate(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestTokenManager_Validate_Tampered(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	token, err := tm.Issue("a@x.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[1] = parts[1] + "x"

	_, err = tm.Validate(strings.Join(parts, "."))
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestTokenManager_Validate_RejectsNoneAlgorithm(t *testing.T) {
	claims := &models.TokenClaims{
		Email: "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Validate(unsigned)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestTokenManager_Validate_Garbage(t *testing.T) {
	_, err := NewTokenManager(testSecret, time.Hour).Validate("not-a-token")
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}
