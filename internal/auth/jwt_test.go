package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	want := Claims{UserID: uuid.New(), BranchID: uuid.New(), Role: RoleTeller}

	token, err := GenerateToken(want, testSecret, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, want, *claims)
}

func TestValidateToken(t *testing.T) {
	c := Claims{UserID: uuid.New(), BranchID: uuid.New(), Role: RoleManager}

	validToken, err := GenerateToken(c, testSecret, 24*time.Hour)
	require.NoError(t, err)

	expiredToken, err := GenerateToken(c, testSecret, -1*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{
			name:      "expired token",
			token:     expiredToken,
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenExpired,
		},
		{
			name:      "wrong secret",
			token:     validToken,
			secret:    "wrong-secret",
			wantErrIs: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:      "malformed token",
			token:     "not.a.valid.jwt",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
		{
			name:      "empty token",
			token:     "",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, tc.secret)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErrIs)
		})
	}
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims tokenClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func validClaims() tokenClaims {
	return tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		BranchID: uuid.NewString(),
		Role:     RoleTeller,
	}
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	tok := signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims())

	_, err := ValidateToken(tok, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestValidateToken_ClaimChecks(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*tokenClaims)
		wantErr error
	}{
		{"foreign issuer", func(c *tokenClaims) { c.Issuer = "someone-else" }, jwt.ErrTokenInvalidIssuer},
		{"no expiry", func(c *tokenClaims) { c.ExpiresAt = nil }, jwt.ErrTokenRequiredClaimMissing},
		{"subject not a uuid", func(c *tokenClaims) { c.Subject = "teller-7" }, ErrInvalidClaims},
		{"branch not a uuid", func(c *tokenClaims) { c.BranchID = "" }, ErrInvalidClaims},
		{"unknown role", func(c *tokenClaims) { c.Role = "auditor" }, ErrInvalidClaims},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims := validClaims()
			tc.mutate(&claims)

			_, err := ValidateToken(signed(t, jwt.SigningMethodHS256, []byte(testSecret), claims), testSecret)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateToken_AllowsClockSkew(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Second))

	_, err := ValidateToken(signed(t, jwt.SigningMethodHS256, []byte(testSecret), claims), testSecret)
	assert.NoError(t, err)
}

func TestClaimsContext(t *testing.T) {
	c := Claims{UserID: uuid.New(), BranchID: uuid.New(), Role: RoleTeller}
	ctx := ContextWithClaims(context.Background(), c)

	userID, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, c.UserID, userID)

	branchID, ok := BranchIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, c.BranchID, branchID)

	_, ok = ClaimsFromContext(context.Background())
	assert.False(t, ok)
}
