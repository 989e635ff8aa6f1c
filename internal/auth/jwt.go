package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "float-ledger"
	leeway = 30 * time.Second
)

var ErrInvalidClaims = errors.New("invalid token claims")

type Role string

const (
	RoleTeller  Role = "teller"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleTeller || r == RoleManager || r == RoleAdmin
}

// Claims identifies the operator behind a request and the branch whose
// till they work.
type Claims struct {
	UserID   uuid.UUID
	BranchID uuid.UUID
	Role     Role
}

// tokenClaims is the wire form. The user id travels as the standard
// subject claim.
type tokenClaims struct {
	jwt.RegisteredClaims
	BranchID string `json:"branch_id"`
	Role     Role   `json:"role"`
}

func GenerateToken(c Claims, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   c.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		BranchID: c.BranchID.String(),
		Role:     c.Role,
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &tc,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	userID, err := uuid.Parse(tc.Subject)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: subject: %w", ErrInvalidClaims)
	}
	branchID, err := uuid.Parse(tc.BranchID)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: branch_id: %w", ErrInvalidClaims)
	}
	if !tc.Role.IsValid() {
		return nil, fmt.Errorf("ValidateToken: role %q: %w", tc.Role, ErrInvalidClaims)
	}

	return &Claims{UserID: userID, BranchID: branchID, Role: tc.Role}, nil
}
