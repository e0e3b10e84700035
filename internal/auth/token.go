package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose scopes a token to a single use. A password-reset token is not
// accepted where a session token is expected, and vice versa.
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "password_reset"
)

var (
	// ErrTokenExpired means the token was well-formed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers malformed tokens, bad signatures and
	// purpose mismatches.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID  string `json:"userId"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService issues and validates signed bearer tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with the given secret.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret, now: time.Now}
}

// Issue creates a signed token for a subject, scoped to a purpose, valid
// for ttl from now.
func (s *TokenService) Issue(userID string, purpose Purpose, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:  userID,
		Purpose: string(purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses a token string and returns the subject id, requiring the
// token to carry the expected purpose.
func (s *TokenService) Validate(tokenStr string, purpose Purpose) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !token.Valid || claims.Purpose != string(purpose) {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}
