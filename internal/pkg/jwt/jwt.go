package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
	ErrWeakSecret   = errors.New("jwt secret must be at least 32 bytes")
)

// MinSecretLength is the shortest HMAC key the service accepts
const MinSecretLength = 32

const issuer = "bookmarket-api"

// TokenType distinguishes access credentials from refresh credentials
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Claims represents the JWT claims. Roles is only set on access tokens.
type Claims struct {
	Roles       []string  `json:"roles,omitempty"`
	TokenType   TokenType `json:"token_type"`
	AccountKind string    `json:"account_kind"`
	jwt.RegisteredClaims
}

// Username returns the subject the token was issued for
func (c *Claims) Username() string {
	return c.Subject
}

// Service mints and verifies HS256 tokens with a single secret
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the wall clock used for issuing and verifying
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService fails when the secret is shorter than MinSecretLength
func NewService(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*Service, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive (access=%s, refresh=%s)", accessTTL, refreshTTL)
	}

	s := &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTTL returns the access token lifetime
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueAccess generates a new access token carrying the role set
func (s *Service) IssueAccess(subject, accountKind string, roles []string) (string, error) {
	return s.sign(Claims{
		Roles:       roles,
		TokenType:   TypeAccess,
		AccountKind: accountKind,
	}, subject, s.accessTTL)
}

// IssueRefresh generates a new refresh token
func (s *Service) IssueRefresh(subject, accountKind string) (string, error) {
	return s.sign(Claims{
		TokenType:   TypeRefresh,
		AccountKind: accountKind,
	}, subject, s.refreshTTL)
}

func (s *Service) sign(claims Claims, subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the claims
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != TypeAccess && claims.TokenType != TypeRefresh {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// PeekType reads the token_type claim without checking the signature or expiry.
// Callers must still Verify before trusting anything else in the token.
func (s *Service) PeekType(tokenString string) (TokenType, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", ErrTokenInvalid
	}
	return claims.TokenType, nil
}

// IsRefresh reports whether the token verifies and is a refresh token
func (s *Service) IsRefresh(tokenString string) bool {
	claims, err := s.Verify(tokenString)
	return err == nil && claims.TokenType == TypeRefresh
}

// IsAccess reports whether the token verifies and is an access token
func (s *Service) IsAccess(tokenString string) bool {
	claims, err := s.Verify(tokenString)
	return err == nil && claims.TokenType == TypeAccess
}
