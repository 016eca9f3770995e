// Package auth builds and verifies the signed access and refresh tokens and
// carries the authenticated identity through request contexts.
package auth

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinKeyLength is the minimum HMAC-SHA256 key size in bytes.
const MinKeyLength = 32

// Default token lifetimes.
const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrKeyTooShort = fmt.Errorf("signing key must be at least %d bytes", MinKeyLength)
	ErrSameKeys    = errors.New("access and refresh keys must differ")
	ErrInvalidTTL  = errors.New("token ttl must be positive")
)

// Clock abstracts time.Now so expiry can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Signer mints and verifies HS256 tokens. Access and refresh tokens are signed
// with distinct keys so one key cannot forge the other token class.
// A Signer holds no mutable state and is safe for concurrent use.
type Signer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      Clock
}

type Option func(*Signer)

// WithClock replaces the wall clock used for iat/exp and expiry checks.
func WithClock(c Clock) Option {
	return func(s *Signer) { s.clock = c }
}

// NewSigner validates key material and lifetimes and returns a Signer.
func NewSigner(accessKey, refreshKey []byte, accessTTL, refreshTTL time.Duration, opts ...Option) (*Signer, error) {
	if len(accessKey) < MinKeyLength || len(refreshKey) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	if bytes.Equal(accessKey, refreshKey) {
		return nil, ErrSameKeys
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, ErrInvalidTTL
	}

	s := &Signer{
		accessKey:  bytes.Clone(accessKey),
		refreshKey: bytes.Clone(refreshKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issued is a freshly signed token together with its validity window as
// encoded in its claims.
type Issued struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// GenerateAccessToken signs subject, names and roles of user with the access key.
func (s *Signer) GenerateAccessToken(user *models.User) (string, error) {
	issued, err := s.IssueAccessToken(user)
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

// GenerateRefreshToken signs the subject of user with the refresh key.
func (s *Signer) GenerateRefreshToken(user *models.User) (string, error) {
	issued, err := s.IssueRefreshToken(user)
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

// IssueAccessToken is GenerateAccessToken returning the validity window too.
func (s *Signer) IssueAccessToken(user *models.User) (*Issued, error) {
	roles := make([]string, len(user.Roles))
	copy(roles, user.Roles)

	claims := AccessClaims{
		Firstname:        user.Firstname,
		Lastname:         user.Lastname,
		Authorities:      roles,
		RegisteredClaims: s.registered(user.Username, s.accessTTL),
	}
	return issue(claims, claims.RegisteredClaims, s.accessKey)
}

// IssueRefreshToken is GenerateRefreshToken returning the validity window too.
func (s *Signer) IssueRefreshToken(user *models.User) (*Issued, error) {
	claims := RefreshClaims{RegisteredClaims: s.registered(user.Username, s.refreshTTL)}
	return issue(claims, claims.RegisteredClaims, s.refreshKey)
}

// ValidateAccessToken reports whether token is a well-formed, unexpired
// access token signed with the access key.
func (s *Signer) ValidateAccessToken(token string) bool {
	_, err := s.AccessClaims(token)
	return err == nil
}

// ValidateRefreshToken reports whether token is a well-formed, unexpired
// refresh token signed with the refresh key.
func (s *Signer) ValidateRefreshToken(token string) bool {
	_, err := s.RefreshClaims(token)
	return err == nil
}

// AccessClaims decodes a validated access token.
func (s *Signer) AccessClaims(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, s.accessKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// RefreshClaims decodes a validated refresh token.
func (s *Signer) RefreshClaims(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(token, s.refreshKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// AccessTTL reports the configured access token lifetime.
func (s *Signer) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (s *Signer) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Signer) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.clock.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (s *Signer) parse(token string, key []byte, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)

	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return common.ErrInvalidToken
	}
	return nil
}

func issue(claims jwt.Claims, rc jwt.RegisteredClaims, key []byte) (*Issued, error) {
	token, err := sign(claims, key)
	if err != nil {
		return nil, err
	}
	return &Issued{Token: token, IssuedAt: rc.IssuedAt.Time, ExpiresAt: rc.ExpiresAt.Time}, nil
}

func sign(claims jwt.Claims, key []byte) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return token, nil
}
