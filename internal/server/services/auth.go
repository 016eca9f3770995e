// Package services contains server-side business logic. AuthService drives
// the credential lifecycle: login, silent access-token renewal, refresh-token
// rotation, logout and validation.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/identity"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/password"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
)

// TokenPair is the response of the lifecycle operations. Either token may be
// empty when the operation produced no such token.
type TokenPair struct {
	Type         string
	AccessToken  string
	RefreshToken string
}

// Empty reports whether the pair carries no token at all.
func (p *TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

func emptyPair() *TokenPair {
	return &TokenPair{Type: common.TokenType}
}

// AuthService issues, renews, rotates and revokes token pairs. At most one
// access and one refresh record exist per user; a record is only ever
// replaced by a newer one, so a superseded refresh token stops working even
// though its signature is still valid.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	users       identity.Resolver
	passwords   password.Verifier
	signer      *auth.Signer
	locks       *keyedMutex
	logger      logging.Logger
}

// NewAuthService wires the service to its collaborators.
func NewAuthService(
	m repomanager.RepositoryManager,
	users identity.Resolver,
	passwords password.Verifier,
	signer *auth.Signer,
	logger logging.Logger,
) *AuthService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AuthService{
		repomanager: m,
		users:       users,
		passwords:   passwords,
		signer:      signer,
		locks:       newKeyedMutex(),
		logger:      logger.With("module", "auth_service"),
	}
}

// Login checks the credentials and issues a new token pair, replacing any
// tokens the user held before. Unknown users and wrong passwords both yield
// common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, plain string) (*TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "login rejected", "username", username, "reason", "unknown user")
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error resolving user: %w", err)
	}
	if !s.passwords.Verify(plain, user.PasswordHash) {
		s.logger.Info(ctx, "login rejected", "username", username, "reason", "bad password")
		return nil, common.ErrorUnauthorized
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	access, refresh, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, accessRepo, refreshRepo tokens.Repository) error {
		if err := upsert(ctx, accessRepo, user.ID, access); err != nil {
			return err
		}
		return upsert(ctx, refreshRepo, user.ID, refresh)
	})
	if err != nil {
		return nil, fmt.Errorf("error storing tokens: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "username", user.Username, "user_id", user.ID)
	return &TokenPair{Type: common.TokenType, AccessToken: access.Token, RefreshToken: refresh.Token}, nil
}

// GetAccessToken mints a new access token for the holder of the current
// refresh token. It is the silent renewal path: an invalid, superseded or
// unknown refresh token yields an empty pair and no error. The refresh token
// is not rotated.
func (s *AuthService) GetAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.signer.RefreshClaims(refreshToken)
	if err != nil {
		s.logger.Debug(ctx, "silent renewal skipped", "reason", err.Error())
		return emptyPair(), nil
	}

	user, err := s.users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error resolving user: %w", err)
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	pair := emptyPair()
	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, accessRepo, refreshRepo tokens.Repository) error {
		current, err := isCurrent(ctx, refreshRepo, user.ID, refreshToken)
		if err != nil || !current {
			return err
		}

		access, err := s.issueAccess(ctx, user)
		if err != nil {
			return err
		}
		if err := upsert(ctx, accessRepo, user.ID, access); err != nil {
			return err
		}
		pair.AccessToken = access.Token
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error renewing access token: %w", err)
	}

	if pair.Empty() {
		s.logger.Warn(ctx, "refresh token is not current", "username", user.Username)
	}
	return pair, nil
}

// Refresh rotates both tokens for the holder of the current refresh token.
// A token that fails validation or is no longer current yields
// common.ErrInvalidToken; an unknown subject yields common.ErrorNotFound.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.signer.RefreshClaims(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error resolving user: %w", err)
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	var pair *TokenPair
	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, accessRepo, refreshRepo tokens.Repository) error {
		current, err := isCurrent(ctx, refreshRepo, user.ID, refreshToken)
		if err != nil {
			return err
		}
		if !current {
			return common.ErrInvalidToken
		}

		access, refresh, err := s.issuePair(ctx, user)
		if err != nil {
			return err
		}
		if err := upsert(ctx, accessRepo, user.ID, access); err != nil {
			return err
		}
		if err := upsert(ctx, refreshRepo, user.ID, refresh); err != nil {
			return err
		}
		pair = &TokenPair{Type: common.TokenType, AccessToken: access.Token, RefreshToken: refresh.Token}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			s.logger.Warn(ctx, "refresh token is not current", "username", user.Username)
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error rotating tokens: %w", err)
	}

	s.logger.Info(ctx, "tokens rotated", "username", user.Username, "user_id", user.ID)
	return pair, nil
}

// Logout removes both token records of the refresh token's subject. An
// invalid token yields false. The two deletions apply together or not at
// all; a failure is returned rather than leaving a half-closed session.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (bool, error) {
	claims, err := s.signer.RefreshClaims(refreshToken)
	if err != nil {
		return false, nil
	}

	user, err := s.users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("error resolving user: %w", err)
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, accessRepo, refreshRepo tokens.Repository) error {
		if err := accessRepo.Delete(ctx, user.ID); err != nil {
			return fmt.Errorf("error deleting access token: %w", err)
		}
		if err := refreshRepo.Delete(ctx, user.ID); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "logout failed", "username", user.Username, "error", err)
		return false, err
	}

	s.logger.Info(ctx, "user logged out", "username", user.Username, "user_id", user.ID)
	return true, nil
}

// Validate reports whether refreshToken has a valid signature and has not
// expired. It does not consult the store.
func (s *AuthService) Validate(refreshToken string) bool {
	return s.signer.ValidateRefreshToken(refreshToken)
}

// GetAuthInfo returns the identity bound to the current request. When the
// request is anonymous the returned Info is unauthenticated and ok is false.
func (s *AuthService) GetAuthInfo(ctx context.Context) (*auth.Info, bool) {
	info, ok := auth.InfoFromContext(ctx)
	if !ok {
		return &auth.Info{}, false
	}
	return info, true
}

// --- helpers below ---

func (s *AuthService) issueAccess(ctx context.Context, user *models.User) (*auth.Issued, error) {
	access, err := s.signer.IssueAccessToken(user)
	if err != nil {
		s.logger.Error(ctx, "error signing access token", "username", user.Username, "error", err)
		return nil, common.ErrorInternal
	}
	return access, nil
}

func (s *AuthService) issuePair(ctx context.Context, user *models.User) (access, refresh *auth.Issued, err error) {
	access, err = s.issueAccess(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	refresh, err = s.signer.IssueRefreshToken(user)
	if err != nil {
		s.logger.Error(ctx, "error signing refresh token", "username", user.Username, "error", err)
		return nil, nil, common.ErrorInternal
	}
	return access, refresh, nil
}

// upsert writes the user's single record, replacing an existing one.
func upsert(ctx context.Context, repo tokens.Repository, userID string, issued *auth.Issued) error {
	rec := &models.Token{
		UserID:    userID,
		Token:     issued.Token,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}

	_, err := repo.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		return repo.Update(ctx, userID, rec)
	case errors.Is(err, common.ErrorNotFound):
		return repo.Save(ctx, rec)
	default:
		return err
	}
}

// isCurrent reports whether presented is byte-for-byte the stored refresh
// token of userID.
func isCurrent(ctx context.Context, repo tokens.Repository, userID, presented string) (bool, error) {
	stored, err := repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored.Token), []byte(presented)) == 1, nil
}
