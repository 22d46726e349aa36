// Package auth implements the credential lifecycle: issuing a fresh
// access/refresh pair at login and rotating the pair from a valid refresh
// token.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roster-hq/roster/internal/access"
	"github.com/roster-hq/roster/internal/accounts"
	"github.com/roster-hq/roster/internal/token"
)

// badPasswordDelay is the fixed wait before a password mismatch is reported,
// so response latency does not distinguish a wrong password from the other
// failure paths.
const badPasswordDelay = 500 * time.Millisecond

var (
	// ErrBadPassword indicates a password mismatch at login. The fixed delay
	// has always elapsed before this error is returned.
	ErrBadPassword = errors.New("the password doesn't match the account registered with this email")
	// ErrInvalidRefresh indicates the refresh token failed verification.
	ErrInvalidRefresh = errors.New("the refresh token you provided is invalid")
)

// TokenPair bundles a fresh access token and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// PresenceRecorder marks an account as recently active. Implementations are
// expected to be asynchronous; failures must not fail the login.
type PresenceRecorder interface {
	TouchPresence(ctx context.Context, email string) error
}

// Service issues and rotates signed credential pairs.
type Service struct {
	store    access.AccountSource
	hasher   accounts.PasswordHasher
	signer   *token.Signer
	presence PresenceRecorder
	logger   *slog.Logger
}

// NewService constructs a Service. presence may be nil.
func NewService(store access.AccountSource, hasher accounts.PasswordHasher, signer *token.Signer, presence PresenceRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, hasher: hasher, signer: signer, presence: presence, logger: logger}
}

// Login verifies the email/password pair and returns a fresh token pair. An
// unknown email fails immediately with ErrBadEmail; a wrong password waits
// the fixed delay before failing, suspending only the calling goroutine.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, access.ErrBadEmail
		}
		return nil, err
	}

	if !s.hasher.Compare(password, account.PasswordHash) {
		wait(ctx, badPasswordDelay)
		return nil, ErrBadPassword
	}

	pair, err := s.issuePair(account.Email, account.Privilege)
	if err != nil {
		return nil, err
	}

	if s.presence != nil {
		if err := s.presence.TouchPresence(ctx, account.Email); err != nil {
			s.logger.Warn("auth: presence touch failed", slog.Any("error", err))
		}
	}
	return pair, nil
}

// Refresh verifies the refresh token and mints a new pair from the claims it
// embeds. The account's current privilege is deliberately not re-read: a
// privilege change only takes effect once the refresh token itself expires.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.signer.Verify(refreshToken, token.ClassRefresh)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	return s.issuePair(claims.Email, claims.Privilege)
}

func (s *Service) issuePair(email string, privilege accounts.Privilege) (*TokenPair, error) {
	accessToken, err := s.signer.Sign(email, privilege, token.ClassAccess)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.signer.Sign(email, privilege, token.ClassRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
