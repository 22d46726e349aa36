package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roster-hq/roster/internal/accounts"
	"github.com/roster-hq/roster/internal/identity"
	"github.com/roster-hq/roster/internal/token"
)

// Resolver turns a bearer credential into a concrete account record. This is
// an explicit two-path fallback, not first-success-wins: an access-token claim
// with no matching account still falls through to the identity-provider path,
// because the bearer string may be a third-party token rather than a
// malformed local one.
type Resolver struct {
	signer     *token.Signer
	identities identity.Verifier
	store      AccountSource
	logger     *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(signer *token.Signer, identities identity.Verifier, store AccountSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{signer: signer, identities: identities, store: store, logger: logger}
}

// Resolve looks the caller up by the email claimed in the bearer credential,
// trying the local signed-token path first and the identity-provider path
// second. It fails with ErrUnknownUser when neither path lands on an account.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (*accounts.Account, error) {
	if claims, err := r.signer.Verify(bearer, token.ClassAccess); err == nil && claims.Email != "" {
		account, err := r.store.FindByEmail(ctx, claims.Email)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, accounts.ErrNotFound) {
			return nil, err
		}
	} else if err != nil {
		r.logger.Debug("access: resolve local path failed", slog.Any("error", err))
	}

	claim, err := r.identities.Verify(ctx, bearer)
	if err != nil {
		r.logger.Debug("access: resolve identity path failed", slog.Any("error", err))
		return nil, ErrUnknownUser
	}
	account, err := r.store.FindByEmail(ctx, claim.Email)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	return account, nil
}
