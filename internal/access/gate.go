package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roster-hq/roster/internal/accounts"
	"github.com/roster-hq/roster/internal/identity"
	"github.com/roster-hq/roster/internal/token"
)

// Gate evaluates a bearer credential against a required privilege. The local
// signed-token path is tried first; the identity-provider path only runs when
// the local path did not authenticate.
type Gate struct {
	signer     *token.Signer
	identities identity.Verifier
	store      AccountSource
	logger     *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(signer *token.Signer, identities identity.Verifier, store AccountSource, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{signer: signer, identities: identities, store: store, logger: logger}
}

// Authorize produces the authentication/authorization decision for a bearer
// credential. Verifier faults are evidence of "not authenticated", not system
// errors: they are logged and swallowed here so the public contract stays the
// two booleans plus the fail-closed ErrBadEmail. Store faults still propagate.
func (g *Gate) Authorize(ctx context.Context, bearer string, required accounts.Privilege) (Decision, error) {
	if decision, ok := g.localCheck(bearer, required); ok {
		return decision, nil
	}
	return g.identityCheck(ctx, bearer, required)
}

// localCheck verifies the bearer as an access-class signed credential. The
// second return value reports whether the path authenticated at all.
func (g *Gate) localCheck(bearer string, required accounts.Privilege) (Decision, bool) {
	claims, err := g.signer.Verify(bearer, token.ClassAccess)
	if err != nil {
		g.logger.Debug("access: local verification failed", slog.Any("error", err))
		return Decision{}, false
	}
	if claims.Email == "" {
		return Decision{}, false
	}
	return Decision{
		Authenticated: true,
		Authorized:    claims.Privilege.Satisfies(required),
	}, true
}

// identityCheck verifies the bearer with the external identity provider and
// resolves the claimed email to a local account for the privilege comparison.
func (g *Gate) identityCheck(ctx context.Context, bearer string, required accounts.Privilege) (Decision, error) {
	claim, err := g.identities.Verify(ctx, bearer)
	if err != nil {
		g.logger.Debug("access: identity verification failed", slog.Any("error", err))
		return Decision{}, nil
	}

	decision := Decision{Authenticated: true}
	account, err := g.store.FindByEmail(ctx, claim.Email)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return decision, ErrBadEmail
		}
		return decision, err
	}
	decision.Authorized = account.Privilege.Satisfies(required)
	return decision, nil
}
