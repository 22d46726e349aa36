// Package access decides who a caller is and whether they may perform an
// operation. Two independent credential schemes are supported: the service's
// own signed access tokens and third-party identity tokens verified against
// the external issuer. The gate is a decorator over HTTP handlers; wrapped
// handlers run only for callers that are both authenticated and authorized.
package access

import (
	"context"
	"errors"

	"github.com/roster-hq/roster/internal/accounts"
)

var (
	// ErrUnauthenticated indicates no credential proved the caller's identity.
	ErrUnauthenticated = errors.New("you must be authenticated to perform this operation")
	// ErrUnauthorized indicates a proven identity with insufficient privilege.
	ErrUnauthorized = errors.New("you are not authorized to perform this action")
	// ErrBadEmail indicates a verified external identity with no local account.
	ErrBadEmail = errors.New("there is no account registered with this email")
	// ErrUnknownUser indicates neither verification path resolved an account.
	ErrUnknownUser = errors.New("there is no account authenticated")
)

// Decision is the per-request outcome of the gate. It is never persisted.
type Decision struct {
	Authenticated bool
	Authorized    bool
}

// AccountSource is the account lookup the gate and resolver depend on.
type AccountSource interface {
	FindByEmail(ctx context.Context, email string) (*accounts.Account, error)
}
