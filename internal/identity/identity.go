// Package identity verifies third-party identity tokens against an external
// issuer. The issuer's signing keys are fetched per verification; the core
// makes no caching assumptions beyond what the validator library does itself.
package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"
	"google.golang.org/api/idtoken"
)

// ErrVerification covers signature mismatch, expiry, audience mismatch, and
// malformed input from the external issuer path.
var ErrVerification = errors.New("identity: verification failed")

// Claim is the verified identity claim extracted from an external token.
type Claim struct {
	Email   string
	Subject string
}

// Verifier validates an identity token and extracts its claim.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claim, error)
}

// GoogleVerifier verifies Google-issued ID tokens bound to our registered
// OAuth2 client ID. Concurrent verifications of the same raw token are
// collapsed into a single upstream validation.
type GoogleVerifier struct {
	clientID string
	group    singleflight.Group
}

// NewGoogleVerifier constructs a verifier for the given OAuth2 client ID,
// which is checked as the token audience.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify validates the token signature against Google's current signing keys
// and checks the audience, returning the embedded email claim. A verifier
// without a configured client ID cannot enforce the audience check and rejects
// every token.
func (v *GoogleVerifier) Verify(ctx context.Context, raw string) (*Claim, error) {
	if v.clientID == "" {
		return nil, fmt.Errorf("%w: no oauth2 client id configured", ErrVerification)
	}
	value, err, _ := v.group.Do(raw, func() (any, error) {
		payload, err := idtoken.Validate(ctx, raw, v.clientID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVerification, err)
		}
		email, _ := payload.Claims["email"].(string)
		if email == "" {
			return nil, fmt.Errorf("%w: token carries no email claim", ErrVerification)
		}
		return &Claim{Email: email, Subject: payload.Subject}, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*Claim), nil
}

var _ Verifier = (*GoogleVerifier)(nil)
