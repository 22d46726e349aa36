package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roster-hq/roster/internal/access"
	"github.com/roster-hq/roster/internal/accounts"
	"github.com/roster-hq/roster/internal/identity"
	"github.com/roster-hq/roster/internal/token"
	_ "github.com/roster-hq/roster/testing"
)

type stubVerifier struct {
	claim *identity.Claim
	err   error
	calls int
}

func (s *stubVerifier) Verify(ctx context.Context, raw string) (*identity.Claim, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.claim, nil
}

type stubStore struct {
	accounts map[string]*accounts.Account
	err      error
	calls    int
}

func (s *stubStore) FindByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	account, ok := s.accounts[email]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	return account, nil
}

func newSigner() *token.Signer {
	return token.NewSigner(
		token.ClassConfig{Secret: []byte("access-secret"), TTL: time.Minute},
		token.ClassConfig{Secret: []byte("refresh-secret"), TTL: time.Hour},
	)
}

func newAccount(email string, privilege accounts.Privilege) *accounts.Account {
	return &accounts.Account{ID: uuid.New(), Email: email, Privilege: privilege}
}

func signAccess(t *testing.T, signer *token.Signer, email string, privilege accounts.Privilege) string {
	t.Helper()
	raw, err := signer.Sign(email, privilege, token.ClassAccess)
	require.NoError(t, err)
	return raw
}

func TestGateLocalPath(t *testing.T) {
	signer := newSigner()
	verifier := &stubVerifier{err: identity.ErrVerification}
	store := &stubStore{}
	gate := access.NewGate(signer, verifier, store, nil)

	tests := []struct {
		name      string
		privilege accounts.Privilege
		required  accounts.Privilege
		want      access.Decision
	}{
		{"standard meets standard", accounts.PrivilegeStandard, accounts.PrivilegeStandard, access.Decision{Authenticated: true, Authorized: true}},
		{"standard lacks admin", accounts.PrivilegeStandard, accounts.PrivilegeAdmin, access.Decision{Authenticated: true, Authorized: false}},
		{"admin meets standard", accounts.PrivilegeAdmin, accounts.PrivilegeStandard, access.Decision{Authenticated: true, Authorized: true}},
		{"admin meets admin", accounts.PrivilegeAdmin, accounts.PrivilegeAdmin, access.Decision{Authenticated: true, Authorized: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bearer := signAccess(t, signer, "user@example.com", tt.privilege)
			decision, err := gate.Authorize(context.Background(), bearer, tt.required)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision)
		})
	}

	// The local path decides from the embedded claims alone.
	assert.Zero(t, store.calls)
}

func TestGateSwallowsVerifierFaults(t *testing.T) {
	signer := newSigner()
	verifier := &stubVerifier{err: identity.ErrVerification}
	gate := access.NewGate(signer, verifier, &stubStore{}, nil)

	decision, err := gate.Authorize(context.Background(), "not-a-credential", accounts.PrivilegeStandard)
	require.NoError(t, err)
	assert.Equal(t, access.Decision{}, decision)
	assert.Equal(t, 1, verifier.calls)
}

func TestGateIdentityPath(t *testing.T) {
	signer := newSigner()
	verifier := &stubVerifier{claim: &identity.Claim{Email: "user@example.com", Subject: "sub-1"}}
	store := &stubStore{accounts: map[string]*accounts.Account{
		"user@example.com": newAccount("user@example.com", accounts.PrivilegeStandard),
	}}
	gate := access.NewGate(signer, verifier, store, nil)

	decision, err := gate.Authorize(context.Background(), "external-token", accounts.PrivilegeStandard)
	require.NoError(t, err)
	assert.True(t, decision.Authenticated)
	assert.True(t, decision.Authorized)

	decision, err = gate.Authorize(context.Background(), "external-token", accounts.PrivilegeAdmin)
	require.NoError(t, err)
	assert.True(t, decision.Authenticated)
	assert.False(t, decision.Authorized)
}

func TestGateIdentityPathUnknownEmail(t *testing.T) {
	signer := newSigner()
	verifier := &stubVerifier{claim: &identity.Claim{Email: "ghost@example.com"}}
	gate := access.NewGate(signer, verifier, &stubStore{}, nil)

	decision, err := gate.Authorize(context.Background(), "external-token", accounts.PrivilegeStandard)
	assert.ErrorIs(t, err, access.ErrBadEmail)
	assert.True(t, decision.Authenticated)
	assert.False(t, decision.Authorized)
}

func TestGateIdentityPathStoreFault(t *testing.T) {
	signer := newSigner()
	verifier := &stubVerifier{claim: &identity.Claim{Email: "user@example.com"}}
	storeErr := errors.New("connection reset")
	gate := access.NewGate(signer, verifier, &stubStore{err: storeErr}, nil)

	_, err := gate.Authorize(context.Background(), "external-token", accounts.PrivilegeStandard)
	assert.ErrorIs(t, err, storeErr)
}

func TestGateRefreshTokenNotAccepted(t *testing.T) {
	signer := newSigner()
	verifier := &stubVerifier{err: identity.ErrVerification}
	gate := access.NewGate(signer, verifier, &stubStore{}, nil)

	refreshToken, err := signer.Sign("user@example.com", accounts.PrivilegeAdmin, token.ClassRefresh)
	require.NoError(t, err)

	decision, err := gate.Authorize(context.Background(), refreshToken, accounts.PrivilegeStandard)
	require.NoError(t, err)
	assert.Equal(t, access.Decision{}, decision)
}
