package authhttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roster-hq/roster/internal/accounts"
	"github.com/roster-hq/roster/internal/auth"
	authhttp "github.com/roster-hq/roster/internal/auth/http"
	"github.com/roster-hq/roster/internal/token"
	_ "github.com/roster-hq/roster/testing"
)

type stubStore struct {
	account *accounts.Account
}

func (s *stubStore) FindByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	if s.account == nil || s.account.Email != email {
		return nil, accounts.ErrNotFound
	}
	return s.account, nil
}

func newRouter(t *testing.T, store *stubStore) (chi.Router, *token.Signer) {
	t.Helper()
	signer := token.NewSigner(
		token.ClassConfig{Secret: []byte("access-secret"), TTL: time.Minute},
		token.ClassConfig{Secret: []byte("refresh-secret"), TTL: time.Hour},
	)
	service := auth.NewService(store, accounts.BcryptHasher{Cost: 4}, signer, nil, nil)
	handler := authhttp.NewHandler(nil, service)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	return r, signer
}

func seededStore(t *testing.T, email, password string) *stubStore {
	t.Helper()
	hash, err := accounts.BcryptHasher{Cost: 4}.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &stubStore{account: &accounts.Account{
		Email:        email,
		PasswordHash: hash,
		Privilege:    accounts.PrivilegeStandard,
	}}
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestLoginSuccess(t *testing.T) {
	router, signer := newRouter(t, seededStore(t, "user@example.com", "correct horse"))

	res := postJSON(t, router, "/auth/login", `{"email":"user@example.com","password":"correct horse"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", res.Code, res.Body.String())
	}

	var payload struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	claims, err := signer.Verify(payload.AccessToken, token.ClassAccess)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
	if _, err := signer.Verify(payload.RefreshToken, token.ClassRefresh); err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	router, _ := newRouter(t, &stubStore{})

	res := postJSON(t, router, "/auth/login", `{"email":"ghost@example.com","password":"whatever"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
}

func TestLoginBadPassword(t *testing.T) {
	router, _ := newRouter(t, seededStore(t, "user@example.com", "correct horse"))

	res := postJSON(t, router, "/auth/login", `{"email":"user@example.com","password":"wrong"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
}

func TestLoginRejectsInvalidPayload(t *testing.T) {
	router, _ := newRouter(t, &stubStore{})

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"email":"not-an-email","password":"whatever"}`,
	} {
		res := postJSON(t, router, "/auth/login", body)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected status 400, got %d", body, res.Code)
		}
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	router, signer := newRouter(t, &stubStore{})

	refreshToken, err := signer.Sign("user@example.com", accounts.PrivilegeStandard, token.ClassRefresh)
	if err != nil {
		t.Fatalf("sign refresh token: %v", err)
	}

	res := postJSON(t, router, "/auth/refresh", `{"refreshToken":"`+refreshToken+`"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", res.Code, res.Body.String())
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, err := signer.Verify(payload.AccessToken, token.ClassAccess); err != nil {
		t.Fatalf("verify access token: %v", err)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	router, _ := newRouter(t, &stubStore{})

	res := postJSON(t, router, "/auth/refresh", `{"refreshToken":"not-a-token"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
}
