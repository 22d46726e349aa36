package access

import (
	"context"
	"sync"

	"github.com/roster-hq/roster/internal/accounts"
)

// Caller is a request-scoped lazy cell around identity resolution: the first
// use resolves the bearer credential through the Resolver, every later use
// returns the memoized result. A Caller is built per request and never shared
// across requests.
type Caller struct {
	once    sync.Once
	resolve func(ctx context.Context) (*accounts.Account, error)
	account *accounts.Account
	err     error
}

// NewCaller builds a lazy caller cell for one bearer credential.
func NewCaller(resolver *Resolver, bearer string) *Caller {
	return &Caller{
		resolve: func(ctx context.Context) (*accounts.Account, error) {
			return resolver.Resolve(ctx, bearer)
		},
	}
}

// Resolve returns the calling account, computing it at most once.
func (c *Caller) Resolve(ctx context.Context) (*accounts.Account, error) {
	c.once.Do(func() {
		c.account, c.err = c.resolve(ctx)
	})
	return c.account, c.err
}

// Func adapts the cell to the callback shape the account services accept.
func (c *Caller) Func() accounts.CallerFunc {
	return c.Resolve
}

type ctxKey struct{}

// ContextWithCaller stores the request's caller cell in the context.
func ContextWithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, caller)
}

// CallerFromContext returns the request's caller cell, or nil.
func CallerFromContext(ctx context.Context) *Caller {
	caller, _ := ctx.Value(ctxKey{}).(*Caller)
	return caller
}
