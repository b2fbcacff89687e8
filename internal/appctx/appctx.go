// Package appctx carries the authenticated principal through the
// request-handling call chain via typed context keys. There is no
// ambient "current user" anywhere else; handlers read it from here.
package appctx

import (
	"context"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey ContextKey = "principal"
)

// Principal is the authenticated identity plus its resolved authority
// set, valid for the lifetime of the session that produced it.
type Principal struct {
	UserID      string
	Username    string
	Authorities []string
}

// HasAuthority reports whether the principal holds the named authority.
func (p *Principal) HasAuthority(name string) bool {
	for _, a := range p.Authorities {
		if a == name {
			return true
		}
	}
	return false
}

// HasAnyAuthority reports whether the principal holds at least one of
// the named authorities. An empty list matches any authenticated
// principal.
func (p *Principal) HasAnyAuthority(names ...string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if p.HasAuthority(n) {
			return true
		}
	}
	return false
}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// ExtractPrincipal extracts the principal from the request context.
func ExtractPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*Principal)
	return p, ok && p != nil
}
