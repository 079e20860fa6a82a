// Package identity carries the authenticated principal and their capability
// set through request context. Tokens arrive pre-authenticated from the
// gateway; this package extracts and enforces, it does not issue or refresh.
package identity

import "context"

// Capability names a single permission verb a principal may hold.
type Capability string

const (
	CanCreate    Capability = "can_create"
	CanRead      Capability = "can_read"
	CanView      Capability = "can_view"
	CanUpdate    Capability = "can_update"
	CanApprove   Capability = "can_approve"
	CanDelete    Capability = "can_delete"
	CanProvision Capability = "can_provision"
)

// Principal is the authenticated caller.
type Principal struct {
	ID           int64
	Name         string
	UnitID       int64
	Capabilities map[Capability]bool
}

// Has reports whether the principal holds the capability.
func (p *Principal) Has(c Capability) bool {
	return p != nil && p.Capabilities[c]
}

type contextKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in the context, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}
