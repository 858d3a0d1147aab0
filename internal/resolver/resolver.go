package resolver

import (
	"context"

	"github.com/devYoryet/user-final/internal/identity"
	"github.com/devYoryet/user-final/internal/user"
)

// ProfileFetcher returns provider-verified identity facts for a raw
// token. The Keycloak client implements it.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, rawToken string) (*identity.Identity, error)
}

// Resolver turns a per-request credential bundle into the canonical
// local user. It is the ONLY place where credential selection and
// user reconciliation are composed.
type Resolver struct {
	selector *identity.Selector
	users    *user.Service
	keycloak ProfileFetcher // optional
}

func New(selector *identity.Selector, users *user.Service, keycloak ProfileFetcher) *Resolver {
	return &Resolver{
		selector: selector,
		users:    users,
		keycloak: keycloak,
	}
}

// Resolve selects a credential source, normalizes it, and reconciles the
// result against the user store. For Keycloak-issued tokens the claims
// are replaced by a provider-verified profile when a fetcher is
// configured; every other path relies on the gateway having verified the
// credential upstream.
func (r *Resolver) Resolve(ctx context.Context, b identity.Bundle) (*user.User, error) {
	id, err := r.selector.Select(b)
	if err != nil {
		return nil, err
	}

	if id.Provider == identity.ProviderKeycloak && r.keycloak != nil {
		verified, err := r.keycloak.FetchProfile(ctx, b.RawToken)
		if err != nil {
			return nil, err
		}
		id = verified
	}

	return r.users.Reconcile(ctx, id)
}
