package keycloak

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/devYoryet/user-final/internal/identity"
	"github.com/devYoryet/user-final/internal/logger"
)

// Provider resolves Keycloak-issued tokens into verified identity facts.
// Unlike the raw claim decode, this path confirms the token with the
// issuer: locally through the realm's signing keys when a client id is
// configured, otherwise through the userinfo endpoint.
type Provider struct {
	oidcProvider *oidc.Provider
	verifier     *oidc.IDTokenVerifier
}

// New initializes the provider using OIDC discovery. issuer must be the
// realm issuer URL, e.g. http://localhost:8081/realms/user-service
func New(ctx context.Context, issuer string, clientID string) (*Provider, error) {

	if issuer == "" {
		return nil, errors.New("keycloak issuer missing")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init keycloak oidc provider: %w", err)
	}

	p := &Provider{oidcProvider: oidcProvider}
	if clientID != "" {
		p.verifier = oidcProvider.Verifier(&oidc.Config{ClientID: clientID})
	}

	return p, nil
}

// FetchProfile returns the identity asserted by Keycloak for the given
// bearer token. It MUST NOT create users or perform linking logic.
func (p *Provider) FetchProfile(ctx context.Context, rawToken string) (*identity.Identity, error) {

	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rawToken), "Bearer "))
	if raw == "" {
		return nil, errors.New("keycloak: empty token")
	}

	var claims struct {
		Subject           string `json:"sub"`
		Email             string `json:"email"`
		EmailVerified     bool   `json:"email_verified"`
		PreferredUsername string `json:"preferred_username"`
		Name              string `json:"name"`
	}

	if p.verifier != nil {
		idToken, err := p.verifier.Verify(ctx, raw)
		if err == nil {
			if err := idToken.Claims(&claims); err != nil {
				return nil, fmt.Errorf("keycloak id_token claims parse failed: %w", err)
			}
			return p.toIdentity(claims.Subject, claims.Email, claims.PreferredUsername, claims.Name)
		}
		// Access tokens fail local ID-token verification; the userinfo
		// endpoint below handles them.
		logger.Info("keycloak local verification failed, trying userinfo", map[string]any{
			"error": err.Error(),
		})
	}

	info, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
	}))
	if err != nil {
		logger.Error("keycloak userinfo fetch failed", map[string]any{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("keycloak userinfo fetch failed: %w", err)
	}

	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("keycloak userinfo claims parse failed: %w", err)
	}
	if claims.Subject == "" {
		claims.Subject = info.Subject
	}
	if claims.Email == "" {
		claims.Email = info.Email
	}

	return p.toIdentity(claims.Subject, claims.Email, claims.PreferredUsername, claims.Name)
}

func (p *Provider) toIdentity(subject, email, preferred, name string) (*identity.Identity, error) {
	if subject == "" {
		return nil, errors.New("keycloak profile missing subject")
	}

	username := preferred
	if username == "" {
		username = name
	}
	if email == "" {
		local := username
		if local == "" {
			local = subject
		}
		email = local + "@" + identity.ProviderKeycloak + ".local"
	}

	return &identity.Identity{
		Subject:  subject,
		Email:    email,
		Username: username,
		Role:     identity.RoleCustomer,
		Provider: identity.ProviderKeycloak,
	}, nil
}
