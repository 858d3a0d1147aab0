package identity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCredentials means the bundle carried nothing usable: no
	// gateway assertion and no bearer token.
	ErrNoCredentials = errors.New("identity: no usable credential in request")

	// ErrUntrustedIssuer means the token's issuer does not match any
	// configured provider. This is a hard failure, never a fallback to
	// anonymous access.
	ErrUntrustedIssuer = errors.New("identity: token issuer is not a trusted provider")
)

// Selector decides which extraction path applies to a credential bundle.
// Exactly one path executes per request.
type Selector struct {
	// TrustedSource is the X-Auth-Source value the upstream gateway sets
	// after it has already authenticated the request.
	TrustedSource string

	// GatewayDefaultRole applies when the trusted-header path carries no
	// explicit role. Requests on that path come from the partner
	// onboarding flow, so the default is SALON_OWNER unless configured
	// otherwise.
	GatewayDefaultRole Role

	// CognitoIssuer and KeycloakIssuer are the expected issuer prefixes.
	// A token tagged for a provider must match that provider's prefix
	// when one is configured.
	CognitoIssuer  string
	KeycloakIssuer string
}

// Select builds a normalized identity from the first applicable source:
// trusted gateway headers, then a raw bearer token. No silent fallback
// happens between them.
func (s *Selector) Select(b Bundle) (*Identity, error) {
	if s.trusted(b) {
		return s.fromGatewayHeaders(b), nil
	}

	if strings.TrimSpace(b.RawToken) != "" {
		return s.fromRawToken(b.RawToken)
	}

	return nil, ErrNoCredentials
}

func (s *Selector) trusted(b Bundle) bool {
	return b.Source == s.TrustedSource && s.TrustedSource != "" && b.Subject != ""
}

// fromGatewayHeaders trusts the forwarded fields as-is; the gateway has
// already verified the credential they came from. Email and username
// default to each other when one is missing.
func (s *Selector) fromGatewayHeaders(b Bundle) *Identity {
	email := b.Email
	username := b.Username

	if email == "" {
		email = username
	}
	if username == "" {
		username = email
	}
	if email == "" {
		// Subject-only assertion. Synthesize so the created record still
		// satisfies the non-null unique email constraint.
		email = b.Subject + "@" + ProviderCognito + ".local"
	}

	role := s.GatewayDefaultRole
	if b.Role != "" {
		role = RoleFromString(b.Role)
	}

	return &Identity{
		Subject:  b.Subject,
		Email:    email,
		Username: username,
		Role:     role,
		Provider: ProviderCognito,
	}
}

func (s *Selector) fromRawToken(rawToken string) (*Identity, error) {
	claims, err := ExtractClaims(rawToken)
	if err != nil {
		return nil, err
	}

	provider := ProviderForIssuer(claims.Issuer)
	if provider == "" {
		return nil, fmt.Errorf("%w: %q", ErrUntrustedIssuer, claims.Issuer)
	}
	if provider == ProviderCognito && s.CognitoIssuer != "" && !strings.HasPrefix(claims.Issuer, s.CognitoIssuer) {
		return nil, fmt.Errorf("%w: %q", ErrUntrustedIssuer, claims.Issuer)
	}
	if provider == ProviderKeycloak && s.KeycloakIssuer != "" && !strings.HasPrefix(claims.Issuer, s.KeycloakIssuer) {
		return nil, fmt.Errorf("%w: %q", ErrUntrustedIssuer, claims.Issuer)
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Name
	}

	email := claims.Email
	if email == "" {
		// Every created user needs a non-null unique email.
		local := username
		if local == "" {
			local = claims.Subject
		}
		email = local + "@" + provider + ".local"
	}

	return &Identity{
		Subject:  claims.Subject,
		Email:    email,
		Username: username,
		Role:     RoleFromString(claims.CustomRole),
		Provider: provider,
	}, nil
}
