package identity

import "strings"

// Provider tags attached to an Identity. They drive default-role and
// email-synthesis behavior downstream; they are not trust decisions.
const (
	ProviderCognito  = "cognito"
	ProviderKeycloak = "keycloak"
)

// Bundle carries every credential a single request may present: the raw
// Authorization value plus the pre-validated fields a trusted gateway
// forwards as headers. It is never persisted.
type Bundle struct {
	RawToken string // Authorization header, may include "Bearer " prefix
	Subject  string // X-Cognito-Sub
	Email    string // X-User-Email
	Username string // X-User-Username
	Role     string // X-User-Role, free-text
	Source   string // X-Auth-Source, asserted by the gateway
}

// Identity is the normalized result of credential selection. It contains
// facts only, no decisions; the reconciliation engine owns what happens
// to them.
type Identity struct {
	Subject     string // provider-scoped unique user identifier (sub)
	Email       string // may be synthesized, see IsPlaceholderEmail
	Username    string // preferred username, may be empty
	DisplayName string // explicit display name, may be empty
	Role        Role
	Provider    string // provider tag, e.g. "cognito"
}

// IsPlaceholderEmail reports whether an email address was synthesized to
// satisfy the non-null uniqueness constraint rather than supplied by the
// user. Placeholder addresses must never be used for email-based linking.
// The ".local" domains are what the selector synthesizes;
// "@cognito.generated" is the legacy placeholder carried over from older
// records.
func IsPlaceholderEmail(email string) bool {
	if strings.HasSuffix(email, "@cognito.generated") {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.HasSuffix(email[at:], ".local")
}
