package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSelector() *Selector {
	return &Selector{
		TrustedSource:      "Cognito",
		GatewayDefaultRole: RoleSalonOwner,
		CognitoIssuer:      "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_BM2KEBPZM",
	}
}

func TestSelectorGatewayPath(t *testing.T) {
	t.Run("Should build identity from gateway headers", func(t *testing.T) {
		id, err := newTestSelector().Select(Bundle{
			Source:   "Cognito",
			Subject:  "sub-42",
			Email:    "a@x.com",
			Username: "ada",
			Role:     "CUSTOMER",
		})
		require.NoError(t, err)
		assert.Equal(t, "sub-42", id.Subject)
		assert.Equal(t, "a@x.com", id.Email)
		assert.Equal(t, RoleCustomer, id.Role)
		assert.Equal(t, ProviderCognito, id.Provider)
	})

	t.Run("Should fall back from empty email to username", func(t *testing.T) {
		id, err := newTestSelector().Select(Bundle{
			Source:   "Cognito",
			Subject:  "sub-42",
			Username: "sue",
		})
		require.NoError(t, err)
		assert.Equal(t, "sue", id.Email)
		assert.Equal(t, "sue", id.Username)
		assert.Equal(t, RoleSalonOwner, id.Role)
	})

	t.Run("Should fall back from empty username to email", func(t *testing.T) {
		id, err := newTestSelector().Select(Bundle{
			Source:  "Cognito",
			Subject: "sub-42",
			Email:   "a@x.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", id.Username)
	})

	t.Run("Should synthesize email when headers carry subject only", func(t *testing.T) {
		id, err := newTestSelector().Select(Bundle{
			Source:  "Cognito",
			Subject: "sub-42",
		})
		require.NoError(t, err)
		assert.Equal(t, "sub-42@cognito.local", id.Email)
		assert.True(t, IsPlaceholderEmail(id.Email))
	})

	t.Run("Should apply the configured default role", func(t *testing.T) {
		sel := newTestSelector()
		sel.GatewayDefaultRole = RoleCustomer
		id, err := sel.Select(Bundle{Source: "Cognito", Subject: "sub-42"})
		require.NoError(t, err)
		assert.Equal(t, RoleCustomer, id.Role)
	})

	t.Run("Should not trust headers without subject", func(t *testing.T) {
		_, err := newTestSelector().Select(Bundle{Source: "Cognito", Email: "a@x.com"})
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("Should not trust headers with wrong source tag", func(t *testing.T) {
		_, err := newTestSelector().Select(Bundle{Source: "SomeProxy", Subject: "sub-42"})
		assert.ErrorIs(t, err, ErrNoCredentials)
	})
}

func TestSelectorTokenPath(t *testing.T) {
	cognitoIssuer := "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_BM2KEBPZM"

	t.Run("Should extract identity from a cognito token", func(t *testing.T) {
		token := tokenWith(t, map[string]any{
			"sub":         "sub-42",
			"email":       "a@x.com",
			"custom:role": "ROLE_SALON_OWNER",
			"iss":         cognitoIssuer,
		})
		id, err := newTestSelector().Select(Bundle{RawToken: "Bearer " + token})
		require.NoError(t, err)
		assert.Equal(t, "sub-42", id.Subject)
		assert.Equal(t, "a@x.com", id.Email)
		assert.Equal(t, RoleSalonOwner, id.Role)
		assert.Equal(t, ProviderCognito, id.Provider)
	})

	t.Run("Should synthesize email from preferred username", func(t *testing.T) {
		token := tokenWith(t, map[string]any{
			"sub":                "sub-42",
			"preferred_username": "ada",
			"iss":                cognitoIssuer,
		})
		id, err := newTestSelector().Select(Bundle{RawToken: token})
		require.NoError(t, err)
		assert.Equal(t, "ada@cognito.local", id.Email)
	})

	t.Run("Should synthesize email from subject when token is bare", func(t *testing.T) {
		token := tokenWith(t, map[string]any{"sub": "sub-42", "iss": cognitoIssuer})
		id, err := newTestSelector().Select(Bundle{RawToken: token})
		require.NoError(t, err)
		assert.Equal(t, "sub-42@cognito.local", id.Email)
	})

	t.Run("Should default token role to customer", func(t *testing.T) {
		token := tokenWith(t, map[string]any{"sub": "sub-42", "iss": cognitoIssuer})
		id, err := newTestSelector().Select(Bundle{RawToken: token})
		require.NoError(t, err)
		assert.Equal(t, RoleCustomer, id.Role)
	})

	t.Run("Should reject issuer outside the configured pool", func(t *testing.T) {
		token := tokenWith(t, map[string]any{
			"sub": "sub-42",
			"iss": "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_OTHER",
		})
		_, err := newTestSelector().Select(Bundle{RawToken: token})
		assert.ErrorIs(t, err, ErrUntrustedIssuer)
	})

	t.Run("Should reject unknown issuer", func(t *testing.T) {
		token := tokenWith(t, map[string]any{"sub": "sub-42", "iss": "https://evil.example.com"})
		_, err := newTestSelector().Select(Bundle{RawToken: token})
		assert.ErrorIs(t, err, ErrUntrustedIssuer)
	})

	t.Run("Should reject token without issuer", func(t *testing.T) {
		token := tokenWith(t, map[string]any{"sub": "sub-42"})
		_, err := newTestSelector().Select(Bundle{RawToken: token})
		assert.ErrorIs(t, err, ErrUntrustedIssuer)
	})

	t.Run("Should surface malformed token instead of falling back", func(t *testing.T) {
		_, err := newTestSelector().Select(Bundle{RawToken: "garbage"})
		assert.ErrorIs(t, err, ErrMalformedToken)
	})
}

func TestSelectorNoCredentials(t *testing.T) {
	t.Run("Should fail an empty bundle", func(t *testing.T) {
		_, err := newTestSelector().Select(Bundle{})
		assert.ErrorIs(t, err, ErrNoCredentials)
	})
}
