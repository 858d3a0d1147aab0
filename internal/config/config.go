package config

import (
	"os"

	"github.com/devYoryet/user-final/internal/identity"
)

type Config struct {
	AppPort string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	// CognitoIssuer is the expected issuer prefix for Cognito-minted
	// tokens, e.g. https://cognito-idp.us-east-1.amazonaws.com/us-east-1_BM2KEBPZM
	CognitoIssuer string

	// KeycloakIssuer is the realm issuer URL, e.g.
	// http://localhost:8081/realms/user-service. Empty disables the
	// verified Keycloak profile path.
	KeycloakIssuer   string
	KeycloakClientID string

	// GatewayAuthSource is the X-Auth-Source value the upstream gateway
	// sets after authenticating a request.
	GatewayAuthSource string

	// GatewayDefaultRole applies when the gateway forwards no explicit
	// role. Requests on that path come from the partner onboarding flow,
	// hence the SALON_OWNER default; set CUSTOMER when the gateway also
	// fronts customer traffic.
	GatewayDefaultRole identity.Role
}

func Load() Config {

	cfg := Config{

		AppPort: getenv("APP_PORT", "8080"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		CognitoIssuer: os.Getenv("COGNITO_ISSUER"),

		KeycloakIssuer:   os.Getenv("KEYCLOAK_ISSUER"),
		KeycloakClientID: os.Getenv("KEYCLOAK_CLIENT_ID"),

		GatewayAuthSource:  getenv("GATEWAY_AUTH_SOURCE", "Cognito"),
		GatewayDefaultRole: identity.RoleFromString(getenv("GATEWAY_DEFAULT_ROLE", "SALON_OWNER")),
	}

	return cfg

}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
