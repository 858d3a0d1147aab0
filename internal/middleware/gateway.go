package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/devYoryet/user-final/internal/identity"
)

// Headers the upstream gateway sets after authenticating a request.
const (
	HeaderSubject  = "X-Cognito-Sub"
	HeaderEmail    = "X-User-Email"
	HeaderUsername = "X-User-Username"
	HeaderRole     = "X-User-Role"
	HeaderSource   = "X-Auth-Source"
)

const bundleKey = "credentialBundle"

// CredentialBundle collects the raw Authorization value and the
// gateway-forwarded identity headers into a per-request bundle. It makes
// no auth decisions; the identity selector owns those.
func CredentialBundle() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(bundleKey, identity.Bundle{
			RawToken: c.GetHeader("Authorization"),
			Subject:  c.GetHeader(HeaderSubject),
			Email:    c.GetHeader(HeaderEmail),
			Username: c.GetHeader(HeaderUsername),
			Role:     c.GetHeader(HeaderRole),
			Source:   c.GetHeader(HeaderSource),
		})
		c.Next()
	}
}

// BundleFrom returns the credential bundle collected for this request.
// Zero-valued when the middleware did not run.
func BundleFrom(c *gin.Context) identity.Bundle {
	if v, ok := c.Get(bundleKey); ok {
		if b, ok := v.(identity.Bundle); ok {
			return b
		}
	}
	return identity.Bundle{}
}
