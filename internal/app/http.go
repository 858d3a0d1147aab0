package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/devYoryet/user-final/internal/audit"
	"github.com/devYoryet/user-final/internal/config"
	"github.com/devYoryet/user-final/internal/handler"
	"github.com/devYoryet/user-final/internal/identity"
	"github.com/devYoryet/user-final/internal/logger"
	"github.com/devYoryet/user-final/internal/middleware"
	"github.com/devYoryet/user-final/internal/provider/keycloak"
	"github.com/devYoryet/user-final/internal/resolver"
	"github.com/devYoryet/user-final/internal/user"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	var hook user.Hook
	if infra.Redis != nil {
		hook = audit.NewRecorder(infra.Redis.Client)
	}

	store := user.NewPostgresStore(infra.DB)
	users := user.NewService(store, nil, hook)

	selector := &identity.Selector{
		TrustedSource:      cfg.GatewayAuthSource,
		GatewayDefaultRole: cfg.GatewayDefaultRole,
		CognitoIssuer:      cfg.CognitoIssuer,
		KeycloakIssuer:     cfg.KeycloakIssuer,
	}

	var keycloakClient resolver.ProfileFetcher
	if cfg.KeycloakIssuer != "" {
		kc, err := keycloak.New(ctx, cfg.KeycloakIssuer, cfg.KeycloakClientID)
		if err != nil {
			// Keycloak being down must not block Cognito traffic; the
			// raw-claim path still serves Keycloak tokens unverified.
			logger.Warn("keycloak provider unavailable", map[string]any{
				"issuer": cfg.KeycloakIssuer,
				"error":  err.Error(),
			})
		} else {
			keycloakClient = kc
		}
	}

	identityResolver := resolver.New(selector, users, keycloakClient)
	userHandler := handler.NewHandler(users, identityResolver)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CredentialBundle())

	userHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		if infra.Redis != nil {
			_ = infra.Redis.Close()
		}
		return infra.DB.Close()
	}, nil
}
