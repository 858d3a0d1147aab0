package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devYoryet/user-final/internal/identity"
	"github.com/devYoryet/user-final/internal/logger"
	"github.com/devYoryet/user-final/internal/middleware"
	"github.com/devYoryet/user-final/internal/resolver"
	"github.com/devYoryet/user-final/internal/user"
)

type Handler struct {
	users    *user.Service
	resolver *resolver.Resolver
}

func NewHandler(users *user.Service, resolver *resolver.Resolver) *Handler {
	return &Handler{
		users:    users,
		resolver: resolver,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/users/profile", h.profile)
	r.GET("/api/users", h.list)
	r.GET("/api/users/:userId", h.getByID)
	r.GET("/api/users/by-cognito-id/:subject", h.getBySubject)
	r.GET("/api/users/by-email/:email", h.getByEmail)
	r.POST("/api/users/create-from-cognito", h.createFromCognito)
	r.PUT("/api/users/:userId/upgrade-to-salon-owner", h.upgradeByID)
	r.PUT("/api/users/cognito/:subject/upgrade-to-salon-owner", h.upgradeBySubject)
	r.GET("/api/users/cognito/:subject/has-salon", h.hasSalon)
}

// profile resolves whatever credential the request carries into the
// canonical user, creating or backfilling the record on first sighting.
func (h *Handler) profile(c *gin.Context) {
	u, err := h.resolver.Resolve(c.Request.Context(), middleware.BundleFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) getBySubject(c *gin.Context) {
	u, err := h.users.GetBySubject(c.Request.Context(), c.Param("subject"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) getByEmail(c *gin.Context) {
	u, err := h.users.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) list(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type createFromCognitoRequest struct {
	CognitoUserID string `json:"cognitoUserId" binding:"required"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	Role          string `json:"role"`
}

// createFromCognito is the gateway's server-to-server sync call. It runs
// the same reconciliation as the profile path, so repeating it for a
// known identity returns the existing record.
func (h *Handler) createFromCognito(c *gin.Context) {
	var req createFromCognitoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := h.users.Reconcile(c.Request.Context(), &identity.Identity{
		Subject:     req.CognitoUserID,
		Email:       req.Email,
		DisplayName: req.FullName,
		Role:        identity.RoleFromString(req.Role),
		Provider:    identity.ProviderCognito,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) upgradeByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	u, err := h.users.UpgradeToSalonOwner(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) upgradeBySubject(c *gin.Context) {
	u, err := h.users.UpgradeToSalonOwnerBySubject(c.Request.Context(), c.Param("subject"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) hasSalon(c *gin.Context) {
	has, err := h.users.HasExistingSalonBySubject(c.Request.Context(), c.Param("subject"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasSalon": has})
}

// writeError maps domain failures onto status codes precise enough for
// callers to distinguish "log in again" from "contact support" from
// "retry".
func (h *Handler) writeError(c *gin.Context, err error) {
	var conflict *user.SubjectConflictError

	switch {
	case errors.Is(err, identity.ErrNoCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})

	case errors.Is(err, identity.ErrUntrustedIssuer):
		// Never downgraded to anonymous access; worth an operator's eye.
		logger.Warn("rejected token from untrusted issuer", map[string]any{
			"ip":    c.ClientIP(),
			"error": err.Error(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "untrusted token issuer"})

	case errors.Is(err, identity.ErrMalformedToken),
		errors.Is(err, identity.ErrMissingSubject),
		errors.Is(err, user.ErrNoIdentityKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, user.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})

	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})

	default:
		logger.Error("request failed", map[string]any{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
