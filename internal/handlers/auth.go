package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-tasks-api/internal/dto"
	apierrors "github.com/yukikurage/team-tasks-api/internal/errors"
	"github.com/yukikurage/team-tasks-api/internal/identity"
	"github.com/yukikurage/team-tasks-api/internal/logger"
	"github.com/yukikurage/team-tasks-api/internal/services"
	"github.com/yukikurage/team-tasks-api/internal/session"
)

// AuthHandler establishes and ends sessions for identities verified by the
// identity provider.
type AuthHandler struct {
	authService *services.AuthService
	verifier    *identity.Verifier
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, verifier *identity.Verifier) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		verifier:    verifier,
	}
}

// SignIn exchanges a provider ID token for a session.
func (h *AuthHandler) SignIn(c *gin.Context) {
	type SignInRequest struct {
		IDToken string `json:"id_token" binding:"required"`
	}

	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Validation(c, "Invalid request body")
		return
	}

	id, err := h.verifier.Verify(req.IDToken)
	if err != nil {
		logger.Debug().Err(err).Msg("identity token rejected")
		apierrors.Unauthenticated(c, "Invalid identity token")
		return
	}

	user, err := h.authService.SignIn(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := session.SavePrincipal(c, services.Principal(user)); err != nil {
		logger.Error().Err(err).Msg("failed to save session")
		apierrors.InternalError(c)
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrentUserDTO(*user))
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := session.Clear(c); err != nil {
		logger.Error().Err(err).Msg("failed to clear session")
		apierrors.InternalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated user as currently stored.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), principal.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrentUserDTO(*user))
}
