package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-tasks-api/internal/dto"
	apierrors "github.com/yukikurage/team-tasks-api/internal/errors"
	"github.com/yukikurage/team-tasks-api/internal/services"
)

type InviteHandler struct {
	inviteService *services.InviteService
}

func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// CheckInvite reports the caller's pending invite. invite is null when there is none.
func (h *InviteHandler) CheckInvite(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	invite, err := h.inviteService.CheckInvite(c.Request.Context(), principal, c.Query("email"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if invite == nil {
		c.JSON(http.StatusOK, gin.H{"invite": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invite": dto.ToInviteDTO(*invite)})
}

// CreateInvite invites an email address into the caller's organization.
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	type CreateInviteRequest struct {
		Email string `json:"email" binding:"required"`
	}

	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Validation(c, "Invalid request body")
		return
	}

	invite, err := h.inviteService.Invite(c.Request.Context(), principal, req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInviteDTO(*invite))
}

// ListInvites lists the pending invites of the caller's organization.
func (h *InviteHandler) ListInvites(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	invites, err := h.inviteService.ListInvites(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invites": dto.ToInviteDTOs(invites)})
}

// AcceptInvite moves the caller into the invite's organization.
func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.inviteService.AcceptInvite(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invite accepted",
	})
}
