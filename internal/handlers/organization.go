package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-tasks-api/internal/dto"
	apierrors "github.com/yukikurage/team-tasks-api/internal/errors"
	"github.com/yukikurage/team-tasks-api/internal/services"
)

// OrganizationHandler serves organization endpoints.
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// CreateOrganization creates an organization led by the caller.
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	type CreateOrganizationRequest struct {
		Name   string `json:"name" binding:"required,max=255"`
		Domain string `json:"domain" binding:"required,max=255"`
	}

	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Validation(c, "Invalid request body")
		return
	}

	org, err := h.orgService.CreateOrganization(c.Request.Context(), principal, services.CreateOrganizationInput{
		Name:   req.Name,
		Domain: req.Domain,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(*org))
}

// ListMembers lists the members of the caller's organization.
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	members, err := h.orgService.ListMembers(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}
