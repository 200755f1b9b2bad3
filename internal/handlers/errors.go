package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/team-tasks-api/internal/authz"
	apierrors "github.com/yukikurage/team-tasks-api/internal/errors"
	"github.com/yukikurage/team-tasks-api/internal/identity"
	"github.com/yukikurage/team-tasks-api/internal/logger"
	"github.com/yukikurage/team-tasks-api/internal/middleware"
	"github.com/yukikurage/team-tasks-api/internal/services"
)

func init() {
	// Request bodies with fields the API does not know are rejected.
	binding.EnableDecoderDisallowUnknownFields = true
}

// currentPrincipal returns the authenticated caller, responding 401 when absent.
func currentPrincipal(c *gin.Context) (authz.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthenticated(c, "")
		return authz.Principal{}, false
	}
	return principal, true
}

// respondServiceError maps service and authorization errors to API errors.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, identity.ErrInvalidToken):
		apierrors.Unauthenticated(c, err.Error())
	case errors.Is(err, services.ErrUserDeactivated):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, authz.ErrNotInOrganization):
		apierrors.NotInOrganization(c, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrInvalidDomain),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidSort),
		errors.Is(err, services.ErrInvalidPagination),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, services.ErrTextRequired):
		apierrors.Validation(c, err.Error())

	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrInviteNotFound),
		errors.Is(err, services.ErrAssignmentNotFound):
		apierrors.NotFound(c, err.Error())

	case errors.Is(err, services.ErrDomainTaken):
		apierrors.Conflict(c, apierrors.ErrCodeDomainTaken, err.Error())
	case errors.Is(err, services.ErrAlreadyInOrganization):
		apierrors.Conflict(c, apierrors.ErrCodeAlreadyInOrganization, err.Error())
	case errors.Is(err, services.ErrUserExists):
		apierrors.Conflict(c, apierrors.ErrCodeUserExists, err.Error())
	case errors.Is(err, services.ErrDuplicateInvite):
		apierrors.Conflict(c, apierrors.ErrCodeDuplicateInvite, err.Error())
	case errors.Is(err, services.ErrDuplicateAssignment):
		apierrors.Conflict(c, apierrors.ErrCodeDuplicateAssignment, err.Error())
	case errors.Is(err, services.ErrAlreadyAccepted):
		apierrors.Conflict(c, apierrors.ErrCodeAlreadyAccepted, err.Error())
	case errors.Is(err, services.ErrEmailMismatch):
		apierrors.RespondWithError(c, http.StatusForbidden, apierrors.NewAPIError(apierrors.ErrCodeEmailMismatch, err.Error()))

	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())

	default:
		logger.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("unhandled service error")
		apierrors.InternalError(c)
	}
}
