package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/worklog-app/worklog/internal/middleware"
	"github.com/worklog-app/worklog/internal/models"
	"github.com/worklog-app/worklog/internal/services"
	appErrors "github.com/worklog-app/worklog/pkg/errors"
	"github.com/worklog-app/worklog/pkg/response"
)

// OrganizationHandler exposes the organization and membership lifecycle.
type OrganizationHandler struct {
	orgs    *services.OrganizationService
	invites *services.InvitationService
}

// NewOrganizationHandler constructs an OrganizationHandler.
func NewOrganizationHandler(orgs *services.OrganizationService, invites *services.InvitationService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, invites: invites}
}

type createOrganizationRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

type organizationDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type inviteMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member"`
}

type acceptInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

// POST /api/organizations
func (h *OrganizationHandler) Create(c *gin.Context) {
	if h.orgs == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	var req createOrganizationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	org, err := h.orgs.Create(requestContext(c), req.Name, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlugTaken):
			response.Error(c, appErrors.NewConflict("An organization with this name already exists"))
		case errors.Is(err, services.ErrInvalidName):
			response.Error(c, appErrors.NewBadRequest("Organization name must contain letters or digits"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusCreated, toOrganizationDTO(org))
}

// POST /api/organizations/:orgID/join
func (h *OrganizationHandler) Join(c *gin.Context) {
	if h.orgs == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	result, err := h.orgs.Join(requestContext(c), c.Param("orgID"), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrganizationNotFound):
			response.Error(c, appErrors.NewNotFound("Organization not found"))
		case errors.Is(err, services.ErrAlreadyMember):
			response.Error(c, appErrors.NewConflict("You are already a member of this organization"))
		case errors.Is(err, services.ErrJoinPending):
			response.Error(c, appErrors.NewConflict("Your join request is already pending approval"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"requires_approval": result.RequiresApproval})
}

// POST /api/invitations/accept
func (h *OrganizationHandler) AcceptInvitation(c *gin.Context) {
	if h.invites == nil || h.orgs == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	var req acceptInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	member, err := h.invites.Accept(requestContext(c), req.Token, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvitationNotFound):
			response.Error(c, appErrors.NewNotFound("Invitation not found"))
		case errors.Is(err, services.ErrInvitationExpired):
			response.Error(c, appErrors.NewBadRequest("Invitation has expired"))
		case errors.Is(err, services.ErrInvitationConsumed):
			response.Error(c, appErrors.NewConflict("Invitation has already been accepted"))
		case errors.Is(err, services.ErrInvitationEmailMismatch):
			response.Error(c, appErrors.ErrForbidden)
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	org, err := h.orgs.GetByID(requestContext(c), member.OrganizationID)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"organization": toOrganizationDTO(org),
		"role":         member.Role,
		"status":       member.Status,
	})
}

// GET /api/organizations/:orgID/members
func (h *OrganizationHandler) Members(c *gin.Context) {
	if h.orgs == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	members, err := h.orgs.ListMembers(requestContext(c), c.Param("orgID"))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	if members == nil {
		members = []services.MemberView{}
	}

	response.Success(c, http.StatusOK, gin.H{"members": members})
}

// POST /api/organizations/:orgID/members/:memberID/approve
func (h *OrganizationHandler) ApproveMember(c *gin.Context) {
	if h.orgs == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	err := h.orgs.ApproveMember(requestContext(c), c.Param("orgID"), c.Param("memberID"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotPending):
			response.Error(c, appErrors.NewNotFound("Pending member not found"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"approved": true})
}

// POST /api/organizations/:orgID/members/:memberID/deactivate
func (h *OrganizationHandler) DeactivateMember(c *gin.Context) {
	if h.orgs == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	err := h.orgs.DeactivateMember(requestContext(c), c.Param("orgID"), c.Param("memberID"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotActive):
			response.Error(c, appErrors.NewNotFound("Active member not found"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}

// POST /api/organizations/:orgID/invite
func (h *OrganizationHandler) Invite(c *gin.Context) {
	if h.invites == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	var req inviteMemberRequest
	if !bindAndValidate(c, &req) {
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	inviterID := c.GetString(middleware.CtxUserIDKey)
	invitation, err := h.invites.Invite(requestContext(c), c.Param("orgID"), req.Email, role, inviterID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyMember):
			response.Error(c, appErrors.NewConflict("This email already belongs to a member"))
		case errors.Is(err, services.ErrInviteePending):
			response.Error(c, appErrors.NewConflict("This email already has a pending join request"))
		case errors.Is(err, services.ErrInvitationOutstanding):
			response.Error(c, appErrors.NewConflict("A live invitation already exists for this email"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"id":         invitation.ID,
		"email":      invitation.Email,
		"role":       invitation.Role,
		"token":      invitation.Token,
		"expires_at": invitation.ExpiresAt,
	})
}

func toOrganizationDTO(org *models.Organization) organizationDTO {
	if org == nil {
		return organizationDTO{}
	}
	return organizationDTO{
		ID:   org.ID,
		Name: strings.TrimSpace(org.Name),
		Slug: org.Slug,
	}
}
