package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/worklog-app/worklog/internal/auth"
	"github.com/worklog-app/worklog/internal/models"
	"github.com/worklog-app/worklog/internal/services"
	appErrors "github.com/worklog-app/worklog/pkg/errors"
	"github.com/worklog-app/worklog/pkg/metrics"
	"github.com/worklog-app/worklog/pkg/response"
)

// AuthHandler exposes login and pre-login email lookup endpoints.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type loginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required,max=128"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

type userDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type loginResponse struct {
	Token                      string                         `json:"token"`
	User                       userDTO                        `json:"user"`
	Organizations              []services.OrganizationSummary `json:"organizations"`
	NeedsOrganizationSelection bool                           `json:"needs_organization_selection"`
}

type checkEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type checkEmailResponse struct {
	HasAccount             bool                              `json:"has_account"`
	SuggestedOrganizations []services.OrganizationSuggestion `json:"suggested_organizations"`
	PendingInvitations     []services.PendingInvitation      `json:"pending_invitations"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	if h.users == nil || h.jwt == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.users.Login(requestContext(c), services.LoginInput{
		Email:     req.Email,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: result.User.ID,
		Email:  result.User.Email,
	})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, loginResponse{
		Token:                      token,
		User:                       toUserDTO(result.User),
		Organizations:              result.Organizations,
		NeedsOrganizationSelection: result.NeedsOrganizationSelection,
	})
}

// POST /api/auth/check-email
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	if h.users == nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	var req checkEmailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.users.CheckEmail(requestContext(c), req.Email)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	payload := checkEmailResponse{
		HasAccount:             result.HasAccount,
		SuggestedOrganizations: result.SuggestedOrganizations,
		PendingInvitations:     result.PendingInvitations,
	}
	if payload.SuggestedOrganizations == nil {
		payload.SuggestedOrganizations = []services.OrganizationSuggestion{}
	}
	if payload.PendingInvitations == nil {
		payload.PendingInvitations = []services.PendingInvitation{}
	}

	response.Success(c, http.StatusOK, payload)
}

func toUserDTO(user *models.User) userDTO {
	if user == nil {
		return userDTO{}
	}
	return userDTO{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}
}
