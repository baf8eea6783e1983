package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/worklog-app/worklog/internal/database/testutil"
	"github.com/worklog-app/worklog/internal/models"
)

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t)
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)
	return svc, db
}

func TestLoginCreatesUserOnFirstSight(t *testing.T) {
	svc, db := newUserService(t)

	result, err := svc.Login(context.Background(), LoginInput{
		Email: "Ada@Example.com",
		Name:  "Ada Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", result.User.Email)
	require.Equal(t, "Ada Lovelace", result.User.Name)
	require.True(t, result.NeedsOrganizationSelection)
	require.Empty(t, result.Organizations)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestLoginRefreshesProfileOnReturn(t *testing.T) {
	svc, db := newUserService(t)

	first, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)

	second, err := svc.Login(context.Background(), LoginInput{
		Email:     "ada@example.com",
		Name:      "Ada Lovelace",
		AvatarURL: "https://avatars.example.com/ada.png",
	})
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)
	require.Equal(t, "Ada Lovelace", second.User.Name)
	require.Equal(t, "https://avatars.example.com/ada.png", second.User.AvatarURL)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestLoginRequiresEmailAndName(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Login(context.Background(), LoginInput{Name: "Ada"})
	require.Error(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: "ada@example.com"})
	require.Error(t, err)
}

func TestLoginListsMembershipsNewestFirst(t *testing.T) {
	svc, db := newUserService(t)

	result, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)
	userID := result.User.ID

	older := models.Organization{Name: "First Org", Slug: "first-org"}
	require.NoError(t, db.Create(&older).Error)
	newer := models.Organization{Name: "Second Org", Slug: "second-org"}
	require.NoError(t, db.Create(&newer).Error)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.OrganizationMember{
		OrganizationID: older.ID,
		UserID:         userID,
		Role:           models.RoleAdmin,
		Status:         models.MemberStatusActive,
	}).Error)
	require.NoError(t, db.Model(&models.OrganizationMember{}).
		Where("organization_id = ?", older.ID).
		Update("created_at", past).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{
		OrganizationID: newer.ID,
		UserID:         userID,
		Role:           models.RoleMember,
		Status:         models.MemberStatusPending,
	}).Error)

	result, err = svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)
	require.False(t, result.NeedsOrganizationSelection)
	require.Len(t, result.Organizations, 2)
	require.Equal(t, "second-org", result.Organizations[0].Slug)
	require.Equal(t, models.MemberStatusPending, result.Organizations[0].Status)
	require.Equal(t, "first-org", result.Organizations[1].Slug)
	require.Equal(t, models.RoleAdmin, result.Organizations[1].Role)
}

func TestCheckEmailReportsAccountExistence(t *testing.T) {
	svc, _ := newUserService(t)

	result, err := svc.CheckEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.False(t, result.HasAccount)

	_, err = svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)

	result, err = svc.CheckEmail(context.Background(), "ADA@example.com")
	require.NoError(t, err)
	require.True(t, result.HasAccount)
}

func TestCheckEmailSuggestsOrganizationsByDomain(t *testing.T) {
	svc, db := newUserService(t)

	org := models.Organization{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&org).Error)
	small := models.Organization{Name: "Tiny", Slug: "tiny"}
	require.NoError(t, db.Create(&small).Error)

	addMember := func(email, orgID, status string) {
		t.Helper()
		user := models.User{Email: email, Name: email}
		require.NoError(t, db.Create(&user).Error)
		require.NoError(t, db.Create(&models.OrganizationMember{
			OrganizationID: orgID,
			UserID:         user.ID,
			Role:           models.RoleMember,
			Status:         status,
		}).Error)
	}

	addMember("one@acme.io", org.ID, models.MemberStatusActive)
	addMember("two@acme.io", org.ID, models.MemberStatusActive)
	addMember("three@acme.io", small.ID, models.MemberStatusActive)
	addMember("four@acme.io", small.ID, models.MemberStatusPending)

	result, err := svc.CheckEmail(context.Background(), "new@acme.io")
	require.NoError(t, err)
	require.Len(t, result.SuggestedOrganizations, 1)
	require.Equal(t, "acme", result.SuggestedOrganizations[0].Slug)
	require.Equal(t, 2, result.SuggestedOrganizations[0].MemberCount)
}

func TestCheckEmailIgnoresOtherDomains(t *testing.T) {
	svc, db := newUserService(t)

	org := models.Organization{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&org).Error)
	for _, email := range []string{"one@acme.io", "two@acme.io"} {
		user := models.User{Email: email, Name: email}
		require.NoError(t, db.Create(&user).Error)
		require.NoError(t, db.Create(&models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         user.ID,
			Role:           models.RoleMember,
			Status:         models.MemberStatusActive,
		}).Error)
	}

	result, err := svc.CheckEmail(context.Background(), "new@elsewhere.io")
	require.NoError(t, err)
	require.Empty(t, result.SuggestedOrganizations)
}

func TestCheckEmailListsLiveInvitations(t *testing.T) {
	svc, db := newUserService(t)

	inviter := models.User{Email: "admin@acme.io", Name: "Admin"}
	require.NoError(t, db.Create(&inviter).Error)
	org := models.Organization{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&org).Error)

	live := models.Invitation{
		OrganizationID: org.ID,
		Email:          "new@acme.io",
		Role:           models.RoleMember,
		InvitedBy:      inviter.ID,
		Token:          "live-token",
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(&live).Error)

	expired := models.Invitation{
		OrganizationID: org.ID,
		Email:          "new@acme.io",
		Role:           models.RoleMember,
		InvitedBy:      inviter.ID,
		Token:          "expired-token",
		ExpiresAt:      time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&expired).Error)

	accepted := time.Now().Add(-time.Minute)
	consumed := models.Invitation{
		OrganizationID: org.ID,
		Email:          "new@acme.io",
		Role:           models.RoleMember,
		InvitedBy:      inviter.ID,
		Token:          "consumed-token",
		ExpiresAt:      time.Now().Add(time.Hour),
		AcceptedAt:     &accepted,
	}
	require.NoError(t, db.Create(&consumed).Error)

	result, err := svc.CheckEmail(context.Background(), "new@acme.io")
	require.NoError(t, err)
	require.Len(t, result.PendingInvitations, 1)
	require.Equal(t, "live-token", result.PendingInvitations[0].Token)
	require.Equal(t, "Acme", result.PendingInvitations[0].OrganizationName)
	require.Equal(t, "Admin", result.PendingInvitations[0].InvitedByName)
}
