package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/worklog-app/worklog/internal/database/testutil"
	"github.com/worklog-app/worklog/internal/models"
)

func newOrganizationService(t *testing.T) (*OrganizationService, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOrganizationService(db, nil)
	require.NoError(t, err)
	return svc, db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: email}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateOrganizationSeedsAdminAndDefaultProject(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")

	org, err := svc.Create(context.Background(), "Acme Corp", creator.ID)
	require.NoError(t, err)
	require.Equal(t, "acme-corp", org.Slug)

	var member models.OrganizationMember
	require.NoError(t, db.Where("organization_id = ? AND user_id = ?", org.ID, creator.ID).First(&member).Error)
	require.Equal(t, models.RoleAdmin, member.Role)
	require.Equal(t, models.MemberStatusActive, member.Status)
	require.NotNil(t, member.JoinedAt)

	var project models.Project
	require.NoError(t, db.Where("organization_id = ?", org.ID).First(&project).Error)
	require.Equal(t, "General", project.Name)
	require.Equal(t, creator.ID, project.CreatedBy)
}

func TestCreateOrganizationRejectsSlugCollision(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")

	_, err := svc.Create(context.Background(), "Acme Corp", creator.ID)
	require.NoError(t, err)

	// Different display name, identical normalized slug.
	_, err = svc.Create(context.Background(), "Acme  Corp!", creator.ID)
	require.ErrorIs(t, err, ErrSlugTaken)

	var count int64
	require.NoError(t, db.Model(&models.Organization{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateOrganizationRejectsUnusableName(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")

	_, err := svc.Create(context.Background(), "!!!", creator.ID)
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestJoinCreatesPendingMembership(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")
	joiner := createUser(t, db, "new@acme.io")

	org, err := svc.Create(context.Background(), "Acme", creator.ID)
	require.NoError(t, err)

	result, err := svc.Join(context.Background(), org.ID, joiner.ID)
	require.NoError(t, err)
	require.True(t, result.RequiresApproval)

	var member models.OrganizationMember
	require.NoError(t, db.Where("organization_id = ? AND user_id = ?", org.ID, joiner.ID).First(&member).Error)
	require.Equal(t, models.MemberStatusPending, member.Status)
	require.Equal(t, models.RoleMember, member.Role)
}

func TestJoinRejectsActiveAndPendingMembers(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")
	joiner := createUser(t, db, "new@acme.io")

	org, err := svc.Create(context.Background(), "Acme", creator.ID)
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), org.ID, creator.ID)
	require.ErrorIs(t, err, ErrAlreadyMember)

	_, err = svc.Join(context.Background(), org.ID, joiner.ID)
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), org.ID, joiner.ID)
	require.ErrorIs(t, err, ErrJoinPending)
}

func TestJoinUnknownOrganization(t *testing.T) {
	svc, db := newOrganizationService(t)
	joiner := createUser(t, db, "new@acme.io")

	_, err := svc.Join(context.Background(), "00000000-0000-0000-0000-000000000000", joiner.ID)
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestApproveMemberActivatesPendingOnly(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")
	joiner := createUser(t, db, "new@acme.io")

	org, err := svc.Create(context.Background(), "Acme", creator.ID)
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), org.ID, joiner.ID)
	require.NoError(t, err)

	var member models.OrganizationMember
	require.NoError(t, db.Where("organization_id = ? AND user_id = ?", org.ID, joiner.ID).First(&member).Error)

	require.NoError(t, svc.ApproveMember(context.Background(), org.ID, member.ID))

	require.NoError(t, db.First(&member, "id = ?", member.ID).Error)
	require.Equal(t, models.MemberStatusActive, member.Status)
	require.NotNil(t, member.JoinedAt)

	// Second approval finds no pending row.
	err = svc.ApproveMember(context.Background(), org.ID, member.ID)
	require.ErrorIs(t, err, ErrMemberNotPending)
}

func TestApproveMemberScopedToOrganization(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")
	joiner := createUser(t, db, "new@acme.io")

	org, err := svc.Create(context.Background(), "Acme", creator.ID)
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), "Other", creator.ID)
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), org.ID, joiner.ID)
	require.NoError(t, err)

	var member models.OrganizationMember
	require.NoError(t, db.Where("organization_id = ? AND user_id = ?", org.ID, joiner.ID).First(&member).Error)

	err = svc.ApproveMember(context.Background(), other.ID, member.ID)
	require.ErrorIs(t, err, ErrMemberNotPending)
}

func TestDeactivateMemberThenRejoinResetsToPending(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")
	joiner := createUser(t, db, "new@acme.io")

	org, err := svc.Create(context.Background(), "Acme", creator.ID)
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), org.ID, joiner.ID)
	require.NoError(t, err)

	var member models.OrganizationMember
	require.NoError(t, db.Where("organization_id = ? AND user_id = ?", org.ID, joiner.ID).First(&member).Error)
	require.NoError(t, svc.ApproveMember(context.Background(), org.ID, member.ID))

	require.NoError(t, svc.DeactivateMember(context.Background(), org.ID, member.ID))
	require.NoError(t, db.First(&member, "id = ?", member.ID).Error)
	require.Equal(t, models.MemberStatusInactive, member.Status)

	err = svc.DeactivateMember(context.Background(), org.ID, member.ID)
	require.ErrorIs(t, err, ErrMemberNotActive)

	_, err = svc.Join(context.Background(), org.ID, joiner.ID)
	require.NoError(t, err)
	require.NoError(t, db.First(&member, "id = ?", member.ID).Error)
	require.Equal(t, models.MemberStatusPending, member.Status)
}

func TestListMembersOrdersActiveBeforePending(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")
	joiner := createUser(t, db, "new@acme.io")

	org, err := svc.Create(context.Background(), "Acme", creator.ID)
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), org.ID, joiner.ID)
	require.NoError(t, err)

	members, err := svc.ListMembers(context.Background(), org.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, models.MemberStatusActive, members[0].Status)
	require.Equal(t, "founder@acme.io", members[0].Email)
	require.Equal(t, models.MemberStatusPending, members[1].Status)
	require.Equal(t, "new@acme.io", members[1].Email)
}

func TestRoleOf(t *testing.T) {
	svc, db := newOrganizationService(t)
	creator := createUser(t, db, "founder@acme.io")
	joiner := createUser(t, db, "new@acme.io")

	org, err := svc.Create(context.Background(), "Acme", creator.ID)
	require.NoError(t, err)

	role, err := svc.RoleOf(context.Background(), org.ID, creator.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, role)

	// Pending members do not count as members yet.
	_, err = svc.Join(context.Background(), org.ID, joiner.ID)
	require.NoError(t, err)
	_, err = svc.RoleOf(context.Background(), org.ID, joiner.ID)
	require.ErrorIs(t, err, ErrNotMember)
}
