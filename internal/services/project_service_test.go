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

func newProjectFixture(t *testing.T) (*ProjectService, *gorm.DB, *models.Organization, *models.User) {
	t.Helper()
	db := testutil.MustOpenTestDB(t)

	orgs, err := NewOrganizationService(db, nil)
	require.NoError(t, err)
	projects, err := NewProjectService(db, nil)
	require.NoError(t, err)

	creator := createUser(t, db, "founder@acme.io")
	org, err := orgs.Create(context.Background(), "Acme", creator.ID)
	require.NoError(t, err)

	return projects, db, org, creator
}

func TestCreateProject(t *testing.T) {
	svc, db, org, creator := newProjectFixture(t)

	project, err := svc.Create(context.Background(), org.ID, "  Billing  ", "invoices and payments", creator.ID)
	require.NoError(t, err)
	require.Equal(t, "Billing", project.Name)
	require.False(t, project.IsArchived)

	var stored models.Project
	require.NoError(t, db.First(&stored, "id = ?", project.ID).Error)
	require.Equal(t, creator.ID, stored.CreatedBy)
}

func TestCreateProjectRequiresName(t *testing.T) {
	svc, _, org, creator := newProjectFixture(t)

	_, err := svc.Create(context.Background(), org.ID, "   ", "", creator.ID)
	require.Error(t, err)
}

func TestListProjectsActiveBeforeArchivedNewestFirst(t *testing.T) {
	svc, db, org, creator := newProjectFixture(t)

	// "General" exists from organization creation; age it so ordering is
	// deterministic.
	require.NoError(t, db.Model(&models.Project{}).
		Where("organization_id = ?", org.ID).
		Update("created_at", time.Now().Add(-2*time.Hour)).Error)

	second, err := svc.Create(context.Background(), org.ID, "Billing", "", creator.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Project{}).
		Where("id = ?", second.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	third, err := svc.Create(context.Background(), org.ID, "Research", "", creator.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Archive(context.Background(), org.ID, third.ID))

	projects, err := svc.List(context.Background(), org.ID)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	require.Equal(t, "Billing", projects[0].Name)
	require.Equal(t, "General", projects[1].Name)
	require.Equal(t, "Research", projects[2].Name)
	require.True(t, projects[2].IsArchived)
	require.Equal(t, "founder@acme.io", projects[0].CreatorName)
}

func TestArchiveProject(t *testing.T) {
	svc, db, org, creator := newProjectFixture(t)

	project, err := svc.Create(context.Background(), org.ID, "Billing", "", creator.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Archive(context.Background(), org.ID, project.ID))

	var stored models.Project
	require.NoError(t, db.First(&stored, "id = ?", project.ID).Error)
	require.True(t, stored.IsArchived)

	err = svc.Archive(context.Background(), org.ID, project.ID)
	require.ErrorIs(t, err, ErrProjectArchived)
}

func TestArchiveProjectTenantIsolation(t *testing.T) {
	svc, db, org, creator := newProjectFixture(t)

	orgs, err := NewOrganizationService(db, nil)
	require.NoError(t, err)
	other, err := orgs.Create(context.Background(), "Other", creator.ID)
	require.NoError(t, err)

	project, err := svc.Create(context.Background(), org.ID, "Billing", "", creator.ID)
	require.NoError(t, err)

	err = svc.Archive(context.Background(), other.ID, project.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}
