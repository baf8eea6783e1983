package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/worklog-app/worklog/internal/database/testutil"
	"github.com/worklog-app/worklog/internal/models"
	"github.com/worklog-app/worklog/internal/services"
)

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)
	inviteSvc, err := services.NewInvitationService(db, nil)
	require.NoError(t, err)

	inviter := seedUser(t, db, "admin@acme.io")
	org := &models.Organization{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(org).Error)

	now := time.Now().UTC()

	expired := models.Invitation{
		OrganizationID: org.ID,
		Email:          "stale@acme.io",
		Role:           models.RoleMember,
		InvitedBy:      inviter.ID,
		Token:          "stale-token",
		ExpiresAt:      now.Add(-time.Hour),
	}
	require.NoError(t, db.Create(&expired).Error)

	live := models.Invitation{
		OrganizationID: org.ID,
		Email:          "live@acme.io",
		Role:           models.RoleMember,
		InvitedBy:      inviter.ID,
		Token:          "live-token",
		ExpiresAt:      now.Add(time.Hour),
	}
	require.NoError(t, db.Create(&live).Error)

	// Seed an audit log older than the retention window.
	require.NoError(t, auditSvc.Log(context.Background(), services.AuditEntry{
		Action: "test.action",
		Result: "success",
	}))
	var auditLog models.AuditLog
	require.NoError(t, db.First(&auditLog).Error)
	require.NoError(t, db.Model(&auditLog).Update("created_at", now.AddDate(0, 0, -10)).Error)

	c := NewCleaner(inviteSvc, auditSvc,
		WithAuditRetentionDays(7),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	require.NoError(t, c.RunOnce(context.Background()))

	var gone models.Invitation
	err = db.First(&gone, "id = ?", expired.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var remaining models.Invitation
	require.NoError(t, db.First(&remaining, "id = ?", live.ID).Error)

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	require.Equal(t, int64(0), auditCount)
}

func TestCleanerStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	inviteSvc, err := services.NewInvitationService(db, nil)
	require.NoError(t, err)

	c := NewCleaner(inviteSvc, nil)
	require.NoError(t, c.Start())

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop in time")
	}
}

func TestCleanerDisabledWithoutDependencies(t *testing.T) {
	c := NewCleaner(nil, nil)
	require.NoError(t, c.Start())
	require.NoError(t, c.RunOnce(context.Background()))
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{Email: email, Name: email}
	require.NoError(t, db.Create(user).Error)
	return user
}
