package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nvalerio/accountd/internal/database/testutil"
	"github.com/nvalerio/accountd/internal/models"
)

func TestAuditLogPersistsEntry(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewAuditService(db)
	require.NoError(t, err)

	accountID := "account-1"
	err = service.Log(context.Background(), AuditEntry{
		AccountID: &accountID,
		Action:    "account.create",
		Resource:  accountID,
		Result:    "success",
		IPAddress: "127.0.0.1",
		UserAgent: "test-agent",
		Metadata:  map[string]any{"email": "a@b.com"},
	})
	require.NoError(t, err)

	var stored models.AuditLog
	require.NoError(t, db.Take(&stored).Error)
	require.NotNil(t, stored.AccountID)
	require.Equal(t, accountID, *stored.AccountID)
	require.Equal(t, "account.create", stored.Action)
	require.Equal(t, "success", stored.Result)
	require.JSONEq(t, `{"email":"a@b.com"}`, stored.Metadata)
}

func TestAuditLogRequiresActionAndResult(t *testing.T) {
	service, err := NewAuditService(testutil.MustOpenTestDB(t))
	require.NoError(t, err)

	require.Error(t, service.Log(context.Background(), AuditEntry{Result: "success"}))
	require.Error(t, service.Log(context.Background(), AuditEntry{Action: "account.create"}))
}

func TestPruneOlderThanRemovesOnlyStaleEntries(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewAuditService(db)
	require.NoError(t, err)

	old := models.AuditLog{Action: "auth.login", Result: "success", CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := models.AuditLog{Action: "auth.login", Result: "success", CreatedAt: time.Now()}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	removed, err := service.PruneOlderThan(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}

func TestRecordAuditToleratesNilService(t *testing.T) {
	require.NotPanics(t, func() {
		recordAudit(nil, context.Background(), AuditEntry{Action: "x", Result: "y"})
	})
}
