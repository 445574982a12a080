package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthstock/healthstock-backend/internal/alerts/repository"
	"github.com/healthstock/healthstock-backend/pkg/errors"
	"github.com/healthstock/healthstock-backend/pkg/testutil"
)

const (
	testAlertID    = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	testResolverID = "7d1c8e0a-1111-4f0e-9a44-000000000001"
)

func alertRow(resolvedAt *time.Time, resolvedBy *string) *sqlmock.Rows {
	return testutil.MockRows(
		"id", "type", "severity", "message", "related_item_id", "is_read",
		"created_at", "resolved_at", "resolved_by", "resolved_by_name",
	).AddRow(
		testAlertID, "low_stock", "high", "Paracetamol is below minimum stock",
		nil, true, time.Now(), resolvedAt, resolvedBy, nil,
	)
}

// --- Resolve Tests ---

func TestResolve_SetsResolver(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAlertRepository(mockDB.DB)
	now := time.Now()

	mockDB.ExpectExec("UPDATE alerts").
		WithArgs(testAlertID, testResolverID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(alertRow(&now, strPtr(testResolverID)))

	alert, err := repo.Resolve(context.Background(), testAlertID, testResolverID)
	require.NoError(t, err)
	require.NotNil(t, alert.ResolvedAt)
	require.NotNil(t, alert.ResolvedBy)
	assert.Equal(t, testResolverID, *alert.ResolvedBy)
	assert.True(t, alert.IsRead)

	mockDB.ExpectationsWereMet(t)
}

func TestResolve_AlreadyResolvedKeepsFirstResolver(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAlertRepository(mockDB.DB)
	firstResolvedAt := time.Now().Add(-time.Hour)
	firstResolver := "99999999-0000-4111-8222-333333333333"

	// Conditional update touches zero rows, the read returns the original
	// resolution untouched.
	mockDB.ExpectExec("UPDATE alerts").
		WithArgs(testAlertID, testResolverID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(alertRow(&firstResolvedAt, &firstResolver))

	alert, err := repo.Resolve(context.Background(), testAlertID, testResolverID)
	require.NoError(t, err)
	require.NotNil(t, alert.ResolvedBy)
	assert.Equal(t, firstResolver, *alert.ResolvedBy)
	assert.WithinDuration(t, firstResolvedAt, *alert.ResolvedAt, time.Second)

	mockDB.ExpectationsWereMet(t)
}

func TestResolve_UnknownAlert(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAlertRepository(mockDB.DB)

	mockDB.ExpectExec("UPDATE alerts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("SELECT").
		WillReturnError(sql.ErrNoRows)

	alert, err := repo.Resolve(context.Background(), testAlertID, testResolverID)
	assert.Nil(t, alert)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	mockDB.ExpectationsWereMet(t)
}

// --- Create Tests ---

func TestCreate_DefaultsSeverityToMedium(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAlertRepository(mockDB.DB)

	mockDB.ExpectQuery("INSERT INTO alerts").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))

	alert := &repository.Alert{
		Type:    repository.TypeSystem,
		Message: "scheduled maintenance tonight",
	}
	require.NoError(t, repo.Create(context.Background(), alert))
	assert.Equal(t, repository.SeverityMedium, alert.Severity)
	assert.NotEmpty(t, alert.ID)

	mockDB.ExpectationsWereMet(t)
}

func strPtr(s string) *string {
	return &s
}
