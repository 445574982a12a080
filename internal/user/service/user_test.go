package service_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/healthstock/healthstock-backend/internal/auth/jwt"
	"github.com/healthstock/healthstock-backend/internal/user/repository"
	"github.com/healthstock/healthstock-backend/internal/user/service"
	"github.com/healthstock/healthstock-backend/pkg/config"
	"github.com/healthstock/healthstock-backend/pkg/errors"
	"github.com/healthstock/healthstock-backend/pkg/logger"
	"github.com/healthstock/healthstock-backend/pkg/testutil"
)

const testUserID = "7d1c8e0a-1111-4f0e-9a44-000000000001"

func newTestUserService(mockDB *testutil.MockDB) *service.UserService {
	repo := repository.NewUserRepository(mockDB.DB)
	manager := jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret-key-for-unit-tests",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "healthstock",
	})
	log := logger.New("test", "test")
	return service.NewUserService(repo, manager, log)
}

func userRow(t *testing.T, password string, active bool) []driver.Value {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now()
	return []driver.Value{
		testUserID, "jdoe", "jdoe@example.org", string(hash), "Jane", "Doe",
		"inventory_manager", "General Hospital", nil, active, now, now,
	}
}

var userColumns = []string{
	"id", "username", "email", "password_hash", "first_name", "last_name",
	"role", "hospital_name", "phone", "is_active", "created_at", "updated_at",
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestUserService(mockDB)

	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(userColumns...).AddRow(userRow(t, "correct-horse", true)...))

	pair, user, err := svc.Login(context.Background(), "jdoe", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", user.Username)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)

	mockDB.ExpectationsWereMet(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestUserService(mockDB)

	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(userColumns...).AddRow(userRow(t, "correct-horse", true)...))

	pair, user, err := svc.Login(context.Background(), "jdoe", "wrong-password")
	assert.Nil(t, pair)
	assert.Nil(t, user)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestUserService(mockDB)

	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(userColumns...))

	pair, user, err := svc.Login(context.Background(), "nobody", "whatever")
	assert.Nil(t, pair)
	assert.Nil(t, user)
	require.Error(t, err)

	// Same error as a wrong password so account existence does not leak.
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestLogin_InactiveAccount(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestUserService(mockDB)

	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(userColumns...).AddRow(userRow(t, "correct-horse", false)...))

	_, _, err := svc.Login(context.Background(), "jdoe", "correct-horse")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

// --- Register Tests ---

func TestRegister_HashesPassword(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestUserService(mockDB)
	now := time.Now()

	mockDB.ExpectQuery("INSERT INTO users").
		WillReturnRows(testutil.MockRows("is_active", "created_at", "updated_at").AddRow(true, now, now))

	user, err := svc.Register(context.Background(), service.RegisterRequest{
		Username:     "newnurse",
		Email:        "nurse@example.org",
		Password:     "long-enough-password",
		HospitalName: "General Hospital",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "long-enough-password", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("long-enough-password")))
	assert.Equal(t, repository.RoleStaff, user.Role)

	mockDB.ExpectationsWereMet(t)
}

// --- Refresh Tests ---

func TestRefresh_IssuesNewPair(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestUserService(mockDB)

	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(userColumns...).AddRow(userRow(t, "correct-horse", true)...))

	pair, _, err := svc.Login(context.Background(), "jdoe", "correct-horse")
	require.NoError(t, err)

	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(userColumns...).AddRow(userRow(t, "correct-horse", true)...))

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	mockDB.ExpectationsWereMet(t)
}

func TestRefresh_InvalidToken(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newTestUserService(mockDB)

	pair, err := svc.Refresh(context.Background(), "garbage-token")
	assert.Nil(t, pair)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "TOKEN_INVALID", appErr.Code)
}
