package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihacademy/academy-server/internal/config"
	"github.com/ihacademy/academy-server/internal/repository"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{
		BcryptCost:     4,
		TrialDays:      21,
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
	}
	h := NewAuthHandler(cfg,
		repository.NewUserRepo(db),
		repository.NewOrganizationRepo(db),
		repository.NewTokenRepo(db))
	return h, mock
}

func postRegister(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegister_OrgCreateFailureLeavesNoUser(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs("ada", "ada@example.com", sqlmock.AnyArg(), "Ada", "organization_admin").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO organizations").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	c, rec := postRegister(`{"username":"ada","email":"ada@example.com","password":"secret123","name":"Ada","organization":{"name":"Riverside Tennis"}}`)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// the failed organization insert rolled the user back; no commit ran
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_InviteCodeCollisionRetries(t *testing.T) {
	h, mock := newAuthHandler(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(5, 1))
	// first code collides on the unique invite_code, second lands
	mock.ExpectExec("INSERT INTO organizations").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ABC234' for key 'organizations.invite_code'"))
	mock.ExpectExec("INSERT INTO organizations").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "address", "phone", "email", "logo",
			"invite_code", "plan_type", "subscription_status",
			"trial_start_date", "trial_end_date",
			"primary_color", "secondary_color", "accent_color",
			"is_active", "created_at", "updated_at",
		}).AddRow(9, "Riverside Tennis", nil, nil, nil, nil, nil,
			"XYZ789", "starter", "trial", now, now.AddDate(0, 0, 21),
			nil, nil, nil, true, now, now))
	mock.ExpectExec("INSERT INTO user_organizations").
		WithArgs(uint64(5), uint64(9), "admin").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "name", "role",
			"is_active", "created_at", "updated_at",
		}).AddRow(5, "ada", "ada@example.com", "x", "Ada", "organization_admin",
			true, now, now))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := postRegister(`{"username":"ada","email":"ada@example.com","password":"secret123","name":"Ada","organization":{"name":"Riverside Tennis"}}`)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ada@example.com' for key 'users.email'"))
	mock.ExpectRollback()

	c, rec := postRegister(`{"username":"ada","email":"ada@example.com","password":"secret123","name":"Ada"}`)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_OrganizationAndInviteCodeExclusive(t *testing.T) {
	h, _ := newAuthHandler(t)

	c, rec := postRegister(`{"username":"ada","email":"ada@example.com","password":"secret123","name":"Ada","organization":{"name":"Riverside"},"invite_code":"ABC234"}`)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
