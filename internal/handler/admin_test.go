package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgecore/pms/internal/middleware"
	"github.com/lodgecore/pms/internal/repository"
)

func newAdminHandler(t *testing.T) (*AdminHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAdminHandler(
		repository.NewPropertyRepo(db),
		repository.NewRoomTypeRepo(db),
		repository.NewRatePlanRepo(db),
	), mock
}

func tenantContext(propertyID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/property", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.PropertyIDKey, propertyID)
	return c, rec
}

func TestGetPropertyReturnsProfile(t *testing.T) {
	h, mock := newAdminHandler(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM properties").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "timezone", "created_at"}).
			AddRow(42, "GRAND01", "Grand Hotel", "Europe/Vienna", now))

	c, rec := tenantContext(42)
	require.NoError(t, h.GetProperty(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"id":42,"code":"GRAND01","name":"Grand Hotel","timezone":"Europe/Vienna"}`,
		rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPropertyUnknownTenant(t *testing.T) {
	h, mock := newAdminHandler(t)

	mock.ExpectQuery("FROM properties").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "timezone", "created_at"}))

	c, rec := tenantContext(99)
	require.NoError(t, h.GetProperty(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "PROPERTY_NOT_FOUND")
	assert.NoError(t, mock.ExpectationsWereMet())
}
