package quote

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lodgecore/pms/internal/repository"
)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop()
	clock := fixedClock("2026-05-01T10:00:00Z")
	signer := NewSigner([]byte("secret"), clock)
	cache := NewCache(100, 30*time.Minute, clock)
	engine := NewEngine(
		repository.NewRoomTypeRepo(db),
		repository.NewRatePlanRepo(db),
		repository.NewInventoryRepo(db, logger),
		signer, cache, clock, logger)
	return engine, mock
}

func expectCatalog(mock sqlmock.Sqlmock) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM room_types").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "property_id", "code", "name", "max_adults", "max_children", "created_at",
		}).AddRow(10, 1, "DBL", "Double Room", 2, 1, now))
	mock.ExpectQuery("FROM rate_plans").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "property_id", "code", "name", "currency", "parent_plan_id",
			"derived_type", "derived_value", "rounding_rule", "extra_adult_cents", "extra_child_cents", "created_at",
		}).AddRow(20, 1, "BAR", "Best Available Rate", "EUR", nil, nil, 0, "NONE", 0, 0, now))
}

func expectStayInventory(mock sqlmock.Sqlmock, available int) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM inventory").
		WithArgs(uint64(1), uint64(10), "2026-06-01", "2026-06-03").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "property_id", "room_type_id", "stay_date", "total", "booked", "available", "price_cents", "updated_at",
		}).
			AddRow(1, 1, 10, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 5, 5-available, available, 10000, now).
			AddRow(2, 1, 10, time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC), 5, 5-available, available, 12000, now))
}

func stayRequest() Request {
	return Request{
		PropertyID: 1,
		CheckIn:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC),
		Adults:     2,
	}
}

func TestGenerateQuotesPricesStay(t *testing.T) {
	engine, mock := newTestEngine(t)
	expectCatalog(mock)
	expectStayInventory(mock, 3)

	result, err := engine.GenerateQuotes(context.Background(), stayRequest())
	require.NoError(t, err)
	assert.False(t, result.Cached)
	require.Len(t, result.Quotes, 1)

	q := result.Quotes[0]
	assert.Equal(t, "DBL", q.RoomTypeCode)
	assert.Equal(t, "BAR", q.RatePlanCode)
	assert.Equal(t, int64(22000), q.TotalCents)
	require.Len(t, q.Nights, 2)
	assert.Equal(t, int64(10000), q.Nights[0].PriceCents)
	assert.Equal(t, int64(12000), q.Nights[1].PriceCents)
	assert.NotEmpty(t, q.PricingSignature)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateQuotesServesRepeatFromCache(t *testing.T) {
	engine, mock := newTestEngine(t)
	expectCatalog(mock)
	expectStayInventory(mock, 3)

	first, err := engine.GenerateQuotes(context.Background(), stayRequest())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// identical request: no further queries expected
	second, err := engine.GenerateQuotes(context.Background(), stayRequest())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Quotes, second.Quotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateQuotesSkipsSoldOutNights(t *testing.T) {
	engine, mock := newTestEngine(t)
	expectCatalog(mock)
	expectStayInventory(mock, 0)

	result, err := engine.GenerateQuotes(context.Background(), stayRequest())
	require.NoError(t, err)
	assert.Empty(t, result.Quotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateQuotesSkipsIncompleteCalendar(t *testing.T) {
	engine, mock := newTestEngine(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expectCatalog(mock)
	// only one of the two nights has an inventory row
	mock.ExpectQuery("FROM inventory").
		WithArgs(uint64(1), uint64(10), "2026-06-01", "2026-06-03").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "property_id", "room_type_id", "stay_date", "total", "booked", "available", "price_cents", "updated_at",
		}).AddRow(1, 1, 10, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 5, 0, 5, 10000, now))

	result, err := engine.GenerateQuotes(context.Background(), stayRequest())
	require.NoError(t, err)
	assert.Empty(t, result.Quotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateQuotesRejectsInvalidStay(t *testing.T) {
	engine, _ := newTestEngine(t)
	req := stayRequest()
	req.CheckOut = req.CheckIn
	_, err := engine.GenerateQuotes(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidStay)

	req = stayRequest()
	req.Adults = 0
	_, err = engine.GenerateQuotes(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidOccupancy)
}

func TestGenerateQuotesFiltersByRatePlanAfterCaching(t *testing.T) {
	engine, mock := newTestEngine(t)
	expectCatalog(mock)
	expectStayInventory(mock, 3)

	req := stayRequest()
	req.RatePlanCode = "NR10" // not offered
	result, err := engine.GenerateQuotes(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, result.Quotes)

	// the unfiltered quotes were cached under the plan-agnostic key
	req.RatePlanCode = "BAR"
	result, err = engine.GenerateQuotes(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Len(t, result.Quotes, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
