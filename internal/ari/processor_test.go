package ari

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/queue"
	"github.com/lodgecore/pms/internal/repository"
)

type capturingPublisher struct {
	applied []queue.AriAppliedEvent
}

func (c *capturingPublisher) PublishAriApplied(_ context.Context, ev queue.AriAppliedEvent) error {
	c.applied = append(c.applied, ev)
	return nil
}

var mysqlDuplicateErr = mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

func newTestProcessor(t *testing.T) (*Processor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop()
	p := NewProcessor(db,
		repository.NewRoomTypeRepo(db),
		repository.NewInventoryRepo(db, logger),
		repository.NewRestrictionRepo(db),
		repository.NewAriEventRepo(db),
		repository.NewAuditRepo(db),
		nil,
		logger)
	return p, mock
}

func expectNotYetSeen(mock sqlmock.Sqlmock, eventID string) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(1), eventID).
		WillReturnRows(sqlmock.NewRows([]string{"found"}).AddRow(false))
}

func expectRoomTypeLookup(mock sqlmock.Sqlmock) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM room_types").
		WithArgs(uint64(1), "DBL").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "property_id", "code", "name", "max_adults", "max_children", "created_at",
		}).AddRow(10, 1, "DBL", "Double Room", 2, 1, now))
}

func inventoryRowCols() []string {
	return []string{"id", "property_id", "room_type_id", "stay_date", "total", "booked", "available", "price_cents", "updated_at"}
}

func intp(v int) *int { return &v }

func availabilityEvent(updateType string) Event {
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	return Event{
		EventID:      "evt-1",
		EventType:    model.AriAvailability,
		UpdateType:   updateType,
		RoomTypeCode: "DBL",
		DateFrom:     day,
		DateTo:       day,
		Channel:      "CM",
	}
}

func TestProcessEventSetAvailability(t *testing.T) {
	p, mock := newTestProcessor(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	expectNotYetSeen(mock, "evt-1")
	expectRoomTypeLookup(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM inventory").
		WithArgs(uint64(1), uint64(10), "2026-06-01").
		WillReturnRows(sqlmock.NewRows(inventoryRowCols()).
			AddRow(1, 1, 10, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 5, 2, 3, 10000, now))
	// SET 8 with 2 booked: total follows booked + available
	mock.ExpectExec("UPDATE inventory SET total").
		WithArgs(10, 2, 8, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ari_events").WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ev := availabilityEvent(model.UpdateSet)
	ev.Available = intp(8)
	result, err := p.ProcessEvent(context.Background(), 1, ev)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, model.AriStatusApplied, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEventReplayIsDeduped(t *testing.T) {
	p, mock := newTestProcessor(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(1), "evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"found"}).AddRow(true))

	ev := availabilityEvent(model.UpdateSet)
	ev.Available = intp(8)
	result, err := p.ProcessEvent(context.Background(), 1, ev)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, model.AriStatusDeduped, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEventValidationErrorIsRecorded(t *testing.T) {
	p, mock := newTestProcessor(t)

	expectNotYetSeen(mock, "evt-1")
	// the terminal ERROR row is written in its own transaction
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ari_events").WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectCommit()

	ev := availabilityEvent(model.UpdateSet) // SET without a value
	result, err := p.ProcessEvent(context.Background(), 1, ev)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, model.AriStatusError, result.Status)
	assert.Contains(t, result.Message, "SET availability requires")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEventUnknownRoomTypeIsRecorded(t *testing.T) {
	p, mock := newTestProcessor(t)

	expectNotYetSeen(mock, "evt-1")
	mock.ExpectQuery("FROM room_types").
		WithArgs(uint64(1), "DBL").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "property_id", "code", "name", "max_adults", "max_children", "created_at",
		}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ari_events").WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectCommit()

	ev := availabilityEvent(model.UpdateSet)
	ev.Available = intp(8)
	result, err := p.ProcessEvent(context.Background(), 1, ev)
	require.NoError(t, err)
	assert.Equal(t, model.AriStatusError, result.Status)
	assert.Contains(t, result.Message, "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEventIncrementCreatesMissingRow(t *testing.T) {
	p, mock := newTestProcessor(t)

	expectNotYetSeen(mock, "evt-1")
	expectRoomTypeLookup(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM inventory").
		WithArgs(uint64(1), uint64(10), "2026-06-01").
		WillReturnRows(sqlmock.NewRows(inventoryRowCols()))
	mock.ExpectExec("INSERT INTO inventory").
		WithArgs(uint64(1), uint64(10), "2026-06-01", 2, 0, 2, int64(0)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO ari_events").WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ev := availabilityEvent(model.UpdateIncrement)
	ev.Delta = intp(2)
	result, err := p.ProcessEvent(context.Background(), 1, ev)
	require.NoError(t, err)
	assert.Equal(t, model.AriStatusApplied, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEventDecrementClampsAtZero(t *testing.T) {
	p, mock := newTestProcessor(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	expectNotYetSeen(mock, "evt-1")
	expectRoomTypeLookup(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM inventory").
		WithArgs(uint64(1), uint64(10), "2026-06-01").
		WillReturnRows(sqlmock.NewRows(inventoryRowCols()).
			AddRow(1, 1, 10, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 5, 2, 3, 10000, now))
	// decrement of 5 clamps to the 3 rooms actually available
	mock.ExpectExec("UPDATE inventory SET total").
		WithArgs(2, 2, 0, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ari_events").WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ev := availabilityEvent(model.UpdateDecrement)
	ev.Delta = intp(5)
	result, err := p.ProcessEvent(context.Background(), 1, ev)
	require.NoError(t, err)
	assert.Equal(t, model.AriStatusApplied, result.Status)
	assert.Contains(t, result.Message, "clamped")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEventRestrictionUpsert(t *testing.T) {
	p, mock := newTestProcessor(t)

	expectNotYetSeen(mock, "evt-1")
	expectRoomTypeLookup(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM restrictions").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "property_id", "room_type_id", "stay_date", "rate_plan_code",
			"min_los", "max_los", "closed_to_arrival", "closed_to_departure", "closed", "updated_at",
		}))
	mock.ExpectExec("INSERT INTO restrictions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO ari_events").WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ev := availabilityEvent("")
	ev.EventType = model.AriRestriction
	ev.UpdateType = ""
	ev.RatePlanCode = "BAR"
	ev.Restrictions = model.RestrictionPatch{MinLOS: model.Set(2)}
	result, err := p.ProcessEvent(context.Background(), 1, ev)
	require.NoError(t, err)
	assert.Equal(t, model.AriStatusApplied, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEventLostInsertRaceIsDeduped(t *testing.T) {
	p, mock := newTestProcessor(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	expectNotYetSeen(mock, "evt-1")
	expectRoomTypeLookup(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM inventory").
		WithArgs(uint64(1), uint64(10), "2026-06-01").
		WillReturnRows(sqlmock.NewRows(inventoryRowCols()).
			AddRow(1, 1, 10, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 5, 2, 3, 10000, now))
	mock.ExpectExec("UPDATE inventory SET total").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ari_events").
		WillReturnError(&mysqlDuplicateErr)
	mock.ExpectRollback()

	ev := availabilityEvent(model.UpdateSet)
	ev.Available = intp(8)
	result, err := p.ProcessEvent(context.Background(), 1, ev)
	require.NoError(t, err)
	assert.Equal(t, model.AriStatusDeduped, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEventPublishesApplied(t *testing.T) {
	p, mock := newTestProcessor(t)
	pub := &capturingPublisher{}
	p.publisher = pub
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	expectNotYetSeen(mock, "evt-1")
	expectRoomTypeLookup(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM inventory").
		WithArgs(uint64(1), uint64(10), "2026-06-01").
		WillReturnRows(sqlmock.NewRows(inventoryRowCols()).
			AddRow(1, 1, 10, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 5, 2, 3, 10000, now))
	mock.ExpectExec("UPDATE inventory SET total").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ari_events").WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ev := availabilityEvent(model.UpdateSet)
	ev.Available = intp(8)
	_, err := p.ProcessEvent(context.Background(), 1, ev)
	require.NoError(t, err)
	require.Len(t, pub.applied, 1)
	assert.Equal(t, "evt-1", pub.applied[0].EventID)
	assert.Equal(t, model.AriAvailability, pub.applied[0].EventType)
	assert.Equal(t, "2026-06-01", pub.applied[0].DateFrom)
}
