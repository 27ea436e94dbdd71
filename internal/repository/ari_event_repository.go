package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lodgecore/pms/internal/model"
)

// AriEventRepo provides access to the append-only ARI event audit trail.
// The unique key on event_id doubles as the ingestion dedup guard.
type AriEventRepo struct {
	db *sql.DB
}

// NewAriEventRepo returns a new AriEventRepo bound to the given database.
func NewAriEventRepo(db *sql.DB) *AriEventRepo { return &AriEventRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *AriEventRepo) DB() *sql.DB { return r.db }

const ariEventColumns = `id, property_id, event_id, event_type, update_type, room_type_code,
	rate_plan_code, date_from, date_to, payload, status, message, undone, occurred_at, created_at`

func scanAriEvent(row interface{ Scan(...any) error }) (*model.AriEvent, error) {
	var ev model.AriEvent
	err := row.Scan(&ev.ID, &ev.PropertyID, &ev.EventID, &ev.EventType, &ev.UpdateType,
		&ev.RoomTypeCode, &ev.RatePlanCode, &ev.DateFrom, &ev.DateTo, &ev.Payload,
		&ev.Status, &ev.Message, &ev.Undone, &ev.OccurredAt, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Exists reports whether an event with the given dedup key has already
// been recorded for the property.
func (r *AriEventRepo) Exists(ctx context.Context, propertyID uint64, eventID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM ari_events WHERE property_id = ? AND event_id = ?)`
	var found bool
	if err := r.db.QueryRowContext(ctx, q, propertyID, eventID).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

// InsertTx appends an event row within a transaction.  A duplicate
// event_id is reported as ErrConflict; the ARI processor maps that to
// the DEDUPED terminal status.
func (r *AriEventRepo) InsertTx(ctx context.Context, tx *sql.Tx, ev *model.AriEvent) error {
	const q = `INSERT INTO ari_events
	    (property_id, event_id, event_type, update_type, room_type_code, rate_plan_code,
	     date_from, date_to, payload, status, message, undone, occurred_at)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, ev.PropertyID, ev.EventID, ev.EventType, ev.UpdateType,
		ev.RoomTypeCode, ev.RatePlanCode, ev.DateFrom.Format(model.DateOnly), ev.DateTo.Format(model.DateOnly),
		ev.Payload, ev.Status, ev.Message, ev.Undone, ev.OccurredAt)
	if IsDuplicateKey(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

// Insert appends an event row outside a transaction, used for terminal
// ERROR records where there is no application to roll back.
func (r *AriEventRepo) Insert(ctx context.Context, ev *model.AriEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.InsertTx(ctx, tx, ev); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetByEventIDForUpdateTx loads an event by its dedup key with a row
// lock, scoped to the property.  Bulk undo reads through this so a
// concurrent double undo serializes.
func (r *AriEventRepo) GetByEventIDForUpdateTx(ctx context.Context, tx *sql.Tx, propertyID uint64, eventID string) (*model.AriEvent, error) {
	const q = `SELECT ` + ariEventColumns + ` FROM ari_events
	           WHERE property_id = ? AND event_id = ? FOR UPDATE`
	return scanAriEvent(tx.QueryRowContext(ctx, q, propertyID, eventID))
}

// MarkUndoneTx flags a bulk event as reverted.
func (r *AriEventRepo) MarkUndoneTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE ari_events SET undone = 1 WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}
