package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lodgecore/pms/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  Rows are
// created inside the booking transaction and only move forward through
// their status lifecycle afterwards.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, property_id, pnr, status, check_in, check_out, room_type_id,
	room_id, guest_id, adults, children, rate_plan_code, total_cents, currency, channel,
	created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	var roomID sql.NullInt64
	err := row.Scan(&res.ID, &res.PropertyID, &res.PNR, &res.Status, &res.CheckIn, &res.CheckOut,
		&res.RoomTypeID, &roomID, &res.GuestID, &res.Adults, &res.Children, &res.RatePlanCode,
		&res.TotalCents, &res.Currency, &res.Channel, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		id := uint64(roomID.Int64)
		res.RoomID = &id
	}
	return &res, nil
}

// CreateTx inserts a reservation within an existing transaction and
// populates the generated id.  A duplicate PNR within the property is
// reported as ErrConflict so the caller can regenerate and retry.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	    (property_id, pnr, status, check_in, check_out, room_type_id, guest_id,
	     adults, children, rate_plan_code, total_cents, currency, channel)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.PropertyID, res.PNR, res.Status,
		res.CheckIn.Format(model.DateOnly), res.CheckOut.Format(model.DateOnly),
		res.RoomTypeID, res.GuestID, res.Adults, res.Children, res.RatePlanCode,
		res.TotalCents, res.Currency, res.Channel)
	if IsDuplicateKey(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByIDForUpdateTx loads a reservation by id with a row lock, scoped to
// the property.  Cancellation reads through this so two concurrent
// cancels serialize.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, propertyID, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE property_id = ? AND id = ? FOR UPDATE`
	return scanReservation(tx.QueryRowContext(ctx, q, propertyID, id))
}

// GetByPNR returns the reservation with the given locator within a property.
func (r *ReservationRepo) GetByPNR(ctx context.Context, propertyID uint64, pnr string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE property_id = ? AND pnr = ?`
	return scanReservation(r.db.QueryRowContext(ctx, q, propertyID, pnr))
}

// UpdateStatusTx moves a reservation to a new status within a transaction.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE reservations SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id)
	return err
}
