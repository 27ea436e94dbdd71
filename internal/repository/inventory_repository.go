package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lodgecore/pms/internal/model"
)

// InventoryRepo provides access to per-(property, room type, date)
// availability rows.  Inventory is the hottest shared-mutable state in
// the system: every mutation goes through a transaction and the
// reserve/release primitives are conditional single-statement updates so
// the database serializes concurrent decrements of the same night.
type InventoryRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInventoryRepo returns a new InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB, logger *zap.Logger) *InventoryRepo {
	return &InventoryRepo{db: db, logger: logger}
}

// DB exposes the underlying handle so callers can open transactions.
func (r *InventoryRepo) DB() *sql.DB { return r.db }

const inventoryColumns = `id, property_id, room_type_id, stay_date, total, booked, available, price_cents, updated_at`

func scanInventory(row interface{ Scan(...any) error }) (*model.Inventory, error) {
	var inv model.Inventory
	err := row.Scan(&inv.ID, &inv.PropertyID, &inv.RoomTypeID, &inv.StayDate,
		&inv.Total, &inv.Booked, &inv.Available, &inv.PriceCents, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListForStay returns the inventory rows for every night of a stay, i.e.
// dates in [checkIn, checkOut), ordered by date.  Missing nights are
// simply absent; callers compare the row count against the night count.
func (r *InventoryRepo) ListForStay(ctx context.Context, propertyID, roomTypeID uint64, checkIn, checkOut time.Time) ([]model.Inventory, error) {
	const q = `SELECT ` + inventoryColumns + ` FROM inventory
	           WHERE property_id = ? AND room_type_id = ? AND stay_date >= ? AND stay_date < ?
	           ORDER BY stay_date`
	rows, err := r.db.QueryContext(ctx, q, propertyID, roomTypeID,
		checkIn.Format(model.DateOnly), checkOut.Format(model.DateOnly))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInventory(rows)
}

// ListRange returns all inventory rows of a property for dates in the
// inclusive range [from, to], across room types, ordered by room type and
// date.  This backs the availability calendar read model.
func (r *InventoryRepo) ListRange(ctx context.Context, propertyID uint64, from, to time.Time) ([]model.Inventory, error) {
	const q = `SELECT ` + inventoryColumns + ` FROM inventory
	           WHERE property_id = ? AND stay_date >= ? AND stay_date <= ?
	           ORDER BY room_type_id, stay_date`
	rows, err := r.db.QueryContext(ctx, q, propertyID,
		from.Format(model.DateOnly), to.Format(model.DateOnly))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInventory(rows)
}

func collectInventory(rows *sql.Rows) ([]model.Inventory, error) {
	out := make([]model.Inventory, 0)
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// GetForUpdateTx loads one inventory row with a row lock, or ErrNotFound.
// ARI application and bulk updates read through this before mutating so a
// concurrent writer of the same night blocks until commit.
func (r *InventoryRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time) (*model.Inventory, error) {
	const q = `SELECT ` + inventoryColumns + ` FROM inventory
	           WHERE property_id = ? AND room_type_id = ? AND stay_date = ? FOR UPDATE`
	return scanInventory(tx.QueryRowContext(ctx, q, propertyID, roomTypeID, date.Format(model.DateOnly)))
}

// InsertTx creates an inventory row lazily for a date that has never been
// written.  The caller supplies counts that already satisfy
// available + booked == total.
func (r *InventoryRepo) InsertTx(ctx context.Context, tx *sql.Tx, inv *model.Inventory) error {
	const q = `INSERT INTO inventory (property_id, room_type_id, stay_date, total, booked, available, price_cents)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, inv.PropertyID, inv.RoomTypeID,
		inv.StayDate.Format(model.DateOnly), inv.Total, inv.Booked, inv.Available, inv.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

// UpdateCountsTx rewrites the capacity counters of an existing row.
func (r *InventoryRepo) UpdateCountsTx(ctx context.Context, tx *sql.Tx, id uint64, total, booked, available int) error {
	const q = `UPDATE inventory SET total = ?, booked = ?, available = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, total, booked, available, id)
	return err
}

// UpdatePriceTx rewrites the base nightly price of an existing row.
func (r *InventoryRepo) UpdatePriceTx(ctx context.Context, tx *sql.Tx, id uint64, priceCents int64) error {
	const q = `UPDATE inventory SET price_cents = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, priceCents, id)
	return err
}

// ReserveNightTx commits one room for one night.  The decrement is
// conditional on remaining availability so two concurrent bookings of the
// last room cannot both succeed; it returns false when no room was left
// or the night has no inventory row at all.
func (r *InventoryRepo) ReserveNightTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time) (bool, error) {
	const q = `UPDATE inventory SET booked = booked + 1, available = available - 1
	           WHERE property_id = ? AND room_type_id = ? AND stay_date = ? AND available > 0`
	res, err := tx.ExecContext(ctx, q, propertyID, roomTypeID, date.Format(model.DateOnly))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseNightTx returns one room for one night, pairing a previous
// ReserveNightTx.  The guard on booked keeps a double release from
// breaking the conservation invariant.
func (r *InventoryRepo) ReleaseNightTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time) error {
	const q = `UPDATE inventory SET booked = booked - 1, available = available + 1
	           WHERE property_id = ? AND room_type_id = ? AND stay_date = ? AND booked > 0`
	res, err := tx.ExecContext(ctx, q, propertyID, roomTypeID, date.Format(model.DateOnly))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		r.logger.Warn("release skipped: no booked inventory for night",
			zap.Uint64("property_id", propertyID),
			zap.Uint64("room_type_id", roomTypeID),
			zap.String("date", date.Format(model.DateOnly)))
	}
	return nil
}
