package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lodgecore/pms/internal/model"
)

// RoomTypeRepo provides CRUD operations for room types.  Codes are unique
// per property and every lookup is property-scoped.
type RoomTypeRepo struct {
	db *sql.DB
}

// NewRoomTypeRepo returns a new RoomTypeRepo bound to the given database.
func NewRoomTypeRepo(db *sql.DB) *RoomTypeRepo { return &RoomTypeRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *RoomTypeRepo) DB() *sql.DB { return r.db }

const roomTypeColumns = `id, property_id, code, name, max_adults, max_children, created_at`

func scanRoomType(row interface{ Scan(...any) error }) (*model.RoomType, error) {
	var rt model.RoomType
	err := row.Scan(&rt.ID, &rt.PropertyID, &rt.Code, &rt.Name, &rt.MaxAdults, &rt.MaxChildren, &rt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// Create inserts a room type.  A duplicate code within the property is
// reported as ErrConflict.
func (r *RoomTypeRepo) Create(ctx context.Context, rt *model.RoomType) error {
	const q = `INSERT INTO room_types (property_id, code, name, max_adults, max_children)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rt.PropertyID, rt.Code, rt.Name, rt.MaxAdults, rt.MaxChildren)
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
	rt.ID = uint64(id)
	return nil
}

// GetByCode returns the room type with the given code within a property.
func (r *RoomTypeRepo) GetByCode(ctx context.Context, propertyID uint64, code string) (*model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE property_id = ? AND code = ?`
	return scanRoomType(r.db.QueryRowContext(ctx, q, propertyID, code))
}

// GetByCodeTx is GetByCode within an existing transaction.
func (r *RoomTypeRepo) GetByCodeTx(ctx context.Context, tx *sql.Tx, propertyID uint64, code string) (*model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE property_id = ? AND code = ?`
	return scanRoomType(tx.QueryRowContext(ctx, q, propertyID, code))
}

// ListByProperty returns all room types of a property ordered by code.
func (r *RoomTypeRepo) ListByProperty(ctx context.Context, propertyID uint64) ([]model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE property_id = ? ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoomType, 0)
	for rows.Next() {
		var rt model.RoomType
		if err := rows.Scan(&rt.ID, &rt.PropertyID, &rt.Code, &rt.Name, &rt.MaxAdults, &rt.MaxChildren, &rt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// ListByIDs returns the room types with the given ids within a property.
// IDs from a different property are silently absent from the result, so
// callers can detect cross-tenant references by comparing lengths.
func (r *RoomTypeRepo) ListByIDs(ctx context.Context, propertyID uint64, ids []uint64) ([]model.RoomType, error) {
	if len(ids) == 0 {
		return []model.RoomType{}, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, propertyID)
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT ` + roomTypeColumns + ` FROM room_types
	      WHERE property_id = ? AND id IN (` + strings.Join(placeholders, ",") + `) ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoomType, 0, len(ids))
	for rows.Next() {
		var rt model.RoomType
		if err := rows.Scan(&rt.ID, &rt.PropertyID, &rt.Code, &rt.Name, &rt.MaxAdults, &rt.MaxChildren, &rt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
