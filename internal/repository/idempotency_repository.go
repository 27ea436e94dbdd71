package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lodgecore/pms/internal/model"
)

// IdempotencyRepo persists write-once idempotency records.  Creation is
// atomic: the unique (property_id, idem_key) constraint decides the
// winner of a concurrent first use, and the loser receives ErrConflict
// instead of overwriting the stored response.
type IdempotencyRepo struct {
	db *sql.DB
}

// NewIdempotencyRepo returns a new IdempotencyRepo bound to the given database.
func NewIdempotencyRepo(db *sql.DB) *IdempotencyRepo { return &IdempotencyRepo{db: db} }

// Get returns the stored record for a key, or ErrNotFound on first use.
func (r *IdempotencyRepo) Get(ctx context.Context, propertyID uint64, key string) (*model.IdempotencyRecord, error) {
	const q = `SELECT id, property_id, idem_key, method, path, status_code, response_body, created_at
	           FROM idempotency_log WHERE property_id = ? AND idem_key = ?`
	var rec model.IdempotencyRecord
	err := r.db.QueryRowContext(ctx, q, propertyID, key).Scan(
		&rec.ID, &rec.PropertyID, &rec.Key, &rec.Method, &rec.Path,
		&rec.StatusCode, &rec.ResponseBody, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a record, returning ErrConflict when the key has been
// written concurrently by another request.
func (r *IdempotencyRepo) Create(ctx context.Context, rec *model.IdempotencyRecord) error {
	const q = `INSERT INTO idempotency_log (property_id, idem_key, method, path, status_code, response_body)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rec.PropertyID, rec.Key, rec.Method, rec.Path,
		rec.StatusCode, rec.ResponseBody)
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
	rec.ID = uint64(id)
	return nil
}
