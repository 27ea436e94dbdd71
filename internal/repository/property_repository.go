package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lodgecore/pms/internal/model"
)

// PropertyRepo provides read access to properties.  Properties are
// created during onboarding and rarely change, so only lookups are
// exposed here.
type PropertyRepo struct {
	db *sql.DB
}

// NewPropertyRepo returns a new PropertyRepo bound to the given database.
func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// GetByID returns the property with the given id or ErrNotFound.
func (r *PropertyRepo) GetByID(ctx context.Context, id uint64) (*model.Property, error) {
	const q = `SELECT id, code, name, timezone, created_at FROM properties WHERE id = ?`
	var p model.Property
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Code, &p.Name, &p.Timezone, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
