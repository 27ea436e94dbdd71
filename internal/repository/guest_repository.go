package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lodgecore/pms/internal/model"
)

// GuestRepo resolves guest profiles.  The booking engine only needs
// find-by-email-or-create; full profile management lives elsewhere.
type GuestRepo struct {
	db *sql.DB
}

// NewGuestRepo returns a new GuestRepo bound to the given database.
func NewGuestRepo(db *sql.DB) *GuestRepo { return &GuestRepo{db: db} }

// FindOrCreateTx returns the guest with the given email within a
// property, creating the profile when none exists.  Runs inside the
// booking transaction so a failed booking leaves no orphan profile
// behind.  A concurrent create of the same email loses to the unique key
// and falls back to the winner's row.
func (r *GuestRepo) FindOrCreateTx(ctx context.Context, tx *sql.Tx, propertyID uint64, firstName, lastName, email string) (*model.Guest, error) {
	const sel = `SELECT id, property_id, first_name, last_name, email, created_at
	             FROM guests WHERE property_id = ? AND email = ?`
	g := &model.Guest{}
	err := tx.QueryRowContext(ctx, sel, propertyID, email).Scan(
		&g.ID, &g.PropertyID, &g.FirstName, &g.LastName, &g.Email, &g.CreatedAt)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	const ins = `INSERT INTO guests (property_id, first_name, last_name, email) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, propertyID, firstName, lastName, email)
	if IsDuplicateKey(err) {
		// lost a race to another booking for the same guest; reread
		if err2 := tx.QueryRowContext(ctx, sel, propertyID, email).Scan(
			&g.ID, &g.PropertyID, &g.FirstName, &g.LastName, &g.Email, &g.CreatedAt); err2 != nil {
			return nil, err2
		}
		return g, nil
	}
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	g.ID = uint64(id)
	g.PropertyID = propertyID
	g.FirstName = firstName
	g.LastName = lastName
	g.Email = email
	return g, nil
}
