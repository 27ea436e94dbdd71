package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lodgecore/pms/internal/model"
)

// RatePlanRepo provides CRUD operations for rate plans.  Plan identity is
// immutable; pricing attributes may change over time.
type RatePlanRepo struct {
	db *sql.DB
}

// NewRatePlanRepo returns a new RatePlanRepo bound to the given database.
func NewRatePlanRepo(db *sql.DB) *RatePlanRepo { return &RatePlanRepo{db: db} }

const ratePlanColumns = `id, property_id, code, name, currency, parent_plan_id,
	derived_type, derived_value, rounding_rule, extra_adult_cents, extra_child_cents, created_at`

func scanRatePlan(row interface{ Scan(...any) error }) (*model.RatePlan, error) {
	var p model.RatePlan
	var parent sql.NullInt64
	var derivedType, roundingRule sql.NullString
	err := row.Scan(&p.ID, &p.PropertyID, &p.Code, &p.Name, &p.Currency, &parent,
		&derivedType, &p.DerivedValue, &roundingRule, &p.ExtraAdultCents, &p.ExtraChildCents, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		id := uint64(parent.Int64)
		p.ParentPlanID = &id
	}
	p.DerivedType = derivedType.String
	p.RoundingRule = roundingRule.String
	if p.RoundingRule == "" {
		p.RoundingRule = model.RoundNone
	}
	return &p, nil
}

// Create inserts a rate plan.  A duplicate code within the property is
// reported as ErrConflict.
func (r *RatePlanRepo) Create(ctx context.Context, p *model.RatePlan) error {
	const q = `INSERT INTO rate_plans (property_id, code, name, currency, parent_plan_id,
	               derived_type, derived_value, rounding_rule, extra_adult_cents, extra_child_cents)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var parent any
	if p.ParentPlanID != nil {
		parent = *p.ParentPlanID
	}
	var derivedType any
	if p.DerivedType != "" {
		derivedType = p.DerivedType
	}
	res, err := r.db.ExecContext(ctx, q, p.PropertyID, p.Code, p.Name, p.Currency, parent,
		derivedType, p.DerivedValue, p.RoundingRule, p.ExtraAdultCents, p.ExtraChildCents)
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
	p.ID = uint64(id)
	return nil
}

// GetByCode returns the rate plan with the given code within a property.
func (r *RatePlanRepo) GetByCode(ctx context.Context, propertyID uint64, code string) (*model.RatePlan, error) {
	const q = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE property_id = ? AND code = ?`
	return scanRatePlan(r.db.QueryRowContext(ctx, q, propertyID, code))
}

// GetByCodeTx is GetByCode within an existing transaction.
func (r *RatePlanRepo) GetByCodeTx(ctx context.Context, tx *sql.Tx, propertyID uint64, code string) (*model.RatePlan, error) {
	const q = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE property_id = ? AND code = ?`
	return scanRatePlan(tx.QueryRowContext(ctx, q, propertyID, code))
}

// ListByProperty returns all rate plans of a property ordered by code.
func (r *RatePlanRepo) ListByProperty(ctx context.Context, propertyID uint64) ([]model.RatePlan, error) {
	const q = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE property_id = ? ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RatePlan, 0)
	for rows.Next() {
		p, err := scanRatePlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
