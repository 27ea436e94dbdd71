package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lodgecore/pms/internal/model"
)

// RestrictionRepo provides access to stay restriction rows.  Upserts are
// patch-based: only fields explicitly carried by the patch are written,
// so a channel updating min_los never clobbers a closed flag set by
// another channel.
type RestrictionRepo struct {
	db *sql.DB
}

// NewRestrictionRepo returns a new RestrictionRepo bound to the given database.
func NewRestrictionRepo(db *sql.DB) *RestrictionRepo { return &RestrictionRepo{db: db} }

const restrictionColumns = `id, property_id, room_type_id, stay_date, rate_plan_code,
	min_los, max_los, closed_to_arrival, closed_to_departure, closed, updated_at`

func scanRestriction(row interface{ Scan(...any) error }) (*model.Restriction, error) {
	var res model.Restriction
	var minLOS, maxLOS sql.NullInt64
	var cta, ctd, closed sql.NullBool
	err := row.Scan(&res.ID, &res.PropertyID, &res.RoomTypeID, &res.StayDate, &res.RatePlanCode,
		&minLOS, &maxLOS, &cta, &ctd, &closed, &res.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if minLOS.Valid {
		v := int(minLOS.Int64)
		res.MinLOS = &v
	}
	if maxLOS.Valid {
		v := int(maxLOS.Int64)
		res.MaxLOS = &v
	}
	if cta.Valid {
		v := cta.Bool
		res.ClosedToArrival = &v
	}
	if ctd.Valid {
		v := ctd.Bool
		res.ClosedToDeparture = &v
	}
	if closed.Valid {
		v := closed.Bool
		res.Closed = &v
	}
	return &res, nil
}

// ListForStayTx returns every restriction row touching a stay within a
// transaction: all dates in the inclusive range [checkIn, checkOut]
// (check-out is included for closed-to-departure enforcement), for the
// given rate plan or the plan-agnostic "" scope.
func (r *RestrictionRepo) ListForStayTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, checkIn, checkOut time.Time, ratePlanCode string) ([]model.Restriction, error) {
	const q = `SELECT ` + restrictionColumns + ` FROM restrictions
	           WHERE property_id = ? AND room_type_id = ? AND stay_date >= ? AND stay_date <= ?
	             AND rate_plan_code IN (?, '')
	           ORDER BY stay_date`
	rows, err := tx.QueryContext(ctx, q, propertyID, roomTypeID,
		checkIn.Format(model.DateOnly), checkOut.Format(model.DateOnly), ratePlanCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Restriction, 0)
	for rows.Next() {
		res, err := scanRestriction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// GetForUpdateTx loads one restriction row with a row lock, or ErrNotFound.
func (r *RestrictionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, ratePlanCode string) (*model.Restriction, error) {
	const q = `SELECT ` + restrictionColumns + ` FROM restrictions
	           WHERE property_id = ? AND room_type_id = ? AND stay_date = ? AND rate_plan_code = ?
	           FOR UPDATE`
	return scanRestriction(tx.QueryRowContext(ctx, q, propertyID, roomTypeID, date.Format(model.DateOnly), ratePlanCode))
}

// UpsertTx applies a restriction patch to one (room type, date, rate plan)
// key.  On first create, unset boolean fields default to false and unset
// LOS fields stay null; on update only the fields the patch carries are
// written.  It returns whether a row was created and, for updates, the
// prior row so bulk updates can snapshot it for undo.
func (r *RestrictionRepo) UpsertTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, ratePlanCode string, patch model.RestrictionPatch) (created bool, before *model.Restriction, err error) {
	existing, err := r.GetForUpdateTx(ctx, tx, propertyID, roomTypeID, date, ratePlanCode)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, nil, err
	}
	if existing == nil {
		const ins = `INSERT INTO restrictions
		    (property_id, room_type_id, stay_date, rate_plan_code, min_los, max_los,
		     closed_to_arrival, closed_to_departure, closed)
		    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		var minLOS, maxLOS any
		if patch.MinLOS.IsSet() {
			minLOS = patch.MinLOS.Value()
		}
		if patch.MaxLOS.IsSet() {
			maxLOS = patch.MaxLOS.Value()
		}
		boolOrFalse := func(p model.Patch[bool]) bool {
			return p.IsSet() && p.Value()
		}
		_, err = tx.ExecContext(ctx, ins, propertyID, roomTypeID, date.Format(model.DateOnly), ratePlanCode,
			minLOS, maxLOS, boolOrFalse(patch.ClosedToArrival), boolOrFalse(patch.ClosedToDeparture), boolOrFalse(patch.Closed))
		if err != nil {
			return false, nil, err
		}
		return true, nil, nil
	}

	return false, existing, r.applyPatchTx(ctx, tx, existing.ID, patch)
}

func (r *RestrictionRepo) applyPatchTx(ctx context.Context, tx *sql.Tx, id uint64, patch model.RestrictionPatch) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if patch.MinLOS.IsSet() {
		sets = append(sets, "min_los = ?")
		args = append(args, patch.MinLOS.Value())
	}
	if patch.MaxLOS.IsSet() {
		sets = append(sets, "max_los = ?")
		args = append(args, patch.MaxLOS.Value())
	}
	if patch.ClosedToArrival.IsSet() {
		sets = append(sets, "closed_to_arrival = ?")
		args = append(args, patch.ClosedToArrival.Value())
	}
	if patch.ClosedToDeparture.IsSet() {
		sets = append(sets, "closed_to_departure = ?")
		args = append(args, patch.ClosedToDeparture.Value())
	}
	if patch.Closed.IsSet() {
		sets = append(sets, "closed = ?")
		args = append(args, patch.Closed.Value())
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := `UPDATE restrictions SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// OverwriteTx rewrites every restriction field of one key from a prior
// snapshot.  A nil snapshot clears all fields, reverting a row that the
// undone operation created.  Used only by bulk undo.
func (r *RestrictionRepo) OverwriteTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, ratePlanCode string, before *model.Restriction) error {
	var minLOS, maxLOS, cta, ctd, closed any
	cta, ctd, closed = false, false, false
	if before != nil {
		if before.MinLOS != nil {
			minLOS = *before.MinLOS
		}
		if before.MaxLOS != nil {
			maxLOS = *before.MaxLOS
		}
		if before.ClosedToArrival != nil {
			cta = *before.ClosedToArrival
		}
		if before.ClosedToDeparture != nil {
			ctd = *before.ClosedToDeparture
		}
		if before.Closed != nil {
			closed = *before.Closed
		}
	}
	const q = `UPDATE restrictions
	           SET min_los = ?, max_los = ?, closed_to_arrival = ?, closed_to_departure = ?, closed = ?
	           WHERE property_id = ? AND room_type_id = ? AND stay_date = ? AND rate_plan_code = ?`
	_, err := tx.ExecContext(ctx, q, minLOS, maxLOS, cta, ctd, closed,
		propertyID, roomTypeID, date.Format(model.DateOnly), ratePlanCode)
	return err
}
