package ari

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/repository"
)

// BulkFields carries the values a bulk update writes.  At least one
// field must be set; unset fields are left untouched on every cell.
type BulkFields struct {
	PriceCents        model.Patch[int64]
	Available         model.Patch[int]
	MinLOS            model.Patch[int]
	MaxLOS            model.Patch[int]
	ClosedToArrival   model.Patch[bool]
	ClosedToDeparture model.Patch[bool]
	Closed            model.Patch[bool]
}

func (f BulkFields) touchesInventory() bool {
	return f.PriceCents.IsSet() || f.Available.IsSet()
}

func (f BulkFields) restrictionPatch() model.RestrictionPatch {
	return model.RestrictionPatch{
		MinLOS:            f.MinLOS,
		MaxLOS:            f.MaxLOS,
		ClosedToArrival:   f.ClosedToArrival,
		ClosedToDeparture: f.ClosedToDeparture,
		Closed:            f.Closed,
	}
}

func (f BulkFields) isEmpty() bool {
	return !f.touchesInventory() && f.restrictionPatch().IsEmpty()
}

// BulkParams describes one logical update across a date range and a set
// of room types for a single rate plan.
type BulkParams struct {
	FromDate     time.Time
	ToDate       time.Time
	RoomTypeIDs  []uint64
	RatePlanCode string
	Fields       BulkFields
	DaysOfWeek   []int // 0 (Sunday) .. 6; empty means all days
	Actor        string
}

// BulkResult reports the outcome of a bulk update or undo.
type BulkResult struct {
	Message  string   `json:"message"`
	EventID  string   `json:"event_id"`
	Warnings []string `json:"warnings"`
}

// bulkSnapshot is the undo payload stored on the audit event: the prior
// state of every touched cell.
type bulkSnapshot struct {
	RatePlanCode string     `json:"rate_plan_code"`
	Cells        []bulkCell `json:"cells"`
}

type bulkCell struct {
	RoomTypeID  uint64       `json:"room_type_id"`
	Date        string       `json:"date"`
	Inventory   *invBefore   `json:"inventory,omitempty"`
	Restriction *restrBefore `json:"restriction,omitempty"`
}

type invBefore struct {
	Created    bool  `json:"created,omitempty"`
	Total      int   `json:"total"`
	Booked     int   `json:"booked"`
	Available  int   `json:"available"`
	PriceCents int64 `json:"price_cents"`
}

type restrBefore struct {
	Created           bool  `json:"created,omitempty"`
	MinLOS            *int  `json:"min_los,omitempty"`
	MaxLOS            *int  `json:"max_los,omitempty"`
	ClosedToArrival   *bool `json:"closed_to_arrival,omitempty"`
	ClosedToDeparture *bool `json:"closed_to_departure,omitempty"`
	Closed            *bool `json:"closed,omitempty"`
}

// BulkUpdater applies one logical ARI update across the cartesian
// product of dates and room types inside a single transaction, and can
// reverse it from the snapshot captured at apply time.
type BulkUpdater struct {
	db           *sql.DB
	roomTypes    *repository.RoomTypeRepo
	inventory    *repository.InventoryRepo
	restrictions *repository.RestrictionRepo
	events       *repository.AriEventRepo
	audit        *repository.AuditRepo
	logger       *zap.Logger
}

// NewBulkUpdater constructs a bulk ARI updater.
func NewBulkUpdater(db *sql.DB, roomTypes *repository.RoomTypeRepo, inventory *repository.InventoryRepo,
	restrictions *repository.RestrictionRepo, events *repository.AriEventRepo,
	audit *repository.AuditRepo, logger *zap.Logger) *BulkUpdater {
	return &BulkUpdater{
		db:           db,
		roomTypes:    roomTypes,
		inventory:    inventory,
		restrictions: restrictions,
		events:       events,
		audit:        audit,
		logger:       logger,
	}
}

// UpdateBulk expands the update to {dates ∩ daysOfWeek} × {room types}
// and applies only the provided fields, all-or-nothing.  Cells that had
// no inventory row are created with defaults and reported as warnings.
func (u *BulkUpdater) UpdateBulk(ctx context.Context, propertyID uint64, params BulkParams) (*BulkResult, error) {
	if params.ToDate.Before(params.FromDate) {
		return nil, ErrInvalidRange
	}
	if len(model.DatesInRange(params.FromDate, params.ToDate)) > maxRangeDays {
		return nil, ErrRangeTooLarge
	}
	if len(params.RoomTypeIDs) == 0 {
		return nil, ErrNoRoomTypes
	}
	if params.Fields.isEmpty() {
		return nil, ErrNoFields
	}

	roomTypes, err := u.roomTypes.ListByIDs(ctx, propertyID, params.RoomTypeIDs)
	if err != nil {
		return nil, err
	}
	if len(roomTypes) != len(dedupeIDs(params.RoomTypeIDs)) {
		return nil, ErrRoomTypeNotFound
	}

	dates := filterDaysOfWeek(model.DatesInRange(params.FromDate, params.ToDate), params.DaysOfWeek)

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var warnings []string
	snapshot := bulkSnapshot{RatePlanCode: params.RatePlanCode}
	for _, rt := range roomTypes {
		for _, date := range dates {
			cell := bulkCell{RoomTypeID: rt.ID, Date: date.Format(model.DateOnly)}

			if params.Fields.touchesInventory() {
				warn, before, err := u.applyInventoryCell(ctx, tx, propertyID, rt.ID, date, params.Fields)
				if err != nil {
					return nil, err
				}
				cell.Inventory = before
				if warn != "" {
					warnings = append(warnings, warn)
				}
			}

			patch := params.Fields.restrictionPatch()
			if !patch.IsEmpty() {
				created, before, err := u.restrictions.UpsertTx(ctx, tx, propertyID, rt.ID, date, params.RatePlanCode, patch)
				if err != nil {
					return nil, err
				}
				cell.Restriction = restrictionBefore(created, before)
			}

			snapshot.Cells = append(snapshot.Cells, cell)
		}
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	record := &model.AriEvent{
		PropertyID:   propertyID,
		EventID:      uuid.NewString(),
		EventType:    model.AriBulkUpdate,
		RatePlanCode: params.RatePlanCode,
		DateFrom:     params.FromDate,
		DateTo:       params.ToDate,
		Payload:      payload,
		Status:       model.AriStatusApplied,
		OccurredAt:   time.Now().UTC(),
	}
	if err := u.events.InsertTx(ctx, tx, record); err != nil {
		return nil, err
	}
	if err := u.audit.InsertTx(ctx, tx, propertyID, params.Actor, "ari.bulk_update", "ari_event", record.ID,
		map[string]any{"event_id": record.EventID, "cells": len(snapshot.Cells)}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	u.logger.Info("bulk ari update applied",
		zap.Uint64("property_id", propertyID),
		zap.String("event_id", record.EventID),
		zap.Int("cells", len(snapshot.Cells)),
		zap.Int("warnings", len(warnings)))
	return &BulkResult{
		Message:  fmt.Sprintf("updated %d cells", len(snapshot.Cells)),
		EventID:  record.EventID,
		Warnings: warningsOrEmpty(warnings),
	}, nil
}

// applyInventoryCell writes the price/available fields of one cell and
// returns the prior state for the undo snapshot.
func (u *BulkUpdater) applyInventoryCell(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, fields BulkFields) (string, *invBefore, error) {
	inv, err := u.inventory.GetForUpdateTx(ctx, tx, propertyID, roomTypeID, date)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", nil, err
	}

	if inv == nil {
		created := &model.Inventory{PropertyID: propertyID, RoomTypeID: roomTypeID, StayDate: date}
		if fields.Available.IsSet() {
			created.Available = fields.Available.Value()
			created.Total = created.Available
		}
		if fields.PriceCents.IsSet() {
			created.PriceCents = fields.PriceCents.Value()
		}
		if err := u.inventory.InsertTx(ctx, tx, created); err != nil {
			return "", nil, err
		}
		warn := fmt.Sprintf("%s: inventory created with defaults for room type %d", date.Format(model.DateOnly), roomTypeID)
		return warn, &invBefore{Created: true}, nil
	}

	before := &invBefore{Total: inv.Total, Booked: inv.Booked, Available: inv.Available, PriceCents: inv.PriceCents}
	if fields.Available.IsSet() {
		v := fields.Available.Value()
		if err := u.inventory.UpdateCountsTx(ctx, tx, inv.ID, inv.Booked+v, inv.Booked, v); err != nil {
			return "", nil, err
		}
	}
	if fields.PriceCents.IsSet() {
		if err := u.inventory.UpdatePriceTx(ctx, tx, inv.ID, fields.PriceCents.Value()); err != nil {
			return "", nil, err
		}
	}
	return "", before, nil
}

// UndoBulk reverses a previously applied bulk update from its stored
// snapshot.  Undoing an event twice is rejected, not double-reverted.
func (u *BulkUpdater) UndoBulk(ctx context.Context, propertyID uint64, eventID, actor string) (*BulkResult, error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	record, err := u.events.GetByEventIDForUpdateTx(ctx, tx, propertyID, eventID)
	if err != nil {
		return nil, err
	}
	if record.EventType != model.AriBulkUpdate {
		return nil, ErrNotUndoable
	}
	if record.Undone {
		return nil, ErrAlreadyUndone
	}

	var snapshot bulkSnapshot
	if err := json.Unmarshal(record.Payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode undo snapshot: %w", err)
	}

	var warnings []string
	for _, cell := range snapshot.Cells {
		date, err := model.ParseDate(cell.Date)
		if err != nil {
			return nil, fmt.Errorf("decode undo snapshot date: %w", err)
		}
		if cell.Inventory != nil {
			warn, err := u.undoInventoryCell(ctx, tx, propertyID, cell.RoomTypeID, date, cell.Inventory)
			if err != nil {
				return nil, err
			}
			if warn != "" {
				warnings = append(warnings, warn)
			}
		}
		if cell.Restriction != nil {
			if err := u.restrictions.OverwriteTx(ctx, tx, propertyID, cell.RoomTypeID, date,
				snapshot.RatePlanCode, restrictionFromBefore(cell.Restriction)); err != nil {
				return nil, err
			}
		}
	}

	if err := u.events.MarkUndoneTx(ctx, tx, record.ID); err != nil {
		return nil, err
	}
	if err := u.audit.InsertTx(ctx, tx, propertyID, actor, "ari.bulk_undo", "ari_event", record.ID,
		map[string]any{"event_id": eventID}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	u.logger.Info("bulk ari update undone",
		zap.Uint64("property_id", propertyID),
		zap.String("event_id", eventID))
	return &BulkResult{
		Message:  fmt.Sprintf("reverted %d cells", len(snapshot.Cells)),
		EventID:  eventID,
		Warnings: warningsOrEmpty(warnings),
	}, nil
}

// undoInventoryCell restores a cell's counts and price.  Bookings taken
// since the bulk update are preserved: availability is restored relative
// to the current booked count, clamped at zero.
func (u *BulkUpdater) undoInventoryCell(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, before *invBefore) (string, error) {
	inv, err := u.inventory.GetForUpdateTx(ctx, tx, propertyID, roomTypeID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Sprintf("%s: inventory row vanished, skipping undo", date.Format(model.DateOnly)), nil
		}
		return "", err
	}

	restoredAvailable := before.Available - (inv.Booked - before.Booked)
	if before.Created {
		restoredAvailable = -inv.Booked // collapses to zero below
	}
	warn := ""
	if restoredAvailable < 0 {
		restoredAvailable = 0
		warn = fmt.Sprintf("%s: undo clamped availability to 0 due to later bookings", date.Format(model.DateOnly))
	}
	if err := u.inventory.UpdateCountsTx(ctx, tx, inv.ID, inv.Booked+restoredAvailable, inv.Booked, restoredAvailable); err != nil {
		return "", err
	}
	if err := u.inventory.UpdatePriceTx(ctx, tx, inv.ID, before.PriceCents); err != nil {
		return "", err
	}
	return warn, nil
}

func restrictionBefore(created bool, before *model.Restriction) *restrBefore {
	if created {
		return &restrBefore{Created: true}
	}
	if before == nil {
		return nil
	}
	return &restrBefore{
		MinLOS:            before.MinLOS,
		MaxLOS:            before.MaxLOS,
		ClosedToArrival:   before.ClosedToArrival,
		ClosedToDeparture: before.ClosedToDeparture,
		Closed:            before.Closed,
	}
}

func restrictionFromBefore(b *restrBefore) *model.Restriction {
	if b == nil || b.Created {
		return nil
	}
	return &model.Restriction{
		MinLOS:            b.MinLOS,
		MaxLOS:            b.MaxLOS,
		ClosedToArrival:   b.ClosedToArrival,
		ClosedToDeparture: b.ClosedToDeparture,
		Closed:            b.Closed,
	}
}

func filterDaysOfWeek(dates []time.Time, days []int) []time.Time {
	if len(days) == 0 {
		return dates
	}
	allowed := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		allowed[time.Weekday(d)] = true
	}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if allowed[d.Weekday()] {
			out = append(out, d)
		}
	}
	return out
}

func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func warningsOrEmpty(w []string) []string {
	if w == nil {
		return []string{}
	}
	return w
}
