// Package ari ingests availability, rate and restriction updates from
// distribution channels and applies them to the inventory and
// restriction stores with deduplication and a full audit trail.
package ari

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/queue"
	"github.com/lodgecore/pms/internal/repository"
)

// Publisher emits ari.applied events after a successful commit.
// Publishing is best-effort; a broker outage never fails an update.
type Publisher interface {
	PublishAriApplied(ctx context.Context, ev queue.AriAppliedEvent) error
}

// Validation failures surfaced by the processor and bulk updater.
var (
	ErrInvalidRange     = errors.New("date range is invalid")
	ErrRangeTooLarge    = errors.New("date range exceeds 180 days")
	ErrNoFields         = errors.New("no updatable fields provided")
	ErrNoRoomTypes      = errors.New("at least one room type is required")
	ErrRoomTypeNotFound = errors.New("room type not found")
	ErrAlreadyUndone    = errors.New("bulk event already undone")
	ErrNotUndoable      = errors.New("event is not an undoable bulk update")
)

// maxRangeDays bounds a single logical update.
const maxRangeDays = 180

// Event is an inbound ARI update after transport binding.  Exactly one
// of the payload groups is meaningful depending on EventType.
type Event struct {
	EventID      string
	EventType    string
	UpdateType   string
	RoomTypeCode string
	RatePlanCode string
	DateFrom     time.Time
	DateTo       time.Time
	Channel      string

	// AVAILABILITY payload
	Available *int
	Delta     *int

	// RATE payload: either one base rate for the whole range or explicit
	// per-date prices keyed by YYYY-MM-DD.
	BaseRateCents  *int64
	DailyRateCents map[string]int64

	// RESTRICTION payload
	Restrictions model.RestrictionPatch

	OccurredAt time.Time
	Payload    []byte
}

// Result is the terminal outcome of processing one event.
type Result struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	EventID string `json:"event_id"`
	Message string `json:"message,omitempty"`
}

// Processor runs the per-event state machine:
// RECEIVED -> DEDUPED | ERROR | APPLIED.  Application and the audit row
// share one transaction; the unique event_id key settles races between
// concurrent replays of the same event.
type Processor struct {
	db           *sql.DB
	roomTypes    *repository.RoomTypeRepo
	inventory    *repository.InventoryRepo
	restrictions *repository.RestrictionRepo
	events       *repository.AriEventRepo
	audit        *repository.AuditRepo
	publisher    Publisher
	logger       *zap.Logger
}

// NewProcessor constructs an ARI event processor.  publisher may be nil.
func NewProcessor(db *sql.DB, roomTypes *repository.RoomTypeRepo, inventory *repository.InventoryRepo,
	restrictions *repository.RestrictionRepo, events *repository.AriEventRepo,
	audit *repository.AuditRepo, publisher Publisher, logger *zap.Logger) *Processor {
	return &Processor{
		db:           db,
		roomTypes:    roomTypes,
		inventory:    inventory,
		restrictions: restrictions,
		events:       events,
		audit:        audit,
		publisher:    publisher,
		logger:       logger,
	}
}

// ProcessEvent validates and applies one inbound event.  Replays of an
// already-recorded eventId return DEDUPED without touching inventory.
// Validation failures are recorded as terminal ERROR events; only
// storage failures return a non-nil error.
func (p *Processor) ProcessEvent(ctx context.Context, propertyID uint64, ev Event) (*Result, error) {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	exists, err := p.events.Exists(ctx, propertyID, ev.EventID)
	if err != nil {
		return nil, err
	}
	if exists {
		return &Result{Success: false, Status: model.AriStatusDeduped, EventID: ev.EventID,
			Message: "event already applied"}, nil
	}

	if msg := p.validate(ctx, propertyID, &ev); msg != "" {
		if err := p.recordError(ctx, propertyID, ev, msg); err != nil {
			return nil, err
		}
		return &Result{Success: false, Status: model.AriStatusError, EventID: ev.EventID, Message: msg}, nil
	}

	roomType, err := p.roomTypes.GetByCode(ctx, propertyID, ev.RoomTypeCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			msg := fmt.Sprintf("room type %q not found", ev.RoomTypeCode)
			if err := p.recordError(ctx, propertyID, ev, msg); err != nil {
				return nil, err
			}
			return &Result{Success: false, Status: model.AriStatusError, EventID: ev.EventID, Message: msg}, nil
		}
		return nil, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
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
	for _, date := range model.DatesInRange(ev.DateFrom, ev.DateTo) {
		var warn string
		switch ev.EventType {
		case model.AriAvailability:
			warn, err = p.applyAvailability(ctx, tx, propertyID, roomType.ID, date, ev)
		case model.AriRate:
			err = p.applyRate(ctx, tx, propertyID, roomType.ID, date, ev)
		case model.AriRestriction:
			_, _, err = p.restrictions.UpsertTx(ctx, tx, propertyID, roomType.ID, date, ev.RatePlanCode, ev.Restrictions)
		}
		if err != nil {
			return nil, err
		}
		if warn != "" {
			warnings = append(warnings, warn)
		}
	}

	record := &model.AriEvent{
		PropertyID:   propertyID,
		EventID:      ev.EventID,
		EventType:    ev.EventType,
		UpdateType:   ev.UpdateType,
		RoomTypeCode: ev.RoomTypeCode,
		RatePlanCode: ev.RatePlanCode,
		DateFrom:     ev.DateFrom,
		DateTo:       ev.DateTo,
		Payload:      payloadOrEmpty(ev.Payload),
		Status:       model.AriStatusApplied,
		Message:      strings.Join(warnings, "; "),
		OccurredAt:   ev.OccurredAt,
	}
	if err := p.events.InsertTx(ctx, tx, record); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// lost an ingestion race for the same eventId; the other
			// replay's application wins and ours rolls back
			return &Result{Success: false, Status: model.AriStatusDeduped, EventID: ev.EventID,
				Message: "event already applied"}, nil
		}
		return nil, err
	}
	if err := p.audit.InsertTx(ctx, tx, propertyID, ev.Channel, "ari."+strings.ToLower(ev.EventType),
		"ari_event", record.ID, map[string]any{"event_id": ev.EventID, "room_type": ev.RoomTypeCode}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	p.logger.Info("ari event applied",
		zap.Uint64("property_id", propertyID),
		zap.String("event_id", ev.EventID),
		zap.String("event_type", ev.EventType),
		zap.Strings("warnings", warnings))
	p.publishApplied(ctx, propertyID, ev)
	return &Result{Success: true, Status: model.AriStatusApplied, EventID: ev.EventID,
		Message: strings.Join(warnings, "; ")}, nil
}

func (p *Processor) publishApplied(ctx context.Context, propertyID uint64, ev Event) {
	if p.publisher == nil {
		return
	}
	out := queue.AriAppliedEvent{
		PropertyID:   propertyID,
		EventID:      ev.EventID,
		EventType:    ev.EventType,
		RoomTypeCode: ev.RoomTypeCode,
		DateFrom:     ev.DateFrom.Format(model.DateOnly),
		DateTo:       ev.DateTo.Format(model.DateOnly),
		AppliedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.publisher.PublishAriApplied(ctx, out); err != nil {
		p.logger.Warn("publish ari.applied failed", zap.Error(err))
	}
}

// validate returns a human-readable reason when the event cannot be
// applied, or "" when it is well-formed.
func (p *Processor) validate(_ context.Context, _ uint64, ev *Event) string {
	if ev.DateTo.Before(ev.DateFrom) {
		return "dateRange.to must not precede dateRange.from"
	}
	if len(model.DatesInRange(ev.DateFrom, ev.DateTo)) > maxRangeDays {
		return fmt.Sprintf("date range exceeds %d days", maxRangeDays)
	}
	switch ev.EventType {
	case model.AriAvailability:
		switch ev.UpdateType {
		case model.UpdateSet:
			if ev.Available == nil || *ev.Available < 0 {
				return "SET availability requires a non-negative available value"
			}
		case model.UpdateIncrement, model.UpdateDecrement:
			if ev.Delta == nil || *ev.Delta <= 0 {
				return "INCREMENT/DECREMENT requires a positive delta"
			}
		default:
			return fmt.Sprintf("unknown updateType %q", ev.UpdateType)
		}
	case model.AriRate:
		if ev.BaseRateCents == nil && len(ev.DailyRateCents) == 0 {
			return "RATE event requires baseRate or per-date rates"
		}
	case model.AriRestriction:
		if ev.Restrictions.IsEmpty() {
			return "RESTRICTION event carries no restriction fields"
		}
	default:
		return fmt.Sprintf("unknown eventType %q", ev.EventType)
	}
	return ""
}

// applyAvailability applies one night of an availability event.  SET
// replaces the sellable count (total follows booked + available);
// INCREMENT and DECREMENT move total and available together.  DECREMENT
// clamps at zero rather than oversell, reporting the clamp as a warning.
func (p *Processor) applyAvailability(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, ev Event) (string, error) {
	inv, err := p.inventory.GetForUpdateTx(ctx, tx, propertyID, roomTypeID, date)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	switch ev.UpdateType {
	case model.UpdateSet:
		v := *ev.Available
		if inv == nil {
			return "", p.inventory.InsertTx(ctx, tx, &model.Inventory{
				PropertyID: propertyID, RoomTypeID: roomTypeID, StayDate: date,
				Total: v, Booked: 0, Available: v,
			})
		}
		return "", p.inventory.UpdateCountsTx(ctx, tx, inv.ID, inv.Booked+v, inv.Booked, v)

	case model.UpdateIncrement:
		d := *ev.Delta
		if inv == nil {
			return "", p.inventory.InsertTx(ctx, tx, &model.Inventory{
				PropertyID: propertyID, RoomTypeID: roomTypeID, StayDate: date,
				Total: d, Booked: 0, Available: d,
			})
		}
		return "", p.inventory.UpdateCountsTx(ctx, tx, inv.ID, inv.Total+d, inv.Booked, inv.Available+d)

	case model.UpdateDecrement:
		d := *ev.Delta
		if inv == nil {
			return fmt.Sprintf("%s: no inventory to decrement", date.Format(model.DateOnly)), nil
		}
		effective := d
		if effective > inv.Available {
			effective = inv.Available
		}
		warn := ""
		if effective < d {
			warn = fmt.Sprintf("%s: decrement clamped from %d to %d", date.Format(model.DateOnly), d, effective)
		}
		return warn, p.inventory.UpdateCountsTx(ctx, tx, inv.ID, inv.Total-effective, inv.Booked, inv.Available-effective)
	}
	return "", fmt.Errorf("unknown updateType %q", ev.UpdateType)
}

// applyRate writes one night's price from either the explicit per-date
// map or the range-wide base rate.  A night without an inventory row is
// created lazily with zero capacity.
func (p *Processor) applyRate(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, ev Event) error {
	price, ok := ev.DailyRateCents[date.Format(model.DateOnly)]
	if !ok {
		if ev.BaseRateCents == nil {
			return nil
		}
		price = *ev.BaseRateCents
	}
	inv, err := p.inventory.GetForUpdateTx(ctx, tx, propertyID, roomTypeID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return p.inventory.InsertTx(ctx, tx, &model.Inventory{
				PropertyID: propertyID, RoomTypeID: roomTypeID, StayDate: date, PriceCents: price,
			})
		}
		return err
	}
	return p.inventory.UpdatePriceTx(ctx, tx, inv.ID, price)
}

// recordError appends a terminal ERROR event row so rejected updates
// stay visible in the audit trail.
func (p *Processor) recordError(ctx context.Context, propertyID uint64, ev Event, msg string) error {
	return p.events.Insert(ctx, &model.AriEvent{
		PropertyID:   propertyID,
		EventID:      ev.EventID,
		EventType:    ev.EventType,
		UpdateType:   ev.UpdateType,
		RoomTypeCode: ev.RoomTypeCode,
		RatePlanCode: ev.RatePlanCode,
		DateFrom:     ev.DateFrom,
		DateTo:       ev.DateTo,
		Payload:      payloadOrEmpty(ev.Payload),
		Status:       model.AriStatusError,
		Message:      msg,
		OccurredAt:   ev.OccurredAt,
	})
}

func payloadOrEmpty(b []byte) []byte {
	if len(b) == 0 {
		return []byte("{}")
	}
	return b
}
