package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/queue"
	"github.com/lodgecore/pms/internal/quote"
	"github.com/lodgecore/pms/internal/repository"
)

// GuestInfo identifies the primary guest on a booking request.
type GuestInfo struct {
	FirstName string
	LastName  string
	Email     string
}

// Request carries everything needed to redeem a quote into a
// reservation.
type Request struct {
	QuoteID          string
	PricingSignature string
	CheckIn          time.Time
	CheckOut         time.Time
	Adults           int
	Children         int
	RoomTypeCode     string
	RatePlanCode     string
	Guest            GuestInfo
}

// Publisher emits domain events after a successful commit.  Publishing
// is best-effort; a broker outage never fails a booking.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// Engine is the booking-commitment engine.  A booking validates the
// quote signature, enforces stay restrictions night by night, decrements
// inventory and inserts the reservation, all inside one transaction, so
// two concurrent requests for the last room cannot both succeed.
type Engine struct {
	db           *sql.DB
	roomTypes    *repository.RoomTypeRepo
	ratePlans    *repository.RatePlanRepo
	inventory    *repository.InventoryRepo
	restrictions *repository.RestrictionRepo
	guests       *repository.GuestRepo
	reservations *repository.ReservationRepo
	audit        *repository.AuditRepo
	signer       *quote.Signer
	publisher    Publisher
	logger       *zap.Logger
}

// NewEngine constructs a booking engine.  publisher may be nil.
func NewEngine(db *sql.DB, roomTypes *repository.RoomTypeRepo, ratePlans *repository.RatePlanRepo,
	inventory *repository.InventoryRepo, restrictions *repository.RestrictionRepo,
	guests *repository.GuestRepo, reservations *repository.ReservationRepo,
	audit *repository.AuditRepo, signer *quote.Signer, publisher Publisher, logger *zap.Logger) *Engine {
	return &Engine{
		db:           db,
		roomTypes:    roomTypes,
		ratePlans:    ratePlans,
		inventory:    inventory,
		restrictions: restrictions,
		guests:       guests,
		reservations: reservations,
		audit:        audit,
		signer:       signer,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateBooking converts a quote into a CONFIRMED reservation for the
// given property and channel.  Domain rejections come back as *Error;
// any other error is a storage failure and the transaction is fully
// rolled back.
func (e *Engine) CreateBooking(ctx context.Context, propertyID uint64, channel string, req Request) (*model.Reservation, error) {
	if !req.CheckOut.After(req.CheckIn) {
		return nil, reject(CodeValidation, "check-out must be after check-in")
	}
	if req.Guest.Email == "" {
		return nil, reject(CodeValidation, "primary guest email is required")
	}

	totalCents, err := e.signer.Verify(req.PricingSignature, quote.Binding{
		QuoteID:      req.QuoteID,
		PropertyID:   propertyID,
		RoomTypeCode: req.RoomTypeCode,
		RatePlanCode: req.RatePlanCode,
		CheckIn:      req.CheckIn.Format(model.DateOnly),
		CheckOut:     req.CheckOut.Format(model.DateOnly),
	})
	if err != nil {
		switch {
		case errors.Is(err, quote.ErrQuoteExpired):
			return nil, reject(CodeQuoteInvalid, "quote has expired, request a new one")
		case errors.Is(err, quote.ErrQuoteMismatch):
			return nil, reject(CodeQuoteInvalid, "quote does not match the booking request")
		default:
			return nil, reject(CodeQuoteInvalid, "pricing signature is invalid")
		}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	roomType, err := e.roomTypes.GetByCodeTx(ctx, tx, propertyID, req.RoomTypeCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, reject(CodeRoomTypeNotFound, "room type %q not found", req.RoomTypeCode)
		}
		return nil, err
	}
	plan, err := e.ratePlans.GetByCodeTx(ctx, tx, propertyID, req.RatePlanCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, reject(CodeValidation, "rate plan %q not found", req.RatePlanCode)
		}
		return nil, err
	}

	if err := e.enforceRestrictions(ctx, tx, propertyID, roomType.ID, req); err != nil {
		return nil, err
	}

	for _, night := range model.NightsOf(req.CheckIn, req.CheckOut) {
		reserved, err := e.inventory.ReserveNightTx(ctx, tx, propertyID, roomType.ID, night)
		if err != nil {
			return nil, err
		}
		if !reserved {
			return nil, reject(CodeNoAvailability, "no availability on %s", night.Format(model.DateOnly))
		}
	}

	guest, err := e.guests.FindOrCreateTx(ctx, tx, propertyID, req.Guest.FirstName, req.Guest.LastName, req.Guest.Email)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		PropertyID:   propertyID,
		Status:       model.ReservationConfirmed,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		RoomTypeID:   roomType.ID,
		GuestID:      guest.ID,
		Adults:       req.Adults,
		Children:     req.Children,
		RatePlanCode: req.RatePlanCode,
		TotalCents:   totalCents,
		Currency:     plan.Currency,
		Channel:      channel,
	}
	if err := e.insertWithFreshPNR(ctx, tx, reservation); err != nil {
		return nil, err
	}
	if err := e.audit.InsertTx(ctx, tx, propertyID, channel, "booking.create", "reservation", reservation.ID,
		map[string]any{"pnr": reservation.PNR, "room_type": req.RoomTypeCode}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.logger.Info("booking confirmed",
		zap.Uint64("property_id", propertyID),
		zap.String("pnr", reservation.PNR),
		zap.String("room_type", req.RoomTypeCode),
		zap.Int64("total_cents", totalCents))
	e.publishConfirmed(ctx, reservation, roomType.Code)
	return reservation, nil
}

// enforceRestrictions applies the stay restrictions for every night of
// the stay in fixed priority order: closed dates first, then arrival and
// departure closures, then length-of-stay bounds.  The first violation
// wins.
func (e *Engine) enforceRestrictions(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, req Request) error {
	rows, err := e.restrictions.ListForStayTx(ctx, tx, propertyID, roomTypeID, req.CheckIn, req.CheckOut, req.RatePlanCode)
	if err != nil {
		return err
	}
	stayLen := model.Nights(req.CheckIn, req.CheckOut)

	isNight := func(r model.Restriction) bool { return r.StayDate.Before(req.CheckOut) }

	for _, r := range rows {
		if isNight(r) && r.Closed != nil && *r.Closed {
			return reject(CodeClosed, "date %s is closed for sale", r.StayDate.Format(model.DateOnly))
		}
	}
	for _, r := range rows {
		if r.StayDate.Equal(req.CheckIn) && r.ClosedToArrival != nil && *r.ClosedToArrival {
			return reject(CodeClosedToArrival, "arrivals are closed on %s", r.StayDate.Format(model.DateOnly))
		}
	}
	for _, r := range rows {
		if r.StayDate.Equal(req.CheckOut) && r.ClosedToDeparture != nil && *r.ClosedToDeparture {
			return reject(CodeClosedToDeparture, "departures are closed on %s", r.StayDate.Format(model.DateOnly))
		}
	}
	for _, r := range rows {
		if isNight(r) && r.MinLOS != nil && stayLen < *r.MinLOS {
			return reject(CodeMinLOS, "stay of %d nights is below the minimum of %d for %s",
				stayLen, *r.MinLOS, r.StayDate.Format(model.DateOnly))
		}
	}
	for _, r := range rows {
		if isNight(r) && r.MaxLOS != nil && stayLen > *r.MaxLOS {
			return reject(CodeMaxLOS, "stay of %d nights exceeds the maximum of %d for %s",
				stayLen, *r.MaxLOS, r.StayDate.Format(model.DateOnly))
		}
	}
	return nil
}

// insertWithFreshPNR inserts the reservation, regenerating the locator
// on the rare per-property collision.
func (e *Engine) insertWithFreshPNR(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	for attempt := 0; attempt < 3; attempt++ {
		pnr, err := GeneratePNR()
		if err != nil {
			return err
		}
		res.PNR = pnr
		err = e.reservations.CreateTx(ctx, tx, res)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return errors.New("could not allocate a unique pnr")
}

// Cancel moves a reservation to CANCELLED and returns its inventory.
// Cancelling twice or cancelling a checked-out stay is rejected.
func (e *Engine) Cancel(ctx context.Context, propertyID, reservationID uint64, actor string) (*model.Reservation, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := e.reservations.GetByIDForUpdateTx(ctx, tx, propertyID, reservationID)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case model.ReservationCancelled:
		return nil, reject(CodeAlreadyCancelled, "reservation %s is already cancelled", res.PNR)
	case model.ReservationCheckedOut:
		return nil, reject(CodeCannotCancel, "reservation %s is already checked out", res.PNR)
	}

	for _, night := range model.NightsOf(res.CheckIn, res.CheckOut) {
		if err := e.inventory.ReleaseNightTx(ctx, tx, propertyID, res.RoomTypeID, night); err != nil {
			return nil, err
		}
	}
	if err := e.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationCancelled); err != nil {
		return nil, err
	}
	if err := e.audit.InsertTx(ctx, tx, propertyID, actor, "booking.cancel", "reservation", res.ID,
		map[string]any{"pnr": res.PNR}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	res.Status = model.ReservationCancelled
	e.logger.Info("booking cancelled",
		zap.Uint64("property_id", propertyID),
		zap.String("pnr", res.PNR))
	return res, nil
}

func (e *Engine) publishConfirmed(ctx context.Context, res *model.Reservation, roomTypeCode string) {
	if e.publisher == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		ReservationID: res.ID,
		PropertyID:    res.PropertyID,
		PNR:           res.PNR,
		RoomTypeCode:  roomTypeCode,
		RatePlanCode:  res.RatePlanCode,
		CheckIn:       res.CheckIn.Format(model.DateOnly),
		CheckOut:      res.CheckOut.Format(model.DateOnly),
		TotalCents:    res.TotalCents,
		Currency:      res.Currency,
		Channel:       res.Channel,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := e.publisher.PublishBookingConfirmed(ctx, ev); err != nil {
		e.logger.Warn("publish booking.confirmed failed", zap.Error(err))
	}
}
