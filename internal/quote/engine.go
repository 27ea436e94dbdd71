package quote

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/repository"
)

// Validation failures for stay parameters.  "No availability" is not an
// error: it yields an empty quote list.
var (
	ErrInvalidStay      = errors.New("check-out must be after check-in")
	ErrInvalidOccupancy = errors.New("at least one adult is required")
)

// Request is a stay pricing request.
type Request struct {
	PropertyID    uint64
	CheckIn       time.Time
	CheckOut      time.Time
	Adults        int
	Children      int
	RoomTypeCodes []string
	RatePlanCode  string
}

// Result carries the produced quotes and whether they were served from
// the cache without touching storage.
type Result struct {
	Quotes []model.Quote
	Cached bool
}

// Engine prices stays against the inventory store.  Offers are one per
// eligible (room type, rate plan) combination; a room type with an
// incomplete inventory calendar or a sold-out night is not offerable.
type Engine struct {
	roomTypes *repository.RoomTypeRepo
	ratePlans *repository.RatePlanRepo
	inventory *repository.InventoryRepo
	signer    *Signer
	cache     *Cache
	now       func() time.Time
	logger    *zap.Logger
}

// NewEngine constructs a quote engine.  A nil clock defaults to time.Now.
func NewEngine(roomTypes *repository.RoomTypeRepo, ratePlans *repository.RatePlanRepo,
	inventory *repository.InventoryRepo, signer *Signer, cache *Cache,
	now func() time.Time, logger *zap.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		roomTypes: roomTypes,
		ratePlans: ratePlans,
		inventory: inventory,
		signer:    signer,
		cache:     cache,
		now:       now,
		logger:    logger,
	}
}

// GenerateQuotes produces signed quotes for a stay request.  Identical
// requests within the cache TTL are served from the cache; the optional
// rate-plan filter is applied after retrieval so it does not fragment
// the cache key space.
func (e *Engine) GenerateQuotes(ctx context.Context, req Request) (*Result, error) {
	if !req.CheckOut.After(req.CheckIn) {
		return nil, ErrInvalidStay
	}
	if req.Adults < 1 {
		return nil, ErrInvalidOccupancy
	}

	key := CacheKey(req.PropertyID, req.CheckIn, req.CheckOut, req.Adults, req.Children, req.RoomTypeCodes)
	if quotes, ok := e.cache.Get(key); ok {
		return &Result{Quotes: filterByPlan(quotes, req.RatePlanCode), Cached: true}, nil
	}

	quotes, err := e.price(ctx, req)
	if err != nil {
		return nil, err
	}
	e.cache.Put(key, quotes)
	return &Result{Quotes: filterByPlan(quotes, req.RatePlanCode), Cached: false}, nil
}

func (e *Engine) price(ctx context.Context, req Request) ([]model.Quote, error) {
	candidates, err := e.candidateRoomTypes(ctx, req)
	if err != nil {
		return nil, err
	}
	plans, err := e.ratePlans.ListByProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	nights := model.Nights(req.CheckIn, req.CheckOut)
	validUntil := e.now().UTC().Add(e.cache.TTL())
	quotes := make([]model.Quote, 0)

	for _, rt := range candidates {
		if !rt.Fits(req.Adults, req.Children) {
			continue
		}
		inv, err := e.inventory.ListForStay(ctx, req.PropertyID, rt.ID, req.CheckIn, req.CheckOut)
		if err != nil {
			return nil, err
		}
		// incomplete inventory calendar means the stay is not offerable
		if len(inv) != nights {
			continue
		}
		soldOut := false
		for _, night := range inv {
			if night.Available <= 0 {
				soldOut = true
				break
			}
		}
		if soldOut {
			continue
		}

		for _, plan := range plans {
			q, err := e.buildQuote(req, &rt, &plan, inv, validUntil)
			if err != nil {
				return nil, err
			}
			quotes = append(quotes, *q)
		}
	}

	e.logger.Debug("quotes generated",
		zap.Uint64("property_id", req.PropertyID),
		zap.Int("count", len(quotes)))
	return quotes, nil
}

func (e *Engine) candidateRoomTypes(ctx context.Context, req Request) ([]model.RoomType, error) {
	all, err := e.roomTypes.ListByProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if len(req.RoomTypeCodes) == 0 {
		return all, nil
	}
	wanted := make(map[string]bool, len(req.RoomTypeCodes))
	for _, code := range req.RoomTypeCodes {
		wanted[code] = true
	}
	out := make([]model.RoomType, 0, len(all))
	for _, rt := range all {
		if wanted[rt.Code] {
			out = append(out, rt)
		}
	}
	return out, nil
}

// buildQuote prices one (room type, rate plan) combination.  Derived
// plans adjust the stored base price per night; occupancy surcharges are
// applied per night on top.
func (e *Engine) buildQuote(req Request, rt *model.RoomType, plan *model.RatePlan, inv []model.Inventory, validUntil time.Time) (*model.Quote, error) {
	var total int64
	nights := make([]model.NightlyPrice, 0, len(inv))
	for _, night := range inv {
		price := plan.NightlyPrice(night.PriceCents, req.Adults, req.Children)
		total += price
		nights = append(nights, model.NightlyPrice{
			Date:       night.StayDate.Format(model.DateOnly),
			PriceCents: price,
		})
	}

	quoteID := uuid.NewString()
	sig, err := e.signer.Sign(Binding{
		QuoteID:      quoteID,
		PropertyID:   req.PropertyID,
		RoomTypeCode: rt.Code,
		RatePlanCode: plan.Code,
		CheckIn:      req.CheckIn.Format(model.DateOnly),
		CheckOut:     req.CheckOut.Format(model.DateOnly),
		TotalCents:   total,
		Currency:     plan.Currency,
	}, validUntil)
	if err != nil {
		return nil, err
	}

	return &model.Quote{
		QuoteID:          quoteID,
		PricingSignature: sig,
		RoomTypeCode:     rt.Code,
		RoomTypeName:     rt.Name,
		RatePlanCode:     plan.Code,
		Currency:         plan.Currency,
		TotalCents:       total,
		Nights:           nights,
		CancellationTerm: "FREE_UNTIL_CHECKIN",
		ValidUntil:       validUntil,
	}, nil
}

func filterByPlan(quotes []model.Quote, ratePlanCode string) []model.Quote {
	if ratePlanCode == "" {
		return quotes
	}
	out := make([]model.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.RatePlanCode == ratePlanCode {
			out = append(out, q)
		}
	}
	return out
}
