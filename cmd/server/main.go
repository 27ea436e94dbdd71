package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lodgecore/pms/internal/ari"
	"github.com/lodgecore/pms/internal/booking"
	"github.com/lodgecore/pms/internal/config"
	"github.com/lodgecore/pms/internal/database"
	"github.com/lodgecore/pms/internal/handler"
	"github.com/lodgecore/pms/internal/idempotency"
	"github.com/lodgecore/pms/internal/middleware"
	"github.com/lodgecore/pms/internal/queue"
	"github.com/lodgecore/pms/internal/quote"
	"github.com/lodgecore/pms/internal/repository"
	"github.com/lodgecore/pms/internal/router"
	queuepublisher "github.com/lodgecore/pms/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting disabled")
	}

	// repositories
	properties := repository.NewPropertyRepo(db)
	roomTypes := repository.NewRoomTypeRepo(db)
	ratePlans := repository.NewRatePlanRepo(db)
	inventory := repository.NewInventoryRepo(db, logger)
	restrictions := repository.NewRestrictionRepo(db)
	guests := repository.NewGuestRepo(db)
	reservations := repository.NewReservationRepo(db)
	ariEvents := repository.NewAriEventRepo(db)
	audit := repository.NewAuditRepo(db)
	idemRepo := repository.NewIdempotencyRepo(db)

	// engines
	signer := quote.NewSigner([]byte(cfg.QuoteSecret), nil)
	quoteCache := quote.NewCache(int64(cfg.QuoteCacheSize), cfg.QuoteTTL, nil)
	quoteEngine := quote.NewEngine(roomTypes, ratePlans, inventory, signer, quoteCache, nil, logger)

	publisher := queuepublisher.New(logger)
	bookingEngine := booking.NewEngine(db, roomTypes, ratePlans, inventory, restrictions,
		guests, reservations, audit, signer, publisher, logger)
	processor := ari.NewProcessor(db, roomTypes, inventory, restrictions, ariEvents, audit, publisher, logger)
	bulkUpdater := ari.NewBulkUpdater(db, roomTypes, inventory, restrictions, ariEvents, audit, logger)
	guard := idempotency.NewGuard(idemRepo, logger)

	// background consumer appends confirmed bookings and applied ARI
	// events to the operations log
	go func() {
		if err := queue.StartOperationsConsumer(logger, queue.BookingConfirmedQueue, queue.AriAppliedQueue); err != nil {
			logger.Warn("operations consumer stopped", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e, router.Handlers{
		Quotes:       handler.NewQuoteHandler(quoteEngine),
		Bookings:     handler.NewBookingHandler(bookingEngine, guard, reservations),
		Ari:          handler.NewAriHandler(processor, bulkUpdater),
		Admin:        handler.NewAdminHandler(properties, roomTypes, ratePlans),
		Availability: handler.NewAvailabilityHandler(roomTypes, inventory),
	}, rl)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	return logger
}
