package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	adapterhttp "rentfi-backend/internal/adapter/http"
	appmw "rentfi-backend/internal/adapter/middleware"
	"rentfi-backend/internal/adapter/repository/mysql"
	"rentfi-backend/internal/config"
	"rentfi-backend/internal/gateway"
	"rentfi-backend/internal/infrastructure/cache"
	"rentfi-backend/internal/infrastructure/db"
	"rentfi-backend/internal/observability"
	collateraluc "rentfi-backend/internal/usecase/collateral"
	marketuc "rentfi-backend/internal/usecase/marketplace"
	settlementuc "rentfi-backend/internal/usecase/settlement"
)

func main() {
	_ = godotenv.Load()

	log := observability.NewLogger("api")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("mysql connect failed")
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}

	contracts := mysql.NewContractRepository(gdb)
	collateralRepo := mysql.NewCollateralRepository(gdb)
	listings := mysql.NewListingRepository(gdb)
	intents := mysql.NewIntentRepository(gdb)
	uow := mysql.NewGormUoW(gdb)

	settings := cache.NewRedisSettings(rdb, time.Duration(cfg.SettingsTTLSecs)*time.Second)
	ledger := gateway.NewLedgerClient(cfg.LedgerBaseURL, nil)
	payments := gateway.NewPaymentClient(cfg.PaymentBaseURL, cfg.PaymentAPIKey, nil)

	collateralUC := collateraluc.NewUsecase(collateralRepo, uow, settings, observability.NewLogger("collateral"))
	marketUC := marketuc.NewUsecase(listings, intents, contracts, ledger, uow, observability.NewLogger("marketplace"))
	settlementUC := settlementuc.NewUsecase(uow, intents, listings, contracts, payments, ledger, collateralUC, observability.NewLogger("settlement"))

	worker := settlementuc.NewWorker(settlementUC, cfg.SettleQueueSize, observability.NewLogger("settle-worker"))

	e := echo.New()
	e.HideBanner = true
	e.Validator = adapterhttp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	idemp := appmw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	healthH := adapterhttp.NewHandler()
	contractH := adapterhttp.NewContractHandler(marketUC)
	listingH := adapterhttp.NewListingHandler(marketUC)
	settlementH := adapterhttp.NewSettlementHandler(settlementUC, worker, settings)
	collateralH := adapterhttp.NewCollateralHandler(collateralUC)
	pricingH := adapterhttp.NewPricingHandler(settings)

	e.GET("/health", healthH.Health)

	e.POST("/contracts", contractH.Onboard, idemp)
	e.GET("/contracts/:contract_id", contractH.Get)
	e.POST("/pricing/quote", pricingH.QuoteRent)

	e.POST("/listings", listingH.CreateListing, idemp)
	e.POST("/listings/:listing_id/cancel", listingH.CancelListing, idemp)
	e.GET("/listings", listingH.ListActive)
	e.GET("/marketplace/stats", listingH.Stats)

	e.POST("/listings/:listing_id/intents", settlementH.CreateIntent, idemp)
	// The gateway signs and retries on its own schedule; replay safety lives
	// in the intent state machine, not the idempotency middleware.
	e.POST("/webhooks/payment", settlementH.PaymentWebhook)
	e.POST("/admin/settlements/reprocess", settlementH.Reprocess, idemp)
	e.POST("/admin/contracts/terminate", settlementH.Terminate, idemp)

	e.POST("/properties", collateralH.RegisterProperty, idemp)
	e.POST("/pledges", collateralH.CreatePledge, idemp)
	e.POST("/pledges/:pledge_id/release", collateralH.ReleasePledge, idemp)
	e.GET("/guarantors/:owner_id/summary", collateralH.GuarantorSummary)
	e.GET("/guarantors/match", collateralH.MatchGuarantors)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("settlement worker stopped")
		}
	}()

	go func() {
		if err := e.Start(":" + cfg.AppPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	<-workerDone
	log.Info().Msg("stopped")
}
