package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"culturin/internal/config"
	"culturin/internal/database"
	"culturin/internal/logger"
	"culturin/internal/middleware"
	"culturin/internal/modules/booking"
	"culturin/internal/modules/catalog"
	"culturin/internal/modules/navigation"
	"culturin/internal/modules/notification"
	"culturin/internal/modules/payment"
	"culturin/internal/modules/site"
	jwtsvc "culturin/internal/pkg/jwt"
	"culturin/internal/pkg/kvstore"
	"culturin/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("db migrate failed", zap.Error(err))
	}

	store := newKeyedStore(ctx, cfg, zl)

	experienceRepo := repository.NewExperienceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	attemptRepo := repository.NewPaymentAttemptRepository(db)

	gateway, err := payment.NewGateway(payment.Config{
		Provider:        cfg.PaymentProvider,
		Delay:           cfg.PaymentDelay,
		Timeout:         cfg.PaymentTimeout,
		MaxRetries:      cfg.PaymentMaxRetries,
		StripeSecretKey: cfg.StripeSecretKey,
	}, attemptRepo, zl.Named("payment"))
	if err != nil {
		zl.Fatal("payment gateway", zap.Error(err))
	}

	j := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)
	operatorAuth := middleware.OperatorAuth(j)
	hub := notification.NewHub(zl.Named("hub"))

	catalogService := catalog.NewService(experienceRepo, cfg.Currency)
	catalogHandler := catalog.NewHandler(catalogService)

	bookingService := booking.NewService(catalogService, bookingRepo, gateway, hub, booking.Config{
		FeeRate:  cfg.BookingFeeRate,
		Currency: cfg.Currency,
		IdleTTL:  cfg.SessionIdleTTL,
	}, zl.Named("booking"))
	bookingHandler := booking.NewHandler(bookingService, hub, cfg.SiteBaseURL)
	go bookingService.RunSweeper(ctx, time.Minute)

	siteService := site.NewService(store, zl.Named("site"))
	defer siteService.Close()
	siteHandler := site.NewHandler(siteService)

	navHandler := navigation.NewHandler(navigation.Default())

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(zl),
		middleware.ErrorLogger(zl),
		middleware.CORS(cfg.CORSOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	navHandler.RegisterRedirect(r)
	bookingHandler.RegisterPages(r)

	v1 := r.Group("/api/v1")
	{
		navHandler.RegisterRoutes(v1)
		catalogHandler.RegisterRoutes(v1, operatorAuth)
		bookingHandler.RegisterRoutes(v1)
		siteHandler.RegisterRoutes(v1, operatorAuth)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

func newKeyedStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) kvstore.Store {
	if cfg.RedisURL == "" {
		zl.Info("keyed store: memory")
		return kvstore.NewMemoryStore()
	}

	client, err := kvstore.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		zl.Fatal("redis connect failed", zap.Error(err))
	}
	rs := kvstore.NewRedisStore(client, zl.Named("kvstore"))
	go rs.Listen(ctx)
	zl.Info("keyed store: redis")
	return rs
}
