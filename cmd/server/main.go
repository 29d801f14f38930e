package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ihacademy/academy-server/internal/config"
	"github.com/ihacademy/academy-server/internal/database"
	"github.com/ihacademy/academy-server/internal/handler"
	"github.com/ihacademy/academy-server/internal/metrics"
	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/payment"
	"github.com/ihacademy/academy-server/internal/queue"
	"github.com/ihacademy/academy-server/internal/repository"
	"github.com/ihacademy/academy-server/internal/router"
	"github.com/ihacademy/academy-server/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	rdb := config.NewRedisClient()
	metrics.Register()

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	orgRepo := repository.NewOrganizationRepo(db)
	sportRepo := repository.NewSportRepo(db)
	coachRepo := repository.NewCoachRepo(db)
	classRepo := repository.NewClassRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	attendanceRepo := repository.NewAttendanceRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	membershipRepo := repository.NewMembershipRepo(db)
	statsRepo := repository.NewStatsRepo(db)

	gateway := &payment.PayFast{
		MerchantID:  cfg.PayFastMerchantID,
		MerchantKey: cfg.PayFastMerchantKey,
		Passphrase:  cfg.PayFastPassphrase,
		Sandbox:     cfg.PayFastSandbox,
	}

	publisher := &service.QueuePublisher{Logger: logger}
	bookingSvc := service.NewBookingService(bookingRepo, classRepo, orgRepo, publisher, logger)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, bookingRepo, logger)

	authH := handler.NewAuthHandler(cfg, userRepo, orgRepo, tokenRepo)
	orgH := handler.NewOrganizationHandler(cfg, orgRepo)
	sportH := handler.NewSportHandler(sportRepo)
	coachH := handler.NewCoachHandler(coachRepo, orgRepo)
	classH := handler.NewClassHandler(classRepo, coachRepo, orgRepo)
	bookingH := handler.NewBookingHandler(cfg, bookingSvc, bookingRepo, classRepo, orgRepo, paymentRepo, gateway)
	attendanceH := handler.NewAttendanceHandler(attendanceSvc, classRepo, orgRepo)
	membershipH := handler.NewMembershipHandler(membershipRepo, orgRepo)
	webhookH := handler.NewWebhookHandler(bookingSvc, gateway, logger)
	statsH := handler.NewStatsHandler(statsRepo, orgRepo)
	userH := handler.NewUserHandler(cfg, userRepo)

	go queue.StartBookingConsumer(logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterWebhooks(e, webhookH)
	router.RegisterPublic(e, router.PublicHandlers{
		Orgs:     orgH,
		Sports:   sportH,
		Coaches:  coachH,
		Classes:  classH,
		Bookings: bookingH,
	}, cache)
	router.RegisterMember(e, orgH, membershipH, userH, cfg.JWTSecret)
	router.RegisterStaff(e, router.StaffHandlers{
		Orgs:        orgH,
		Sports:      sportH,
		Coaches:     coachH,
		Classes:     classH,
		Bookings:    bookingH,
		Attendance:  attendanceH,
		Memberships: membershipH,
		Stats:       statsH,
		Users:       userH,
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
