package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"schoolku_backend/internals/configs"
	database "schoolku_backend/internals/databases"
	attendanceService "schoolku_backend/internals/features/school/attendance/service"
	scheduler "schoolku_backend/internals/features/users/auth/scheduler"
	authService "schoolku_backend/internals/features/users/auth/service"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
	middlewares "schoolku_backend/internals/middlewares"
	"schoolku_backend/internals/middlewares/metrics"
	routes "schoolku_backend/internals/route"
	"schoolku_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()
	cfg := configs.Load()

	log := configs.NewLogger(cfg.AppEnv)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	fiberCfg := fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          helper.FiberErrorHandler,
	}
	middlewares.TrustProxies(&fiberCfg, cfg.TrustedProxies)
	app := fiber.New(fiberCfg)

	metrics.MustRegister()
	middlewares.SetupMiddlewares(app, cfg, log)

	// DB connect + pool + warm-up
	database.ConnectDB(log)
	database.TunePool(log)
	database.WarmUpQueries(log)

	if cfg.AutoMigrate {
		if err := database.AutoMigrate(database.DB); err != nil {
			log.Fatal("auto migrate failed", zap.Error(err))
		}
	}
	seeds.RunAllSeeds(database.DB, cfg.SeedSchoolsFile, log)

	var rateStore authService.RateLimitStore = authService.NewGormRateLimitStore(database.DB)
	rdb := database.ConnectRedis(cfg.RedisURL, log)
	if rdb != nil {
		rateStore = authService.NewRedisRateLimitStore(rdb)
	}

	cal, err := dbtime.NewCalendar(cfg.Timezone, nil)
	if err != nil {
		log.Fatal("invalid APP_TIMEZONE", zap.String("tz", cfg.Timezone), zap.Error(err))
	}

	security := authService.NewOTPSecurityService(database.DB, rateStore, authService.OTPSecurityConfig{
		MaxAttempts:     cfg.OTPMaxAttempts,
		RateLimitMax:    cfg.OTPRateLimitMax,
		RateLimitWindow: cfg.OTPRateLimitWindow,
	}, nil)
	tokens := authService.NewTokenService(database.DB, cfg.JWTSecret, cfg.JWTTTL, nil)
	devices := authService.NewDeviceService(database.DB, cfg.DeviceTokenSecret, cfg.DeviceTTL, nil)

	logSender := authService.LogSender{Log: log, Production: cfg.IsProduction()}
	var sender authService.OTPSender = logSender
	if cfg.SMSAPIKey != "" {
		sender = authService.NewFast2SMSSender(cfg.SMSAPIKey, cfg.SMSSenderID, cfg.OTPTTL, logSender, log)
	}

	var google authService.GoogleVerifier
	if cfg.GoogleClientID != "" {
		google = authService.NewGoogleVerifier(cfg.GoogleClientID)
	}

	auth := authService.NewAuthService(authService.AuthDeps{
		DB:       database.DB,
		Security: security,
		Tokens:   tokens,
		Devices:  devices,
		Sender:   sender,
		Google:   google,
		Log:      log,
	}, authService.AuthConfig{
		OTPLength:  cfg.OTPLength,
		OTPTTL:     cfg.OTPTTL,
		BcryptCost: cfg.BcryptCost,
	})
	attendance := attendanceService.NewAttendanceService(database.DB, cal, log)

	// scheduler after DB is ready
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	if _, err := scheduler.StartAuthCleanupScheduler(rootCtx, cfg.CleanupCron, scheduler.CleanupDeps{
		Security: security,
		Devices:  devices,
		Tokens:   tokens,
		Log:      log,
	}); err != nil {
		log.Error("cleanup scheduler not started", zap.String("spec", cfg.CleanupCron), zap.Error(err))
	}

	routes.SetupRoutes(app, routes.Deps{
		DB:         database.DB,
		JWTSecret:  cfg.JWTSecret,
		Env:        cfg.AppEnv,
		Auth:       auth,
		Attendance: attendance,
		Log:        log,
	})

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown + close pools
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
