package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"go.uber.org/zap"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/middlewares/logger"
	"schoolku_backend/internals/middlewares/metrics"
)

// SetupMiddlewares installs the app-wide chain in order.
func SetupMiddlewares(app *fiber.App, cfg configs.AppConfig, log *zap.Logger) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestIDMiddleware(10 * time.Second))
	app.Use(metrics.Middleware())
	app.Use(logger.LoggerMiddleware(log))
	app.Use(CorsMiddleware(cfg.CORSOrigins))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	app.Use(GlobalRateLimiter())
}
