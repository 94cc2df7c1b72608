package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"schoolku_backend/internals/features/users/auth/service"
)

type CleanupDeps struct {
	Security *service.OTPSecurityService
	Devices  *service.DeviceService
	Tokens   *service.TokenService
	Log      *zap.Logger
}

// RunCleanup deletes expired rate-limit windows, devices and blacklist rows.
// Each step is idempotent; a failing step does not stop the others.
func RunCleanup(ctx context.Context, d CleanupDeps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	if n, err := d.Security.CleanupExpiredRateLimits(ctx); err != nil {
		log.Error("cleanup rate limits failed", zap.Error(err))
	} else if n > 0 {
		log.Info("cleanup rate limits", zap.Int64("deleted", n))
	}

	if n, err := d.Devices.CleanupExpired(ctx); err != nil {
		log.Error("cleanup trusted devices failed", zap.Error(err))
	} else if n > 0 {
		log.Info("cleanup trusted devices", zap.Int64("deleted", n))
	}

	if n, err := d.Tokens.PurgeExpiredBlacklist(ctx); err != nil {
		log.Error("cleanup token blacklist failed", zap.Error(err))
	} else if n > 0 {
		log.Info("cleanup token blacklist", zap.Int64("deleted", n))
	}
}

// StartAuthCleanupScheduler runs RunCleanup on spec until ctx is done.
func StartAuthCleanupScheduler(ctx context.Context, spec string, d CleanupDeps) (*cron.Cron, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	d.Log = d.Log.Named("auth-cleanup")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		RunCleanup(jobCtx, d)
	}); err != nil {
		return nil, err
	}

	c.Start()
	d.Log.Info("started", zap.String("schedule", spec))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
