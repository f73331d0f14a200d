package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/cache"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/config"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/database"
	coreErrors "github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/lock"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/middleware"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/queue"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party"
	partyService "github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// partyExpireAdapter bridges the party service into the queue worker's
// plain-error handler contract.
type partyExpireAdapter struct {
	svc partyService.PartyServiceInterface
}

func (a *partyExpireAdapter) Expire(ctx context.Context, partyID uuid.UUID, deadline time.Time) error {
	if appErr := a.svc.Expire(ctx, partyID, deadline); appErr != nil {
		// Expected lifecycle outcomes are not worker failures; retrying
		// them would never succeed.
		switch appErr.Code {
		case coreErrors.ErrNotFound, coreErrors.ErrPartyCanceled, coreErrors.ErrPartyExpired:
			return nil
		}
		return appErr
	}
	return nil
}

func (a *partyExpireAdapter) Prune(ctx context.Context) error {
	if appErr := a.svc.Prune(ctx); appErr != nil {
		return appErr
	}
	return nil
}

// Run wires the engine together and serves until interrupted.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Server.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}
	defer redisCache.Close()

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	locks := lock.NewKeyMutex(time.Duration(cfg.Party.LockWaitMillis) * time.Millisecond)
	mw := middleware.NewMiddleware(cfg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RequestID())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/api/v1")

	notificationSvc := notification.Init(v1, db, mw, queueClient, nil)
	liveSvc := live.Init(v1, db, mw, cfg, redisCache)
	membershipSvc := membership.Init(v1, db, mw, redisCache, locks, liveSvc)
	partySvc := party.Init(v1, db, mw, cfg, locks, queueClient, membershipSvc)
	joinrequest.Init(v1, db, mw, membershipSvc, notificationSvc)

	worker := queue.NewServer(cfg, &partyExpireAdapter{svc: partySvc}, notificationSvc)
	go func() {
		if err := worker.Start(); err != nil {
			logger.Error("Server:Run:WorkerStart:Error:", err)
		}
	}()

	// Re-arm in-process expiry timers for parties that were active when
	// the previous process stopped.
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if appErr := partySvc.RearmActive(bootCtx); appErr != nil {
		logger.Error("Server:Run:RearmActive:Error:", appErr)
	}
	cancelBoot()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("Server:Run:Listening", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:Start:Error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server:Run:ShuttingDown")
	worker.Shutdown()
	partySvc.Clock().Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
