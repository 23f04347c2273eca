package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/queme-app/queme-client/api"
	"github.com/queme-app/queme-client/config"
	"github.com/queme-app/queme-client/internal/bookings"
	"github.com/queme-app/queme-client/internal/gateway"
	"github.com/queme-app/queme-client/internal/notify"
	"github.com/queme-app/queme-client/internal/providers"
	"github.com/queme-app/queme-client/internal/queue"
	"github.com/queme-app/queme-client/internal/session"
)

type Deps struct {
	Sessions      *session.Manager
	Bookings      *bookings.Store
	Poller        *queue.Poller
	Notifications *notify.Queue
	Providers     *providers.Service
	Gateway       *gateway.Client
}

// Run starts the HTTP surface and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, deps Deps) error {
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, log, deps),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, log *zap.Logger, deps Deps) *gin.Engine {
	if !cfg.HTTP.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	api.NewSessionHandler(deps.Sessions).Register(router.Group("/auth"))
	api.NewBookingHandler(deps.Bookings).Register(router.Group("/bookings"))
	api.NewQueueHandler(deps.Poller, deps.Bookings, deps.Gateway).Register(router.Group("/queue"))
	api.NewNotificationHandler(deps.Notifications).Register(router.Group("/notifications"))
	api.NewProviderHandler(deps.Providers).Register(router.Group("/provider"))
	api.NewFeedbackHandler(deps.Gateway).Register(router.Group("/feedback"))

	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
