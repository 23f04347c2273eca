package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/queme-app/queme-client/config"
	"github.com/queme-app/queme-client/internal/bookings"
	"github.com/queme-app/queme-client/internal/bootstrap"
	"github.com/queme-app/queme-client/internal/events"
	"github.com/queme-app/queme-client/internal/gateway"
	"github.com/queme-app/queme-client/internal/notify"
	"github.com/queme-app/queme-client/internal/providers"
	"github.com/queme-app/queme-client/internal/queue"
	"github.com/queme-app/queme-client/internal/session"
	"github.com/queme-app/queme-client/internal/storage"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.HTTP.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	switch cfg.Storage.Backend {
	case "redis":
		store = storage.NewRedisStore(cfg.Redis, time.Duration(cfg.Notifications.ProviderCacheTTLSeconds)*time.Second)
	default:
		store = storage.NewFileStore(cfg.Storage.Path)
	}

	notifications := notify.New(time.Duration(cfg.Notifications.DisplaySeconds)*time.Second, logger.Named("notify"))
	defer notifications.Close()

	// The gateway pulls the bearer token from the session manager, and the
	// session manager authenticates through the gateway; the closures break
	// the construction cycle.
	var sessions *session.Manager
	gw := gateway.NewClient(cfg.Remote.BaseURL, logger.Named("gateway"),
		gateway.WithTimeout(time.Duration(cfg.Remote.TimeoutSeconds)*time.Second),
		gateway.WithTokenSource(func() string {
			if sessions == nil {
				return ""
			}
			return sessions.Token()
		}),
		gateway.WithUnauthorizedHook(func() {
			if sessions != nil {
				_ = sessions.Logout(context.Background())
			}
		}),
	)
	sessions = session.NewManager(store, gw, logger.Named("session"), session.WithNotifier(notifications))

	storeOpts := []bookings.Option{bookings.WithNotifier(notifications)}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookingEventsTopic)
		defer producer.Close()
		storeOpts = append(storeOpts, bookings.WithProducer(producer))
	}
	bookingStore := bookings.NewStore(gw, logger.Named("bookings"), storeOpts...)

	poller := queue.New(gw,
		time.Duration(cfg.Queue.StatusIntervalSeconds)*time.Second,
		logger.Named("queue"),
		queue.WithBookingSink(bookingStore),
		queue.WithNotifier(notifications),
		queue.WithPositionIncreaseAllowed(cfg.Queue.AllowPositionIncrease),
	)
	defer poller.Unbind()

	providerService := providers.NewService(gw, store, logger.Named("providers"))

	// The session gates everything else: restore before serving.
	if err := sessions.Restore(ctx); err != nil {
		logger.Warn("session restore failed", zap.Error(err))
	}
	if s := sessions.Current(); s != nil {
		logger.Info("session restored", zap.Int64("user_id", s.User.ID), zap.String("role", string(s.User.Role)))
		if err := bookingStore.Load(ctx); err != nil {
			logger.Warn("initial bookings load failed", zap.Error(err))
		}
	}

	// Background refresh keeps the booking list current without UI traffic:
	// dashboard cadence while a queue token is tracked, card cadence otherwise.
	go refreshBookings(ctx, cfg, logger, sessions, bookingStore, poller)

	if err := bootstrap.Run(ctx, cfg, logger.Named("http"), bootstrap.Deps{
		Sessions:      sessions,
		Bookings:      bookingStore,
		Poller:        poller,
		Notifications: notifications,
		Providers:     providerService,
		Gateway:       gw,
	}); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func refreshBookings(ctx context.Context, cfg *config.Config, logger *zap.Logger,
	sessions *session.Manager, store *bookings.Store, poller *queue.Poller) {
	fast := time.Duration(cfg.Queue.DashboardIntervalSeconds) * time.Second
	slow := time.Duration(cfg.Queue.CardIntervalSeconds) * time.Second

	timer := time.NewTimer(fast)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if sessions.Current() != nil {
				if err := store.Load(ctx); err != nil {
					logger.Debug("background bookings refresh failed", zap.Error(err))
				}
			}
			if poller.State() == queue.StatePolling {
				timer.Reset(fast)
			} else {
				timer.Reset(slow)
			}
		}
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
