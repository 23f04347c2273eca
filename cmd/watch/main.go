// Command watch follows one queue token from the terminal, printing position
// updates until the queue reaches a terminal state. It reuses the persisted
// session from the main app; log in there first.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/queme-app/queme-client/config"
	"github.com/queme-app/queme-client/internal/gateway"
	"github.com/queme-app/queme-client/internal/queue"
	"github.com/queme-app/queme-client/internal/session"
	"github.com/queme-app/queme-client/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: watch <queue-token>")
		os.Exit(2)
	}
	token := os.Args[1]

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
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
	sessions = session.NewManager(store, gw, logger.Named("session"))

	if err := sessions.Restore(ctx); err != nil {
		logger.Fatal("session restore failed", zap.Error(err))
	}
	if sessions.Current() == nil {
		logger.Fatal("no active session; log in through the app first")
	}

	poller := queue.New(gw,
		time.Duration(cfg.Queue.StatusIntervalSeconds)*time.Second,
		logger.Named("queue"),
		queue.WithPositionIncreaseAllowed(cfg.Queue.AllowPositionIncrease),
	)
	defer poller.Unbind()
	poller.Bind(token)

	fmt.Printf("watching token %s (every %ds, ctrl-c to stop)\n", token, cfg.Queue.StatusIntervalSeconds)
	for {
		select {
		case u := <-poller.Updates():
			if u.Terminal {
				fmt.Printf("queue finished: %s\n", u.Snapshot.Status)
				return
			}
			fmt.Printf("position %d, estimated wait %s (%s)\n",
				u.Snapshot.Position, u.Snapshot.EstimatedWait, u.Snapshot.ServiceName)
		case <-ctx.Done():
			fmt.Println("stopped")
			return
		}
	}
}
