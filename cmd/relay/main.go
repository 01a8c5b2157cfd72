package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/and161185/relax-alerting/internal/buildinfo"
	"github.com/and161185/relax-alerting/internal/channel"
	"github.com/and161185/relax-alerting/internal/client"
	"github.com/and161185/relax-alerting/internal/config"
	"github.com/and161185/relax-alerting/internal/loop"
	"github.com/and161185/relax-alerting/internal/relay"
	"github.com/and161185/relax-alerting/internal/server"
	"github.com/and161185/relax-alerting/internal/settings"
	"github.com/and161185/relax-alerting/model"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildinfo.PrintBuildInfo(os.Stdout, buildVersion, buildDate, buildCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewRelayConfig()
	logger := cfg.Logger
	defer func() { _ = logger.Sync() }()

	store, kind, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalw("failed to open settings store", "store", kind, "err", err)
	}
	defer store.Close()

	logger.Infow("relay config",
		"addr", cfg.Addr,
		"flushInterval", cfg.FlushInterval,
		"clientTimeout", cfg.ClientTimeout,
		"store", kind,
		"strictStatus", cfg.StrictStatus,
		"launchReason", cfg.LaunchReason,
	)

	src := settings.NewSource(store, logger)
	endpoint := channel.NewEndpoint(logger)
	events := loop.New(64)
	rl := relay.New(src, endpoint, client.NewClient(cfg, logger), logger, relay.WithLoop(events.Post))

	endpoint.SetHandler(channel.HandlerFuncs{
		Open: func() { events.Post(ctx, rl.OnChannelOpen) },
		Message: func(msg model.Message) {
			events.Post(ctx, func(ctx context.Context) { rl.OnMessage(ctx, msg) })
		},
	})
	src.OnChange(func() { events.Post(ctx, rl.OnSettingsChange) })

	events.Post(ctx, func(ctx context.Context) { rl.Start(ctx, cfg.LaunchedBySettings()) })
	interval := time.Duration(cfg.FlushInterval) * time.Second
	events.Every(ctx, interval/2, interval, rl.OnTimer)

	srv := server.NewServer(src, endpoint, cfg)
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Run(ctx) }()

	go func() {
		if err := <-srvErr; err != nil {
			logger.Errorw("http server stopped", "err", err)
			stop()
		}
	}()

	_ = events.Run(ctx)
	endpoint.Close()
	logger.Infow("relay stopped", "pending", rl.Status().Queued)
}
