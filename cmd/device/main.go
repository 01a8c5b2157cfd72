package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/and161185/relax-alerting/internal/buildinfo"
	"github.com/and161185/relax-alerting/internal/channel"
	"github.com/and161185/relax-alerting/internal/config"
	"github.com/and161185/relax-alerting/internal/device"
	"github.com/and161185/relax-alerting/internal/loop"
	"github.com/and161185/relax-alerting/internal/sensor"
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

	cfg := config.NewDeviceConfig()
	logger := cfg.Logger
	defer func() { _ = logger.Sync() }()

	logger.Infow("device config",
		"relay", cfg.RelayAddr,
		"sensor", cfg.Sensor,
		"sensorInterval", cfg.SensorInterval,
		"flushInterval", cfg.FlushInterval,
		"cache", cfg.CachePath,
	)

	dialer := channel.NewDialer(cfg.RelayAddr, cfg.DeviceID, time.Duration(cfg.ReconnectWait)*time.Second, logger)
	dev := device.New(dialer, settings.NewCache(cfg.CachePath), logger)
	events := loop.New(64)

	dialer.SetHandler(channel.HandlerFuncs{
		Open: func() { events.Post(ctx, dev.OnChannelOpen) },
		Message: func(msg model.Message) {
			events.Post(ctx, func(ctx context.Context) { dev.OnMessage(ctx, msg) })
		},
	})

	heart, err := sensor.New(cfg.Sensor, float64(cfg.BaseBPM), uint64(time.Now().UnixNano()))
	if err != nil {
		logger.Warnw("heart-rate sensor unavailable, detection disabled", "err", err)
	} else {
		events.Every(ctx, 0, time.Duration(cfg.SensorInterval)*time.Second, func(ctx context.Context) {
			now := time.Now()
			dev.OnTick(ctx, heart.Read(now), now)
		})
	}

	flush := time.Duration(cfg.FlushInterval) * time.Second
	events.Every(ctx, flush, flush, dev.OnTimer)

	go func() { _ = dialer.Run(ctx) }()

	_ = events.Run(ctx)
	dialer.Close()

	st := dev.Status()
	logger.Infow("device stopped",
		"detections", st.DetectionCount,
		"sent", st.SentCount,
		"lost", st.Queued,
	)
}
