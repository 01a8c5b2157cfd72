// Package device holds the sensor-side process state and its event handlers.
package device

import (
	"context"
	"time"

	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/and161185/relax-alerting/internal/queue"
	"github.com/and161185/relax-alerting/internal/relax"
	"github.com/and161185/relax-alerting/model"
	"go.uber.org/zap"
)

// Sender is the device end of the channel.
type Sender interface {
	Send(msg model.Message) error
}

// Cache persists the last applied settings.
type Cache interface {
	Load() (model.Settings, error)
	Save(s model.Settings) error
}

// Status is a snapshot of the device counters.
type Status struct {
	DetectionCount int     `json:"detectionCount"`
	SentCount      int     `json:"sentCount"`
	Queued         int     `json:"queued"`
	Score          float64 `json:"score"`
	HasScore       bool    `json:"hasScore"`
	Suppressed     bool    `json:"suppressed"`
	Samples        int     `json:"samples"`
}

// Device is the device process context. Its handlers must be called from one goroutine.
type Device struct {
	settings model.Settings
	buffer   *relax.Buffer
	detector *relax.Detector
	queue    *queue.Queue[model.AlertRequest]
	cache    Cache
	logger   *zap.SugaredLogger

	sent     int
	score    float64
	hasScore bool
}

// New creates the device context with settings from the cache, or defaults
// when the cache is absent or unreadable.
func New(ch Sender, cache Cache, logger *zap.SugaredLogger) *Device {
	d := &Device{
		buffer:   relax.NewBuffer(),
		detector: relax.NewDetector(),
		cache:    cache,
		logger:   logger,
	}

	s, err := cache.Load()
	if err != nil {
		logger.Warnw("settings cache unusable, using defaults", "err", err)
	}
	d.settings = s

	dispatch := func(_ context.Context, r model.AlertRequest) error {
		return ch.Send(model.RequestMessage(r))
	}
	d.queue = queue.New("device", dispatch,
		queue.WithRequeue(markRetry),
		queue.WithLogger[model.AlertRequest](logger),
	)
	return d
}

func markRetry(r model.AlertRequest) model.AlertRequest {
	r.Retry = true
	return r
}

// OnTick consumes one heart-rate reading taken at now. Non-positive readings are ignored.
func (d *Device) OnTick(ctx context.Context, bpm float64, now time.Time) {
	duration, ok := relax.DurationFromBPM(bpm)
	if !ok {
		return
	}

	nowMs := now.UnixMilli()
	d.buffer.Append(duration, nowMs)
	d.buffer.Evict(nowMs, d.settings.RetentionMillis())

	score, ok := relax.Score(d.buffer)
	if !ok {
		return
	}
	d.score, d.hasScore = score, true

	switch d.detector.Evaluate(score, d.settings) {
	case relax.Fired:
		d.logger.Infow("relaxation detected", "score", score, "threshold", d.settings.ThresholdLow, "count", d.detector.Count())
		if d.settings.SendHTTP {
			d.submit(ctx, model.NewAlertRequest(now, score, d.settings.ThresholdLow))
		}
	case relax.Cleared:
		d.logger.Debugw("detector re-armed", "score", score)
	}

	d.logger.Debugw("tick", "bpm", bpm, "score", score, "samples", d.buffer.Len(),
		"state", d.detector.State().String(), "queued", d.queue.Len())
}

func (d *Device) submit(ctx context.Context, r model.AlertRequest) {
	if d.queue.Submit(ctx, r) {
		d.sent++
		return
	}
	d.logger.Warnw("alert request not sent, queued for retry", "date", r.Date, "queued", d.queue.Len())
}

// OnMessage handles a message from the relay. Only settings are accepted.
func (d *Device) OnMessage(_ context.Context, msg model.Message) {
	switch msg.Type {
	case model.MessageSettings:
		if msg.Settings == nil {
			d.logger.Warnw("settings message without payload")
			return
		}
		d.apply(*msg.Settings)
	default:
		d.logger.Warnw("unknown message type dropped", "type", msg.Type, "err", errs.ErrUnknownMessageType)
	}
}

func (d *Device) apply(s model.Settings) {
	if s.RetentionPeriod < 1 {
		d.logger.Warnw("retention period below one second ignored",
			"retentionPeriod", s.RetentionPeriod, "kept", d.settings.RetentionPeriod)
		s.RetentionPeriod = d.settings.RetentionPeriod
	}
	d.settings = s
	if err := d.cache.Save(s); err != nil {
		d.logger.Warnw("failed to cache settings", "err", err)
	}
	d.logger.Infow("settings applied",
		"retentionPeriod", s.RetentionPeriod,
		"thresholdHigh", s.ThresholdHigh,
		"thresholdLow", s.ThresholdLow,
		"sendHttp", s.SendHTTP,
	)
}

// OnChannelOpen drains the queue as soon as the relay is reachable.
func (d *Device) OnChannelOpen(ctx context.Context) {
	d.flush(ctx)
}

// OnTimer retries undelivered requests.
func (d *Device) OnTimer(ctx context.Context) {
	d.flush(ctx)
}

func (d *Device) flush(ctx context.Context) {
	if d.queue.Len() == 0 {
		return
	}
	n, err := d.queue.Flush(ctx)
	d.sent += n
	if err != nil {
		d.logger.Debugw("device queue flush halted", "sent", n, "left", d.queue.Len(), "err", err)
	}
}

// Settings returns the active settings.
func (d *Device) Settings() model.Settings { return d.settings }

// Status returns the current counters.
func (d *Device) Status() Status {
	return Status{
		DetectionCount: d.detector.Count(),
		SentCount:      d.sent,
		Queued:         d.queue.Len(),
		Score:          d.score,
		HasScore:       d.hasScore,
		Suppressed:     d.detector.State() == relax.Suppressed,
		Samples:        d.buffer.Len(),
	}
}

// Pending returns a copy of the undelivered requests, oldest first.
func (d *Device) Pending() []model.AlertRequest { return d.queue.Items() }
