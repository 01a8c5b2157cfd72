// Package relay holds the network-side process state: settings push and
// alert forwarding.
package relay

import (
	"context"
	"fmt"

	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/and161185/relax-alerting/internal/queue"
	"github.com/and161185/relax-alerting/internal/settings"
	"github.com/and161185/relax-alerting/model"
	"go.uber.org/zap"
)

// Sender is the relay end of the channel.
type Sender interface {
	Send(msg model.Message) error
}

// Poster delivers one alert request to url.
type Poster interface {
	Post(ctx context.Context, url string, r model.AlertRequest) error
}

// Status is a snapshot of the relay counters.
type Status struct {
	Queued    int  `json:"queued"`
	Delivered int  `json:"delivered"`
	Pushes    int  `json:"pushes"`
	InFlight  bool `json:"inFlight"`
}

// PostFunc schedules fn on the event loop that owns the relay.
type PostFunc func(ctx context.Context, fn func(context.Context)) bool

// Option configures a Relay.
type Option func(*Relay)

// WithLoop moves each HTTP delivery onto its own goroutine. The outcome is
// handed back through post, so handlers keep running while a delivery hangs.
func WithLoop(post PostFunc) Option {
	return func(r *Relay) { r.post = post }
}

// Relay is the relay process context. Its handlers must be called from one goroutine.
type Relay struct {
	source   *settings.Source
	ch       Sender
	poster   Poster
	queue    *queue.Queue[model.AlertRequest]
	logger   *zap.SugaredLogger
	settings model.Settings

	post     PostFunc
	inFlight bool

	delivered int
	pushes    int
}

// New creates the relay context. Without WithLoop deliveries run inline.
func New(source *settings.Source, ch Sender, poster Poster, logger *zap.SugaredLogger, opts ...Option) *Relay {
	r := &Relay{
		source:   source,
		ch:       ch,
		poster:   poster,
		logger:   logger,
		settings: model.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.queue = queue.New("relay", r.dispatch, queue.WithLogger[model.AlertRequest](logger))
	return r
}

func (r *Relay) dispatch(ctx context.Context, req model.AlertRequest) error {
	return r.deliver(ctx, r.settings.SendURL, req)
}

// deliver touches only the poster and the logger, so it may run off the loop.
func (r *Relay) deliver(ctx context.Context, url string, req model.AlertRequest) error {
	if url == "" {
		return fmt.Errorf("%w: sendUrl is empty", errs.ErrTransport)
	}
	if err := r.poster.Post(ctx, url, req); err != nil {
		return err
	}
	r.logger.Infow("alert delivered", "date", req.Date, "relax", req.Relax, "retry", req.Retry)
	return nil
}

// Start loads the stored settings and pushes them when the relay was
// launched because they changed.
func (r *Relay) Start(ctx context.Context, launchedBySettings bool) {
	r.settings = r.source.Load(ctx)
	if launchedBySettings {
		r.push(ctx)
	}
}

// OnMessage handles a message from the device. Only alert requests are accepted.
func (r *Relay) OnMessage(_ context.Context, msg model.Message) {
	switch msg.Type {
	case model.MessageRequest:
		if msg.Request == nil {
			r.logger.Warnw("request message without payload")
			return
		}
		req := *msg.Request
		if _, err := req.Time(); err != nil {
			r.logger.Warnw("alert request has unparsable date", "date", req.Date, "err", err)
		}
		r.queue.Enqueue(req)
		r.logger.Infow("alert request queued", "date", req.Date, "retry", req.Retry, "queued", r.queue.Len())
	default:
		r.logger.Warnw("unknown message type dropped", "type", msg.Type, "err", errs.ErrUnknownMessageType)
	}
}

// OnChannelOpen sends the device a fresh settings snapshot.
func (r *Relay) OnChannelOpen(ctx context.Context) {
	r.push(ctx)
}

// OnSettingsChange sends the device the settings just written to the store.
func (r *Relay) OnSettingsChange(ctx context.Context) {
	r.push(ctx)
}

// OnTimer delivers queued requests from the head, stopping at the first failure.
// With WithLoop only the head is in flight at any time and a tick during a
// pending delivery does nothing.
func (r *Relay) OnTimer(ctx context.Context) {
	if r.queue.Len() == 0 || r.inFlight {
		return
	}
	r.settings = r.source.Load(ctx)

	if r.post == nil {
		n, err := r.queue.Flush(ctx)
		r.delivered += n
		if err != nil {
			r.logger.Warnw("alert delivery failed, will retry", "delivered", n, "left", r.queue.Len(), "err", err)
		}
		return
	}
	r.sendHead(ctx)
}

func (r *Relay) sendHead(ctx context.Context) {
	head, ok := r.queue.Peek()
	if !ok {
		return
	}
	url := r.settings.SendURL
	r.inFlight = true
	go func() {
		err := r.deliver(ctx, url, head)
		r.post(ctx, func(ctx context.Context) { r.onDelivered(ctx, err) })
	}()
}

// onDelivered settles the in-flight head and moves on to the next one.
func (r *Relay) onDelivered(ctx context.Context, err error) {
	r.inFlight = false
	if err != nil {
		r.logger.Warnw("alert delivery failed, will retry", "left", r.queue.Len(), "err", err)
		return
	}
	r.queue.Pop()
	r.delivered++
	r.sendHead(ctx)
}

func (r *Relay) push(ctx context.Context) {
	s := r.source.Load(ctx)
	r.settings = s
	if err := r.ch.Send(model.SettingsMessage(s)); err != nil {
		r.logger.Warnw("settings not pushed", "err", err)
		return
	}
	r.pushes++
	r.logger.Infow("settings pushed",
		"retentionPeriod", s.RetentionPeriod,
		"thresholdHigh", s.ThresholdHigh,
		"thresholdLow", s.ThresholdLow,
		"sendHttp", s.SendHTTP,
	)
}

// Settings returns the last loaded settings.
func (r *Relay) Settings() model.Settings { return r.settings }

// Status returns the current counters.
func (r *Relay) Status() Status {
	return Status{Queued: r.queue.Len(), Delivered: r.delivered, Pushes: r.pushes, InFlight: r.inFlight}
}

// Pending returns a copy of the undelivered requests, oldest first.
func (r *Relay) Pending() []model.AlertRequest { return r.queue.Items() }
