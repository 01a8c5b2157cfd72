package channel

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DeviceIDHeader identifies the device to the relay.
const DeviceIDHeader = "X-Device-ID"

// Dialer is the device end: it connects to the relay and reconnects
// after every drop.
type Dialer struct {
	*Channel
	url           string
	header        http.Header
	reconnectWait time.Duration
	dialer        *websocket.Dialer
}

// NewDialer prepares a dialer for url. A random device id is generated when id is empty.
func NewDialer(url, id string, reconnectWait time.Duration, logger *zap.SugaredLogger) *Dialer {
	if id == "" {
		id = uuid.NewString()
	}
	header := http.Header{}
	header.Set(DeviceIDHeader, id)

	return &Dialer{
		Channel:       newChannel(logger),
		url:           url,
		header:        header,
		reconnectWait: reconnectWait,
		dialer:        &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}
}

// Run keeps the link up until ctx is done.
func (d *Dialer) Run(ctx context.Context) error {
	for {
		conn, _, err := d.dialer.DialContext(ctx, d.url, d.header)
		if err != nil {
			d.logger.Debugw("relay not reachable", "url", d.url, "err", err)
		} else {
			d.logger.Infow("channel open", "url", d.url)
			p := d.attach(conn)
			select {
			case <-p.done:
				d.logger.Infow("channel closed", "url", d.url)
			case <-ctx.Done():
				d.detach(p)
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.reconnectWait):
		}
	}
}
