package channel

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Endpoint is the relay end: an HTTP handler accepting the device connection.
// A new connection replaces the previous one.
type Endpoint struct {
	*Channel
	upgrader websocket.Upgrader
}

func NewEndpoint(logger *zap.SugaredLogger) *Endpoint {
	return &Endpoint{
		Channel: newChannel(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Warnw("websocket upgrade failed", "err", err)
		return
	}
	e.logger.Infow("device connected", "device", r.Header.Get(DeviceIDHeader), "remote", r.RemoteAddr)
	e.attach(conn)
}
