// Package channel is the duplex message link between the device and the relay,
// carried over a WebSocket. Either side may find it closed at any time.
package channel

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/and161185/relax-alerting/model"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 2 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler receives channel events. Calls arrive on network goroutines.
type Handler interface {
	OnOpen()
	OnMessage(msg model.Message)
	OnClose()
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	Open    func()
	Message func(model.Message)
	Close   func()
}

func (h HandlerFuncs) OnOpen() {
	if h.Open != nil {
		h.Open()
	}
}

func (h HandlerFuncs) OnMessage(msg model.Message) {
	if h.Message != nil {
		h.Message(msg)
	}
}

func (h HandlerFuncs) OnClose() {
	if h.Close != nil {
		h.Close()
	}
}

type peer struct {
	conn *websocket.Conn
	wmu  sync.Mutex
	done chan struct{}
	once sync.Once
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

func (p *peer) write(msg model.Message) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(msg)
}

// Channel is one end of the link. At most one peer is attached at a time.
type Channel struct {
	logger *zap.SugaredLogger

	mu      sync.Mutex
	peer    *peer
	handler Handler
}

func newChannel(logger *zap.SugaredLogger) *Channel {
	return &Channel{logger: logger, handler: HandlerFuncs{}}
}

// SetHandler installs h. It must be called before the channel is started.
func (c *Channel) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// IsOpen reports whether a peer is attached.
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer != nil
}

// Send writes msg to the attached peer. It fails fast with errs.ErrChannelClosed
// when nothing is attached and waits at most writeWait otherwise.
func (c *Channel) Send(msg model.Message) error {
	c.mu.Lock()
	p := c.peer
	c.mu.Unlock()

	if p == nil {
		return errs.ErrChannelClosed
	}
	if err := p.write(msg); err != nil {
		p.close()
		return fmt.Errorf("%w: %v", errs.ErrChannelClosed, err)
	}
	return nil
}

func (c *Channel) attach(conn *websocket.Conn) *peer {
	p := &peer{conn: conn, done: make(chan struct{})}

	c.mu.Lock()
	old := c.peer
	c.peer = p
	h := c.handler
	c.mu.Unlock()

	if old != nil {
		old.close()
	}

	h.OnOpen()
	go c.readPump(p)
	go c.pingPump(p)
	return p
}

func (c *Channel) detach(p *peer) {
	p.close()

	c.mu.Lock()
	current := c.peer == p
	if current {
		c.peer = nil
	}
	h := c.handler
	c.mu.Unlock()

	if current {
		h.OnClose()
	}
}

func (c *Channel) readPump(p *peer) {
	defer c.detach(p)

	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warnw("channel read failed", "err", err)
			}
			return
		}

		var msg model.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warnw("dropping undecodable message", "err", err)
			continue
		}

		c.mu.Lock()
		h := c.handler
		c.mu.Unlock()
		h.OnMessage(msg)
	}
}

func (c *Channel) pingPump(p *peer) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-t.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.detach(p)
				return
			}
		}
	}
}

// Close drops the attached peer, if any.
func (c *Channel) Close() {
	c.mu.Lock()
	p := c.peer
	c.mu.Unlock()
	if p != nil {
		c.detach(p)
	}
}
