package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/and161185/relax-alerting/internal/client"
	"github.com/and161185/relax-alerting/internal/device"
	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/and161185/relax-alerting/internal/settings"
	"github.com/and161185/relax-alerting/model"
	"github.com/and161185/relax-alerting/storage/inmemory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// link delivers messages synchronously to the other side while up.
type link struct {
	up      bool
	deliver func(model.Message)
}

func (l *link) Send(msg model.Message) error {
	if !l.up {
		return errs.ErrChannelClosed
	}
	l.deliver(msg)
	return nil
}

type hook struct {
	mu   sync.Mutex
	got  []model.AlertRequest
	fail bool
}

func (h *hook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	var req model.AlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.got = append(h.got, req)
	w.WriteHeader(http.StatusOK)
}

func TestPipeline_DeviceToHTTP(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	h := &hook{fail: true}
	ts := httptest.NewServer(h)
	defer ts.Close()

	src := settings.NewSource(inmemory.NewMemStorage(""), logger)
	require.NoError(t, src.Save(ctx, model.Settings{
		RetentionPeriod: 1, ThresholdHigh: 1.0, ThresholdLow: 0.8, SendHTTP: true, SendURL: ts.URL,
	}))

	toDevice := &link{}
	toRelay := &link{}
	poster := client.NewClientWithHTTP(&http.Client{Timeout: time.Second}, "", true, logger)
	r := New(src, toDevice, poster, logger)
	d := device.New(toRelay, settings.NewCache(filepath.Join(t.TempDir(), "c.json")), logger)
	toDevice.deliver = func(m model.Message) { d.OnMessage(ctx, m) }
	toRelay.deliver = func(m model.Message) { r.OnMessage(ctx, m) }

	r.Start(ctx, false)
	require.Equal(t, model.DefaultSettings(), d.Settings())

	// channel opens: relay pushes settings
	toDevice.up, toRelay.up = true, true
	r.OnChannelOpen(ctx)
	d.OnChannelOpen(ctx)
	require.Equal(t, ts.URL, d.Settings().SendURL)

	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, dur := range []float64{0.85, 0.85, 0.42, 0.2, 1.3} {
		d.OnTick(ctx, 60/dur, t0.Add(time.Duration(i)*time.Second))
	}
	require.Equal(t, 1, d.Status().DetectionCount)
	require.Equal(t, 1, r.Status().Queued)

	// endpoint failing in strict mode keeps the request
	r.OnTimer(ctx)
	require.Equal(t, 1, r.Status().Queued)

	h.mu.Lock()
	h.fail = false
	h.mu.Unlock()
	r.OnTimer(ctx)
	require.Zero(t, r.Status().Queued)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.got, 1)
	require.Equal(t, "2024-05-01T10:00:03.000Z", h.got[0].Date)
	require.InDelta(t, 0.465, h.got[0].Relax, 1e-3)
	require.Equal(t, 0.8, h.got[0].Threshold)
	require.False(t, h.got[0].Retry)
}
