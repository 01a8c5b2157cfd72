package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/and161185/relax-alerting/internal/config"
	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/and161185/relax-alerting/internal/utils"
	"github.com/and161185/relax-alerting/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testRequest() model.AlertRequest {
	return model.NewAlertRequest(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), 0.42, 0.8)
}

func TestPost_OK(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/hook", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Empty(t, r.Header.Get(utils.HashHeader))

		var got model.AlertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Equal(t, "2024-05-01T10:00:00.000Z", got.Date)
		require.InDelta(t, 0.42, got.Relax, 1e-9)
		require.InDelta(t, 0.8, got.Threshold, 1e-9)
		require.False(t, got.Retry)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient(&config.RelayConfig{ClientTimeout: 1}, zap.NewNop().Sugar())
	require.NoError(t, c.Post(ctx, ts.URL+"/hook", testRequest()))
}

func TestPost_SignsBody(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, utils.CalculateHash(body, "secret"), r.Header.Get(utils.HashHeader))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	c := NewClient(&config.RelayConfig{ClientTimeout: 1, Key: "secret"}, zap.NewNop().Sugar())
	require.NoError(t, c.Post(ctx, ts.URL, testRequest()))
}

func TestPost_NonSuccessLenient(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	core, logs := observer.New(zap.WarnLevel)
	c := NewClientWithHTTP(&http.Client{Timeout: time.Second}, "", false, zap.New(core).Sugar())
	require.NoError(t, c.Post(ctx, ts.URL, testRequest()))
	require.Equal(t, 1, logs.FilterMessage("alert endpoint returned non-2xx status").Len())
}

func TestPost_NonSuccessStrict(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClientWithHTTP(&http.Client{Timeout: time.Second}, "", true, zap.NewNop().Sugar())
	err := c.Post(ctx, ts.URL, testRequest())
	require.ErrorIs(t, err, errs.ErrUnexpectedStatus)
	require.Contains(t, err.Error(), "500")
}

func TestPost_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClientWithHTTP(&http.Client{Timeout: time.Second}, "", false, zap.NewNop().Sugar())
	err := c.Post(context.Background(), url, testRequest())
	require.ErrorIs(t, err, errs.ErrTransport)
}

func TestPost_BadURL(t *testing.T) {
	c := NewClientWithHTTP(&http.Client{Timeout: time.Second}, "", false, zap.NewNop().Sugar())
	err := c.Post(context.Background(), "", testRequest())
	require.ErrorIs(t, err, errs.ErrTransport)
}
