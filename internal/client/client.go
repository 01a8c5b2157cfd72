// Package client posts alert requests to the user's HTTP endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/and161185/relax-alerting/internal/config"
	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/and161185/relax-alerting/internal/utils"
	"github.com/and161185/relax-alerting/model"
	"go.uber.org/zap"
)

// Client sends alert requests over HTTP.
type Client struct {
	httpClient *http.Client
	key        string
	strict     bool
	logger     *zap.SugaredLogger
}

// NewClient creates a client from the relay configuration.
func NewClient(cfg *config.RelayConfig, logger *zap.SugaredLogger) *Client {
	hc := &http.Client{Timeout: time.Duration(cfg.ClientTimeout) * time.Second}
	return NewClientWithHTTP(hc, cfg.Key, cfg.StrictStatus, logger)
}

// DI: ready http.Client
func NewClientWithHTTP(hc *http.Client, key string, strict bool, logger *zap.SugaredLogger) *Client {
	return &Client{httpClient: hc, key: key, strict: strict, logger: logger}
}

// Post sends r as JSON to url.
//
// A transport failure always returns an error wrapping errs.ErrTransport.
// A non-2xx answer is logged and accepted unless the client is strict,
// in which case it returns an error wrapping errs.ErrUnexpectedStatus.
func (c *Client) Post(ctx context.Context, url string, r model.AlertRequest) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: new request: %v", errs.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set(utils.HashHeader, utils.CalculateHash(raw, c.key))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.strict {
			return fmt.Errorf("%w: %d", errs.ErrUnexpectedStatus, resp.StatusCode)
		}
		c.logger.Warnw("alert endpoint returned non-2xx status", "url", url, "status", resp.StatusCode)
	}
	return nil
}
