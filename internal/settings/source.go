package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/and161185/relax-alerting/model"
	"github.com/and161185/relax-alerting/storage"
	"go.uber.org/zap"
)

// Keys lists every known setting key.
var Keys = []string{
	model.KeyRetentionPeriod,
	model.KeyThresholdHigh,
	model.KeyThresholdLow,
	model.KeySendHTTP,
	model.KeySendURL,
}

// IsKnown reports whether key names a setting.
func IsKnown(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Source is the relay's view of the durable settings store. Writes made
// through it are reported to the registered change listener.
type Source struct {
	store  storage.Storage
	logger *zap.SugaredLogger

	mu       sync.Mutex
	onChange func()
}

// NewSource wraps store.
func NewSource(store storage.Storage, logger *zap.SugaredLogger) *Source {
	return &Source{store: store, logger: logger}
}

// OnChange registers fn to be called after every successful Set.
func (s *Source) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load reads every field, falling back to its default on any problem.
func (s *Source) Load(ctx context.Context) model.Settings {
	def := model.DefaultSettings()

	get := func(key string) (string, bool) {
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, errs.ErrNotFound) {
				s.logger.Warnw("settings store read failed", "key", key, "err", err)
			}
			return "", false
		}
		return raw, true
	}

	var problems []error
	note := func(err error) {
		if err != nil {
			problems = append(problems, err)
		}
	}

	raw, ok := get(model.KeyRetentionPeriod)
	retention := ParseInt(model.KeyRetentionPeriod, raw, ok, def.RetentionPeriod)
	note(retention.Err)

	raw, ok = get(model.KeyThresholdHigh)
	high := ParseFloat(model.KeyThresholdHigh, raw, ok, def.ThresholdHigh)
	note(high.Err)

	raw, ok = get(model.KeyThresholdLow)
	low := ParseFloat(model.KeyThresholdLow, raw, ok, def.ThresholdLow)
	note(low.Err)

	raw, ok = get(model.KeySendHTTP)
	sendHTTP := ParseBool(model.KeySendHTTP, raw, ok, def.SendHTTP)
	note(sendHTTP.Err)

	raw, ok = get(model.KeySendURL)
	sendURL := ParseString(model.KeySendURL, raw, ok, def.SendURL)
	note(sendURL.Err)

	for _, p := range problems {
		if errors.Is(p, errMissing) {
			s.logger.Debugw("settings field defaulted", "reason", p)
			continue
		}
		s.logger.Warnw("settings field defaulted", "reason", p)
	}

	return model.Settings{
		RetentionPeriod: retention.Value,
		ThresholdHigh:   high.Value,
		ThresholdLow:    low.Value,
		SendHTTP:        sendHTTP.Value,
		SendURL:         sendURL.Value,
	}
}

// Set stores value for key wrapped as {"name": value} and notifies the listener.
func (s *Source) Set(ctx context.Context, key, value string) error {
	if !IsKnown(key) {
		return fmt.Errorf("setting %q: %w", key, errs.ErrNotFound)
	}
	if err := s.store.Set(ctx, key, Wrap(value)); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}

	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// Save writes a complete snapshot to the store without notifying.
func (s *Source) Save(ctx context.Context, v model.Settings) error {
	values := map[string]string{
		model.KeyRetentionPeriod: strconv.Itoa(v.RetentionPeriod),
		model.KeyThresholdHigh:   strconv.FormatFloat(v.ThresholdHigh, 'g', -1, 64),
		model.KeyThresholdLow:    strconv.FormatFloat(v.ThresholdLow, 'g', -1, 64),
		model.KeySendHTTP:        strconv.FormatBool(v.SendHTTP),
		model.KeySendURL:         v.SendURL,
	}
	for _, k := range Keys {
		if err := s.store.Set(ctx, k, Wrap(values[k])); err != nil {
			return fmt.Errorf("store %s: %w", k, err)
		}
	}
	return nil
}

// Raw returns the stored values as they are kept in the store.
func (s *Source) Raw(ctx context.Context) (map[string]string, error) {
	return s.store.GetAll(ctx)
}

// Ping checks the underlying store.
func (s *Source) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
