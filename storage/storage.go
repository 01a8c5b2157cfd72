// Package storage defines the durable key/value store the relay keeps settings in.
package storage

import "context"

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks github.com/and161185/relax-alerting/storage Storage

// Storage keeps string values by key.
// Get returns errs.ErrNotFound for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetAll(ctx context.Context) (map[string]string, error)
	Ping(ctx context.Context) error
	Close() error
}
