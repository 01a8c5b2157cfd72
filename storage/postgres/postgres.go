package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/and161185/relax-alerting/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, databaseDsn string) (*PostgresStorage, error) {
	db, err := pgxpool.New(ctx, databaseDsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	err = utils.WithRetry(ctx, func() error {
		_, e := db.Exec(ctx, schema)
		return e
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStorage{db: db}, nil
}

func (store *PostgresStorage) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := utils.WithRetry(ctx, func() error {
		return store.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errs.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (store *PostgresStorage) Set(ctx context.Context, key, value string) error {
	err := utils.WithRetry(ctx, func() error {
		_, e := store.db.Exec(ctx,
			`INSERT INTO settings (key, value) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
		return e
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (store *PostgresStorage) GetAll(ctx context.Context) (map[string]string, error) {
	result := make(map[string]string)
	err := utils.WithRetry(ctx, func() error {
		rows, e := store.db.Query(ctx, `SELECT key, value FROM settings`)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			var k, v string
			if e := rows.Scan(&k, &v); e != nil {
				return e
			}
			result[k] = v
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get all: %w", err)
	}
	return result, nil
}

func (store *PostgresStorage) Ping(ctx context.Context) error {
	return store.db.Ping(ctx)
}

func (store *PostgresStorage) Close() error {
	store.db.Close()
	return nil
}
