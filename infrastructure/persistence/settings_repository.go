package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SettingsRepository stores application settings as JSON values keyed by name.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (interface{}, bool, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM app_settings WHERE key=$1`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, fmt.Errorf("decoding setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding setting %s: %w", key, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO app_settings (key, value, updated_at) VALUES ($1,$2,$3)
		 ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
		key, raw, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}
