package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SettingsRepo reads the application settings key/value table. The
// consumption job looks up its report reference here at run time, so a
// changed value takes effect on the next run without a restart.
type SettingsRepo struct {
	txManager *TxManager
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(txManager *TxManager) *SettingsRepo {
	return &SettingsRepo{txManager: txManager}
}

// Get returns the value of a setting, "" when the key is absent.
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.txManager.GetQuerier(ctx).
		QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).
		Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a setting.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
