package store

import (
	"database/sql"
	"errors"
	"strconv"
)

// Setting keys
const (
	SettingConfidenceThreshold = "confidence_threshold"
)

// PluginConfigKey is the settings key holding the JSON config of a plugin.
func PluginConfigKey(name string) string {
	return "plugin." + name + ".config"
}

// SettingsRepository stores key/value application settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetFloat parses the value under key, returning def when it is missing
// or not a number.
func (r *SettingsRepository) GetFloat(key string, def float64) float64 {
	v, err := r.Get(key)
	if err != nil {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
