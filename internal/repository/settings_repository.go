package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
)

// SettingsRepo provides access to the single platform_settings row.
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo returns a SettingsRepo bound to the given database.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

const settingsColumns = "id, site_title, currency, tts_enabled, tts_voice, mute_overlay, updated_at"

// Get returns the platform settings row.
func (r *SettingsRepo) Get(ctx context.Context) (model.PlatformSettings, error) {
	var s model.PlatformSettings
	err := r.db.QueryRowContext(ctx,
		"SELECT "+settingsColumns+" FROM platform_settings LIMIT 1").
		Scan(&s.ID, &s.SiteTitle, &s.Currency, &s.TTSEnabled, &s.TTSVoice, &s.MuteOverlay, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.PlatformSettings{}, ErrNotFound
	}
	return s, err
}

// SettingsUpdate carries the patchable settings fields; nil fields are left
// unchanged.
type SettingsUpdate struct {
	SiteTitle   *string
	Currency    *string
	TTSEnabled  *bool
	TTSVoice    *string
	MuteOverlay *bool
}

// Update patches the settings row and returns the updated settings.
func (r *SettingsRepo) Update(ctx context.Context, u SettingsUpdate) (model.PlatformSettings, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return model.PlatformSettings{}, err
	}

	query := "UPDATE platform_settings SET updated_at=?"
	args := []any{time.Now().UTC()}
	if u.SiteTitle != nil {
		query += ", site_title=?"
		args = append(args, *u.SiteTitle)
	}
	if u.Currency != nil {
		query += ", currency=?"
		args = append(args, *u.Currency)
	}
	if u.TTSEnabled != nil {
		query += ", tts_enabled=?"
		args = append(args, *u.TTSEnabled)
	}
	if u.TTSVoice != nil {
		query += ", tts_voice=?"
		args = append(args, *u.TTSVoice)
	}
	if u.MuteOverlay != nil {
		query += ", mute_overlay=?"
		args = append(args, *u.MuteOverlay)
	}
	query += " WHERE id=?"
	args = append(args, current.ID)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return model.PlatformSettings{}, err
	}
	return r.Get(ctx)
}
