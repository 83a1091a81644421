package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
)

// TierRepo provides access to the configurable alert tiers. Rows are
// returned ordered by minimum amount ascending so resolution and the admin
// panel see a stable order.
type TierRepo struct {
	db *sql.DB
}

// NewTierRepo returns a TierRepo bound to the given database.
func NewTierRepo(db *sql.DB) *TierRepo { return &TierRepo{db: db} }

const tierColumns = "id, tier_key, label, min_amount, duration_ms, color, sound_url, background_url, volume, updated_at"

// ListAll returns every tier ordered by min_amount ascending.
func (r *TierRepo) ListAll(ctx context.Context) ([]model.TierSetting, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+tierColumns+" FROM tier_settings ORDER BY min_amount ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TierSetting{}
	for rows.Next() {
		t, err := scanTier(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID fetches one tier row.
func (r *TierRepo) GetByID(ctx context.Context, id uint64) (model.TierSetting, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+tierColumns+" FROM tier_settings WHERE id=? LIMIT 1", id)
	t, err := scanTier(row.Scan)
	if err == sql.ErrNoRows {
		return model.TierSetting{}, ErrNotFound
	}
	return t, err
}

// TierUpdate carries the patchable fields of a tier; nil fields are left
// unchanged.
type TierUpdate struct {
	Label         *string
	MinAmount     *float64
	DurationMS    *int
	Color         *string
	SoundURL      *string
	BackgroundURL *string
	Volume        *int
}

// Update patches one tier and returns the updated row. Only non-nil fields
// are written; updated_at is always stamped.
func (r *TierRepo) Update(ctx context.Context, id uint64, u TierUpdate) (model.TierSetting, error) {
	query := "UPDATE tier_settings SET updated_at=?"
	args := []any{time.Now().UTC()}
	if u.Label != nil {
		query += ", label=?"
		args = append(args, *u.Label)
	}
	if u.MinAmount != nil {
		query += ", min_amount=?"
		args = append(args, *u.MinAmount)
	}
	if u.DurationMS != nil {
		query += ", duration_ms=?"
		args = append(args, *u.DurationMS)
	}
	if u.Color != nil {
		query += ", color=?"
		args = append(args, *u.Color)
	}
	if u.SoundURL != nil {
		query += ", sound_url=?"
		args = append(args, *u.SoundURL)
	}
	if u.BackgroundURL != nil {
		query += ", background_url=?"
		args = append(args, *u.BackgroundURL)
	}
	if u.Volume != nil {
		query += ", volume=?"
		args = append(args, *u.Volume)
	}
	query += " WHERE id=?"
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.TierSetting{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.TierSetting{}, err
	} else if n == 0 {
		// MySQL reports zero affected rows for a no-op update too, so
		// distinguish via existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.TierSetting{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// scanTier reads one tier row from any row scanner.
func scanTier(scan func(dest ...any) error) (model.TierSetting, error) {
	var t model.TierSetting
	var sound, background sql.NullString
	err := scan(&t.ID, &t.TierKey, &t.Label, &t.MinAmount, &t.DurationMS, &t.Color,
		&sound, &background, &t.Volume, &t.UpdatedAt)
	if err != nil {
		return model.TierSetting{}, err
	}
	t.SoundURL = sound.String
	t.BackgroundURL = background.String
	return t, nil
}
