package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
)

// DonationRepo provides persistence for donation records and their status
// transitions. All timestamps are stored in UTC. Status transitions are
// conditional updates: the UPDATE only matches when the row is still in the
// expected prior state, so a lost race surfaces as zero affected rows
// instead of a silent double transition.
type DonationRepo struct {
	db *sql.DB
}

// NewDonationRepo returns a DonationRepo bound to the given database.
func NewDonationRepo(db *sql.DB) *DonationRepo { return &DonationRepo{db: db} }

const donationColumns = "id, donor_name, amount, message, tier, status, created_at, displayed_at"

// scanDonation reads one donation row from any row scanner.
func scanDonation(scan func(dest ...any) error) (model.Donation, error) {
	var d model.Donation
	var displayedAt sql.NullTime
	err := scan(&d.ID, &d.DonorName, &d.Amount, &d.Message, &d.Tier, &d.Status, &d.CreatedAt, &displayedAt)
	if err != nil {
		return model.Donation{}, err
	}
	if displayedAt.Valid {
		t := displayedAt.Time
		d.DisplayedAt = &t
	}
	return d, nil
}

// Create inserts a new donation with status pending. The ID is generated
// here when empty; callers must have validated and tier-stamped the record.
func (r *DonationRepo) Create(ctx context.Context, d *model.Donation) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Status = model.StatusPending
	d.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO donations (id, donor_name, amount, message, tier, status, created_at) VALUES (?,?,?,?,?,?,?)",
		d.ID, d.DonorName, d.Amount, d.Message, d.Tier, d.Status, d.CreatedAt)
	return err
}

// GetByID fetches one donation.
func (r *DonationRepo) GetByID(ctx context.Context, id string) (model.Donation, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+donationColumns+" FROM donations WHERE id=? LIMIT 1", id)
	d, err := scanDonation(row.Scan)
	if err == sql.ErrNoRows {
		return model.Donation{}, ErrNotFound
	}
	return d, err
}

// ListAll returns every donation, newest first, for the admin dashboard.
func (r *DonationRepo) ListAll(ctx context.Context) ([]model.Donation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+donationColumns+" FROM donations ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDonations(rows)
}

// ListOutstanding returns donations in status pending or live ordered by
// creation time ascending. Oldest first keeps FIFO fairness across restarts:
// a donation that arrived first is shown first even after a reconnect.
func (r *DonationRepo) ListOutstanding(ctx context.Context) ([]model.Donation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+donationColumns+" FROM donations WHERE status IN (?,?) ORDER BY created_at ASC",
		model.StatusPending, model.StatusLive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDonations(rows)
}

// LatestCompleted returns the most recently displayed done donation, or nil
// when none exists.
func (r *DonationRepo) LatestCompleted(ctx context.Context) (*model.Donation, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+donationColumns+" FROM donations WHERE status=? ORDER BY displayed_at DESC LIMIT 1",
		model.StatusDone)
	d, err := scanDonation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// TopDonorSince returns the highest single donation created at or after the
// given time, or nil when there are none.
func (r *DonationRepo) TopDonorSince(ctx context.Context, since time.Time) (*model.TopDonor, error) {
	var top model.TopDonor
	err := r.db.QueryRowContext(ctx,
		"SELECT donor_name, amount FROM donations WHERE created_at >= ? ORDER BY amount DESC LIMIT 1",
		since.UTC()).Scan(&top.DonorName, &top.Amount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &top, nil
}

// MarkLive performs the pending->live transition as a conditional update.
// It returns ErrNotFound when the id does not exist and ErrInvalidTransition
// when the donation exists but is no longer pending, so a concurrent second
// dispatch fails cleanly without emitting a broadcast.
func (r *DonationRepo) MarkLive(ctx context.Context, id string) error {
	return r.transition(ctx,
		"UPDATE donations SET status=? WHERE id=? AND status=?",
		id, model.StatusLive, id, model.StatusPending)
}

// MarkDone performs the live->done transition, stamping displayed_at. Only a
// display consumer's completion report goes through this path.
func (r *DonationRepo) MarkDone(ctx context.Context, id string, displayedAt time.Time) error {
	return r.transition(ctx,
		"UPDATE donations SET status=?, displayed_at=? WHERE id=? AND status=?",
		id, model.StatusDone, displayedAt.UTC(), id, model.StatusLive)
}

// transition runs a conditional status update and classifies a zero-row
// result into not-found versus invalid-transition.
func (r *DonationRepo) transition(ctx context.Context, query string, id string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM donations WHERE id=?)", id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

// Delete removes one donation. Deletion is orthogonal to the state machine
// and is allowed from any state.
func (r *DonationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM donations WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSince removes donations created at or after the given time and
// returns how many were deleted.
func (r *DonationRepo) DeleteSince(ctx context.Context, since time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM donations WHERE created_at >= ?", since.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAll removes every donation and returns how many were deleted.
func (r *DonationRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM donations")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DayStats aggregates donations created at or after the given time.
type DayStats struct {
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// StatsSince computes total, count and average amount for donations created
// at or after the given time.
func (r *DonationRepo) StatsSince(ctx context.Context, since time.Time) (DayStats, error) {
	var s DayStats
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount),0), COUNT(*), COALESCE(AVG(amount),0) FROM donations WHERE created_at >= ?",
		since.UTC()).Scan(&s.Total, &s.Count, &s.Average)
	return s, err
}

// DailyTotal is one point of the daily donation trend.
type DailyTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// DailyTotals aggregates donation amounts per day inside [start, end] for
// the analytics chart, in chronological order.
func (r *DonationRepo) DailyTotals(ctx context.Context, start, end time.Time) ([]DailyTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DATE(created_at), COALESCE(SUM(amount),0)
		 FROM donations WHERE created_at BETWEEN ? AND ?
		 GROUP BY DATE(created_at) ORDER BY DATE(created_at)`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DailyTotal{}
	for rows.Next() {
		var t DailyTotal
		if err := rows.Scan(&t.Date, &t.Total); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TierCount is one slice of the tier distribution chart.
type TierCount struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

// TierDistribution counts donations per frozen tier key inside [start, end].
func (r *DonationRepo) TierDistribution(ctx context.Context, start, end time.Time) ([]TierCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tier, COUNT(*) FROM donations
		 WHERE created_at BETWEEN ? AND ?
		 GROUP BY tier ORDER BY COUNT(*) DESC`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TierCount{}
	for rows.Next() {
		var t TierCount
		if err := rows.Scan(&t.Tier, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// collectDonations drains a donation result set.
func collectDonations(rows *sql.Rows) ([]model.Donation, error) {
	out := []model.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
