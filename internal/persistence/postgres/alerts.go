package postgres

import (
	"context"
	"time"

	"example.com/petwatch/internal/domain"
	"example.com/petwatch/internal/observability"
)

// InsertCandidates persists today's candidates under the per-(cat, type, day)
// uniqueness constraint. The dedup is an explicit conditional insert against
// the unique index, so concurrent pollers race at the storage layer and
// exactly one insert per day wins. Any failure other than the conflict aborts
// the whole batch.
func (r *Repository) InsertCandidates(ctx context.Context, candidates []domain.CandidateAlert, at time.Time) (int, error) {
	const stmt = `INSERT INTO alerts_log (cat_name, alert_type, message, is_read, created_at)
        VALUES ($1, $2, $3, 0, $4)
        ON CONFLICT (cat_name, alert_type, ((created_at AT TIME ZONE 'UTC')::date)) DO NOTHING`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, c := range candidates {
		tag, err := tx.Exec(ctx, stmt, c.CatName, string(c.Type), c.Message, at.UTC())
		if err != nil {
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	if inserted > 0 {
		observability.RecordAlertsIngested(inserted, at)
	}
	return inserted, nil
}

// List returns non-archived alerts newest first, bounded to 500 rows.
func (r *Repository) List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, error) {
	query := `SELECT id, cat_name, alert_type, message, is_read, created_at
        FROM alerts_log
        WHERE is_read <> 2`
	args := []interface{}{}

	if filter.Cat != "" {
		args = append(args, filter.Cat)
		query += ` AND cat_name=$1`
	}
	if !filter.IncludeRead {
		query += ` AND is_read=0`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 500`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := make([]domain.Alert, 0)
	for rows.Next() {
		var a domain.Alert
		var alertType string
		if err := rows.Scan(&a.ID, &a.CatName, &alertType, &a.Message, &a.State, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Type = domain.AlertType(alertType)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkRead transitions unread alerts among ids to read; others are untouched.
func (r *Repository) MarkRead(ctx context.Context, ids []int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE alerts_log SET is_read=1 WHERE id = ANY($1) AND is_read=0`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkAllRead transitions every unread alert to read, optionally for one cat.
// Archived rows are never touched.
func (r *Repository) MarkAllRead(ctx context.Context, cat string) (int64, error) {
	query := `UPDATE alerts_log SET is_read=1 WHERE is_read=0`
	args := []interface{}{}
	if cat != "" {
		args = append(args, cat)
		query += ` AND cat_name=$1`
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Archive moves the given alerts to the terminal archived state.
func (r *Repository) Archive(ctx context.Context, ids []int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE alerts_log SET is_read=2 WHERE id = ANY($1) AND is_read <> 2`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
