package postgres

import (
	"context"
	"strconv"
	"time"

	"example.com/petwatch/internal/domain"
)

// DayAggregates returns one row per roster cat with that day's eat/excrete
// counts, summed sleep minutes and the all-time last-seen timestamp. The
// NULLIF/CASE shaping keeps "no record of that type today" distinct from a
// recorded zero, which only matters for sleep (a zero-duration record exists).
func (r *Repository) DayAggregates(ctx context.Context, dayStart time.Time) ([]domain.DayAggregate, error) {
	const query = `SELECT c.name, ls.last_seen, a.eat_count, a.excrete_count, a.sleep_minutes
        FROM cats c
        LEFT JOIN (
            SELECT cat_name, MAX(enter_time) AS last_seen
            FROM cat_movements
            GROUP BY cat_name
        ) ls ON ls.cat_name = c.name
        LEFT JOIN (
            SELECT cat_name,
                   NULLIF(COUNT(*) FILTER (WHERE activity_type='eat'), 0) AS eat_count,
                   NULLIF(COUNT(*) FILTER (WHERE activity_type='excrete'), 0) AS excrete_count,
                   CASE WHEN COUNT(*) FILTER (WHERE activity_type='sleep') > 0
                        THEN COALESCE(SUM(duration_minutes) FILTER (WHERE activity_type='sleep'), 0)
                   END AS sleep_minutes
            FROM cat_activities
            WHERE start_time >= $1 AND start_time < $2
            GROUP BY cat_name
        ) a ON a.cat_name = c.name`

	rows, err := r.pool.Query(ctx, query, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := make([]domain.DayAggregate, 0)
	for rows.Next() {
		var agg domain.DayAggregate
		if err := rows.Scan(&agg.Cat, &agg.LastSeen, &agg.EatCount, &agg.ExcreteCount, &agg.SleepMinutes); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

// YearBounds reports the min and max activity year; ok is false on an empty log.
func (r *Repository) YearBounds(ctx context.Context) (int, int, bool, error) {
	const query = `SELECT MIN(EXTRACT(YEAR FROM start_time AT TIME ZONE 'UTC'))::int,
               MAX(EXTRACT(YEAR FROM start_time AT TIME ZONE 'UTC'))::int
        FROM cat_activities`

	var minYear, maxYear *int
	if err := r.pool.QueryRow(ctx, query).Scan(&minYear, &maxYear); err != nil {
		return 0, 0, false, err
	}
	if minYear == nil || maxYear == nil {
		return 0, 0, false, nil
	}
	return *minYear, *maxYear, true, nil
}

// Years lists every distinct activity year, ascending.
func (r *Repository) Years(ctx context.Context) ([]int, error) {
	const query = `SELECT DISTINCT EXTRACT(YEAR FROM start_time AT TIME ZONE 'UTC')::int AS y
        FROM cat_activities ORDER BY y ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := make([]int, 0)
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// LatestActivityMonth returns the month of the cat's most recent activity in year.
func (r *Repository) LatestActivityMonth(ctx context.Context, cat string, year int) (time.Month, bool, error) {
	const query = `SELECT EXTRACT(MONTH FROM MAX(start_time AT TIME ZONE 'UTC'))::int
        FROM cat_activities
        WHERE cat_name=$1 AND EXTRACT(YEAR FROM start_time AT TIME ZONE 'UTC')=$2`

	var month *int
	if err := r.pool.QueryRow(ctx, query, cat, year).Scan(&month); err != nil {
		return 0, false, err
	}
	if month == nil {
		return 0, false, nil
	}
	return time.Month(*month), true, nil
}

const bucketTotalsSelect = `
    SUM(CASE WHEN activity_type='sleep' THEN COALESCE(duration_minutes, 0) ELSE 0 END)::float8,
    COUNT(*) FILTER (WHERE activity_type='eat')::int,
    COUNT(*) FILTER (WHERE activity_type='excrete')::int`

// DailyBuckets groups the cat's activity by calendar day within (year, month).
func (r *Repository) DailyBuckets(ctx context.Context, cat string, year int, month time.Month) ([]domain.DayBucket, error) {
	query := `SELECT (start_time AT TIME ZONE 'UTC')::date AS d,` + bucketTotalsSelect + `
        FROM cat_activities
        WHERE cat_name=$1
          AND EXTRACT(YEAR FROM start_time AT TIME ZONE 'UTC')=$2
          AND EXTRACT(MONTH FROM start_time AT TIME ZONE 'UTC')=$3
        GROUP BY d ORDER BY d`

	rows, err := r.pool.Query(ctx, query, cat, year, int(month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]domain.DayBucket, 0)
	for rows.Next() {
		var b domain.DayBucket
		if err := rows.Scan(&b.Day, &b.Totals.SleepMinutes, &b.Totals.EatCount, &b.Totals.ExcreteCount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// MonthlyBuckets groups the cat's activity by month within year.
func (r *Repository) MonthlyBuckets(ctx context.Context, cat string, year int) ([]domain.MonthBucket, error) {
	query := `SELECT EXTRACT(MONTH FROM start_time AT TIME ZONE 'UTC')::int AS mo,` + bucketTotalsSelect + `
        FROM cat_activities
        WHERE cat_name=$1 AND EXTRACT(YEAR FROM start_time AT TIME ZONE 'UTC')=$2
        GROUP BY mo ORDER BY mo`

	rows, err := r.pool.Query(ctx, query, cat, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]domain.MonthBucket, 0)
	for rows.Next() {
		var month int
		var b domain.MonthBucket
		if err := rows.Scan(&month, &b.Totals.SleepMinutes, &b.Totals.EatCount, &b.Totals.ExcreteCount); err != nil {
			return nil, err
		}
		b.Month = time.Month(month)
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// YearlyBuckets groups the cat's activity by year over [startYear, endYear].
func (r *Repository) YearlyBuckets(ctx context.Context, cat string, startYear, endYear int) ([]domain.YearBucket, error) {
	query := `SELECT EXTRACT(YEAR FROM start_time AT TIME ZONE 'UTC')::int AS y,` + bucketTotalsSelect + `
        FROM cat_activities
        WHERE cat_name=$1 AND EXTRACT(YEAR FROM start_time AT TIME ZONE 'UTC') BETWEEN $2 AND $3
        GROUP BY y ORDER BY y`

	rows, err := r.pool.Query(ctx, query, cat, startYear, endYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]domain.YearBucket, 0)
	for rows.Next() {
		var b domain.YearBucket
		if err := rows.Scan(&b.Year, &b.Totals.SleepMinutes, &b.Totals.EatCount, &b.Totals.ExcreteCount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// ListCats returns the roster with each cat's currently occupied room.
func (r *Repository) ListCats(ctx context.Context) ([]domain.Cat, error) {
	const query = `SELECT c.name, c.image_url, c.status, cm.room_name
        FROM cats c
        LEFT JOIN (
            SELECT cat_name, room_name
            FROM cat_movements
            WHERE exit_time IS NULL
        ) cm ON cm.cat_name = c.name
        ORDER BY c.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := make([]domain.Cat, 0)
	for rows.Next() {
		var c domain.Cat
		if err := rows.Scan(&c.Name, &c.ImageURL, &c.Status, &c.CurrentRoom); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// ListActivities returns raw activity rows matching the query, oldest first.
func (r *Repository) ListActivities(ctx context.Context, q domain.ActivityQuery) ([]domain.ActivityRecord, error) {
	query := `SELECT cat_name, activity_type, start_time, end_time, duration_minutes
        FROM cat_activities WHERE 1=1`
	args := []interface{}{}

	if q.Cat != "" {
		args = append(args, q.Cat)
		query += ` AND cat_name=$1`
	}
	if !q.StartDate.IsZero() {
		args = append(args, q.StartDate)
		query += ` AND (start_time AT TIME ZONE 'UTC')::date >= $` + strconv.Itoa(len(args))
	}
	if !q.EndDate.IsZero() {
		args = append(args, q.EndDate)
		query += ` AND (start_time AT TIME ZONE 'UTC')::date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.ActivityRecord, 0)
	for rows.Next() {
		var rec domain.ActivityRecord
		if err := rows.Scan(&rec.CatName, &rec.ActivityType, &rec.StartTime, &rec.EndTime, &rec.DurationMinutes); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
