//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/petwatch/internal/domain"
)

func setupRepository(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("pet_monitoring"),
		postgrescontainer.WithUsername("petwatch"),
		postgrescontainer.WithPassword("petwatch"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return NewRepository(pool)
}

func TestAlertLedgerDailyDedup(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t, ctx)

	at := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	candidates := []domain.CandidateAlert{
		{CatName: "Mimi", Type: domain.AlertNoEating, Message: "Mimi ate only 1 times today (min 2)"},
		{CatName: "Tom", Type: domain.AlertLowSleep, Message: "Tom slept only 4.0 h today (min 8.0)"},
	}

	inserted, err := repo.InsertCandidates(ctx, candidates, at)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)

	// The same candidates later the same day hit the unique index and vanish.
	inserted, err = repo.InsertCandidates(ctx, candidates, at.Add(3*time.Hour))
	require.NoError(t, err)
	require.Zero(t, inserted)

	// A new calendar day admits the same (cat, type) pair again.
	inserted, err = repo.InsertCandidates(ctx, candidates[:1], at.Add(24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	alerts, err := repo.List(ctx, domain.AlertFilter{IncludeRead: true})
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	// Newest first.
	require.True(t, alerts[0].CreatedAt.After(alerts[1].CreatedAt))
}

func TestAlertLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t, ctx)

	at := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	_, err := repo.InsertCandidates(ctx, []domain.CandidateAlert{
		{CatName: "Mimi", Type: domain.AlertNoEating, Message: "m"},
		{CatName: "Mimi", Type: domain.AlertLowSleep, Message: "m"},
		{CatName: "Tom", Type: domain.AlertNoCat, Message: "m"},
	}, at)
	require.NoError(t, err)

	alerts, err := repo.List(ctx, domain.AlertFilter{IncludeRead: true})
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	read, err := repo.MarkRead(ctx, []int64{alerts[0].ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), read)

	// Marking the same row again is a no-op: it is no longer unread.
	read, err = repo.MarkRead(ctx, []int64{alerts[0].ID})
	require.NoError(t, err)
	require.Zero(t, read)

	unread, err := repo.List(ctx, domain.AlertFilter{IncludeRead: false})
	require.NoError(t, err)
	require.Len(t, unread, 2)

	archived, err := repo.Archive(ctx, []int64{alerts[1].ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), archived)

	remaining, err := repo.List(ctx, domain.AlertFilter{IncludeRead: true})
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	for _, a := range remaining {
		require.NotEqual(t, alerts[1].ID, a.ID)
	}

	// MarkAllRead scoped to one cat leaves other cats unread.
	updated, err := repo.MarkAllRead(ctx, "Tom")
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)

	// An unscoped MarkAllRead never resurrects the archived row and keeps
	// created_at untouched.
	_, err = repo.MarkAllRead(ctx, "")
	require.NoError(t, err)

	after, err := repo.List(ctx, domain.AlertFilter{IncludeRead: true})
	require.NoError(t, err)
	require.Len(t, after, 2)
	for i, a := range after {
		require.Equal(t, domain.AlertRead, a.State)
		require.True(t, a.CreatedAt.Equal(remaining[i].CreatedAt))
	}
}

func TestConfigMergeUpdateAndReset(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t, ctx)

	three := 3
	patch := domain.ConfigPatch{
		MinEatCount:   domain.OptionalInt{Set: true, Value: &three},
		MinSleepHours: domain.OptionalFloat{Set: true, Value: nil},
	}

	updated, err := repo.Update(ctx, patch)
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, 3, *updated.MinEatCount)
	require.Nil(t, updated.MinSleepHours)
	// Untouched fields keep the seeded values.
	require.Equal(t, 24, *updated.NoCatHours)
	require.Equal(t, 16.0, *updated.MaxSleepHours)

	stored, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.Equal(t, updated, stored)

	reset, err := repo.ResetToDefault(ctx)
	require.NoError(t, err)
	require.NotNil(t, reset)
	require.Equal(t, 2, *reset.MinEatCount)
	require.Equal(t, 8.0, *reset.MinSleepHours)
}

func TestDayAggregatesPresenceSemantics(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t, ctx)

	day := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	seedCat(t, ctx, repo, "Tom")
	seedCat(t, ctx, repo, "Mimi")

	// Tom: one zero-duration sleep record and a movement today.
	seedActivity(t, ctx, repo, "Tom", domain.ActivitySleep, day.Add(9*time.Hour), 0)
	seedMovement(t, ctx, repo, "Tom", "kitchen", day.Add(8*time.Hour))
	// Mimi: seen two days ago, nothing recorded today.
	seedMovement(t, ctx, repo, "Mimi", "garden", day.Add(-48*time.Hour))

	aggregates, err := repo.DayAggregates(ctx, day)
	require.NoError(t, err)
	require.Len(t, aggregates, 2)

	byCat := map[string]domain.DayAggregate{}
	for _, agg := range aggregates {
		byCat[agg.Cat] = agg
	}

	tom := byCat["Tom"]
	require.NotNil(t, tom.SleepMinutes)
	require.Zero(t, *tom.SleepMinutes)
	require.Nil(t, tom.EatCount)
	require.Nil(t, tom.ExcreteCount)
	require.NotNil(t, tom.LastSeen)

	mimi := byCat["Mimi"]
	require.Nil(t, mimi.SleepMinutes)
	require.Nil(t, mimi.EatCount)
	require.NotNil(t, mimi.LastSeen)
	require.True(t, mimi.LastSeen.Before(day))
}

func TestStatisticsBuckets(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t, ctx)

	seedCat(t, ctx, repo, "Tom")
	seedActivity(t, ctx, repo, "Tom", domain.ActivitySleep, time.Date(2023, time.December, 3, 22, 0, 0, 0, time.UTC), 120)
	seedActivity(t, ctx, repo, "Tom", domain.ActivityEat, time.Date(2024, time.May, 10, 8, 0, 0, 0, time.UTC), 0)
	seedActivity(t, ctx, repo, "Tom", domain.ActivitySleep, time.Date(2024, time.May, 10, 13, 0, 0, 0, time.UTC), 90)
	seedActivity(t, ctx, repo, "Tom", domain.ActivityExcrete, time.Date(2024, time.May, 11, 7, 0, 0, 0, time.UTC), 0)

	minYear, maxYear, ok, err := repo.YearBounds(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2023, minYear)
	require.Equal(t, 2024, maxYear)

	years, err := repo.Years(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{2023, 2024}, years)

	month, ok, err := repo.LatestActivityMonth(ctx, "Tom", 2024)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, time.May, month)

	daily, err := repo.DailyBuckets(ctx, "Tom", 2024, time.May)
	require.NoError(t, err)
	require.Len(t, daily, 2)
	require.Equal(t, time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC), daily[0].Day.UTC())
	require.Equal(t, 90.0, daily[0].Totals.SleepMinutes)
	require.Equal(t, 1, daily[0].Totals.EatCount)
	require.Equal(t, 1, daily[1].Totals.ExcreteCount)

	yearly, err := repo.YearlyBuckets(ctx, "Tom", 2023, 2024)
	require.NoError(t, err)
	require.Len(t, yearly, 2)
	require.Equal(t, 2023, yearly[0].Year)
	require.Equal(t, 120.0, yearly[0].Totals.SleepMinutes)
}

func seedCat(t *testing.T, ctx context.Context, repo *Repository, name string) {
	t.Helper()
	_, err := repo.pool.Exec(ctx, `INSERT INTO cats (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
	require.NoError(t, err)
}

func seedActivity(t *testing.T, ctx context.Context, repo *Repository, cat, activityType string, start time.Time, durationMinutes int) {
	t.Helper()
	_, err := repo.pool.Exec(ctx,
		`INSERT INTO cat_activities (id, cat_name, activity_type, start_time, duration_minutes)
         VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), cat, activityType, start, durationMinutes)
	require.NoError(t, err)
}

func seedMovement(t *testing.T, ctx context.Context, repo *Repository, cat, room string, enter time.Time) {
	t.Helper()
	_, err := repo.pool.Exec(ctx,
		`INSERT INTO cat_movements (event_id, cat_name, room_name, enter_time)
         VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), cat, room, enter)
	require.NoError(t, err)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
