package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeActivityRepo serves canned bucket data and records the bounds the
// service resolved for each query.
type fakeActivityRepo struct {
	minYear, maxYear int
	haveBounds       bool
	years            []int
	latestMonth      time.Month
	haveLatestMonth  bool

	aggregates []DayAggregate
	daily      []DayBucket
	monthly    []MonthBucket
	yearly     []YearBucket

	gotYear      int
	gotMonth     time.Month
	gotStartYear int
	gotEndYear   int
}

func (f *fakeActivityRepo) DayAggregates(context.Context, time.Time) ([]DayAggregate, error) {
	return f.aggregates, nil
}

func (f *fakeActivityRepo) YearBounds(context.Context) (int, int, bool, error) {
	return f.minYear, f.maxYear, f.haveBounds, nil
}

func (f *fakeActivityRepo) Years(context.Context) ([]int, error) {
	return f.years, nil
}

func (f *fakeActivityRepo) LatestActivityMonth(_ context.Context, _ string, year int) (time.Month, bool, error) {
	f.gotYear = year
	return f.latestMonth, f.haveLatestMonth, nil
}

func (f *fakeActivityRepo) DailyBuckets(_ context.Context, _ string, year int, month time.Month) ([]DayBucket, error) {
	f.gotYear, f.gotMonth = year, month
	return f.daily, nil
}

func (f *fakeActivityRepo) MonthlyBuckets(_ context.Context, _ string, year int) ([]MonthBucket, error) {
	f.gotYear = year
	return f.monthly, nil
}

func (f *fakeActivityRepo) YearlyBuckets(_ context.Context, _ string, startYear, endYear int) ([]YearBucket, error) {
	f.gotStartYear, f.gotEndYear = startYear, endYear
	return f.yearly, nil
}

func (f *fakeActivityRepo) ListCats(context.Context) ([]Cat, error) {
	return nil, nil
}

func (f *fakeActivityRepo) ListActivities(context.Context, ActivityQuery) ([]ActivityRecord, error) {
	return nil, nil
}

func TestAggregateRequiresCat(t *testing.T) {
	svc := NewStatsService(&fakeActivityRepo{})

	_, err := svc.Aggregate(context.Background(), "  ", PeriodDaily, StatsParams{})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAggregateDaily(t *testing.T) {
	repo := &fakeActivityRepo{
		minYear: 2023, maxYear: 2024, haveBounds: true,
		daily: []DayBucket{{
			Day:    time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC),
			Totals: BucketTotals{SleepMinutes: 90, EatCount: 1},
		}},
	}
	svc := NewStatsService(repo)

	series, err := svc.Aggregate(context.Background(), "Tom", PeriodDaily, StatsParams{Year: 2024, Month: time.May})
	require.NoError(t, err)

	require.Len(t, series.Points, 1)
	require.Equal(t, "2024-05-10", series.Points[0].Label)
	require.Equal(t, float64(90), series.Points[0].SleepMinutes)
	require.Equal(t, 1, series.Points[0].EatCount)
	require.Equal(t, 1.5, series.Summary.TotalSleepHours)
	require.Equal(t, 1, series.Summary.TotalEatCount)
	require.Equal(t, 0, series.Summary.TotalExcreteCount)
}

func TestAggregateDailyDefaultsToLatestData(t *testing.T) {
	repo := &fakeActivityRepo{
		minYear: 2022, maxYear: 2024, haveBounds: true,
		latestMonth: time.September, haveLatestMonth: true,
	}
	svc := NewStatsService(repo)

	_, err := svc.Aggregate(context.Background(), "Tom", PeriodDaily, StatsParams{})
	require.NoError(t, err)
	require.Equal(t, 2024, repo.gotYear)
	require.Equal(t, time.September, repo.gotMonth)
}

func TestAggregateDailyFallsBackToJanuary(t *testing.T) {
	repo := &fakeActivityRepo{minYear: 2024, maxYear: 2024, haveBounds: true}
	svc := NewStatsService(repo)

	_, err := svc.Aggregate(context.Background(), "Tom", PeriodDaily, StatsParams{Year: 2024})
	require.NoError(t, err)
	require.Equal(t, time.January, repo.gotMonth)
}

func TestAggregateEmptyLogYieldsEmptySeries(t *testing.T) {
	svc := NewStatsService(&fakeActivityRepo{})

	for _, period := range []Period{PeriodDaily, PeriodMonthly, PeriodYearly} {
		series, err := svc.Aggregate(context.Background(), "Tom", period, StatsParams{})
		require.NoError(t, err)
		require.Empty(t, series.Points)
		require.Zero(t, series.Summary)
	}
}

func TestAggregateMonthlyLabels(t *testing.T) {
	repo := &fakeActivityRepo{
		minYear: 2024, maxYear: 2024, haveBounds: true,
		monthly: []MonthBucket{
			{Month: time.March, Totals: BucketTotals{SleepMinutes: 600, EatCount: 40, ExcreteCount: 20}},
			{Month: time.April, Totals: BucketTotals{SleepMinutes: 300, EatCount: 10, ExcreteCount: 5}},
		},
	}
	svc := NewStatsService(repo)

	series, err := svc.Aggregate(context.Background(), "Tom", PeriodMonthly, StatsParams{})
	require.NoError(t, err)
	require.Equal(t, 2024, repo.gotYear)
	require.Equal(t, "2024-03", series.Points[0].Label)
	require.Equal(t, "2024-04", series.Points[1].Label)
	require.Equal(t, 15.0, series.Summary.TotalSleepHours)
	require.Equal(t, 50, series.Summary.TotalEatCount)
	require.Equal(t, 25, series.Summary.TotalExcreteCount)
}

func TestAggregateYearlyClampsToDataBounds(t *testing.T) {
	repo := &fakeActivityRepo{minYear: 2022, maxYear: 2024, haveBounds: true}
	svc := NewStatsService(repo)

	_, err := svc.Aggregate(context.Background(), "Tom", PeriodYearly, StatsParams{StartYear: 1900, EndYear: 2100})
	require.NoError(t, err)
	require.Equal(t, 2022, repo.gotStartYear)
	require.Equal(t, 2024, repo.gotEndYear)
}

func TestAggregateYearlySwapsInvertedRange(t *testing.T) {
	repo := &fakeActivityRepo{minYear: 2020, maxYear: 2025, haveBounds: true}
	svc := NewStatsService(repo)

	_, err := svc.Aggregate(context.Background(), "Tom", PeriodYearly, StatsParams{StartYear: 2024, EndYear: 2021})
	require.NoError(t, err)
	require.Equal(t, 2021, repo.gotStartYear)
	require.Equal(t, 2024, repo.gotEndYear)
}

func TestAggregateUnknownPeriodFallsBackToYearly(t *testing.T) {
	repo := &fakeActivityRepo{
		minYear: 2023, maxYear: 2024, haveBounds: true,
		yearly: []YearBucket{{Year: 2023}, {Year: 2024}},
	}
	svc := NewStatsService(repo)

	series, err := svc.Aggregate(context.Background(), "Tom", Period("weekly"), StatsParams{})
	require.NoError(t, err)
	require.Equal(t, "2023", series.Points[0].Label)
	require.Equal(t, "2024", series.Points[1].Label)
}
