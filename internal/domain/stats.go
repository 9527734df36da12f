package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Period selects the statistics bucket size.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// StatsParams carries the optional grouping parameters; zero means unset.
type StatsParams struct {
	Year      int
	Month     time.Month
	StartYear int
	EndYear   int
}

// SeriesPoint is one bucket of a statistics series.
type SeriesPoint struct {
	Label string
	BucketTotals
}

// Summary totals a series over exactly its returned buckets.
type Summary struct {
	TotalSleepHours   float64
	TotalEatCount     int
	TotalExcreteCount int
}

// Series is a computed, non-persisted statistics result.
type Series struct {
	Points  []SeriesPoint
	Summary Summary
}

// StatsService buckets activity into daily/monthly/yearly series for one cat,
// inferring missing year/month bounds from the data itself.
type StatsService struct {
	activity ActivityRepository
}

// NewStatsService constructs a StatsService.
func NewStatsService(activity ActivityRepository) *StatsService {
	return &StatsService{activity: activity}
}

// Years returns every year with recorded activity, ascending.
func (s *StatsService) Years(ctx context.Context) ([]int, error) {
	return s.activity.Years(ctx)
}

// Aggregate computes the series for one cat. Unknown periods fall back to
// yearly grouping. When no grouping parameters can be resolved from an empty
// activity log the result is an empty series rather than an error.
func (s *StatsService) Aggregate(ctx context.Context, cat string, period Period, params StatsParams) (Series, error) {
	if strings.TrimSpace(cat) == "" {
		return Series{}, fmt.Errorf("%w: cat is required", ErrInvalidArgument)
	}

	minYear, maxYear, ok, err := s.activity.YearBounds(ctx)
	if err != nil {
		return Series{}, err
	}

	switch period {
	case PeriodDaily:
		return s.daily(ctx, cat, params, maxYear, ok)
	case PeriodMonthly:
		return s.monthly(ctx, cat, params, maxYear, ok)
	default:
		return s.yearly(ctx, cat, params, minYear, maxYear, ok)
	}
}

func (s *StatsService) daily(ctx context.Context, cat string, params StatsParams, maxYear int, haveBounds bool) (Series, error) {
	year := params.Year
	if year == 0 {
		if !haveBounds {
			return Series{}, nil
		}
		year = maxYear
	}

	month := params.Month
	if month == 0 {
		latest, ok, err := s.activity.LatestActivityMonth(ctx, cat, year)
		if err != nil {
			return Series{}, err
		}
		month = time.January
		if ok {
			month = latest
		}
	}

	buckets, err := s.activity.DailyBuckets(ctx, cat, year, month)
	if err != nil {
		return Series{}, err
	}

	points := make([]SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, SeriesPoint{Label: b.Day.Format("2006-01-02"), BucketTotals: b.Totals})
	}
	return newSeries(points), nil
}

func (s *StatsService) monthly(ctx context.Context, cat string, params StatsParams, maxYear int, haveBounds bool) (Series, error) {
	year := params.Year
	if year == 0 {
		if !haveBounds {
			return Series{}, nil
		}
		year = maxYear
	}

	buckets, err := s.activity.MonthlyBuckets(ctx, cat, year)
	if err != nil {
		return Series{}, err
	}

	points := make([]SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, SeriesPoint{Label: fmt.Sprintf("%04d-%02d", year, b.Month), BucketTotals: b.Totals})
	}
	return newSeries(points), nil
}

func (s *StatsService) yearly(ctx context.Context, cat string, params StatsParams, minYear, maxYear int, haveBounds bool) (Series, error) {
	start, end := params.StartYear, params.EndYear
	if start == 0 && haveBounds {
		start = minYear
	}
	if end == 0 && haveBounds {
		end = maxYear
	}
	if start == 0 || end == 0 {
		return Series{}, nil
	}

	// Clamp the requested range to the data bounds, then normalise order.
	if haveBounds {
		if start < minYear {
			start = minYear
		}
		if end > maxYear {
			end = maxYear
		}
	}
	if start > end {
		start, end = end, start
	}

	buckets, err := s.activity.YearlyBuckets(ctx, cat, start, end)
	if err != nil {
		return Series{}, err
	}

	points := make([]SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, SeriesPoint{Label: fmt.Sprintf("%04d", b.Year), BucketTotals: b.Totals})
	}
	return newSeries(points), nil
}

func newSeries(points []SeriesPoint) Series {
	var sum Summary
	var sleepMinutes float64
	for _, p := range points {
		sleepMinutes += p.SleepMinutes
		sum.TotalEatCount += p.EatCount
		sum.TotalExcreteCount += p.ExcreteCount
	}
	sum.TotalSleepHours = sleepMinutes / 60
	return Series{Points: points, Summary: sum}
}
