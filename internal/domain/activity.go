package domain

import (
	"context"
	"time"
)

// Activity types recorded by the sensor pipeline.
const (
	ActivityEat     = "eat"
	ActivityExcrete = "excrete"
	ActivitySleep   = "sleep"
)

// DayAggregate holds one cat's totals for a single calendar day. Pointer
// fields distinguish "no record of that type today" from a recorded zero;
// only a present value may trigger a low-bound alert.
type DayAggregate struct {
	Cat          string
	LastSeen     *time.Time
	EatCount     *int
	ExcreteCount *int
	SleepMinutes *float64
}

// Cat is a roster entry with its current room, if any.
type Cat struct {
	Name        string
	ImageURL    *string
	Status      string
	CurrentRoom *string
}

// ActivityRecord is one raw entry of the activity log.
type ActivityRecord struct {
	CatName         string
	ActivityType    string
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
}

// ActivityQuery filters a raw activity listing. Zero dates mean unbounded.
type ActivityQuery struct {
	Cat       string
	StartDate time.Time
	EndDate   time.Time
}

// BucketTotals aggregates one statistics bucket: summed sleep minutes plus
// eat and excrete record counts.
type BucketTotals struct {
	SleepMinutes float64
	EatCount     int
	ExcreteCount int
}

// DayBucket, MonthBucket and YearBucket are the sparse grouping rows returned
// by the repository; buckets without recorded activity do not appear.
type DayBucket struct {
	Day    time.Time
	Totals BucketTotals
}

type MonthBucket struct {
	Month  time.Month
	Totals BucketTotals
}

type YearBucket struct {
	Year   int
	Totals BucketTotals
}

// ActivityRepository reads the raw activity and movement logs. The aggregate
// queries group in SQL; bound inference and defaulting live in StatsService.
type ActivityRepository interface {
	// DayAggregates returns per-cat totals for the day starting at dayStart
	// (UTC midnight) together with each cat's all-time last-seen timestamp.
	// Every cat in the roster yields a row; absent activity leaves nil fields.
	DayAggregates(ctx context.Context, dayStart time.Time) ([]DayAggregate, error)

	// YearBounds reports the min and max year across all activity.
	// ok is false when the activity log is empty.
	YearBounds(ctx context.Context) (minYear, maxYear int, ok bool, err error)

	// Years returns every distinct year with activity, ascending.
	Years(ctx context.Context) ([]int, error)

	// LatestActivityMonth returns the month of the given cat's most recent
	// activity within year; ok is false when the cat has none that year.
	LatestActivityMonth(ctx context.Context, cat string, year int) (time.Month, bool, error)

	DailyBuckets(ctx context.Context, cat string, year int, month time.Month) ([]DayBucket, error)
	MonthlyBuckets(ctx context.Context, cat string, year int) ([]MonthBucket, error)
	YearlyBuckets(ctx context.Context, cat string, startYear, endYear int) ([]YearBucket, error)

	ListCats(ctx context.Context) ([]Cat, error)
	ListActivities(ctx context.Context, query ActivityQuery) ([]ActivityRecord, error)
}
