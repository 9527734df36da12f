package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func intp(v int) *int             { return &v }
func floatp(v float64) *float64   { return &v }
func timep(v time.Time) *time.Time { return &v }

func fullConfig() SystemConfig {
	return SystemConfig{
		NoCatHours:      intp(24),
		MinEatCount:     intp(2),
		MinExcreteCount: intp(1),
		MaxExcreteCount: intp(5),
		MinSleepHours:   floatp(8),
		MaxSleepHours:   floatp(16),
	}
}

func TestEvaluateInBoundsProducesNoAlerts(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	aggs := []DayAggregate{{
		Cat:          "Tom",
		LastSeen:     timep(now.Add(-1 * time.Hour)),
		EatCount:     intp(3),
		ExcreteCount: intp(3),
		SleepMinutes: floatp(10 * 60),
	}}

	require.Empty(t, Evaluate(fullConfig(), now, aggs))
}

func TestEvaluateNoEating(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	aggs := []DayAggregate{{Cat: "Mimi", EatCount: intp(1)}}

	cfg := SystemConfig{MinEatCount: intp(2)}
	candidates := Evaluate(cfg, now, aggs)

	require.Len(t, candidates, 1)
	require.Equal(t, AlertNoEating, candidates[0].Type)
	require.Equal(t, "Mimi", candidates[0].CatName)
	require.Equal(t, "Mimi ate only 1 times today (min 2)", candidates[0].Message)
}

func TestEvaluateMissingAggregatesSuppressRules(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	// Thresholds all set, but no data recorded today and the cat was seen
	// recently: absence of an aggregate must not be treated as zero.
	aggs := []DayAggregate{{Cat: "Tom", LastSeen: timep(now.Add(-30 * time.Minute))}}

	require.Empty(t, Evaluate(fullConfig(), now, aggs))
}

func TestEvaluateNeverSeenCatProducesNoAlert(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	aggs := []DayAggregate{{Cat: "Ghost"}}

	require.Empty(t, Evaluate(fullConfig(), now, aggs))
}

func TestEvaluateNoCatFiresAtThreshold(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	cfg := SystemConfig{NoCatHours: intp(24)}

	candidates := Evaluate(cfg, now, []DayAggregate{{Cat: "Tom", LastSeen: timep(now.Add(-24 * time.Hour))}})
	require.Len(t, candidates, 1)
	require.Equal(t, AlertNoCat, candidates[0].Type)
	require.Equal(t, "Tom has not been seen for 24 hours (limit 24)", candidates[0].Message)

	candidates = Evaluate(cfg, now, []DayAggregate{{Cat: "Tom", LastSeen: timep(now.Add(-23 * time.Hour))}})
	require.Empty(t, candidates)
}

func TestEvaluateZeroSleepRecordStillEvaluates(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	cfg := SystemConfig{MinSleepHours: floatp(8)}

	// A sleep record with zero duration exists; unlike a missing aggregate,
	// the recorded zero may trigger the low bound.
	candidates := Evaluate(cfg, now, []DayAggregate{{Cat: "Luna", SleepMinutes: floatp(0)}})
	require.Len(t, candidates, 1)
	require.Equal(t, AlertLowSleep, candidates[0].Type)
	require.Equal(t, "Luna slept only 0.0 h today (min 8.0)", candidates[0].Message)
}

func TestEvaluateHighSleep(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	cfg := SystemConfig{MaxSleepHours: floatp(16)}

	candidates := Evaluate(cfg, now, []DayAggregate{{Cat: "Tom", SleepMinutes: floatp(1050)}})
	require.Len(t, candidates, 1)
	require.Equal(t, AlertHighSleep, candidates[0].Type)
	require.Equal(t, "Tom slept 17.5 h today (max 16.0)", candidates[0].Message)
}

func TestEvaluateExcreteBounds(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	cfg := SystemConfig{MinExcreteCount: intp(2), MaxExcreteCount: intp(4)}

	low := Evaluate(cfg, now, []DayAggregate{{Cat: "Tom", ExcreteCount: intp(1)}})
	require.Len(t, low, 1)
	require.Equal(t, AlertLowExcrete, low[0].Type)
	require.Equal(t, "Tom excreted less than expected (1/2)", low[0].Message)

	high := Evaluate(cfg, now, []DayAggregate{{Cat: "Tom", ExcreteCount: intp(5)}})
	require.Len(t, high, 1)
	require.Equal(t, AlertHighExcrete, high[0].Type)
	require.Equal(t, "Tom excreted more than expected (5/4)", high[0].Message)
}

func TestEvaluateMisconfiguredExcreteBoundsBothFire(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	// min > max is not validated by the evaluator; both rules fire.
	cfg := SystemConfig{MinExcreteCount: intp(5), MaxExcreteCount: intp(2)}

	candidates := Evaluate(cfg, now, []DayAggregate{{Cat: "Tom", ExcreteCount: intp(3)}})
	require.Len(t, candidates, 2)
	require.Equal(t, AlertLowExcrete, candidates[0].Type)
	require.Equal(t, AlertHighExcrete, candidates[1].Type)
}

func TestEvaluateUnsetThresholdsDisableRules(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	aggs := []DayAggregate{{
		Cat:          "Tom",
		LastSeen:     timep(now.Add(-100 * time.Hour)),
		EatCount:     intp(0),
		ExcreteCount: intp(50),
		SleepMinutes: floatp(0),
	}}

	require.Empty(t, Evaluate(SystemConfig{}, now, aggs))
}
