package domain

import (
	"fmt"
	"time"
)

// Evaluate computes today's candidate alerts from a config snapshot and the
// per-cat day aggregates. It is a pure function: all data is supplied by the
// caller and rules are evaluated independently per cat.
//
// A nil threshold disables its rule. A nil aggregate value means no record of
// that type exists today and suppresses the eat/excrete/sleep rules for that
// cat rather than being treated as zero. Cats with no last-seen timestamp at
// all produce no no_cat alert.
func Evaluate(cfg SystemConfig, now time.Time, aggregates []DayAggregate) []CandidateAlert {
	var candidates []CandidateAlert

	for _, agg := range aggregates {
		if cfg.NoCatHours != nil && agg.LastSeen != nil {
			hours := int(now.Sub(*agg.LastSeen).Hours())
			if hours >= *cfg.NoCatHours {
				candidates = append(candidates, CandidateAlert{
					CatName: agg.Cat,
					Type:    AlertNoCat,
					Message: fmt.Sprintf("%s has not been seen for %d hours (limit %d)", agg.Cat, hours, *cfg.NoCatHours),
				})
			}
		}

		if cfg.MinEatCount != nil && agg.EatCount != nil && *agg.EatCount < *cfg.MinEatCount {
			candidates = append(candidates, CandidateAlert{
				CatName: agg.Cat,
				Type:    AlertNoEating,
				Message: fmt.Sprintf("%s ate only %d times today (min %d)", agg.Cat, *agg.EatCount, *cfg.MinEatCount),
			})
		}

		if agg.ExcreteCount != nil {
			count := *agg.ExcreteCount
			if cfg.MinExcreteCount != nil && count < *cfg.MinExcreteCount {
				candidates = append(candidates, CandidateAlert{
					CatName: agg.Cat,
					Type:    AlertLowExcrete,
					Message: fmt.Sprintf("%s excreted less than expected (%d/%d)", agg.Cat, count, *cfg.MinExcreteCount),
				})
			}
			if cfg.MaxExcreteCount != nil && count > *cfg.MaxExcreteCount {
				candidates = append(candidates, CandidateAlert{
					CatName: agg.Cat,
					Type:    AlertHighExcrete,
					Message: fmt.Sprintf("%s excreted more than expected (%d/%d)", agg.Cat, count, *cfg.MaxExcreteCount),
				})
			}
		}

		if agg.SleepMinutes != nil {
			hours := *agg.SleepMinutes / 60
			if cfg.MinSleepHours != nil && hours < *cfg.MinSleepHours {
				candidates = append(candidates, CandidateAlert{
					CatName: agg.Cat,
					Type:    AlertLowSleep,
					Message: fmt.Sprintf("%s slept only %.1f h today (min %.1f)", agg.Cat, hours, *cfg.MinSleepHours),
				})
			}
			if cfg.MaxSleepHours != nil && hours > *cfg.MaxSleepHours {
				candidates = append(candidates, CandidateAlert{
					CatName: agg.Cat,
					Type:    AlertHighSleep,
					Message: fmt.Sprintf("%s slept %.1f h today (max %.1f)", agg.Cat, hours, *cfg.MaxSleepHours),
				})
			}
		}
	}

	return candidates
}
