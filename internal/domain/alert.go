// Package domain defines the business logic for the petwatch backend.
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrActiveConfigNotFound is returned when no active threshold config exists.
	ErrActiveConfigNotFound = errors.New("active system config not found")
	// ErrDefaultConfigNotFound is returned when no default threshold config exists.
	ErrDefaultConfigNotFound = errors.New("default system config not found")
	// ErrInvalidArgument is returned for empty id sets and missing required parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)

// AlertType identifies the rule that produced an alert.
type AlertType string

const (
	AlertNoCat       AlertType = "no_cat"
	AlertNoEating    AlertType = "no_eating"
	AlertLowExcrete  AlertType = "low_excrete"
	AlertHighExcrete AlertType = "high_excrete"
	AlertLowSleep    AlertType = "low_sleep"
	AlertHighSleep   AlertType = "high_sleep"
)

// AlertState tracks the read/archive lifecycle of a ledger row.
// The numeric values match the is_read column (0=unread, 1=read, 2=archived).
type AlertState int16

const (
	AlertUnread   AlertState = 0
	AlertRead     AlertState = 1
	AlertArchived AlertState = 2
)

// Alert is a persisted ledger row.
type Alert struct {
	ID        int64
	CatName   string
	Type      AlertType
	Message   string
	State     AlertState
	CreatedAt time.Time
}

// CandidateAlert is an alert computed by the evaluator for today, not yet persisted.
type CandidateAlert struct {
	CatName string
	Type    AlertType
	Message string
}

// AlertFilter restricts a ledger listing.
type AlertFilter struct {
	Cat         string
	IncludeRead bool
}

// AlertRepository captures ledger persistence. InsertCandidates must use a
// conditional insert against the (cat, type, day) unique key so that concurrent
// pollers racing on the same candidate leave exactly one row per day.
type AlertRepository interface {
	InsertCandidates(ctx context.Context, candidates []CandidateAlert, at time.Time) (int, error)
	List(ctx context.Context, filter AlertFilter) ([]Alert, error)
	MarkRead(ctx context.Context, ids []int64) (int64, error)
	MarkAllRead(ctx context.Context, cat string) (int64, error)
	Archive(ctx context.Context, ids []int64) (int64, error)
}

// AlertService runs the poll-triggered alert engine on top of the ledger.
type AlertService struct {
	configs  ConfigRepository
	activity ActivityRepository
	alerts   AlertRepository
	now      func() time.Time
}

// NewAlertService constructs an AlertService.
func NewAlertService(configs ConfigRepository, activity ActivityRepository, alerts AlertRepository) *AlertService {
	return &AlertService{
		configs:  configs,
		activity: activity,
		alerts:   alerts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Poll computes today's candidate alerts and ingests them into the ledger.
// It returns the number of rows actually inserted; candidates already alerted
// today are silently dropped by the conditional insert. A missing active
// config yields no candidates rather than an error, matching the evaluator's
// "insufficient data, no alert" stance.
func (s *AlertService) Poll(ctx context.Context) (int, error) {
	cfg, err := s.configs.GetActive(ctx)
	if err != nil {
		return 0, err
	}
	if cfg == nil {
		return 0, nil
	}

	now := s.now()
	aggregates, err := s.activity.DayAggregates(ctx, dayStart(now))
	if err != nil {
		return 0, err
	}

	candidates := Evaluate(*cfg, now, aggregates)
	if len(candidates) == 0 {
		return 0, nil
	}
	return s.alerts.InsertCandidates(ctx, candidates, now)
}

// List ingests today's candidates first, so every listing is self-healing
// against missed polls, then returns non-archived alerts newest first.
func (s *AlertService) List(ctx context.Context, filter AlertFilter) ([]Alert, error) {
	if _, err := s.Poll(ctx); err != nil {
		return nil, err
	}
	return s.alerts.List(ctx, filter)
}

// MarkRead transitions the given alerts from unread to read. Rows in any other
// state are untouched.
func (s *AlertService) MarkRead(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrInvalidArgument
	}
	return s.alerts.MarkRead(ctx, ids)
}

// MarkAllRead transitions every unread alert to read, optionally scoped to one cat.
func (s *AlertService) MarkAllRead(ctx context.Context, cat string) (int64, error) {
	return s.alerts.MarkAllRead(ctx, cat)
}

// Archive transitions the given alerts to the terminal archived state.
func (s *AlertService) Archive(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrInvalidArgument
	}
	return s.alerts.Archive(ctx, ids)
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
