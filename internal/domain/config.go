package domain

import "context"

// SystemConfig is the threshold record governing alert evaluation. Nil fields
// are stored as NULL and disable the corresponding rule.
type SystemConfig struct {
	NoCatHours       *int
	MinEatCount      *int
	MinExcreteCount  *int
	MaxExcreteCount  *int
	MinSleepHours    *float64
	MaxSleepHours    *float64
	MaxSupportedCats *int
}

// OptionalInt is a patch field: Set marks presence, Value may be nil to clear.
type OptionalInt struct {
	Set   bool
	Value *int
}

// OptionalFloat is the float counterpart of OptionalInt.
type OptionalFloat struct {
	Set   bool
	Value *float64
}

// ConfigPatch is a sparse update of the active config. Fields that are not
// set keep the stored value; fields that are set overwrite it, including to
// null. The coalesce against the current row happens inside the repository
// transaction, never from a second read.
type ConfigPatch struct {
	NoCatHours       OptionalInt
	MinEatCount      OptionalInt
	MinExcreteCount  OptionalInt
	MaxExcreteCount  OptionalInt
	MinSleepHours    OptionalFloat
	MaxSleepHours    OptionalFloat
	MaxSupportedCats OptionalInt
}

// ConfigRepository persists the active and default threshold records.
// Methods return (nil, nil) when the row they need does not exist.
type ConfigRepository interface {
	GetActive(ctx context.Context) (*SystemConfig, error)
	Update(ctx context.Context, patch ConfigPatch) (*SystemConfig, error)
	ResetToDefault(ctx context.Context) (*SystemConfig, error)
}

// ConfigService exposes the config store operations with NotFound mapping.
type ConfigService struct {
	repo ConfigRepository
}

// NewConfigService constructs a ConfigService.
func NewConfigService(repo ConfigRepository) *ConfigService {
	return &ConfigService{repo: repo}
}

// GetActive returns the active config or ErrActiveConfigNotFound.
func (s *ConfigService) GetActive(ctx context.Context) (*SystemConfig, error) {
	cfg, err := s.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrActiveConfigNotFound
	}
	return cfg, nil
}

// Update merge-updates the active config and returns the stored result.
func (s *ConfigService) Update(ctx context.Context, patch ConfigPatch) (*SystemConfig, error) {
	cfg, err := s.repo.Update(ctx, patch)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrActiveConfigNotFound
	}
	return cfg, nil
}

// ResetToDefault copies the default record onto the active record.
func (s *ConfigService) ResetToDefault(ctx context.Context) (*SystemConfig, error) {
	cfg, err := s.repo.ResetToDefault(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrDefaultConfigNotFound
	}
	return cfg, nil
}
