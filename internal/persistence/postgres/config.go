package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"example.com/petwatch/internal/domain"
)

const configColumns = `alert_no_cat, alert_no_eat, alert_no_excrete_min, alert_no_excrete_max, alert_no_sleep_min, alert_no_sleep_max, max_supported_cats`

// GetActive reads the active threshold record. Returns (nil, nil) when absent.
func (r *Repository) GetActive(ctx context.Context) (*domain.SystemConfig, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+configColumns+` FROM system_config WHERE id=$1`, activeConfigID)
	cfg, err := scanConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Update merge-updates the active record inside one transaction: the current
// row is read FOR UPDATE and the coalesce happens against that snapshot, so a
// concurrent update cannot interleave between read and write.
func (r *Repository) Update(ctx context.Context, patch domain.ConfigPatch) (*domain.SystemConfig, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+configColumns+` FROM system_config WHERE id=$1 FOR UPDATE`, activeConfigID)
	current, err := scanConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}

	merged := mergePatch(*current, patch)
	if err := writeConfig(ctx, tx, activeConfigID, merged); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ResetToDefault copies every field of the default record onto the active
// record. Returns (nil, nil) when no default record exists.
func (r *Repository) ResetToDefault(ctx context.Context) (*domain.SystemConfig, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+configColumns+` FROM system_config WHERE id=$1`, defaultConfigID)
	def, err := scanConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}

	if err := writeConfig(ctx, tx, activeConfigID, *def); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return def, nil
}

func scanConfig(row pgx.Row) (*domain.SystemConfig, error) {
	var cfg domain.SystemConfig
	if err := row.Scan(
		&cfg.NoCatHours,
		&cfg.MinEatCount,
		&cfg.MinExcreteCount,
		&cfg.MaxExcreteCount,
		&cfg.MinSleepHours,
		&cfg.MaxSleepHours,
		&cfg.MaxSupportedCats,
	); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func writeConfig(ctx context.Context, tx pgx.Tx, id int, cfg domain.SystemConfig) error {
	const stmt = `UPDATE system_config
        SET alert_no_cat=$1,
            alert_no_eat=$2,
            alert_no_excrete_min=$3,
            alert_no_excrete_max=$4,
            alert_no_sleep_min=$5,
            alert_no_sleep_max=$6,
            max_supported_cats=$7
        WHERE id=$8`

	_, err := tx.Exec(ctx, stmt,
		cfg.NoCatHours,
		cfg.MinEatCount,
		cfg.MinExcreteCount,
		cfg.MaxExcreteCount,
		cfg.MinSleepHours,
		cfg.MaxSleepHours,
		cfg.MaxSupportedCats,
		id,
	)
	return err
}

func mergePatch(current domain.SystemConfig, patch domain.ConfigPatch) domain.SystemConfig {
	merged := current
	if patch.NoCatHours.Set {
		merged.NoCatHours = patch.NoCatHours.Value
	}
	if patch.MinEatCount.Set {
		merged.MinEatCount = patch.MinEatCount.Value
	}
	if patch.MinExcreteCount.Set {
		merged.MinExcreteCount = patch.MinExcreteCount.Value
	}
	if patch.MaxExcreteCount.Set {
		merged.MaxExcreteCount = patch.MaxExcreteCount.Value
	}
	if patch.MinSleepHours.Set {
		merged.MinSleepHours = patch.MinSleepHours.Value
	}
	if patch.MaxSleepHours.Set {
		merged.MaxSleepHours = patch.MaxSleepHours.Value
	}
	if patch.MaxSupportedCats.Set {
		merged.MaxSupportedCats = patch.MaxSupportedCats.Value
	}
	return merged
}
