package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/models"
)

type overrideStorage struct {
	store  *Store
	logger *common.Logger
}

// NewOverrideStorage creates an OverrideStorage backed by BadgerHold.
func NewOverrideStorage(store *Store, logger *common.Logger) *overrideStorage {
	return &overrideStorage{store: store, logger: logger}
}

func (s *overrideStorage) GetOverride(_ context.Context, fundCode string) (*models.ManualOverride, error) {
	var o models.ManualOverride
	if err := s.store.db.Get(fundCode, &o); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrOverrideNotFound, fundCode)
		}
		return nil, fmt.Errorf("failed to get override for '%s': %w", fundCode, err)
	}
	return &o, nil
}

func (s *overrideStorage) SaveOverride(_ context.Context, override *models.ManualOverride) error {
	if override == nil || override.FundCode == "" {
		return fmt.Errorf("override requires a fund code")
	}
	if err := s.store.db.Upsert(override.FundCode, override); err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	s.logger.Debug().Str("fund", override.FundCode).Float64("value", override.Value).Msg("Manual price saved")
	return nil
}

func (s *overrideStorage) DeleteOverride(_ context.Context, fundCode string) error {
	err := s.store.db.Delete(fundCode, models.ManualOverride{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete override for '%s': %w", fundCode, err)
	}
	s.logger.Debug().Str("fund", fundCode).Msg("Manual price cleared")
	return nil
}

func (s *overrideStorage) ListOverrides(_ context.Context) ([]*models.ManualOverride, error) {
	var all []models.ManualOverride
	if err := s.store.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FundCode < all[j].FundCode })
	out := make([]*models.ManualOverride, len(all))
	for i := range all {
		out[i] = &all[i]
	}
	return out, nil
}

var _ interfaces.OverrideStorage = (*overrideStorage)(nil)
