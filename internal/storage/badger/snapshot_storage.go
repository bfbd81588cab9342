package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/models"
)

// SnapshotEntry holds the latest snapshot of a fund as a JSON document.
// JSON keeps nil prices distinct from zero ones.
type SnapshotEntry struct {
	FundCode string `badgerhold:"key"`
	Data     []byte
}

type snapshotStorage struct {
	store  *Store
	logger *common.Logger
}

// NewSnapshotStorage creates a SnapshotStorage backed by BadgerHold.
func NewSnapshotStorage(store *Store, logger *common.Logger) *snapshotStorage {
	return &snapshotStorage{store: store, logger: logger}
}

func (s *snapshotStorage) GetLatest(_ context.Context, fundCode string) (*models.PortfolioSnapshot, error) {
	var entry SnapshotEntry
	if err := s.store.db.Get(fundCode, &entry); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrSnapshotNotFound, fundCode)
		}
		return nil, fmt.Errorf("failed to get snapshot for '%s': %w", fundCode, err)
	}

	var snap models.PortfolioSnapshot
	if err := json.Unmarshal(entry.Data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for '%s': %w", fundCode, err)
	}
	return &snap, nil
}

func (s *snapshotStorage) SaveLatest(_ context.Context, snapshot *models.PortfolioSnapshot) error {
	if snapshot == nil || snapshot.FundCode == "" {
		return fmt.Errorf("snapshot requires a fund code")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	entry := SnapshotEntry{FundCode: snapshot.FundCode, Data: data}
	if err := s.store.db.Upsert(snapshot.FundCode, &entry); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

var _ interfaces.SnapshotStorage = (*snapshotStorage)(nil)
