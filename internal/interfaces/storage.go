package interfaces

import (
	"context"

	"github.com/bobmcallan/navcast/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	OverrideStorage() OverrideStorage
	SnapshotStorage() SnapshotStorage
	KeyValueStorage() KeyValueStorage

	// DataPath returns the base data directory path.
	DataPath() string

	// Lifecycle
	Close() error
}

// OverrideStorage persists manual base prices keyed by fund code.
type OverrideStorage interface {
	// GetOverride wraps models.ErrOverrideNotFound on a miss.
	GetOverride(ctx context.Context, fundCode string) (*models.ManualOverride, error)
	SaveOverride(ctx context.Context, override *models.ManualOverride) error
	DeleteOverride(ctx context.Context, fundCode string) error
	ListOverrides(ctx context.Context) ([]*models.ManualOverride, error)
}

// SnapshotStorage keeps the latest snapshot per fund.
type SnapshotStorage interface {
	// GetLatest wraps models.ErrSnapshotNotFound on a miss.
	GetLatest(ctx context.Context, fundCode string) (*models.PortfolioSnapshot, error)
	SaveLatest(ctx context.Context, snapshot *models.PortfolioSnapshot) error
}

// KeyValueStorage stores system settings.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
