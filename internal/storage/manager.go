// Package storage provides the StorageManager backed by a single BadgerHold database.
package storage

import (
	"fmt"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/storage/badger"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	store     *badger.Store
	overrides interfaces.OverrideStorage
	snapshots interfaces.SnapshotStorage
	kv        interfaces.KeyValueStorage
	logger    *common.Logger
}

// NewManager opens the database at config.Storage.Path.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	logger.Info().Str("path", config.Storage.Path).Msg("Storage manager initialized")

	return &Manager{
		store:     store,
		overrides: badger.NewOverrideStorage(store, logger),
		snapshots: badger.NewSnapshotStorage(store, logger),
		kv:        badger.NewKVStorage(store, logger),
		logger:    logger,
	}, nil
}

func (m *Manager) OverrideStorage() interfaces.OverrideStorage {
	return m.overrides
}

func (m *Manager) SnapshotStorage() interfaces.SnapshotStorage {
	return m.snapshots
}

func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

func (m *Manager) DataPath() string {
	return m.store.Path()
}

func (m *Manager) Close() error {
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
