package wal

import "go.uber.org/zap"

// TestingNewManager initializes the log manager with buffer storage instead of file storage.
// This prevents unnecessary disk I/O.
func TestingNewManager() (*Manager, error) {
	return &Manager{
		st:      newBufferStorage(),
		nextLSN: FirstLSN,
		logger:  zap.NewNop(),
	}, nil
}
