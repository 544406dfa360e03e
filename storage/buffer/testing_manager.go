package buffer

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kensho-t/mindb/storage/disk"
	"github.com/kensho-t/mindb/storage/wal"
)

// TestingNewManager initializes the buffer pool manager backed by buffer
// storage instead of file storage. This prevents unnecessary disk I/O.
func TestingNewManager(poolSize, replacerK int) (*Manager, error) {
	dm, err := disk.TestingNewBufferManager()
	if err != nil {
		return nil, errors.Wrap(err, "disk.TestingNewBufferManager failed")
	}
	lm, err := wal.TestingNewManager()
	if err != nil {
		return nil, errors.Wrap(err, "wal.TestingNewManager failed")
	}
	return NewManager(dm, lm, poolSize, replacerK, zap.NewNop()), nil
}
