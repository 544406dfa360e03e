/*
Write-ahead log manager is the log sink consumed by the buffer manager.

The buffer manager accepts the log manager at construction for future integration
with recovery: before a dirty page is written out, the log records describing the
change must be durable (write-ahead rule). The core buffer pool operations do not
append records themselves; the background writer only syncs the sink before its
flush rounds.

The log is a single append-only file of length-prefixed records.
Each record is identified by LSN, the byte offset at which the record starts
plus FirstLSN (1), so InvalidLSN (0) never names a record.
Recovery/replay is out of scope here.
*/
package wal

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LSN is log sequence number, the byte offset of the record within the log file
// plus FirstLSN
type LSN uint64

const (
	// InvalidLSN indicates no log record
	InvalidLSN LSN = 0
	// FirstLSN is the lsn of the first record
	FirstLSN LSN = 1
)

// record layout: 4 byte length prefix + payload
const recordHeaderSize = 4

// Manager manages the write-ahead log file
type Manager struct {
	st storage
	// nextLSN is the lsn allocated to the next appended record
	nextLSN LSN
	// protects st and nextLSN. the buffer manager and the background writer
	// call into the log manager without holding any common lock
	mu sync.Mutex

	logger *zap.Logger
}

// NewManager initializes the log manager
func NewManager(logger *zap.Logger) (*Manager, error) {
	st, err := newFileStorage()
	if err != nil {
		return nil, errors.Wrap(err, "newFileStorage failed")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		st:      st,
		nextLSN: FirstLSN,
		logger:  logger,
	}, nil
}

// Append appends one record to the log and returns its lsn.
// the record is buffered by the OS until Sync is called.
func (m *Manager) Append(record []byte) (LSN, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lsn := m.nextLSN
	var header [recordHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(record)))
	if _, err := m.st.Seek(int64(lsn-FirstLSN), io.SeekStart); err != nil {
		return InvalidLSN, errors.Wrap(err, "st.Seek failed")
	}
	if _, err := m.st.Write(header[:]); err != nil {
		return InvalidLSN, errors.Wrap(err, "st.Write failed")
	}
	if _, err := m.st.Write(record); err != nil {
		return InvalidLSN, errors.Wrap(err, "st.Write failed")
	}
	m.nextLSN += LSN(recordHeaderSize + len(record))
	m.logger.Debug("wal record appended", zap.Uint64("lsn", uint64(lsn)), zap.Int("size", len(record)))
	return lsn, nil
}

// Sync makes all appended records durable
func (m *Manager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.st.Sync(); err != nil {
		return errors.Wrap(err, "st.Sync failed")
	}
	return nil
}
