/*
Dirty pages have to be written out to disk before evicted.
If disk IO happens when a page is fetched, it is not good in terms of performance.
So background writing is introduced.
Background writer periodically checks whether frames are dirty, and
if dirty, the writer writes out the dirty frames to disk ahead of time.

Before each round the wal sink is synced: the log records describing a change
must be durable before the page carrying the change (write-ahead rule).
*/
package buffer

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kensho-t/mindb/storage/page"
)

const (
	// delay between active rounds
	// default is 200ms in postgres
	bgWriterDelay = 200 * time.Millisecond
	// in each round, 100 frames are flushed at most
	bgWriterMaxPages = 100
)

// BackgroundWriter flushes dirty frames on background periodically
type BackgroundWriter struct {
	m    *Manager
	done chan struct{}

	logger *zap.Logger
}

// NewBackgroundWriter initializes the background writer for the manager
func NewBackgroundWriter(m *Manager) *BackgroundWriter {
	return &BackgroundWriter{
		m:      m,
		done:   make(chan struct{}),
		logger: m.logger,
	}
}

// Run flushes dirty frames on background periodically until Stop is called
func (bw *BackgroundWriter) Run() error {
	ticker := time.NewTicker(bgWriterDelay)
	defer ticker.Stop()
	for {
		select {
		case <-bw.done:
			return nil
		case <-ticker.C:
			if err := bw.syncRound(); err != nil {
				return errors.Wrap(err, "syncRound failed")
			}
		}
	}
}

// Stop stops the background writer. Run returns after the current round.
func (bw *BackgroundWriter) Stop() {
	close(bw.done)
}

// syncRound writes out at most bgWriterMaxPages dirty frames
func (bw *BackgroundWriter) syncRound() error {
	// write-ahead rule: sync the log before the pages it describes
	if bw.m.lm != nil {
		if err := bw.m.lm.Sync(); err != nil {
			return errors.Wrap(err, "lm.Sync failed")
		}
	}

	bw.m.mu.Lock()
	defer bw.m.mu.Unlock()

	written := 0
	for _, frame := range bw.m.frames {
		if frame.PageID() == page.InvalidPageID || !frame.IsDirty() {
			continue
		}
		written++
		if err := bw.syncOneFrame(frame); err != nil {
			return errors.Wrap(err, "syncOneFrame failed")
		}
		if written >= bgWriterMaxPages {
			break
		}
	}
	if written > 0 {
		bw.logger.Debug("background writer flushed dirty frames", zap.Int("frames", written))
	}
	return nil
}

// syncOneFrame writes out the dirty frame under the shared content latch so a
// concurrent writer holding the exclusive latch cannot be half-copied to disk.
// safe while holding the manager's mutex: latch holders never wait for the
// manager's mutex (guards release the latch before UnpinPage).
func (bw *BackgroundWriter) syncOneFrame(frame *Frame) error {
	frame.RLatch()
	defer frame.RUnlatch()
	if err := bw.m.dm.WritePage(frame.PageID(), frame.Data()); err != nil {
		return errors.Wrap(err, "dm.WritePage failed")
	}
	frame.clearDirty()
	return nil
}
