/*
Buffer pool manager mediates between the disk manager and in-memory page frames.
Disk IO is expensive so pages should be cached on memory and the buffer pool
manager is responsible for this.

access rules for frames:
there are two important access rules
- pin/unpin for cache eviction policy: see /storage/buffer/frame.go
- content latches for read/write the page within the frame

the flow when reading a page is described below:
- fetch the page (the frame comes back pinned) -> acquire shared content latch
- -> read the page image -> release content latch -> unpin via UnpinPage
the flow when writing is the same with the exclusive content latch, and
the dirtiness is reported through UnpinPage.
IMPORTANT: the caller is responsible for UnpinPage after FetchPage/NewPage.
page guards (see guard.go) tie these steps to one handle so the caller cannot
forget the unpin.

lock ordering:
- the manager's mutex serializes the page table, the free list, pin counts and
- every call into the replacer (the replacer's mutex nests inside).
- content latches are acquired outside the manager's mutex, after a fetch
- returned a pinned frame. a goroutine never waits for the manager's mutex
- while holding a content latch on the fetch path.
- disk IO is executed while holding the manager's mutex. this is acceptable in
- the teaching design, but callers must be aware that disk latency serializes
- pool operations.

cache replacement:
the flow for finding the victim frame is described below
- pop a frame from free list. frames enter the free list only at construction,
- on DeletePage, and when FetchPage gives a frame back after a failed disk read.
- if free list is empty, ask the LRU-K replacer to evict. the replacer only
- ever returns frames whose pin count dropped to zero (the manager drives the
- evictable flag from pin accounting).
- when the victim is dirty, the page is written out to disk before eviction.
- the background writer (see bgwriter.go) flushes dirty pages ahead of time to
- take this write out of the fetch path.
*/
package buffer

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kensho-t/mindb/storage/disk"
	"github.com/kensho-t/mindb/storage/page"
	"github.com/kensho-t/mindb/storage/wal"
)

var (
	// ErrNoUnpinnedFrame is returned when the free list is empty and every
	// frame is pinned, so no frame can be allocated
	ErrNoUnpinnedFrame = errors.New("all frames are pinned")
	// ErrPageNotFound is returned when the page is not resident in the pool
	ErrPageNotFound = errors.New("page is not resident in the buffer pool")
)

// Manager manages the buffer pool
type Manager struct {
	// disk manager
	dm *disk.Manager
	// wal log manager. accepted at construction for future integration with
	// recovery; the core operations store it without calling it.
	// the background writer syncs it before flush rounds (write-ahead rule).
	lm *wal.Manager
	// frames is the fixed array of page frames
	frames []*Frame
	// table is mapping from resident page id to frame id
	table pageTable
	// freeList points to the head node (free frame) of free list
	freeList FrameID
	// replacer decides which unpinned frame to evict
	replacer *LRUKReplacer
	// nextPageID is the next page id handed out by the allocator
	nextPageID page.PageID
	// freedPageIDs are page ids released by DeletePage. they are reused
	// before nextPageID advances so the data file does not grow with holes.
	freedPageIDs []page.PageID
	// mu is the single coarse mutex which serializes all public operations
	mu sync.Mutex

	logger *zap.Logger
}

// NewManager initializes the buffer pool manager.
// poolSize is the number of frames, replacerK is the k of the LRU-K policy.
// lm may be nil when no write-ahead logging is wired.
func NewManager(dm *disk.Manager, lm *wal.Manager, poolSize, replacerK int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("buffer pool manager initialized",
		zap.Int("pool_size", poolSize),
		zap.Int("replacer_k", replacerK),
	)
	return &Manager{
		dm:         dm,
		lm:         lm,
		frames:     newFrames(poolSize),
		table:      newPageTable(),
		freeList:   FirstFrameID,
		replacer:   NewLRUKReplacer(poolSize, replacerK),
		nextPageID: page.FirstPageID,
		logger:     logger,
	}
}

// allocatePageID hands out a page id, reusing ids released by DeletePage.
// the caller must hold the manager's mutex.
func (m *Manager) allocatePageID() page.PageID {
	if n := len(m.freedPageIDs); n != 0 {
		pageID := m.freedPageIDs[n-1]
		m.freedPageIDs = m.freedPageIDs[:n-1]
		return pageID
	}
	pageID := m.nextPageID
	m.nextPageID++
	return pageID
}

// deallocatePageID releases the page id back to the allocator.
// the caller must hold the manager's mutex.
func (m *Manager) deallocatePageID(pageID page.PageID) {
	m.freedPageIDs = append(m.freedPageIDs, pageID)
}

// allocateFrame obtains a frame for either a brand-new page (isNew, a page id
// is allocated) or an existing page being brought in. the returned frame has
// been pinned, installed into the page table and marked not evictable.
// selection order: free list first, then the replacer.
// the caller must hold the manager's mutex.
func (m *Manager) allocateFrame(pageID page.PageID, isNew bool) (*Frame, error) {
	frameID := m.allocateFromFreeList()
	if frameID == freeListInvalidID {
		victimID, ok := m.replacer.Evict()
		if !ok {
			return nil, ErrNoUnpinnedFrame
		}
		frameID = victimID
		victim := m.frames[frameID]
		// the dirty victim must be written out to disk before eviction
		if victim.IsDirty() {
			if err := m.dm.WritePage(victim.PageID(), victim.Data()); err != nil {
				return nil, errors.Wrap(err, "dm.WritePage failed")
			}
			m.logger.Debug("dirty victim flushed before eviction",
				zap.Uint32("page_id", uint32(victim.PageID())),
				zap.Int32("frame_id", int32(frameID)),
			)
		}
		m.table.delete(victim.PageID())
	}

	frame := m.frames[frameID]
	frame.resetMetadata()
	frame.resetMemory()
	if isNew {
		pageID = m.allocatePageID()
	}
	frame.pageID = pageID
	// the access creates the node as not evictable. SetEvictable is kept to
	// make the pin accounting explicit even if the node already exists.
	m.replacer.RecordAccess(frameID)
	m.replacer.SetEvictable(frameID, false)
	frame.pin()
	m.table.insert(pageID, frameID)
	return frame, nil
}

// releaseFrame unwinds allocateFrame when the subsequent disk read failed.
// the caller must hold the manager's mutex.
func (m *Manager) releaseFrame(frame *Frame) {
	m.table.delete(frame.PageID())
	frame.unpin()
	// the node was just created as not evictable, so flip it before Remove
	m.replacer.SetEvictable(frame.ID(), true)
	m.replacer.Remove(frame.ID())
	frame.resetMetadata()
	m.pushToFreeList(frame.ID())
}

// NewPage allocates a fresh page id, acquires a frame for it and returns the
// frame pinned. the caller is responsible for UnpinPage.
// returns ErrNoUnpinnedFrame when no frame can be obtained.
func (m *Manager) NewPage() (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame, err := m.allocateFrame(page.InvalidPageID, true)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// FetchPage returns the frame which holds the page, pinned.
// when the page is resident, it is pinned and returned immediately.
// otherwise a frame is allocated and the page is read from disk into it.
// the caller is responsible for UnpinPage.
func (m *Manager) FetchPage(pageID page.PageID) (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frameID, ok := m.table.get(pageID); ok {
		frame := m.frames[frameID]
		frame.pin()
		m.replacer.SetEvictable(frameID, false)
		m.replacer.RecordAccess(frameID)
		return frame, nil
	}

	frame, err := m.allocateFrame(pageID, false)
	if err != nil {
		return nil, err
	}
	if err := m.dm.ReadPage(pageID, frame.Data()); err != nil {
		// give the frame back so the failed read does not leak a pinned frame
		m.releaseFrame(frame)
		return nil, errors.Wrap(err, "dm.ReadPage failed")
	}
	return frame, nil
}

// UnpinPage decrements the pin count of the page's frame and ORs isDirty into
// the frame's dirty flag. when the pin count reaches zero the frame becomes
// evictable. returns false when the page is not resident or the pin count is
// already zero.
func (m *Manager) UnpinPage(pageID page.PageID, isDirty bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, ok := m.table.get(pageID)
	if !ok {
		return false
	}
	frame := m.frames[frameID]
	if frame.PinCount() == 0 {
		return false
	}
	frame.MarkDirty(isDirty)
	frame.unpin()
	if frame.PinCount() == 0 {
		m.replacer.SetEvictable(frameID, true)
	}
	return true
}

// FlushPage unconditionally writes the page's frame to disk and clears the
// dirty flag. flushing is permitted regardless of pin count; a concurrent
// writer may be mid-mutation unless the caller coordinates through the write
// guard. returns ErrPageNotFound when the page is not resident.
func (m *Manager) FlushPage(pageID page.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, ok := m.table.get(pageID)
	if !ok {
		return ErrPageNotFound
	}
	frame := m.frames[frameID]
	if err := m.dm.WritePage(pageID, frame.Data()); err != nil {
		return errors.Wrap(err, "dm.WritePage failed")
	}
	frame.clearDirty()
	return nil
}

// FlushAllPages flushes every resident page
func (m *Manager) FlushAllPages() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for pageID, frameID := range m.table.table {
		frame := m.frames[frameID]
		if err := m.dm.WritePage(pageID, frame.Data()); err != nil {
			return errors.Wrap(err, "dm.WritePage failed")
		}
		frame.clearDirty()
	}
	return nil
}

// DeletePage removes the page from the pool and releases its page id.
// returns true when the page is not resident (vacuously deleted).
// returns false when the page is pinned and cannot be deleted.
func (m *Manager) DeletePage(pageID page.PageID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, ok := m.table.get(pageID)
	if !ok {
		return true
	}
	frame := m.frames[frameID]
	if frame.PinCount() > 0 {
		return false
	}
	m.replacer.Remove(frameID)
	m.table.delete(pageID)
	frame.resetMetadata()
	frame.resetMemory()
	m.pushToFreeList(frameID)
	m.deallocatePageID(pageID)
	return true
}
