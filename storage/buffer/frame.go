/*
Frame is the in-memory slot which holds one page.
The buffer pool owns a fixed array of frames, created at pool construction and
destroyed at pool teardown. A frame holds exactly one page or is unoccupied
(page id is InvalidPageID).

Two kinds of state live in a frame and they are protected differently:

1. metadata: page id / pin count / dirty flag / free list link
- these are accounting state of the pool itself, so they are protected by the
- manager's mutex. the frame does not hold its own lock for them.

2. content: the page image
- this is protected by the frame's own reader/writer latch (contentLock).
- the latch is acquired outside the manager's mutex, after a fetch returns a
- pinned frame. otherwise a slow reader would block the whole pool.

pin count rules:
- pin count > 0 means some caller is using the frame, so it must not be evicted.
- the manager drives the replacer's evictable flag solely from pin accounting.
- unpinning a frame whose pin count is already zero is a programmer error
- inside the pool, so it panics.
*/
package buffer

import (
	"sync"

	"github.com/kensho-t/mindb/storage/page"
)

// FrameID identifies a slot in the frame array. valid range is [0, poolSize)
type FrameID int32

const (
	// InvalidFrameID is invalid frame id
	InvalidFrameID FrameID = -1
	// FirstFrameID is the first frame id
	FirstFrameID FrameID = 0
)

// Frame is in-memory slot which may hold one page
type Frame struct {
	// id is the index of the frame within the pool's frame array. never changes
	id FrameID
	// pageID of the page the frame holds. InvalidPageID when unoccupied
	pageID page.PageID
	// data is the in-memory image of the page
	data page.PagePtr
	// pinCount is the number of callers currently using the frame
	pinCount int
	// dirty indicates the in-memory image has diverged from disk
	dirty bool
	// nextFreeID is next free frame id. this is free list for frames
	nextFreeID FrameID
	// contentLock protects the page image. see the comment at the head of this file
	contentLock sync.RWMutex
}

// newFrames initializes the pool's frame array.
// all frames are unoccupied and chained into the free list.
func newFrames(poolSize int) []*Frame {
	frames := make([]*Frame, poolSize)
	for i := 0; i < poolSize; i++ {
		frames[i] = &Frame{
			id:         FrameID(i),
			pageID:     page.InvalidPageID,
			data:       page.NewPagePtr(),
			nextFreeID: FrameID(i + 1),
		}
	}
	frames[poolSize-1].nextFreeID = freeListInvalidID
	return frames
}

// ID returns the frame id
func (f *Frame) ID() FrameID {
	return f.id
}

// PageID returns the page id of the page the frame holds
func (f *Frame) PageID() page.PageID {
	return f.pageID
}

// Data returns the in-memory image of the page.
// the caller must hold the content latch while reading/writing it.
func (f *Frame) Data() page.PagePtr {
	return f.data
}

// IsDirty returns whether the frame is dirty
func (f *Frame) IsDirty() bool {
	return f.dirty
}

// MarkDirty ORs dirty into the stored flag. the flag is never cleared here;
// FlushPage/FlushAllPages and the background writer clear it after writing
// the page out.
func (f *Frame) MarkDirty(dirty bool) {
	f.dirty = f.dirty || dirty
}

// clearDirty clears the dirty flag. called after the page image is written out.
func (f *Frame) clearDirty() {
	f.dirty = false
}

// PinCount returns the pin count
func (f *Frame) PinCount() int {
	return f.pinCount
}

// pin increments the pin count. the caller must hold the manager's mutex
func (f *Frame) pin() {
	f.pinCount++
}

// unpin decrements the pin count. the caller must hold the manager's mutex.
// the manager checks the pin count before calling this, so zero pin count here
// is a bug of the pool itself.
func (f *Frame) unpin() {
	if f.pinCount == 0 {
		panic("unpin frame whose pin count is already zero")
	}
	f.pinCount--
}

// resetMetadata clears the frame's metadata
func (f *Frame) resetMetadata() {
	f.pageID = page.InvalidPageID
	f.pinCount = 0
	f.dirty = false
}

// resetMemory zeros the page image
func (f *Frame) resetMemory() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// RLatch acquires the content latch in shared mode
func (f *Frame) RLatch() {
	f.contentLock.RLock()
}

// RUnlatch releases the content latch acquired in shared mode
func (f *Frame) RUnlatch() {
	f.contentLock.RUnlock()
}

// WLatch acquires the content latch in exclusive mode
func (f *Frame) WLatch() {
	f.contentLock.Lock()
}

// WUnlatch releases the content latch acquired in exclusive mode
func (f *Frame) WUnlatch() {
	f.contentLock.Unlock()
}
