/*
Page guards are scoped handles which pair pin lifetime with (optionally) a
content latch. FetchPage/NewPage return a pinned frame and make the caller
responsible for UnpinPage; forgetting the unpin leaks the frame forever. A
guard ties the whole flow to one handle:

- construction from a successful fetch pins the frame (done inside the
- manager) and, for read/write guards, acquires the corresponding latch.
- the latch is acquired after the fetch returned, outside the manager's mutex.
- Drop releases the latch (if any) and unpins with the recorded dirtiness:
- read guards always unpin clean, write guards unpin dirty, basic guards
- unpin dirty iff the image was accessed through DataMut.

Drop is idempotent and a zero guard is a no-op, so `defer g.Drop()` right
after the fetch is always safe, even on error paths.
Guards must not be copied: the copy and the original would both try to unpin.
*/
package buffer

import (
	"github.com/pkg/errors"

	"github.com/kensho-t/mindb/storage/page"
)

// BasicGuard holds a pinned frame without any latch.
// the caller coordinates content access by itself.
type BasicGuard struct {
	m     *Manager
	frame *Frame
	// dirty records whether the image was accessed mutably through the guard
	dirty bool
}

// PageID returns the page id of the guarded frame
func (g *BasicGuard) PageID() page.PageID {
	return g.frame.PageID()
}

// Data returns the page image for reading
func (g *BasicGuard) Data() page.PagePtr {
	return g.frame.Data()
}

// DataMut returns the page image for writing and records the dirtiness,
// so Drop reports the page dirty to the manager
func (g *BasicGuard) DataMut() page.PagePtr {
	g.dirty = true
	return g.frame.Data()
}

// Drop unpins the guarded frame. safe to call on a zero guard and safe to
// call more than once.
func (g *BasicGuard) Drop() {
	if g.frame == nil {
		return
	}
	g.m.UnpinPage(g.frame.PageID(), g.dirty)
	g.frame = nil
}

// ReadGuard holds a pinned frame with the shared content latch held
type ReadGuard struct {
	m     *Manager
	frame *Frame
}

// PageID returns the page id of the guarded frame
func (g *ReadGuard) PageID() page.PageID {
	return g.frame.PageID()
}

// Data returns the page image for reading
func (g *ReadGuard) Data() page.PagePtr {
	return g.frame.Data()
}

// Drop releases the shared latch and unpins the guarded frame clean
func (g *ReadGuard) Drop() {
	if g.frame == nil {
		return
	}
	g.frame.RUnlatch()
	g.m.UnpinPage(g.frame.PageID(), false)
	g.frame = nil
}

// WriteGuard holds a pinned frame with the exclusive content latch held
type WriteGuard struct {
	m     *Manager
	frame *Frame
}

// PageID returns the page id of the guarded frame
func (g *WriteGuard) PageID() page.PageID {
	return g.frame.PageID()
}

// Data returns the page image for writing
func (g *WriteGuard) Data() page.PagePtr {
	return g.frame.Data()
}

// Drop releases the exclusive latch and unpins the guarded frame dirty.
// holding the exclusive latch implies intent to write, so the page is
// reported dirty unconditionally.
func (g *WriteGuard) Drop() {
	if g.frame == nil {
		return
	}
	g.frame.WUnlatch()
	g.m.UnpinPage(g.frame.PageID(), true)
	g.frame = nil
}

// FetchPageBasic fetches the page and wraps the pinned frame into BasicGuard
func (m *Manager) FetchPageBasic(pageID page.PageID) (BasicGuard, error) {
	frame, err := m.FetchPage(pageID)
	if err != nil {
		return BasicGuard{}, errors.Wrap(err, "FetchPage failed")
	}
	return BasicGuard{m: m, frame: frame}, nil
}

// FetchPageRead fetches the page and acquires the shared content latch.
// the latch is acquired here, after the fetch, outside the manager's mutex.
func (m *Manager) FetchPageRead(pageID page.PageID) (ReadGuard, error) {
	frame, err := m.FetchPage(pageID)
	if err != nil {
		return ReadGuard{}, errors.Wrap(err, "FetchPage failed")
	}
	frame.RLatch()
	return ReadGuard{m: m, frame: frame}, nil
}

// FetchPageWrite fetches the page and acquires the exclusive content latch.
// the latch is acquired here, after the fetch, outside the manager's mutex.
func (m *Manager) FetchPageWrite(pageID page.PageID) (WriteGuard, error) {
	frame, err := m.FetchPage(pageID)
	if err != nil {
		return WriteGuard{}, errors.Wrap(err, "FetchPage failed")
	}
	frame.WLatch()
	return WriteGuard{m: m, frame: frame}, nil
}

// NewPageGuarded allocates a fresh page and wraps the pinned frame into BasicGuard
func (m *Manager) NewPageGuarded() (BasicGuard, error) {
	frame, err := m.NewPage()
	if err != nil {
		return BasicGuard{}, errors.Wrap(err, "NewPage failed")
	}
	return BasicGuard{m: m, frame: frame}, nil
}
