/*
Disk manager deals with the data file under base directory.
It is the only component which executes actual disk I/O for pages, and
the unit of I/O is always one page (see storage/page).

Page allocation/deallocation is the buffer manager's job in mindb.
Disk manager sees only reads and writes on already-allocated page ids, so the
interface is intentionally narrow: ReadPage/WritePage/Sync.

Reading a page which has never been written returns a 0-filled page.
This happens when the buffer manager allocates a fresh page id and the page is
fetched before the first flush.
*/
package disk

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/kensho-t/mindb/storage/page"
)

// the directory path of database files
// the single data file is located under this directory
var baseDir = "base"

// Manager manages disk
type Manager struct {
	op opener
	// cache the storage after open
	st storage
}

// NewManager initializes disk manager
func NewManager() (*Manager, error) {
	// check whether the directory already exists
	if _, err := os.Stat(baseDir); !os.IsExist(err) {
		if err := os.MkdirAll(baseDir, 0700); err != nil {
			return nil, errors.Wrap(err, "os.MkdirAll failed")
		}
	}

	return &Manager{
		op: newFileOpener(),
	}, nil
}

// open returns the data file storage. the storage is cached after the first open.
func (m *Manager) open() (storage, error) {
	if m.st != nil {
		return m.st, nil
	}
	st, err := m.op.open()
	if err != nil {
		return nil, errors.Wrap(err, "op.open failed")
	}
	m.st = st
	return st, nil
}

// ReadPage reads the page from disk into the caller-provided page p.
// when the page has never been written out, p is 0-filled.
func (m *Manager) ReadPage(pageID page.PageID, p page.PagePtr) error {
	if pageID > page.MaxPageID {
		return errors.Errorf("page id is invalid: %d", pageID)
	}
	if p == nil {
		return errors.New("page must not be nil")
	}
	st, err := m.open()
	if err != nil {
		return errors.Wrap(err, "open failed")
	}
	size, err := st.Size()
	if err != nil {
		return errors.Wrap(err, "st.Size failed")
	}
	offset := page.CalculateFileOffset(pageID)
	if offset+page.PageSize > size {
		// the page has not been written out yet, so return 0-filled page
		for i := range p {
			p[i] = 0
		}
		return nil
	}
	if _, err := st.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrap(err, "st.Seek failed")
	}
	if _, err := st.Read(p[:]); err != nil {
		return errors.Wrap(err, "st.Read failed")
	}
	return nil
}

// WritePage writes the page p to disk.
// the data file is extended when the page is located beyond the current file size.
func (m *Manager) WritePage(pageID page.PageID, p page.PagePtr) error {
	if pageID > page.MaxPageID {
		return errors.Errorf("page id is invalid: %d", pageID)
	}
	if p == nil {
		return errors.New("page must not be nil")
	}
	st, err := m.open()
	if err != nil {
		return errors.Wrap(err, "open failed")
	}
	offset := page.CalculateFileOffset(pageID)
	if _, err := st.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrap(err, "st.Seek failed")
	}
	if _, err := st.Write(p[:]); err != nil {
		return errors.Wrap(err, "st.Write failed")
	}
	return nil
}

// Sync flushes the data file to disk
func (m *Manager) Sync() error {
	st, err := m.open()
	if err != nil {
		return errors.Wrap(err, "open failed")
	}
	if err := st.Sync(); err != nil {
		return errors.Wrap(err, "st.Sync failed")
	}
	return nil
}
