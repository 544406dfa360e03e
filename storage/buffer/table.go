/*
This is page table (just simple hash map).
It maps resident page ids to the frames which hold them.

invariant: the table is a bijection over resident pages,
table[pageID] = frameID <=> frames[frameID] holds pageID.

The manager's mutex serializes every access to the table,
so the table itself holds no lock.
*/
package buffer

import "github.com/kensho-t/mindb/storage/page"

// pageTable is mapping from resident page id to frame id
type pageTable struct {
	table map[page.PageID]FrameID
}

// newPageTable initializes page table
func newPageTable() pageTable {
	return pageTable{
		table: make(map[page.PageID]FrameID),
	}
}

// get returns the frame id which holds the page
func (t pageTable) get(pageID page.PageID) (FrameID, bool) {
	frameID, ok := t.table[pageID]
	return frameID, ok
}

// insert inserts the mapping from the page to the frame
func (t pageTable) insert(pageID page.PageID, frameID FrameID) {
	t.table[pageID] = frameID
}

// delete deletes the page from the table
func (t pageTable) delete(pageID page.PageID) {
	delete(t.table, pageID)
}
