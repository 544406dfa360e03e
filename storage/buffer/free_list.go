/*
the implementation of free list

Frames never yet populated, frames released by DeletePage, and frames given
back by FetchPage after a failed disk read are chained
through the frame's nextFreeID field. The free list is disjoint from the page
table's image: a frame is either free or resident, never both.
*/
package buffer

const (
	// this indicates the end of the free list
	freeListInvalidID FrameID = -1
)

// allocateFromFreeList pops a frame from free list.
// if there is no frame in free list, just return freeListInvalidID.
// the caller must hold the manager's mutex.
func (m *Manager) allocateFromFreeList() FrameID {
	if m.freeList == freeListInvalidID {
		return freeListInvalidID
	}
	frameID := m.freeList
	m.freeList = m.frames[frameID].nextFreeID
	m.frames[frameID].nextFreeID = freeListInvalidID
	return frameID
}

// pushToFreeList returns the frame to the head of free list.
// the caller must hold the manager's mutex.
func (m *Manager) pushToFreeList(frameID FrameID) {
	m.frames[frameID].nextFreeID = m.freeList
	m.freeList = frameID
}
