/*
LRU-K replacer decides which unpinned frame to evict.

Plain LRU suffers from sequential flooding: one large sequential scan touches
every page once and evicts the whole hot working set. LRU-K (Johnson & Shasha)
avoids this by requiring k references before a frame is granted the protection
of the hot tier. The replacer partitions tracked frames into two lists:

- young list: frames with fewer than k recorded accesses. their k-distance is
- considered infinite, so they are always evicted before any mature frame,
- in LRU order of the last access.

- mature list: frames with k or more recorded accesses. the victim is the one
- with the largest k-distance, i.e. the oldest k-th most recent access.

The replacer is strictly subordinate to the buffer manager: it tracks access
events and answers eviction queries but never touches frames or disk. The
evictable flag is driven solely by the manager's pin accounting; the replacer
never flips it on its own. Newly tracked frames start not evictable until the
manager reports the pin count reached zero.
*/
package buffer

import (
	"container/list"
	"fmt"
	"sync"
)

// lrukNode is the record the replacer keeps per tracked frame
type lrukNode struct {
	frameID FrameID
	// history holds the timestamps of the last k accesses, oldest first.
	// the k-distance of the node is current time minus history[0] once
	// accessCount reaches k.
	history []uint64
	// accessCount is the total number of recorded accesses.
	// this is monotonic and can exceed k, only the last k timestamps are kept.
	accessCount uint64
	// evictable indicates the frame can be chosen as a victim
	evictable bool
	// elem is the node's element within the young/mature list, for O(1) removal
	elem *list.Element
}

// recordTimestamp appends the timestamp to the history.
// if the history already holds k entries the oldest is dropped.
func (n *lrukNode) recordTimestamp(ts uint64, k int) {
	n.accessCount++
	if len(n.history) == k {
		copy(n.history, n.history[1:])
		n.history[k-1] = ts
		return
	}
	n.history = append(n.history, ts)
}

// oldestTimestamp returns the timestamp of the oldest kept access.
// for mature nodes this is the k-th most recent access, which determines the k-distance
func (n *lrukNode) oldestTimestamp() uint64 {
	return n.history[0]
}

// LRUKReplacer tracks access history of up to numFrames frames and
// decides which evictable frame is the next victim
type LRUKReplacer struct {
	// young holds nodes with fewer than k accesses, most recently accessed at front.
	// the victim is searched from the back (LRU on the last access)
	young *list.List
	// mature holds nodes with k or more accesses, ascending k-distance from front.
	// the victim is searched from the back (largest k-distance)
	mature *list.List
	// nodeStore is mapping from frame id to node for O(1) lookup
	nodeStore map[FrameID]*lrukNode
	// currTimestamp is the shared monotonic timestamp, incremented on every access
	currTimestamp uint64
	// currSize is the number of evictable tracked frames
	currSize  int
	numFrames int
	k         int
	mu        sync.Mutex
}

// NewLRUKReplacer initializes the replacer.
// numFrames is the maximum number of tracked frames, k is the number of
// historical references per frame considered by the policy.
func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	if k < 1 {
		panic(fmt.Sprintf("replacer k must be positive: %d", k))
	}
	return &LRUKReplacer{
		young:     list.New(),
		mature:    list.New(),
		nodeStore: make(map[FrameID]*lrukNode),
		numFrames: numFrames,
		k:         k,
	}
}

// validateFrameID panics when the frame id is out of range.
// frame ids come from the buffer manager, so an out-of-range id is a bug.
func (r *LRUKReplacer) validateFrameID(frameID FrameID) {
	if frameID < FirstFrameID || frameID >= FrameID(r.numFrames) {
		panic(fmt.Sprintf("frame id is out of range: %d", frameID))
	}
}

// RecordAccess records one access to the frame at the current timestamp.
// when the frame is not tracked yet, a new node is created as not evictable.
// when the access is the k-th one, the node migrates from young to mature.
func (r *LRUKReplacer) RecordAccess(frameID FrameID) {
	r.validateFrameID(frameID)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currTimestamp++

	node, ok := r.nodeStore[frameID]
	if !ok {
		node = &lrukNode{
			frameID: frameID,
			history: make([]uint64, 0, r.k),
		}
		node.recordTimestamp(r.currTimestamp, r.k)
		r.nodeStore[frameID] = node
		// with k=1 the very first access already fills the history
		if node.accessCount >= uint64(r.k) {
			r.matureInsert(node)
			return
		}
		node.elem = r.young.PushFront(node)
		return
	}

	node.recordTimestamp(r.currTimestamp, r.k)
	switch {
	case node.accessCount < uint64(r.k):
		// still young. keep the young list ordered by last access
		r.young.MoveToFront(node.elem)
	case node.accessCount == uint64(r.k):
		// the k-th access. migrate from young to mature
		r.young.Remove(node.elem)
		r.matureInsert(node)
	default:
		// already mature. the k-distance changed, so re-insert at the right position
		r.mature.Remove(node.elem)
		r.matureInsert(node)
	}
}

// matureInsert inserts the node into the mature list keeping the order:
// ascending k-distance from front, i.e. descending oldest-kept timestamp.
// the node with the largest k-distance sits at the back and is evicted first.
func (r *LRUKReplacer) matureInsert(node *lrukNode) {
	for e := r.mature.Front(); e != nil; e = e.Next() {
		if e.Value.(*lrukNode).oldestTimestamp() < node.oldestTimestamp() {
			node.elem = r.mature.InsertBefore(node, e)
			return
		}
	}
	node.elem = r.mature.PushBack(node)
}

// Evict chooses the victim frame, removes it from the replacer and returns it.
// any evictable young frame outranks all mature frames because its k-distance
// is infinite. returns false when no evictable frame exists.
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currSize == 0 {
		return InvalidFrameID, false
	}
	for e := r.young.Back(); e != nil; e = e.Prev() {
		node := e.Value.(*lrukNode)
		if node.evictable {
			r.young.Remove(e)
			delete(r.nodeStore, node.frameID)
			r.currSize--
			return node.frameID, true
		}
	}
	for e := r.mature.Back(); e != nil; e = e.Prev() {
		node := e.Value.(*lrukNode)
		if node.evictable {
			r.mature.Remove(e)
			delete(r.nodeStore, node.frameID)
			r.currSize--
			return node.frameID, true
		}
	}
	return InvalidFrameID, false
}

// SetEvictable toggles the evictable flag of the tracked frame.
// no-op when the flag already matches or the frame is not tracked.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, evictable bool) {
	r.validateFrameID(frameID)
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodeStore[frameID]
	if !ok {
		return
	}
	if node.evictable == evictable {
		return
	}
	node.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// Remove forcibly removes the tracked frame from the replacer.
// the frame must be evictable; removing a pinned (non-evictable) frame is a
// contract violation. removing an untracked frame is a silent no-op.
func (r *LRUKReplacer) Remove(frameID FrameID) {
	r.validateFrameID(frameID)
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodeStore[frameID]
	if !ok {
		return
	}
	if !node.evictable {
		panic(fmt.Sprintf("remove non-evictable frame: %d", frameID))
	}
	if node.accessCount < uint64(r.k) {
		r.young.Remove(node.elem)
	} else {
		r.mature.Remove(node.elem)
	}
	delete(r.nodeStore, frameID)
	r.currSize--
}

// Size returns the number of currently evictable tracked frames
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
