package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAccessNewFrameIsNotEvictable(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(FrameID(0))
	// newly recorded frames are not evictable until SetEvictable is called
	assert.Equal(t, 0, r.Size())
	_, ok := r.Evict()
	assert.False(t, ok)
}

func TestSetEvictable(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(FrameID(0))
	r.RecordAccess(FrameID(1))

	r.SetEvictable(FrameID(0), true)
	assert.Equal(t, 1, r.Size())

	// no-op when the flag already matches
	r.SetEvictable(FrameID(0), true)
	assert.Equal(t, 1, r.Size())

	r.SetEvictable(FrameID(0), false)
	assert.Equal(t, 0, r.Size())

	// unknown frames are silently ignored
	r.SetEvictable(FrameID(3), true)
	assert.Equal(t, 0, r.Size())
}

func TestEvictYoungBeforeMature(t *testing.T) {
	// any frame with fewer than k accesses has infinite k-distance and
	// outranks all mature frames, regardless of recency among the latter
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(FrameID(0))
	r.RecordAccess(FrameID(0))
	r.RecordAccess(FrameID(1))
	for i := FrameID(0); i < 2; i++ {
		r.SetEvictable(i, true)
	}

	victim, ok := r.Evict()
	assert.True(t, ok)
	assert.Equal(t, FrameID(1), victim)

	victim, ok = r.Evict()
	assert.True(t, ok)
	assert.Equal(t, FrameID(0), victim)
}

func TestEvictYoungAndMatureOrder(t *testing.T) {
	// record accesses: f0,f1,f2,f3, then f0,f1 again.
	// f2 and f3 stay young and are evicted first in LRU order.
	// f0 and f1 are mature; f0's k-th most recent access is older, so its
	// k-distance is larger and it is evicted before f1.
	r := NewLRUKReplacer(4, 2)
	for i := FrameID(0); i < 4; i++ {
		r.RecordAccess(i)
	}
	r.RecordAccess(FrameID(0))
	r.RecordAccess(FrameID(1))
	for i := FrameID(0); i < 4; i++ {
		r.SetEvictable(i, true)
	}
	assert.Equal(t, 4, r.Size())

	tests := []struct {
		name     string
		expected FrameID
	}{
		{
			name:     "young frame with the oldest last access",
			expected: FrameID(2),
		},
		{
			name:     "the other young frame",
			expected: FrameID(3),
		},
		{
			name:     "mature frame with the largest k-distance",
			expected: FrameID(0),
		},
		{
			name:     "the last mature frame",
			expected: FrameID(1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			victim, ok := r.Evict()
			assert.True(t, ok)
			assert.Equal(t, tt.expected, victim)
		})
	}

	_, ok := r.Evict()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Size())
}

func TestEvictSkipsNonEvictable(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(FrameID(0))
	r.RecordAccess(FrameID(1))
	r.SetEvictable(FrameID(1), true)

	// f0 has the oldest last access but is pinned, so f1 is the victim
	victim, ok := r.Evict()
	assert.True(t, ok)
	assert.Equal(t, FrameID(1), victim)
}

func TestAccessCountBeyondKGivesNoProtection(t *testing.T) {
	// f0 is accessed many times, f1 exactly k times afterwards.
	// only the k most recent accesses determine the k-distance, so f0's
	// k-th most recent access is still older than f1's and f0 is the victim
	// despite its much higher access count.
	r := NewLRUKReplacer(4, 3)
	for i := 0; i < 10; i++ {
		r.RecordAccess(FrameID(0))
	}
	for i := 0; i < 3; i++ {
		r.RecordAccess(FrameID(1))
	}
	r.SetEvictable(FrameID(0), true)
	r.SetEvictable(FrameID(1), true)

	victim, ok := r.Evict()
	assert.True(t, ok)
	assert.Equal(t, FrameID(0), victim)
}

func TestRemove(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(FrameID(0))
	r.SetEvictable(FrameID(0), true)

	r.Remove(FrameID(0))
	assert.Equal(t, 0, r.Size())
	_, ok := r.Evict()
	assert.False(t, ok)

	// removing an untracked frame is a silent no-op
	r.Remove(FrameID(0))
}

func TestRemoveNonEvictablePanics(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(FrameID(0))
	assert.Panics(t, func() {
		r.Remove(FrameID(0))
	})
}

func TestFrameIDOutOfRangePanics(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	tests := []struct {
		name string
		f    func()
	}{
		{
			name: "RecordAccess",
			f:    func() { r.RecordAccess(FrameID(4)) },
		},
		{
			name: "SetEvictable",
			f:    func() { r.SetEvictable(FrameID(-1), true) },
		},
		{
			name: "Remove",
			f:    func() { r.Remove(FrameID(100)) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, tt.f)
		})
	}
}
