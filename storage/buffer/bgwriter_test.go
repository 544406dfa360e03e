package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kensho-t/mindb/storage/page"
)

func TestSyncRound(t *testing.T) {
	m, err := TestingNewManager(3, 2)
	assert.Nil(t, err)
	bw := NewBackgroundWriter(m)

	frame, err := m.NewPage()
	assert.Nil(t, err)
	pageID := frame.PageID()
	frame.Data()[0] = 'C'
	assert.True(t, m.UnpinPage(pageID, true))

	err = bw.syncRound()
	assert.Nil(t, err)

	// the dirty frame has been written out and is clean now
	assert.False(t, frame.IsDirty())
	flushed := page.NewPagePtr()
	err = m.dm.ReadPage(pageID, flushed)
	assert.Nil(t, err)
	assert.Equal(t, byte('C'), flushed[0])
}

func TestSyncRoundSkipsCleanFrames(t *testing.T) {
	m, err := TestingNewManager(3, 2)
	assert.Nil(t, err)
	bw := NewBackgroundWriter(m)

	frame, err := m.NewPage()
	assert.Nil(t, err)
	assert.True(t, m.UnpinPage(frame.PageID(), false))

	err = bw.syncRound()
	assert.Nil(t, err)

	// the clean page has never been written out
	got := page.NewPagePtr()
	err = m.dm.ReadPage(frame.PageID(), got)
	assert.Nil(t, err)
	for _, b := range got {
		assert.Equal(t, byte(0), b)
	}
}
