package state

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BidSentinel/internal/store"
)

func newTestManager(t *testing.T, st store.Store, dailyCap, dedupWindow int) *Manager {
	t.Helper()
	m, err := NewManager(st, dailyCap, dedupWindow, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestDedupWindow_RollingEviction(t *testing.T) {
	m := newTestManager(t, store.NewMemory(0), 50, 3)

	for id := int64(1); id <= 5; id++ {
		m.MarkProcessed(id)
	}

	// Window of 3: ids 1 and 2 evicted, 3..5 retained.
	assert.False(t, m.Seen(1))
	assert.False(t, m.Seen(2))
	assert.True(t, m.Seen(3))
	assert.True(t, m.Seen(4))
	assert.True(t, m.Seen(5))

	snap := m.Snapshot()
	assert.Equal(t, []int64{3, 4, 5}, snap.ProcessedListingIDs)
}

func TestMarkProcessed_Idempotent(t *testing.T) {
	m := newTestManager(t, store.NewMemory(0), 50, 10)
	m.MarkProcessed(7)
	m.MarkProcessed(7)
	m.MarkProcessed(7)
	assert.Len(t, m.Snapshot().ProcessedListingIDs, 1)
}

func TestDailyCap(t *testing.T) {
	m := newTestManager(t, store.NewMemory(0), 2, 100)

	assert.False(t, m.DailyCapReached())
	m.RecordSubmitted()
	assert.False(t, m.DailyCapReached())
	m.RecordSubmitted()
	assert.True(t, m.DailyCapReached())

	snap := m.Snapshot()
	assert.Equal(t, 2, snap.BidsPlacedToday)
	assert.Equal(t, 2, snap.TotalBids)
}

func TestDailyReset_OncePerUTCDate(t *testing.T) {
	m := newTestManager(t, store.NewMemory(0), 2, 100)

	day1 := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	m.now = func() time.Time { return day1 }
	m.RecordSubmitted()
	m.RecordSubmitted()
	assert.True(t, m.DailyCapReached())

	// Crossing UTC midnight resets the daily counter, but not the totals.
	m.now = func() time.Time { return day1.Add(15 * time.Minute) }
	assert.False(t, m.DailyCapReached())
	snap := m.Snapshot()
	assert.Equal(t, 0, snap.BidsPlacedToday)
	assert.Equal(t, 2, snap.TotalBids)
	assert.Equal(t, "2025-06-02", snap.LastResetDate)

	// Same date again: no second reset.
	m.RecordSubmitted()
	assert.Equal(t, 1, m.Snapshot().BidsPlacedToday)
}

func TestConsecutiveErrors(t *testing.T) {
	m := newTestManager(t, store.NewMemory(0), 50, 100)
	assert.Equal(t, 1, m.RecordCycleError())
	assert.Equal(t, 2, m.RecordCycleError())
	assert.Equal(t, 2, m.ConsecutiveErrors())
	m.ResetErrors()
	assert.Equal(t, 0, m.ConsecutiveErrors())
}

func TestPersist_RoundTrip(t *testing.T) {
	st := store.NewMemory(0)
	m := newTestManager(t, st, 50, 100)
	m.MarkProcessed(11)
	m.MarkProcessed(12)
	m.RecordSubmitted()
	m.RecordRejected()
	m.MarkDedupSkip()
	require.NoError(t, m.Persist())

	// A fresh manager over the same store resumes where the old one stopped.
	m2 := newTestManager(t, st, 50, 100)
	assert.True(t, m2.Seen(11))
	assert.True(t, m2.Seen(12))
	snap := m2.Snapshot()
	assert.Equal(t, 1, snap.BidsPlacedToday)
	assert.Equal(t, 1, snap.TotalBids)
	assert.Equal(t, 1, snap.TotalRejected)
	assert.Equal(t, 1, snap.DedupSkips)
}

func TestNewManager_CorruptStateFails(t *testing.T) {
	st := store.NewMemory(0)
	require.NoError(t, st.Set(store.StateKey, []byte("{not json")))
	_, err := NewManager(st, 50, 100, zerolog.Nop())
	require.Error(t, err)
}

func TestSnapshot_IsACopy(t *testing.T) {
	m := newTestManager(t, store.NewMemory(0), 50, 100)
	m.MarkProcessed(1)
	snap := m.Snapshot()
	snap.ProcessedListingIDs[0] = 999
	snap.TotalBids = 42
	assert.True(t, m.Seen(1))
	assert.Equal(t, 0, m.Snapshot().TotalBids)
	assert.Equal(t, []int64{1}, m.Snapshot().ProcessedListingIDs)
}
