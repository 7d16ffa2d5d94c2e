package state

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"BidSentinel/internal/model"
	"BidSentinel/internal/store"
)

const dateLayout = "2006-01-02"

// Manager owns the CycleState: loaded at startup, mutated once per listing,
// persisted at the end of every cycle and on graceful shutdown. All external
// reads go through Snapshot copies, never the live value.
type Manager struct {
	mu          sync.Mutex
	st          *model.CycleState
	processed   map[int64]struct{}
	store       store.Store
	dailyCap    int
	dedupWindow int
	log         zerolog.Logger

	// now is overridable for tests; defaults to time.Now.
	now func() time.Time
}

// NewManager loads persisted state from the store, or starts zero-valued when
// absent. A state blob that fails to decode is treated as store corruption and
// surfaces as a startup error.
func NewManager(st store.Store, dailyCap, dedupWindow int, log zerolog.Logger) (*Manager, error) {
	m := &Manager{
		processed:   make(map[int64]struct{}),
		store:       st,
		dailyCap:    dailyCap,
		dedupWindow: dedupWindow,
		log:         log.With().Str("component", "state").Logger(),
		now:         time.Now,
	}

	data, ok, err := st.Get(store.StateKey)
	if err != nil {
		return nil, fmt.Errorf("load cycle state: %w", err)
	}
	cs := &model.CycleState{}
	if ok {
		if err := json.Unmarshal(data, cs); err != nil {
			return nil, fmt.Errorf("cycle state corrupt: %w", err)
		}
	}
	if cs.LastResetDate == "" {
		cs.LastResetDate = m.now().UTC().Format(dateLayout)
	}
	for _, id := range cs.ProcessedListingIDs {
		m.processed[id] = struct{}{}
	}
	m.st = cs
	return m, nil
}

// Seen reports whether a listing id is inside the dedup window.
func (m *Manager) Seen(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.processed[id]
	return ok
}

// MarkDedupSkip counts an intentional duplicate skip. Counted, never alarmed.
func (m *Manager) MarkDedupSkip() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.DedupSkips++
}

// MarkProcessed adds a listing id to the rolling dedup set, evicting the
// oldest entries beyond the configured window.
func (m *Manager) MarkProcessed(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.processed[id]; ok {
		return
	}
	m.processed[id] = struct{}{}
	m.st.ProcessedListingIDs = append(m.st.ProcessedListingIDs, id)
	if m.dedupWindow > 0 && len(m.st.ProcessedListingIDs) > m.dedupWindow {
		evicted := m.st.ProcessedListingIDs[:len(m.st.ProcessedListingIDs)-m.dedupWindow]
		for _, old := range evicted {
			delete(m.processed, old)
		}
		m.st.ProcessedListingIDs = m.st.ProcessedListingIDs[len(evicted):]
	}
}

// DailyCapReached reports whether today's bid budget is spent. Triggers the
// once-per-UTC-day counter reset when the date has advanced.
func (m *Manager) DailyCapReached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked()
	return m.dailyCap > 0 && m.st.BidsPlacedToday >= m.dailyCap
}

// RecordSubmitted counts a successfully placed bid against the daily cap.
func (m *Manager) RecordSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked()
	m.st.BidsPlacedToday++
	m.st.TotalBids++
}

// RecordRejected counts a rejection outcome.
func (m *Manager) RecordRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.TotalRejected++
}

// RecordFailed counts a submission failure outcome.
func (m *Manager) RecordFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.TotalFailed++
}

// RecordCycleError increments the consecutive error count and returns it.
func (m *Manager) RecordCycleError() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.ConsecutiveErrors++
	return m.st.ConsecutiveErrors
}

// ResetErrors clears the consecutive error count after a healthy cycle.
func (m *Manager) ResetErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.ConsecutiveErrors = 0
}

// ConsecutiveErrors returns the current consecutive error count.
func (m *Manager) ConsecutiveErrors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.ConsecutiveErrors
}

// ResetDailyIfNeeded applies the UTC-midnight counter reset. Also called by
// the cron job so the reset never waits for traffic.
func (m *Manager) ResetDailyIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked()
}

func (m *Manager) resetDailyLocked() {
	today := m.now().UTC().Format(dateLayout)
	if m.st.LastResetDate != today {
		m.log.Info().Str("date", today).Int("bids_yesterday", m.st.BidsPlacedToday).
			Msg("daily counter reset")
		m.st.BidsPlacedToday = 0
		m.st.LastResetDate = today
	}
}

// Snapshot returns a deep copy of the current state for external readers.
func (m *Manager) Snapshot() model.CycleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.st
	cp.ProcessedListingIDs = append([]int64(nil), m.st.ProcessedListingIDs...)
	return cp
}

// Persist writes the state blob through the store.
func (m *Manager) Persist() error {
	m.mu.Lock()
	m.st.UpdatedAt = m.now().UTC()
	data, err := json.Marshal(m.st)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal cycle state: %w", err)
	}
	if err := m.store.Set(store.StateKey, data); err != nil {
		return fmt.Errorf("persist cycle state: %w", err)
	}
	return nil
}
