package store

import (
	"sync"

	"BidSentinel/internal/model"
)

// StateKey is the key under which the cycle state blob is persisted.
const StateKey = "cycle_state"

// Store is the key-value persistence interface. It holds the cycle state blob
// and a rolling window of recent bid records for observability.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	RecordBid(rec model.BidRecord) error
	RecentBids(limit int) ([]model.BidRecord, error)
	Close() error
}

// Memory is the in-memory fallback used when no SQLite path is configured or
// opening it fails. State survives the run only.
type Memory struct {
	mu     sync.Mutex
	kv     map[string][]byte
	bids   []model.BidRecord
	window int
}

func NewMemory(bidWindow int) *Memory {
	return &Memory{kv: make(map[string][]byte), window: bidWindow}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.kv[key] = cp
	return nil
}

func (m *Memory) RecordBid(rec model.BidRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids = append(m.bids, rec)
	if m.window > 0 && len(m.bids) > m.window {
		m.bids = m.bids[len(m.bids)-m.window:]
	}
	return nil
}

func (m *Memory) RecentBids(limit int) ([]model.BidRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.bids)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.BidRecord, 0, n)
	for i := len(m.bids) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.bids[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
