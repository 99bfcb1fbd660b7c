package bank

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/asvab-prep/backend/internal/models"
)

// Bank is an immutable calibrated item bank. Readers share it without
// synchronization; recalibration builds a fresh Bank and publishes it
// through a Holder swap.
type Bank struct {
	items map[string]models.Item
	ids   []string
}

func New(items []models.Item) *Bank {
	m := make(map[string]models.Item, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, dup := m[it.ID]; !dup {
			ids = append(ids, it.ID)
		}
		m[it.ID] = it
	}
	sort.Strings(ids)
	return &Bank{items: m, ids: ids}
}

// Item looks up one calibrated item by question ID.
func (b *Bank) Item(id string) (models.Item, bool) {
	it, ok := b.items[id]
	return it, ok
}

// Items returns every item ordered by question ID.
func (b *Bank) Items() []models.Item {
	out := make([]models.Item, len(b.ids))
	for i, id := range b.ids {
		out[i] = b.items[id]
	}
	return out
}

func (b *Bank) Len() int {
	return len(b.ids)
}

// Snapshot bundles one calibration of the bank with the response history
// it was calibrated from. In-flight requests keep reading whichever
// snapshot they started with.
type Snapshot struct {
	Bank            *Bank
	ResponsesByUser map[string][]models.Response
	DroppedRecords  int
	CalibratedAt    time.Time
}

// Responses returns one learner's response history.
func (s *Snapshot) Responses(userID string) []models.Response {
	return s.ResponsesByUser[userID]
}

// Holder publishes the current snapshot. Swap is atomic so readers never
// observe a half-built bank.
type Holder struct {
	p atomic.Pointer[Snapshot]
}

func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.p.Store(s)
	return h
}

func (h *Holder) Current() *Snapshot {
	return h.p.Load()
}

func (h *Holder) Swap(s *Snapshot) {
	h.p.Store(s)
}
