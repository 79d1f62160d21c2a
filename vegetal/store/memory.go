// Package store provides the in-memory Store implementation.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/vegetal-engine/vegetal"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (tests and single-user runs)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	batches    map[vegetal.BatchID]*batchRow
	batchOrder []vegetal.BatchID
	movements  []vegetal.MovementRecord
	sessions   map[vegetal.SessionID]vegetal.Session
	sessOrder  []vegetal.SessionID
}

// batchRow holds a batch plus its live-inventory flag. The historical index
// is every row; live inventory is the active subset.
type batchRow struct {
	b      vegetal.Batch
	active bool
}

func NewMemory() *Memory {
	return &Memory{
		batches:  make(map[vegetal.BatchID]*batchRow),
		sessions: make(map[vegetal.SessionID]vegetal.Session),
	}
}

var _ vegetal.TxStore = (*Memory)(nil)

// --- Live inventory ---

func (m *Memory) GetBatch(_ context.Context, id vegetal.BatchID) (vegetal.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBatchLocked(id)
}

func (m *Memory) getBatchLocked(id vegetal.BatchID) (vegetal.Batch, error) {
	row, ok := m.batches[id]
	if !ok || !row.active {
		return vegetal.Batch{}, &vegetal.BatchNotFoundError{BatchID: id}
	}
	return row.b, nil
}

func (m *Memory) ListBatches(_ context.Context) ([]vegetal.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listBatchesLocked(), nil
}

func (m *Memory) listBatchesLocked() []vegetal.Batch {
	var out []vegetal.Batch
	for _, id := range m.batchOrder {
		if row := m.batches[id]; row.active {
			out = append(out, row.b)
		}
	}
	return out
}

func (m *Memory) PutBatch(_ context.Context, b vegetal.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putBatchLocked(b, true)
	return nil
}

func (m *Memory) putBatchLocked(b vegetal.Batch, active bool) {
	if row, ok := m.batches[b.ID]; ok {
		row.b = b
		if active {
			row.active = true
		}
		return
	}
	m.batches[b.ID] = &batchRow{b: b, active: active}
	m.batchOrder = append(m.batchOrder, b.ID)
}

func (m *Memory) AdjustBatchQuantity(_ context.Context, id vegetal.BatchID, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjustBatchLocked(id, delta)
}

func (m *Memory) adjustBatchLocked(id vegetal.BatchID, delta decimal.Decimal) error {
	row, ok := m.batches[id]
	if !ok || !row.active {
		return &vegetal.BatchNotFoundError{BatchID: id}
	}
	row.b.Quantity = row.b.Quantity.Add(delta)
	return nil
}

func (m *Memory) DeactivateBatch(_ context.Context, id vegetal.BatchID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deactivateBatchLocked(id)
}

func (m *Memory) deactivateBatchLocked(id vegetal.BatchID) error {
	row, ok := m.batches[id]
	if !ok {
		return &vegetal.BatchNotFoundError{BatchID: id}
	}
	row.active = false
	return nil
}

// --- Historical index ---

func (m *Memory) GetHistoricalBatch(_ context.Context, id vegetal.BatchID) (vegetal.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getHistoricalLocked(id)
}

func (m *Memory) getHistoricalLocked(id vegetal.BatchID) (vegetal.Batch, error) {
	row, ok := m.batches[id]
	if !ok {
		return vegetal.Batch{}, &vegetal.BatchNotFoundError{BatchID: id}
	}
	return row.b, nil
}

func (m *Memory) ListHistoricalBatches(_ context.Context) ([]vegetal.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]vegetal.Batch, 0, len(m.batchOrder))
	for _, id := range m.batchOrder {
		out = append(out, m.batches[id].b)
	}
	return out, nil
}

func (m *Memory) PutHistoricalBatch(_ context.Context, b vegetal.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putBatchLocked(b, false)
	return nil
}

func (m *Memory) RemoveHistoricalBatch(_ context.Context, id vegetal.BatchID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeHistoricalLocked(id)
}

func (m *Memory) removeHistoricalLocked(id vegetal.BatchID) error {
	if _, ok := m.batches[id]; !ok {
		return &vegetal.BatchNotFoundError{BatchID: id}
	}
	delete(m.batches, id)
	for i, bid := range m.batchOrder {
		if bid == id {
			m.batchOrder = append(m.batchOrder[:i], m.batchOrder[i+1:]...)
			break
		}
	}
	return nil
}

// --- Movement ledger ---

func (m *Memory) AppendMovement(_ context.Context, rec vegetal.MovementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, rec)
	return nil
}

func (m *Memory) Movements(_ context.Context, f vegetal.MovementFilter) ([]vegetal.MovementRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.movementsLocked(f), nil
}

func (m *Memory) movementsLocked(f vegetal.MovementFilter) []vegetal.MovementRecord {
	var out []vegetal.MovementRecord
	for _, rec := range m.movements {
		if matches(rec, f) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec vegetal.MovementRecord, f vegetal.MovementFilter) bool {
	if f.BatchID != nil && rec.BatchID != *f.BatchID {
		return false
	}
	if f.SessionID != nil && rec.SessionID != *f.SessionID {
		return false
	}
	if f.Kind != nil && rec.Kind != *f.Kind {
		return false
	}
	return true
}

func (m *Memory) DeleteSessionMovements(_ context.Context, id vegetal.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteSessionMovementsLocked(id)
	return nil
}

func (m *Memory) deleteSessionMovementsLocked(id vegetal.SessionID) {
	kept := m.movements[:0]
	for _, rec := range m.movements {
		if rec.SessionID != id {
			kept = append(kept, rec)
		}
	}
	m.movements = kept
}

func (m *Memory) RenameBatchMovements(_ context.Context, id vegetal.BatchID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.movements {
		if m.movements[i].BatchID == id {
			m.movements[i].BatchName = name
		}
	}
	return nil
}

// --- Sessions ---

func (m *Memory) GetSession(_ context.Context, id vegetal.SessionID) (vegetal.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getSessionLocked(id)
}

func (m *Memory) getSessionLocked(id vegetal.SessionID) (vegetal.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return vegetal.Session{}, fmt.Errorf("%w: %s", vegetal.ErrSessionNotFound, id)
	}
	return copySession(s), nil
}

func (m *Memory) ListSessions(_ context.Context) ([]vegetal.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]vegetal.Session, 0, len(m.sessOrder))
	for _, id := range m.sessOrder {
		out = append(out, copySession(m.sessions[id]))
	}
	return out, nil
}

func (m *Memory) PutSession(_ context.Context, s vegetal.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putSessionLocked(s)
	return nil
}

func (m *Memory) putSessionLocked(s vegetal.Session) {
	if _, ok := m.sessions[s.ID]; !ok {
		m.sessOrder = append(m.sessOrder, s.ID)
	}
	m.sessions[s.ID] = copySession(s)
}

func (m *Memory) DeleteSession(_ context.Context, id vegetal.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteSessionLocked(id)
}

func (m *Memory) deleteSessionLocked(id vegetal.SessionID) error {
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", vegetal.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	for i, sid := range m.sessOrder {
		if sid == id {
			m.sessOrder = append(m.sessOrder[:i], m.sessOrder[i+1:]...)
			break
		}
	}
	return nil
}

// copySession detaches the claims slice so callers cannot alias store state.
func copySession(s vegetal.Session) vegetal.Session {
	out := s
	out.Consumption.Claims = append([]vegetal.Claim(nil), s.Consumption.Claims...)
	return out
}

// =============================================================================
// TRANSACTIONS - Snapshot + rollback
// =============================================================================

// WithTx executes fn against a view sharing the store's state. For the
// memory store this is simulated with a snapshot restored on error.
func (m *Memory) WithTx(ctx context.Context, fn func(vegetal.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	batches    map[vegetal.BatchID]*batchRow
	batchOrder []vegetal.BatchID
	movements  []vegetal.MovementRecord
	sessions   map[vegetal.SessionID]vegetal.Session
	sessOrder  []vegetal.SessionID
}

func (m *Memory) snapshot() memorySnapshot {
	batches := make(map[vegetal.BatchID]*batchRow, len(m.batches))
	for id, row := range m.batches {
		cp := *row
		batches[id] = &cp
	}
	sessions := make(map[vegetal.SessionID]vegetal.Session, len(m.sessions))
	for id, s := range m.sessions {
		sessions[id] = copySession(s)
	}
	return memorySnapshot{
		batches:    batches,
		batchOrder: append([]vegetal.BatchID(nil), m.batchOrder...),
		movements:  append([]vegetal.MovementRecord(nil), m.movements...),
		sessions:   sessions,
		sessOrder:  append([]vegetal.SessionID(nil), m.sessOrder...),
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.batches = s.batches
	m.batchOrder = s.batchOrder
	m.movements = s.movements
	m.sessions = s.sessions
	m.sessOrder = s.sessOrder
}

// txView routes Store calls to the parent's locked helpers. The parent's
// mutex is held for the whole WithTx scope.
type txView struct {
	parent *Memory
}

func (tv *txView) GetBatch(_ context.Context, id vegetal.BatchID) (vegetal.Batch, error) {
	return tv.parent.getBatchLocked(id)
}

func (tv *txView) ListBatches(_ context.Context) ([]vegetal.Batch, error) {
	return tv.parent.listBatchesLocked(), nil
}

func (tv *txView) PutBatch(_ context.Context, b vegetal.Batch) error {
	tv.parent.putBatchLocked(b, true)
	return nil
}

func (tv *txView) AdjustBatchQuantity(_ context.Context, id vegetal.BatchID, delta decimal.Decimal) error {
	return tv.parent.adjustBatchLocked(id, delta)
}

func (tv *txView) DeactivateBatch(_ context.Context, id vegetal.BatchID) error {
	return tv.parent.deactivateBatchLocked(id)
}

func (tv *txView) GetHistoricalBatch(_ context.Context, id vegetal.BatchID) (vegetal.Batch, error) {
	return tv.parent.getHistoricalLocked(id)
}

func (tv *txView) ListHistoricalBatches(_ context.Context) ([]vegetal.Batch, error) {
	out := make([]vegetal.Batch, 0, len(tv.parent.batchOrder))
	for _, id := range tv.parent.batchOrder {
		out = append(out, tv.parent.batches[id].b)
	}
	return out, nil
}

func (tv *txView) PutHistoricalBatch(_ context.Context, b vegetal.Batch) error {
	tv.parent.putBatchLocked(b, false)
	return nil
}

func (tv *txView) RemoveHistoricalBatch(_ context.Context, id vegetal.BatchID) error {
	return tv.parent.removeHistoricalLocked(id)
}

func (tv *txView) AppendMovement(_ context.Context, rec vegetal.MovementRecord) error {
	tv.parent.movements = append(tv.parent.movements, rec)
	return nil
}

func (tv *txView) Movements(_ context.Context, f vegetal.MovementFilter) ([]vegetal.MovementRecord, error) {
	return tv.parent.movementsLocked(f), nil
}

func (tv *txView) DeleteSessionMovements(_ context.Context, id vegetal.SessionID) error {
	tv.parent.deleteSessionMovementsLocked(id)
	return nil
}

func (tv *txView) RenameBatchMovements(_ context.Context, id vegetal.BatchID, name string) error {
	for i := range tv.parent.movements {
		if tv.parent.movements[i].BatchID == id {
			tv.parent.movements[i].BatchName = name
		}
	}
	return nil
}

func (tv *txView) GetSession(_ context.Context, id vegetal.SessionID) (vegetal.Session, error) {
	return tv.parent.getSessionLocked(id)
}

func (tv *txView) ListSessions(_ context.Context) ([]vegetal.Session, error) {
	out := make([]vegetal.Session, 0, len(tv.parent.sessOrder))
	for _, id := range tv.parent.sessOrder {
		out = append(out, copySession(tv.parent.sessions[id]))
	}
	return out, nil
}

func (tv *txView) PutSession(_ context.Context, s vegetal.Session) error {
	tv.parent.putSessionLocked(s)
	return nil
}

func (tv *txView) DeleteSession(_ context.Context, id vegetal.SessionID) error {
	return tv.parent.deleteSessionLocked(id)
}
