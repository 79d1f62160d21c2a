/*
store.go - Persistence contract for the four stores

PURPOSE:
  Defines the interface between the reconciliation engine and persistence.
  One Store contract spans the four logical stores: live inventory, the
  historical stock index, the movement ledger, and the session store. A
  single contract (rather than four) because every engine operation touches
  several of them and must do so atomically.

LIVE vs HISTORICAL:
  The historical index is a superset of live inventory: every batch ever
  created, including deactivated and balance batches. Putting a batch makes
  it live; deactivating removes it from live inventory while keeping it
  resolvable by name/id. Hard removal exists only for balance batches that
  die with their session.

LEDGER SEMANTICS:
  The ledger is append-mostly. The engine achieves reversal on session edit
  by deleting the session's prior records and inserting fresh ones
  (delete-and-replace, documented in DESIGN.md); direct movements are never
  rewritten except for name-snapshot propagation on rename.

ATOMICITY:
  TxStore.WithTx executes a function against a transactional view. The
  engine validates without touching the store, then runs its whole apply
  phase inside WithTx so a failure leaves no partial mutation.

IMPLEMENTATIONS:
  - vegetal/store/memory.go: In-memory, for tests and single-user runs
  - store/sqlite/sqlite.go:  SQLite persistence

SEE ALSO:
  - engine/engine.go: The only writer
*/
package vegetal

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Inventory, history, ledger and sessions behind one contract
// =============================================================================

// Store is the persistence contract. Implementations return
// ErrBatchNotFound / ErrSessionNotFound (or wrapping errors) for missing
// records; callers pre-validate quantity invariants, the store does not.
type Store interface {
	// --- Live inventory ---

	// GetBatch returns a live batch. ErrBatchNotFound if absent or inactive.
	GetBatch(ctx context.Context, id BatchID) (Batch, error)

	// ListBatches returns all live batches in stable (creation) order.
	ListBatches(ctx context.Context) ([]Batch, error)

	// PutBatch upserts a batch into live inventory (and therefore into the
	// historical index, which is a superset).
	PutBatch(ctx context.Context, b Batch) error

	// AdjustBatchQuantity adds delta (possibly negative) to a live batch's
	// quantity. The engine guarantees the result is not negative.
	AdjustBatchQuantity(ctx context.Context, id BatchID, delta decimal.Decimal) error

	// DeactivateBatch removes a batch from live inventory while keeping it
	// in the historical index.
	DeactivateBatch(ctx context.Context, id BatchID) error

	// --- Historical index ---

	// GetHistoricalBatch returns a batch whether live or deactivated.
	GetHistoricalBatch(ctx context.Context, id BatchID) (Batch, error)

	// ListHistoricalBatches returns every batch ever created, live first.
	ListHistoricalBatches(ctx context.Context) ([]Batch, error)

	// PutHistoricalBatch upserts a batch into the historical index without
	// making it live. Used for import placeholders.
	PutHistoricalBatch(ctx context.Context, b Batch) error

	// RemoveHistoricalBatch deletes a batch from both live inventory and the
	// historical index. Only balance batches are ever removed this way.
	RemoveHistoricalBatch(ctx context.Context, id BatchID) error

	// --- Movement ledger ---

	AppendMovement(ctx context.Context, rec MovementRecord) error

	// Movements returns records matching the filter, oldest first.
	Movements(ctx context.Context, f MovementFilter) ([]MovementRecord, error)

	// DeleteSessionMovements drops every record referencing the session.
	DeleteSessionMovements(ctx context.Context, id SessionID) error

	// RenameBatchMovements rewrites the name snapshot on every record
	// referencing the batch.
	RenameBatchMovements(ctx context.Context, id BatchID, name string) error

	// --- Sessions ---

	GetSession(ctx context.Context, id SessionID) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	PutSession(ctx context.Context, s Session) error
	DeleteSession(ctx context.Context, id SessionID) error
}

// MovementFilter selects ledger records. Nil fields match everything.
type MovementFilter struct {
	BatchID   *BatchID
	SessionID *SessionID
	Kind      *MovementKind
}

// FilterByBatch matches one batch's records.
func FilterByBatch(id BatchID) MovementFilter { return MovementFilter{BatchID: &id} }

// FilterBySession matches one session's records.
func FilterBySession(id SessionID) MovementFilter { return MovementFilter{SessionID: &id} }

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view. If fn returns an
	// error the view's writes are discarded; otherwise they are committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
