/*
Package engine implements the stock-consumption reconciliation engine.

PURPOSE:
  The engine is the only writer to the stores. On session create, update and
  delete it validates the requested consumption against live inventory,
  converts claims into stock decrements and ledger records, derives leftover
  balance batches, and reverses all of it when a session is edited or
  deleted. Direct (non-session) stock movements live in movements.go.

CORRECTNESS MODEL:
  Validate fully, then mutate. The validation phase runs against a scratch
  copy of live inventory and never touches a store; the apply phase runs
  inside store.WithTx. The apply phase does not re-validate - the ordering
  is the correctness guarantee.

INVARIANTS:
  1. No batch quantity ever goes negative.
  2. Summing a batch's ledger records from creation reproduces its current
     quantity (the quantity field is the source of truth; the ledger is the
     audit trail kept in sync on every mutation path).
  3. After an edit, querying a session's movements returns only the new set
     (delete-and-replace ledger semantics, see DESIGN.md).
  4. Deleting a session restores every touched batch and leaves zero ledger
     records referencing it.

CLAIM ORDERING:
  Claims are processed in draft order. This matters when several claims hit
  the same batch: they stack, and validation depletes the scratch copy
  cumulatively so the sequence is checked as a whole.

SEE ALSO:
  - movements.go: Entry/Exit/Adjustment and batch detail edits
  - roster.go: Socios name registry and bulk rename
  - vegetal/store.go: The store contract
*/
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/vegetal-engine/vegetal"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store vegetal.TxStore
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithClock fixes the timestamp source. Tests use this for deterministic
// movement records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator fixes the id source.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func New(store vegetal.TxStore, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		log:   zerolog.Nop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes read access for collaborators (handlers, exporter).
func (e *Engine) Store() vegetal.TxStore { return e.store }

// =============================================================================
// SESSION SAVE - Create or update
// =============================================================================

// SaveSession validates and applies a session draft. A draft with an empty
// id, or an id not present in the session store, is a create; otherwise the
// existing session is replaced and its stock and ledger effects are
// recomputed from scratch.
//
// Validation failures (BatchNotFound, InsufficientStock, EmptyConsumption)
// abort with no mutation.
func (e *Engine) SaveSession(ctx context.Context, draft vegetal.Session) (vegetal.Session, error) {
	draft.Consumption.Claims = filterClaims(draft.Consumption.Claims)
	if len(draft.Consumption.Claims) == 0 {
		return vegetal.Session{}, vegetal.ErrEmptyConsumption
	}

	// Resolve the original session when this is an update.
	var original *vegetal.Session
	if draft.ID != "" {
		switch s, err := e.store.GetSession(ctx, draft.ID); {
		case err == nil:
			original = &s
		case !errors.Is(err, vegetal.ErrSessionNotFound):
			return vegetal.Session{}, err
		}
	}

	if err := e.validateClaims(ctx, draft.Consumption.Claims, original); err != nil {
		return vegetal.Session{}, err
	}

	if draft.ID == "" {
		draft.ID = vegetal.SessionID(e.newID())
	}

	err := e.store.WithTx(ctx, func(s vegetal.Store) error {
		if original != nil {
			if err := e.reverseSession(ctx, s, *original, false); err != nil {
				return err
			}
		}
		return e.applyDraft(ctx, s, draft)
	})
	if err != nil {
		return vegetal.Session{}, err
	}

	e.log.Debug().
		Str("session", string(draft.ID)).
		Bool("update", original != nil).
		Msg("session saved")
	return draft, nil
}

// filterClaims drops blank and non-positive entries before validation.
func filterClaims(claims []vegetal.Claim) []vegetal.Claim {
	var out []vegetal.Claim
	for _, c := range claims {
		if c.BatchID == "" || !c.MadeAvailable.IsPositive() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// =============================================================================
// VALIDATION PHASE - Scratch copy, no store mutation
// =============================================================================

// validateClaims checks the draft's claims against a scratch copy of live
// inventory. When original is non-nil (update), the original session's
// claims are un-applied onto the scratch copy first, so the draft is
// validated against the pre-session state. Claims are depleted from the
// scratch copy in order, so repeated claims against one batch stack.
func (e *Engine) validateClaims(ctx context.Context, claims []vegetal.Claim, original *vegetal.Session) error {
	live, err := e.store.ListBatches(ctx)
	if err != nil {
		return err
	}
	scratch := make(map[vegetal.BatchID]vegetal.Batch, len(live))
	for _, b := range live {
		scratch[b.ID] = b
	}

	if original != nil {
		for _, c := range original.Consumption.Claims {
			if b, ok := scratch[c.BatchID]; ok {
				b.Quantity = b.Quantity.Add(c.MadeAvailable)
				scratch[c.BatchID] = b
				continue
			}
			// Fully depleted and pruned from live inventory: revive from the
			// historical index at the reverted quantity.
			h, err := e.store.GetHistoricalBatch(ctx, c.BatchID)
			if err != nil {
				if vegetal.IsNotFound(err) {
					continue
				}
				return err
			}
			h.Quantity = c.MadeAvailable
			scratch[c.BatchID] = h
		}
	}

	for _, c := range claims {
		b, ok := scratch[c.BatchID]
		if !ok {
			return &vegetal.BatchNotFoundError{BatchID: c.BatchID}
		}
		if b.Quantity.LessThan(c.MadeAvailable) {
			return &vegetal.InsufficientStockError{
				BatchID:   b.ID,
				Name:      b.Name,
				Available: b.Quantity,
				Requested: c.MadeAvailable,
			}
		}
		b.Quantity = b.Quantity.Sub(c.MadeAvailable)
		scratch[c.BatchID] = b
	}
	return nil
}

// =============================================================================
// APPLY PHASE - Runs inside WithTx
// =============================================================================

// reverseSession undoes a session's stock and ledger effects. The balance
// batch the session spawned leaves live inventory; it additionally leaves
// the historical index when the session itself is being deleted
// (dropBalanceFromHistory), since it has no existence independent of its
// session. On update the historical entry stays so old exports still
// resolve the name.
func (e *Engine) reverseSession(ctx context.Context, s vegetal.Store, sess vegetal.Session, dropBalanceFromHistory bool) error {
	balanceKind := vegetal.KindSessionBalance
	balances, err := s.Movements(ctx, vegetal.MovementFilter{
		SessionID: &sess.ID,
		Kind:      &balanceKind,
	})
	if err != nil {
		return err
	}
	for _, rec := range balances {
		if dropBalanceFromHistory {
			err = s.RemoveHistoricalBatch(ctx, rec.BatchID)
		} else {
			err = s.DeactivateBatch(ctx, rec.BatchID)
		}
		if err != nil && !vegetal.IsNotFound(err) {
			return err
		}
	}

	for _, c := range sess.Consumption.Claims {
		if _, err := s.GetBatch(ctx, c.BatchID); err == nil {
			if err := s.AdjustBatchQuantity(ctx, c.BatchID, c.MadeAvailable); err != nil {
				return err
			}
			continue
		}
		h, err := s.GetHistoricalBatch(ctx, c.BatchID)
		if err != nil {
			if vegetal.IsNotFound(err) {
				continue
			}
			return err
		}
		h.Quantity = c.MadeAvailable
		if err := s.PutBatch(ctx, h); err != nil {
			return err
		}
	}

	return s.DeleteSessionMovements(ctx, sess.ID)
}

// applyDraft decrements the claimed batches, writes the session's ledger
// records, derives the leftover balance batch, and stores the session.
func (e *Engine) applyDraft(ctx context.Context, s vegetal.Store, draft vegetal.Session) error {
	totalMadeAvailable := decimal.Zero

	for _, c := range draft.Consumption.Claims {
		b, err := s.GetBatch(ctx, c.BatchID)
		if err != nil {
			// Validation guarantees presence; reaching this means the store
			// changed underneath us.
			return fmt.Errorf("apply claim: %w", err)
		}
		if err := s.AdjustBatchQuantity(ctx, c.BatchID, c.MadeAvailable.Neg()); err != nil {
			return err
		}
		rec := vegetal.MovementRecord{
			ID:         vegetal.MovementID(e.newID()),
			BatchID:    c.BatchID,
			BatchName:  b.Name,
			SessionID:  draft.ID,
			Kind:       vegetal.KindSessionConsumption,
			Quantity:   c.MadeAvailable,
			OccurredAt: draft.Date,
		}
		if err := s.AppendMovement(ctx, rec); err != nil {
			return err
		}
		totalMadeAvailable = totalMadeAvailable.Add(c.MadeAvailable)
	}

	balance := totalMadeAvailable.Sub(draft.Consumption.TotalConsumed)
	if balance.GreaterThan(vegetal.BalanceThreshold) {
		bb := vegetal.Batch{
			ID:        vegetal.BatchID(e.newID()),
			Name:      BalanceBatchName(draft.Date, draft.Type),
			Quantity:  balance,
			IsBalance: true,
		}
		if err := s.PutBatch(ctx, bb); err != nil {
			return err
		}
		rec := vegetal.MovementRecord{
			ID:         vegetal.MovementID(e.newID()),
			BatchID:    bb.ID,
			BatchName:  bb.Name,
			SessionID:  draft.ID,
			Kind:       vegetal.KindSessionBalance,
			Quantity:   balance,
			OccurredAt: draft.Date,
		}
		if err := s.AppendMovement(ctx, rec); err != nil {
			return err
		}
	}

	return s.PutSession(ctx, draft)
}

// BalanceBatchName derives the display name of a session's leftover batch.
func BalanceBatchName(date time.Time, t vegetal.SessionType) string {
	return fmt.Sprintf("Saldo %s - %s", vegetal.FormatDateBR(date), t)
}

// =============================================================================
// SESSION DELETE - Full reversal
// =============================================================================

// DeleteSession restores every batch the session drew from, removes the
// session's balance batch from both live inventory and the historical index,
// drops all ledger records referencing the session, and deletes the session.
func (e *Engine) DeleteSession(ctx context.Context, id vegetal.SessionID) error {
	sess, err := e.store.GetSession(ctx, id)
	if err != nil {
		return err
	}

	err = e.store.WithTx(ctx, func(s vegetal.Store) error {
		if err := e.reverseSession(ctx, s, sess, true); err != nil {
			return err
		}
		return s.DeleteSession(ctx, id)
	})
	if err != nil {
		return err
	}

	e.log.Debug().Str("session", string(id)).Msg("session deleted")
	return nil
}
