/*
movements.go - Direct stock movements (non-session) and batch detail edits

PURPOSE:
  The three direct movement kinds from the stock room:
  - Entry:      a new batch enters stock at its initial quantity
  - Exit:       liters leave a batch directly (spillage, transfer out)
  - Adjustment: a batch is set to an explicitly measured value

SIGNED-DELTA ASYMMETRY:
  Entry and Exit records carry positive magnitudes whose direction is
  implied by the kind. An Adjustment record carries the signed delta
  (target minus previous), which may be negative. This asymmetry is part of
  the ledger contract and must not be "fixed".

BATCH EDITS:
  UpdateBatchDetails replaces a batch's fields wholesale. A rename
  retroactively rewrites the name snapshot on every ledger record
  referencing the batch, so the ledger stays readable after the batch
  leaves active inventory. A quantity change records an Adjustment so the
  ledger still explains the stored quantity.

SEE ALSO:
  - engine.go: Session-driven consumption
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/vegetal-engine/vegetal"
)

// =============================================================================
// ENTRY
// =============================================================================

// RecordEntry creates a new batch at the given quantity and appends the
// matching Entry record. The batch id is assigned by the engine.
func (e *Engine) RecordEntry(ctx context.Context, b vegetal.Batch) (vegetal.Batch, error) {
	if b.Quantity.IsNegative() {
		return vegetal.Batch{}, vegetal.ErrInvalidQuantity
	}
	b.ID = vegetal.BatchID(e.newID())
	b.IsBalance = false

	err := e.store.WithTx(ctx, func(s vegetal.Store) error {
		if err := s.PutBatch(ctx, b); err != nil {
			return err
		}
		return s.AppendMovement(ctx, vegetal.MovementRecord{
			ID:         vegetal.MovementID(e.newID()),
			BatchID:    b.ID,
			BatchName:  b.Name,
			Kind:       vegetal.KindEntry,
			Quantity:   b.Quantity,
			OccurredAt: e.now(),
		})
	})
	if err != nil {
		return vegetal.Batch{}, err
	}
	return b, nil
}

// =============================================================================
// EXIT
// =============================================================================

// RecordExit removes quantity liters from a batch. Fails with
// InsufficientStock when the batch holds less than requested; the store is
// untouched on failure.
func (e *Engine) RecordExit(ctx context.Context, id vegetal.BatchID, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return vegetal.ErrInvalidQuantity
	}
	b, err := e.store.GetBatch(ctx, id)
	if err != nil {
		return err
	}
	if b.Quantity.LessThan(quantity) {
		return &vegetal.InsufficientStockError{
			BatchID:   b.ID,
			Name:      b.Name,
			Available: b.Quantity,
			Requested: quantity,
		}
	}

	return e.store.WithTx(ctx, func(s vegetal.Store) error {
		if err := s.AdjustBatchQuantity(ctx, id, quantity.Neg()); err != nil {
			return err
		}
		return s.AppendMovement(ctx, vegetal.MovementRecord{
			ID:         vegetal.MovementID(e.newID()),
			BatchID:    id,
			BatchName:  b.Name,
			Kind:       vegetal.KindExit,
			Quantity:   quantity,
			OccurredAt: e.now(),
		})
	})
}

// =============================================================================
// ADJUSTMENT
// =============================================================================

// RecordAdjustment sets a batch's quantity to the given target and appends
// an Adjustment record whose quantity is the signed delta (target minus
// previous). An adjustment to the current value is a no-op.
func (e *Engine) RecordAdjustment(ctx context.Context, id vegetal.BatchID, target decimal.Decimal) error {
	if target.IsNegative() {
		return vegetal.ErrInvalidQuantity
	}
	b, err := e.store.GetBatch(ctx, id)
	if err != nil {
		return err
	}
	delta := target.Sub(b.Quantity)
	if delta.IsZero() {
		return nil
	}

	return e.store.WithTx(ctx, func(s vegetal.Store) error {
		if err := s.AdjustBatchQuantity(ctx, id, delta); err != nil {
			return err
		}
		return s.AppendMovement(ctx, vegetal.MovementRecord{
			ID:         vegetal.MovementID(e.newID()),
			BatchID:    id,
			BatchName:  b.Name,
			Kind:       vegetal.KindAdjustment,
			Quantity:   delta,
			OccurredAt: e.now(),
		})
	})
}

// =============================================================================
// BATCH DETAIL EDIT - Wholesale replace with rename propagation
// =============================================================================

// UpdateBatchDetails replaces the batch's name, provenance and quantity
// wholesale. A name change propagates to every ledger record referencing
// the batch and to both live and historical entries; a quantity change is
// recorded as an Adjustment.
func (e *Engine) UpdateBatchDetails(ctx context.Context, b vegetal.Batch) error {
	if b.Quantity.IsNegative() {
		return vegetal.ErrInvalidQuantity
	}
	prev, err := e.store.GetHistoricalBatch(ctx, b.ID)
	if err != nil {
		return err
	}
	b.IsBalance = prev.IsBalance

	return e.store.WithTx(ctx, func(s vegetal.Store) error {
		// PutBatch on a deactivated batch would revive it; keep its state.
		if _, err := s.GetBatch(ctx, b.ID); err == nil {
			if err := s.PutBatch(ctx, b); err != nil {
				return err
			}
		} else {
			if err := s.PutHistoricalBatch(ctx, b); err != nil {
				return err
			}
		}
		if prev.Name != b.Name {
			if err := s.RenameBatchMovements(ctx, b.ID, b.Name); err != nil {
				return err
			}
		}
		if delta := b.Quantity.Sub(prev.Quantity); !delta.IsZero() {
			return s.AppendMovement(ctx, vegetal.MovementRecord{
				ID:         vegetal.MovementID(e.newID()),
				BatchID:    b.ID,
				BatchName:  b.Name,
				Kind:       vegetal.KindAdjustment,
				Quantity:   delta,
				OccurredAt: e.now(),
			})
		}
		return nil
	})
}
