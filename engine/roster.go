/*
roster.go - Socios name registry and bulk rename

PURPOSE:
  The socios roster is derived, not stored: the set of distinct names
  appearing in session role fields and batch provenance fields. Renaming a
  socio rewrites every occurrence across sessions and both inventory
  indexes in one pass.

  Stock quantities and the ledger are untouched by a socio rename; batch
  names are not socio names.
*/
package engine

import (
	"context"
	"sort"

	"github.com/warp/vegetal-engine/vegetal"
)

// NameUpdate renames one socio.
type NameUpdate struct {
	Old string
	New string
}

// Socios returns the distinct participant names across session roles and
// batch provenance, sorted.
func (e *Engine) Socios(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	add := func(names ...string) {
		for _, n := range names {
			if n != "" {
				seen[n] = struct{}{}
			}
		}
	}

	sessions, err := e.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		add(s.Dirigente, s.Explanador, s.Leitor, s.AssistantMaster)
	}

	batches, err := e.store.ListHistoricalBatches(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		p := b.Provenance
		add(p.Master, p.Auxiliary, p.Messenger, p.ChacronaResp, p.BatidaoResp)
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// RenameSocios applies the given renames to every session role field and
// every batch provenance field, atomically.
func (e *Engine) RenameSocios(ctx context.Context, updates []NameUpdate) error {
	names := make(map[string]string, len(updates))
	for _, u := range updates {
		if u.Old != "" && u.New != "" && u.Old != u.New {
			names[u.Old] = u.New
		}
	}
	if len(names) == 0 {
		return nil
	}
	rename := func(s *string) bool {
		if n, ok := names[*s]; ok {
			*s = n
			return true
		}
		return false
	}

	return e.store.WithTx(ctx, func(s vegetal.Store) error {
		sessions, err := s.ListSessions(ctx)
		if err != nil {
			return err
		}
		for _, sess := range sessions {
			changed := rename(&sess.Dirigente)
			changed = rename(&sess.Explanador) || changed
			changed = rename(&sess.Leitor) || changed
			changed = rename(&sess.AssistantMaster) || changed
			if changed {
				if err := s.PutSession(ctx, sess); err != nil {
					return err
				}
			}
		}

		batches, err := s.ListHistoricalBatches(ctx)
		if err != nil {
			return err
		}
		for _, b := range batches {
			p := &b.Provenance
			changed := rename(&p.Master)
			changed = rename(&p.Auxiliary) || changed
			changed = rename(&p.Messenger) || changed
			changed = rename(&p.ChacronaResp) || changed
			changed = rename(&p.BatidaoResp) || changed
			if !changed {
				continue
			}
			// Preserve live/deactivated state while replacing fields.
			if _, err := s.GetBatch(ctx, b.ID); err == nil {
				err = s.PutBatch(ctx, b)
			} else {
				err = s.PutHistoricalBatch(ctx, b)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
