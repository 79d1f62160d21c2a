package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vegetal-engine/store/sqlite"
	"github.com/warp/vegetal-engine/vegetal"
)

func newTestStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vegetal.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func batch(id, name string, quantity string) vegetal.Batch {
	return vegetal.Batch{
		ID:       vegetal.BatchID(id),
		Name:     name,
		Quantity: vegetal.ParseLiters(quantity),
	}
}

func TestSQLite_BatchRoundTrip(t *testing.T) {
	// GIVEN: a batch with full provenance
	// WHEN: it is saved and read back
	// THEN: every field survives, including the decimal quantity as-is

	s, _ := newTestStore(t)
	ctx := context.Background()

	in := vegetal.Batch{
		ID:       "v1",
		Name:     "Preparo 2024-06-12",
		Quantity: vegetal.ParseLiters("10.125"),
		Provenance: vegetal.Provenance{
			EnvaseDate:      "2024-06-12",
			Master:          "Mestre Gabriel",
			Auxiliary:       "Auxiliar Lucas",
			Messenger:       "Mensageiro Rafael",
			ChacronaResp:    "Resp. Chacrona",
			BatidaoResp:     "Resp. Batidão",
			MaririSpecies:   "Caupuri",
			ChacronaSpecies: "Rainha",
		},
	}
	require.NoError(t, s.PutBatch(ctx, in))

	got, err := s.GetBatch(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Provenance, got.Provenance)
	assert.True(t, got.Quantity.Equal(in.Quantity))
	assert.False(t, got.IsBalance)
}

func TestSQLite_ActiveFlagSeparatesLiveFromHistory(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBatch(ctx, batch("v1", "A", "10")))
	require.NoError(t, s.PutBatch(ctx, batch("v2", "B", "5")))
	require.NoError(t, s.DeactivateBatch(ctx, "v2"))

	live, err := s.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, vegetal.BatchID("v1"), live[0].ID)

	_, err = s.GetBatch(ctx, "v2")
	assert.ErrorIs(t, err, vegetal.ErrBatchNotFound)

	hist, err := s.ListHistoricalBatches(ctx)
	require.NoError(t, err)
	assert.Len(t, hist, 2)

	h, err := s.GetHistoricalBatch(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, "B", h.Name)
}

func TestSQLite_PutHistoricalBatch_DoesNotActivate(t *testing.T) {
	// Import placeholders land in the historical index only; a later
	// PutBatch with the same id promotes the row to live.

	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutHistoricalBatch(ctx, batch("ph", "Placeholder", "0")))
	_, err := s.GetBatch(ctx, "ph")
	assert.ErrorIs(t, err, vegetal.ErrBatchNotFound)

	// Historical upsert over a live row must not deactivate it.
	require.NoError(t, s.PutBatch(ctx, batch("v1", "Vivo", "4")))
	require.NoError(t, s.PutHistoricalBatch(ctx, batch("v1", "Vivo Editado", "4")))
	got, err := s.GetBatch(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "Vivo Editado", got.Name)

	require.NoError(t, s.PutBatch(ctx, batch("ph", "Placeholder", "2")))
	got, err = s.GetBatch(ctx, "ph")
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(vegetal.ParseLiters("2")))
}

func TestSQLite_AdjustBatchQuantity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBatch(ctx, batch("v1", "A", "10")))
	require.NoError(t, s.AdjustBatchQuantity(ctx, "v1", vegetal.ParseLiters("-2.5")))

	got, err := s.GetBatch(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(vegetal.ParseLiters("7.5")))

	err = s.AdjustBatchQuantity(ctx, "missing", vegetal.ParseLiters("1"))
	assert.ErrorIs(t, err, vegetal.ErrBatchNotFound)
}

func TestSQLite_RemoveHistoricalBatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBatch(ctx, batch("v1", "Saldo", "0.2")))
	require.NoError(t, s.RemoveHistoricalBatch(ctx, "v1"))

	_, err := s.GetHistoricalBatch(ctx, "v1")
	assert.ErrorIs(t, err, vegetal.ErrBatchNotFound)

	err = s.RemoveHistoricalBatch(ctx, "v1")
	assert.ErrorIs(t, err, vegetal.ErrBatchNotFound)
}

func TestSQLite_MovementsFilterAndOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)

	recs := []vegetal.MovementRecord{
		{ID: "m1", BatchID: "v1", BatchName: "A", Kind: vegetal.KindEntry, Quantity: vegetal.ParseLiters("10"), OccurredAt: at},
		{ID: "m2", BatchID: "v1", BatchName: "A", SessionID: "s1", Kind: vegetal.KindSessionConsumption, Quantity: vegetal.ParseLiters("2"), OccurredAt: at},
		{ID: "m3", BatchID: "v2", BatchName: "B", SessionID: "s1", Kind: vegetal.KindSessionConsumption, Quantity: vegetal.ParseLiters("1"), OccurredAt: at},
	}
	for _, rec := range recs {
		require.NoError(t, s.AppendMovement(ctx, rec))
	}

	all, err := s.Movements(ctx, vegetal.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, vegetal.MovementID("m1"), all[0].ID, "oldest first")
	assert.Equal(t, at, all[0].OccurredAt)

	byBatch, err := s.Movements(ctx, vegetal.FilterByBatch("v1"))
	require.NoError(t, err)
	assert.Len(t, byBatch, 2)

	kind := vegetal.KindSessionConsumption
	byKind, err := s.Movements(ctx, vegetal.MovementFilter{Kind: &kind})
	require.NoError(t, err)
	assert.Len(t, byKind, 2)

	require.NoError(t, s.DeleteSessionMovements(ctx, "s1"))
	remaining, err := s.Movements(ctx, vegetal.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, vegetal.MovementID("m1"), remaining[0].ID)
}

func TestSQLite_NegativeAdjustmentDeltaSurvives(t *testing.T) {
	// Adjustment records carry signed deltas; the TEXT column must not
	// mangle the sign.

	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendMovement(ctx, vegetal.MovementRecord{
		ID: "m1", BatchID: "v1", BatchName: "A",
		Kind:       vegetal.KindAdjustment,
		Quantity:   vegetal.ParseLiters("-2.5"),
		OccurredAt: time.Now().UTC(),
	}))

	recs, err := s.Movements(ctx, vegetal.FilterByBatch("v1"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Quantity.Equal(vegetal.ParseLiters("-2.5")))
	assert.True(t, recs[0].SignedDelta().Equal(vegetal.ParseLiters("-2.5")))
}

func TestSQLite_RenameBatchMovements(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2"} {
		require.NoError(t, s.AppendMovement(ctx, vegetal.MovementRecord{
			ID: vegetal.MovementID(id), BatchID: "v1", BatchName: "Velho",
			Kind: vegetal.KindEntry, Quantity: vegetal.ParseLiters("1"),
			OccurredAt: time.Now().UTC(),
		}))
	}
	require.NoError(t, s.RenameBatchMovements(ctx, "v1", "Novo"))

	recs, err := s.Movements(ctx, vegetal.FilterByBatch("v1"))
	require.NoError(t, err)
	for _, rec := range recs {
		assert.Equal(t, "Novo", rec.BatchName)
	}
}

func TestSQLite_SessionRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	in := vegetal.Session{
		ID:              "s1",
		Date:            vegetal.NewDate(2024, 10, 20),
		Type:            vegetal.QuadroDeMestre,
		Dirigente:       "Mestre Gabriel",
		Explanador:      "Mestre Miguel",
		Leitor:          "Leitor José",
		AssistantMaster: "Mestre Rafael",
		Chamadas:        "Chamada do Vegetal",
		Stories:         "História da sessão",
		HasPhoto:        true,
		HasAudio:        false,
		Participants: vegetal.ParticipantCount{
			Mestres: 4, Conselho: 3, CorpoInstrutivo: 10,
			QuadroDeSocios: 20, Visitantes: 2, Jovens: 1,
		},
		Consumption: vegetal.Consumption{
			IsShared: true,
			Claims: []vegetal.Claim{
				{BatchID: "v1", MadeAvailable: vegetal.ParseLiters("2.5")},
				{BatchID: "v2", MadeAvailable: vegetal.ParseLiters("1")},
			},
			TotalConsumed: vegetal.ParseLiters("3.2"),
		},
	}
	require.NoError(t, s.PutSession(ctx, in))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, in.Type, got.Type)
	assert.Equal(t, in.Date, got.Date)
	assert.Equal(t, in.Participants, got.Participants)
	assert.Equal(t, 40, got.Participants.Total())
	require.Len(t, got.Consumption.Claims, 2)
	assert.Equal(t, vegetal.BatchID("v1"), got.Consumption.Claims[0].BatchID)
	assert.True(t, got.Consumption.Claims[0].MadeAvailable.Equal(vegetal.ParseLiters("2.5")))
	assert.True(t, got.Consumption.TotalConsumed.Equal(vegetal.ParseLiters("3.2")))
	assert.True(t, got.Consumption.IsShared)

	require.NoError(t, s.DeleteSession(ctx, "s1"))
	_, err = s.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, vegetal.ErrSessionNotFound)
}

func TestSQLite_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: a store holding one batch
	// WHEN: a transaction mutates stock, ledger and sessions then fails
	// THEN: the database is untouched

	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutBatch(ctx, batch("v1", "A", "10")))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx vegetal.Store) error {
		if err := tx.AdjustBatchQuantity(ctx, "v1", vegetal.ParseLiters("-4")); err != nil {
			return err
		}
		if err := tx.AppendMovement(ctx, vegetal.MovementRecord{
			ID: "m1", BatchID: "v1", BatchName: "A",
			Kind: vegetal.KindExit, Quantity: vegetal.ParseLiters("4"),
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := tx.PutSession(ctx, vegetal.Session{ID: "s1", Date: vegetal.NewDate(2024, 10, 20), Type: vegetal.Extra}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetBatch(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(vegetal.ParseLiters("10")))

	recs, _ := s.Movements(ctx, vegetal.MovementFilter{})
	assert.Empty(t, recs)

	_, err = s.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, vegetal.ErrSessionNotFound)
}

func TestSQLite_WithTx_TxViewSeesOwnWrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx vegetal.Store) error {
		if err := tx.PutBatch(ctx, batch("v1", "A", "10")); err != nil {
			return err
		}
		got, err := tx.GetBatch(ctx, "v1")
		if err != nil {
			return err
		}
		assert.True(t, got.Quantity.Equal(vegetal.ParseLiters("10")))
		return nil
	})
	require.NoError(t, err)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBatch(ctx, batch("v1", "A", "7.75")))
	require.NoError(t, s.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetBatch(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(vegetal.ParseLiters("7.75")))
}
