package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vegetal-engine/engine"
	"github.com/warp/vegetal-engine/vegetal"
)

func TestSocios_CollectsRolesAndProvenance(t *testing.T) {
	// GIVEN: a session with role names and a batch with provenance names
	// WHEN: listing socios
	// THEN: the distinct union comes back sorted, blanks skipped

	e, _ := newTestEngine(t)
	ctx := context.Background()

	b, err := e.RecordEntry(ctx, vegetal.Batch{
		Name:     "Preparo",
		Quantity: vegetal.Liters(10),
		Provenance: vegetal.Provenance{
			Master:    "Mestre Rafael",
			Auxiliary: "Auxiliar Lucas",
		},
	})
	require.NoError(t, err)

	draft := draftSession(vegetal.NewDate(2024, 10, 20),
		[]vegetal.Claim{{BatchID: b.ID, MadeAvailable: vegetal.Liters(1)}}, 1)
	draft.Dirigente = "Mestre Gabriel"
	draft.Explanador = "Mestre Miguel"
	draft.Leitor = ""
	draft.AssistantMaster = "Mestre José"
	_, err = e.SaveSession(ctx, draft)
	require.NoError(t, err)

	socios, err := e.Socios(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Auxiliar Lucas", "Mestre Gabriel", "Mestre José", "Mestre Miguel", "Mestre Rafael",
	}, socios)
}

func TestRenameSocios_RewritesSessionsAndBatches(t *testing.T) {
	// GIVEN: the same name appearing as a session role and as batch provenance
	// WHEN: the socio is renamed
	// THEN: every occurrence changes; stock quantities and the ledger do not

	e, mem := newTestEngine(t)
	ctx := context.Background()

	b, err := e.RecordEntry(ctx, vegetal.Batch{
		Name:       "Preparo",
		Quantity:   vegetal.Liters(10),
		Provenance: vegetal.Provenance{Master: "Mestre Gabriel"},
	})
	require.NoError(t, err)

	draft := draftSession(vegetal.NewDate(2024, 10, 20),
		[]vegetal.Claim{{BatchID: b.ID, MadeAvailable: vegetal.Liters(1)}}, 1)
	draft.Dirigente = "Mestre Gabriel"
	sess, err := e.SaveSession(ctx, draft)
	require.NoError(t, err)

	movementsBefore, err := mem.Movements(ctx, vegetal.FilterByBatch(b.ID))
	require.NoError(t, err)

	err = e.RenameSocios(ctx, []engine.NameUpdate{
		{Old: "Mestre Gabriel", New: "Mestre Gabriel Filho"},
	})
	require.NoError(t, err)

	got, err := mem.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mestre Gabriel Filho", got.Dirigente)

	batch, err := mem.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mestre Gabriel Filho", batch.Provenance.Master)
	assert.True(t, batch.Quantity.Equal(vegetal.Liters(9)), "quantity untouched")

	movementsAfter, err := mem.Movements(ctx, vegetal.FilterByBatch(b.ID))
	require.NoError(t, err)
	assert.Equal(t, movementsBefore, movementsAfter, "socio rename never touches the ledger")
}

func TestRenameSocios_NoMatches_NoOp(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.RenameSocios(context.Background(), []engine.NameUpdate{
		{Old: "Ninguém", New: "Alguém"},
	})
	assert.NoError(t, err)
}
