/*
Package factory loads the demo dataset.

PURPOSE:
  A declarative bootstrap: ten batches with full provenance and five
  sessions across October/November 2024. The data is replayed THROUGH the
  engine rather than written to the store, so stock, ledger and sessions
  start mutually consistent: every batch has its Entry record, every
  session its consumption records, and leftovers their balance batches.

SEE ALSO:
  - engine/engine.go: The replay target
  - api/handlers.go: POST /api/admin/seed
*/
package factory

import (
	"context"
	"fmt"

	"github.com/warp/vegetal-engine/engine"
	"github.com/warp/vegetal-engine/vegetal"
)

// seedBatch is one declarative stock entry. The key names the batch for
// session claims below; real ids are assigned by the engine.
type seedBatch struct {
	key string
	b   vegetal.Batch
}

type seedClaim struct {
	key           string
	madeAvailable string
}

type seedSession struct {
	s             vegetal.Session
	claims        []seedClaim
	totalConsumed string
}

// Seed loads the demo dataset. It is a no-op when live inventory already
// holds batches, so repeated calls do not duplicate stock.
func Seed(ctx context.Context, e *engine.Engine) error {
	existing, err := e.Store().ListBatches(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	ids := make(map[string]vegetal.BatchID, len(stockData))
	for _, sb := range stockData {
		b, err := e.RecordEntry(ctx, sb.b)
		if err != nil {
			return fmt.Errorf("seeding batch %s: %w", sb.b.Name, err)
		}
		ids[sb.key] = b.ID
	}

	for i, ss := range sessionData {
		draft := ss.s
		draft.Consumption.TotalConsumed = vegetal.ParseLiters(ss.totalConsumed)
		for _, c := range ss.claims {
			draft.Consumption.Claims = append(draft.Consumption.Claims, vegetal.Claim{
				BatchID:       ids[c.key],
				MadeAvailable: vegetal.ParseLiters(c.madeAvailable),
			})
		}
		if _, err := e.SaveSession(ctx, draft); err != nil {
			return fmt.Errorf("seeding session %d: %w", i+1, err)
		}
	}
	return nil
}

var stockData = []seedBatch{
	{"v1", vegetal.Batch{Name: "Preparo 2023-01-10", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2023-01-10", Master: "Mestre Gabriel", Auxiliary: "Auxiliar João", Messenger: "Mensageiro Paulo", ChacronaResp: "Responsável Maria", BatidaoResp: "Responsável Pedro", MaririSpecies: "Caupuri", ChacronaSpecies: "Folha Larga"}}},
	{"v2", vegetal.Batch{Name: "Preparo 2023-02-20", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2023-02-20", Master: "Mestre Miguel", Auxiliary: "Auxiliar Tiago", Messenger: "Mensageiro André", ChacronaResp: "Responsável Ana", BatidaoResp: "Responsável Carlos", MaririSpecies: "Tucunacá", ChacronaSpecies: "Folha Fina"}}},
	{"v3", vegetal.Batch{Name: "Preparo 2023-03-05", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2023-03-05", Master: "Mestre Rafael", Auxiliary: "Auxiliar Lucas", Messenger: "Mensageiro Carlos", ChacronaResp: "Responsável Joana", BatidaoResp: "Responsável Marcos", MaririSpecies: "Boliviano", ChacronaSpecies: "Cabocla"}}},
	{"v4", vegetal.Batch{Name: "Preparo 2023-04-15", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2023-04-15", Master: "Mestre José", Auxiliary: "Auxiliar Felipe", Messenger: "Mensageiro Paulo", ChacronaResp: "Responsável Maria", BatidaoResp: "Responsável Pedro", MaririSpecies: "Caupuri", ChacronaSpecies: "Folha Fina"}}},
	{"v5", vegetal.Batch{Name: "Preparo 2023-05-25", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2023-05-25", Master: "Mestre Joaquim", Auxiliary: "Auxiliar Marcos", Messenger: "Mensageiro André", ChacronaResp: "Responsável Ana", BatidaoResp: "Responsável Carlos", MaririSpecies: "Tucunacá", ChacronaSpecies: "Folha Larga"}}},
	{"v6", vegetal.Batch{Name: "Preparo 2024-06-12", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2024-06-12", Master: "Mestre Gabriel", Auxiliary: "Auxiliar João", Messenger: "Mensageiro Carlos", ChacronaResp: "Responsável Joana", BatidaoResp: "Responsável Marcos", MaririSpecies: "Boliviano", ChacronaSpecies: "Cabocla"}}},
	{"v7", vegetal.Batch{Name: "Preparo 2024-07-01", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2024-07-01", Master: "Mestre Miguel", Auxiliary: "Auxiliar Tiago", Messenger: "Mensageiro Paulo", ChacronaResp: "Responsável Maria", BatidaoResp: "Responsável Pedro", MaririSpecies: "Caupuri", ChacronaSpecies: "Folha Fina"}}},
	{"v8", vegetal.Batch{Name: "Preparo 2024-08-18", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2024-08-18", Master: "Mestre Rafael", Auxiliary: "Auxiliar Lucas", Messenger: "Mensageiro André", ChacronaResp: "Responsável Ana", BatidaoResp: "Responsável Carlos", MaririSpecies: "Tucunacá", ChacronaSpecies: "Folha Larga"}}},
	{"v9", vegetal.Batch{Name: "Preparo 2024-09-30", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2024-09-30", Master: "Mestre José", Auxiliary: "Auxiliar Felipe", Messenger: "Mensageiro Carlos", ChacronaResp: "Responsável Joana", BatidaoResp: "Responsável Marcos", MaririSpecies: "Boliviano", ChacronaSpecies: "Cabocla"}}},
	{"v10", vegetal.Batch{Name: "Preparo 2024-10-15", Quantity: vegetal.Liters(10), Provenance: vegetal.Provenance{EnvaseDate: "2024-10-15", Master: "Mestre Joaquim", Auxiliary: "Auxiliar Marcos", Messenger: "Mensageiro Paulo", ChacronaResp: "Responsável Maria", BatidaoResp: "Responsável Pedro", MaririSpecies: "Caupuri", ChacronaSpecies: "Folha Fina"}}},
}

var sessionData = []seedSession{
	{
		s: vegetal.Session{
			Date: vegetal.NewDate(2024, 10, 20), Type: vegetal.PrimeiraEscala,
			Dirigente: "Mestre Gabriel", Explanador: "Mestre Miguel",
			Leitor: "Mestre Rafael", AssistantMaster: "Mestre José",
			Chamadas: "Chamada 1, Chamada 2", Stories: "História A",
			HasPhoto: true, HasAudio: false,
			Participants: vegetal.ParticipantCount{Mestres: 5, Conselho: 3, CorpoInstrutivo: 10, QuadroDeSocios: 20, Visitantes: 2, Jovens: 4},
		},
		claims:        []seedClaim{{"v1", "2"}},
		totalConsumed: "1.8",
	},
	{
		s: vegetal.Session{
			Date: vegetal.NewDate(2024, 10, 27), Type: vegetal.SegundaEscala,
			Dirigente: "Mestre Joaquim", Explanador: "Mestre Gabriel",
			Leitor: "Mestre Miguel", AssistantMaster: "Mestre Rafael",
			Chamadas: "Chamada 3",
			HasPhoto: false, HasAudio: true,
			Participants: vegetal.ParticipantCount{Mestres: 6, Conselho: 4, CorpoInstrutivo: 12, QuadroDeSocios: 25, Visitantes: 5, Jovens: 3},
			Consumption:  vegetal.Consumption{IsShared: true},
		},
		claims:        []seedClaim{{"v2", "1.5"}, {"v3", "1.5"}},
		totalConsumed: "2.5",
	},
	{
		s: vegetal.Session{
			Date: vegetal.NewDate(2024, 11, 3), Type: vegetal.PrimeiraEscala,
			Dirigente: "Mestre José", Explanador: "Mestre Joaquim",
			Leitor: "Mestre Gabriel", AssistantMaster: "Mestre Miguel",
			Chamadas: "Chamada 4, Chamada 5, Chamada 6", Stories: "História B",
			HasPhoto: true, HasAudio: true,
			Participants: vegetal.ParticipantCount{Mestres: 4, Conselho: 2, CorpoInstrutivo: 8, QuadroDeSocios: 18, Visitantes: 1, Jovens: 2},
		},
		claims:        []seedClaim{{"v4", "1.8"}},
		totalConsumed: "1.7",
	},
	{
		s: vegetal.Session{
			Date: vegetal.NewDate(2024, 11, 10), Type: vegetal.Instrutiva,
			Dirigente: "Mestre Rafael", Explanador: "Mestre José",
			Leitor: "Mestre Joaquim", AssistantMaster: "Mestre Gabriel",
			Chamadas: "Chamada 7", Stories: "História C",
			HasPhoto: false, HasAudio: false,
			Participants: vegetal.ParticipantCount{Mestres: 7, Conselho: 5, CorpoInstrutivo: 15, QuadroDeSocios: 30, Visitantes: 8, Jovens: 6},
			Consumption:  vegetal.Consumption{IsShared: true},
		},
		claims:        []seedClaim{{"v5", "2"}, {"v6", "2"}},
		totalConsumed: "3.5",
	},
	{
		s: vegetal.Session{
			Date: vegetal.NewDate(2024, 11, 17), Type: vegetal.PrimeiraEscala,
			Dirigente: "Mestre Miguel", Explanador: "Mestre Rafael",
			Leitor: "Mestre José", AssistantMaster: "Mestre Joaquim",
			Chamadas: "Chamada 8, Chamada 9",
			HasPhoto: false, HasAudio: true,
			Participants: vegetal.ParticipantCount{Mestres: 5, Conselho: 3, CorpoInstrutivo: 11, QuadroDeSocios: 22, Visitantes: 3, Jovens: 5},
		},
		claims:        []seedClaim{{"v7", "2.2"}},
		totalConsumed: "2",
	},
}
