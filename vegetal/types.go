/*
Package vegetal provides the core domain model for the session and stock engine.

PURPOSE:
  This package contains the types shared by every other package: stock
  batches and their provenance, sessions and their consumption claims, and
  the movement ledger entries that explain how stock got to its current
  state.

KEY CONCEPTS IN THIS FILE (types.go):
  - Batch: A quantity of liquid in stock, with provenance metadata
  - Claim: A session's request to draw an amount out of one batch
  - Consumption: A session's aggregate claim plus the declared total consumed
  - Session: A ceremony record owning exactly one Consumption
  - MovementRecord: A ledger entry recording one quantity-affecting event

DESIGN PRINCIPLES:
  1. Precision: quantities are decimal.Decimal, never float64
  2. Type Safety: BatchID/SessionID/MovementID are distinct string types
  3. Auditability: every quantity change has a MovementRecord

SEE ALSO:
  - errors.go: Error taxonomy for the reconciliation engine
  - store.go: Persistence contract for all four stores
  - engine/: The reconciliation engine operating on these types
*/
package vegetal

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// QUANTITIES - Liters, always decimal
// =============================================================================

// BalanceThreshold is the floating-point noise guard: a session leftover is
// only materialized as a balance batch when it exceeds this amount. The same
// tolerance bounds how far a stock quantity may dip below zero (it may not).
var BalanceThreshold = decimal.RequireFromString("0.0001")

// Liters builds a quantity from a float literal. Test and seed helper;
// runtime paths should parse strings.
func Liters(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// ParseLiters parses a decimal quantity, returning zero on malformed input.
func ParseLiters(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BatchID string
type SessionID string
type MovementID string

// =============================================================================
// BATCH - A quantity of liquid with provenance metadata
// =============================================================================

// Provenance carries the preparation metadata of a batch. The reconciliation
// engine treats these fields as opaque; they exist for record keeping and
// for the socios roster.
type Provenance struct {
	EnvaseDate      string // preparation/bottling date, ISO yyyy-mm-dd
	Master          string
	Auxiliary       string
	Messenger       string
	ChacronaResp    string
	BatidaoResp     string
	MaririSpecies   string
	ChacronaSpecies string
}

// Batch is a stock batch. Quantity is the current available amount in
// liters and is never negative. Balance batches derived from a session
// leftover carry IsBalance so they can be removed with their session.
type Batch struct {
	ID         BatchID
	Name       string
	Quantity   decimal.Decimal
	Provenance Provenance
	IsBalance  bool
}

// =============================================================================
// SESSION - Ceremony record with its consumption claim
// =============================================================================

type SessionType string

const (
	PrimeiraEscala    SessionType = "Primeira Escala"
	SegundaEscala     SessionType = "Segunda Escala"
	EscalaAnual       SessionType = "Escala Anual"
	QuadroDeMestre    SessionType = "Quadro de Mestre"
	Instrutiva        SessionType = "Instrutiva"
	CaraterInstrutivo SessionType = "Caráter Instrutivo"
	Direcao           SessionType = "Direção"
	Extra             SessionType = "Extra"
	Adventicio        SessionType = "Adventício"
)

// SessionTypes lists every ceremony type, in display order.
var SessionTypes = []SessionType{
	PrimeiraEscala, SegundaEscala, EscalaAnual, QuadroDeMestre,
	Instrutiva, CaraterInstrutivo, Direcao, Extra, Adventicio,
}

// Claim is a session's request against one batch: draw MadeAvailable liters
// out of the batch. A session may hold several claims against the same
// batch; they stack in draft order.
type Claim struct {
	BatchID       BatchID
	MadeAvailable decimal.Decimal
}

// Consumption is a session's aggregate claim. TotalConsumed is the
// user-declared actually-consumed amount; when it is less than the sum of
// the claims, the difference becomes a leftover balance batch.
type Consumption struct {
	IsShared      bool
	Claims        []Claim
	TotalConsumed decimal.Decimal
}

// MadeAvailable sums the claims.
func (c Consumption) MadeAvailable() decimal.Decimal {
	total := decimal.Zero
	for _, cl := range c.Claims {
		total = total.Add(cl.MadeAvailable)
	}
	return total
}

// ParticipantCount tallies attendance by grade.
type ParticipantCount struct {
	Mestres         int
	Conselho        int
	CorpoInstrutivo int
	QuadroDeSocios  int
	Visitantes      int
	Jovens          int
}

func (p ParticipantCount) Total() int {
	return p.Mestres + p.Conselho + p.CorpoInstrutivo + p.QuadroDeSocios + p.Visitantes + p.Jovens
}

// Session is one ceremony record. Role fields hold socio names; Chamadas and
// Stories are free-form narrative fields.
type Session struct {
	ID              SessionID
	Date            time.Time // normalized to UTC midnight
	Type            SessionType
	Dirigente       string
	Explanador      string
	Leitor          string
	AssistantMaster string
	Chamadas        string
	Stories         string
	HasPhoto        bool
	HasAudio        bool
	Participants    ParticipantCount
	Consumption     Consumption
}

// NewDate builds a session date at UTC midnight.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FormatDateBR renders dd/mm/yyyy, the display format used in balance batch
// names and CSV rows.
func FormatDateBR(t time.Time) string { return t.Format("02/01/2006") }

// ParseDateBR parses dd/mm/yyyy.
func ParseDateBR(s string) (time.Time, error) { return time.Parse("02/01/2006", s) }

// =============================================================================
// MOVEMENT RECORD - Ledger entry
// =============================================================================

type MovementKind string

const (
	// KindEntry records inbound stock: a new batch or a wholesale re-entry.
	KindEntry MovementKind = "Entrada"
	// KindExit records a direct outbound movement. Quantity is a positive
	// magnitude; the kind implies the sign.
	KindExit MovementKind = "Saída"
	// KindAdjustment sets a batch to an explicit value. Unlike every other
	// kind, Quantity is the signed delta (new minus old).
	KindAdjustment MovementKind = "Ajuste"
	// KindSessionConsumption records stock drawn by a session claim.
	KindSessionConsumption MovementKind = "Consumo em Sessão"
	// KindSessionBalance records the leftover returned as a balance batch.
	KindSessionBalance MovementKind = "Saldo de Sessão"
)

// MovementRecord is one ledger entry. BatchName is a denormalized snapshot
// so the ledger stays readable after a batch leaves active inventory; batch
// renames rewrite it retroactively.
type MovementRecord struct {
	ID         MovementID
	BatchID    BatchID
	BatchName  string
	SessionID  SessionID // empty for direct stock operations
	Kind       MovementKind
	Quantity   decimal.Decimal // positive magnitude, except Adjustment: signed delta
	OccurredAt time.Time
}

// SignedDelta is the record's effect on its batch quantity: positive for
// Entry and SessionBalance, negative for Exit and SessionConsumption, and
// the stored delta as-is for Adjustment.
func (m MovementRecord) SignedDelta() decimal.Decimal {
	switch m.Kind {
	case KindExit, KindSessionConsumption:
		return m.Quantity.Neg()
	default:
		return m.Quantity
	}
}
