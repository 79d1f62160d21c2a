/*
Package exchange imports and exports the session history as CSV.

PURPOSE:
  The CSV file is the collaboration format between nucleos: a fixed
  22-column layout, booleans as Sim/Não, dates as dd/mm/yyyy, and the
  per-session vegetal names and quantities semicolon-joined into single
  cells. Export resolves batch ids to names through the historical index
  so consumed and deactivated batches still print readably.

IMPORT IS AN ARCHIVAL MERGE:
  Importing never replays stock. Sessions merge by id (existing ids are
  skipped), claims resolve names back to ids through the historical index,
  and unknown names become zero-quantity historical placeholders. Live
  inventory and the ledger are untouched; the importer fills the archive,
  the engine owns stock.

SEE ALSO:
  - vegetal/store.go: Historical index used for name resolution
  - engine/engine.go: The stock-mutating path imports deliberately avoid
*/
package exchange

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/vegetal-engine/vegetal"
)

// Header is the fixed column layout. Files are rejected when the first
// row does not match it exactly.
var Header = []string{
	"ID", "Data", "Tipo", "Dirigente", "Explanador", "Leitor", "Mestre Assistente",
	"Chamadas", "Historias", "Registro Foto", "Registro Audio",
	"Part. Mestres", "Part. Conselho", "Part. Corpo Instrutivo", "Part. Quadro Socios",
	"Part. Visitantes", "Part. Jovens", "Part. Total",
	"Vegetal Unido", "Vegetais Utilizados", "Qtds. Disponibilizadas (L)", "Total Consumido (L)",
}

const (
	boolTrue  = "Sim"
	boolFalse = "Não"

	// cellSeparator joins the per-claim names and quantities inside one cell.
	cellSeparator = "; "
)

// =============================================================================
// EXPORT
// =============================================================================

// Export writes the sessions to w in the fixed column layout. Batch names
// come from the historical index; a claim whose batch no longer exists
// prints its id.
func Export(ctx context.Context, w io.Writer, store vegetal.Store, sessions []vegetal.Session) error {
	names, err := batchNames(ctx, store)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range sessions {
		if err := cw.Write(sessionRow(s, names)); err != nil {
			return fmt.Errorf("failed to write session %s: %w", s.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func batchNames(ctx context.Context, store vegetal.Store) (map[vegetal.BatchID]string, error) {
	batches, err := store.ListHistoricalBatches(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[vegetal.BatchID]string, len(batches))
	for _, b := range batches {
		names[b.ID] = b.Name
	}
	return names, nil
}

func sessionRow(s vegetal.Session, names map[vegetal.BatchID]string) []string {
	claimNames := make([]string, 0, len(s.Consumption.Claims))
	claimQuantities := make([]string, 0, len(s.Consumption.Claims))
	for _, c := range s.Consumption.Claims {
		name, ok := names[c.BatchID]
		if !ok {
			name = string(c.BatchID)
		}
		claimNames = append(claimNames, name)
		claimQuantities = append(claimQuantities, c.MadeAvailable.String())
	}

	p := s.Participants
	return []string{
		string(s.ID),
		vegetal.FormatDateBR(s.Date),
		string(s.Type),
		s.Dirigente,
		s.Explanador,
		s.Leitor,
		s.AssistantMaster,
		s.Chamadas,
		s.Stories,
		formatBool(s.HasPhoto),
		formatBool(s.HasAudio),
		strconv.Itoa(p.Mestres),
		strconv.Itoa(p.Conselho),
		strconv.Itoa(p.CorpoInstrutivo),
		strconv.Itoa(p.QuadroDeSocios),
		strconv.Itoa(p.Visitantes),
		strconv.Itoa(p.Jovens),
		strconv.Itoa(p.Total()),
		formatBool(s.Consumption.IsShared),
		strings.Join(claimNames, cellSeparator),
		strings.Join(claimQuantities, cellSeparator),
		s.Consumption.TotalConsumed.String(),
	}
}

func formatBool(b bool) string {
	if b {
		return boolTrue
	}
	return boolFalse
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportSummary reports what an import did.
type ImportSummary struct {
	Imported     int
	Skipped      int // sessions whose id already existed
	Placeholders int // zero-quantity batches created for unknown names
}

// Import merges the CSV file at r into the session archive, atomically.
// Existing session ids are skipped, batch names resolve through the
// historical index and unknown names become zero-quantity placeholders.
// Stock quantities and the ledger are never touched.
func Import(ctx context.Context, r io.Reader, store vegetal.TxStore) (ImportSummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		return ImportSummary{}, fmt.Errorf("failed to read header: %w", err)
	}
	for i, col := range Header {
		if header[i] != col {
			return ImportSummary{}, fmt.Errorf("unexpected column %d: got %q, want %q", i+1, header[i], col)
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return ImportSummary{}, fmt.Errorf("malformed csv: %w", err)
	}

	var summary ImportSummary
	err = store.WithTx(ctx, func(s vegetal.Store) error {
		byName, err := batchesByName(ctx, s)
		if err != nil {
			return err
		}

		existing := make(map[vegetal.SessionID]bool)
		sessions, err := s.ListSessions(ctx)
		if err != nil {
			return err
		}
		for _, sess := range sessions {
			existing[sess.ID] = true
		}

		for i, row := range rows {
			sess, placeholders, err := parseRow(ctx, s, row, byName)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}
			summary.Placeholders += placeholders

			if existing[sess.ID] {
				summary.Skipped++
				continue
			}
			if err := s.PutSession(ctx, sess); err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}
			existing[sess.ID] = true
			summary.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}
	return summary, nil
}

func batchesByName(ctx context.Context, s vegetal.Store) (map[string]vegetal.BatchID, error) {
	batches, err := s.ListHistoricalBatches(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]vegetal.BatchID, len(batches))
	for _, b := range batches {
		byName[b.Name] = b.ID
	}
	return byName, nil
}

// parseRow builds one session from a data row, creating historical
// placeholders for claim names the index does not know. Returns the number
// of placeholders created.
func parseRow(ctx context.Context, s vegetal.Store, row []string, byName map[string]vegetal.BatchID) (vegetal.Session, int, error) {
	date, err := vegetal.ParseDateBR(row[1])
	if err != nil {
		return vegetal.Session{}, 0, fmt.Errorf("bad date %q: %w", row[1], err)
	}

	id := vegetal.SessionID(strings.TrimSpace(row[0]))
	if id == "" {
		id = vegetal.SessionID(uuid.NewString())
	}

	sess := vegetal.Session{
		ID:              id,
		Date:            date,
		Type:            vegetal.SessionType(row[2]),
		Dirigente:       row[3],
		Explanador:      row[4],
		Leitor:          row[5],
		AssistantMaster: row[6],
		Chamadas:        row[7],
		Stories:         row[8],
		HasPhoto:        row[9] == boolTrue,
		HasAudio:        row[10] == boolTrue,
		Participants: vegetal.ParticipantCount{
			Mestres:         parseCount(row[11]),
			Conselho:        parseCount(row[12]),
			CorpoInstrutivo: parseCount(row[13]),
			QuadroDeSocios:  parseCount(row[14]),
			Visitantes:      parseCount(row[15]),
			Jovens:          parseCount(row[16]),
		},
		// row[17] is the derived Part. Total; recomputed, never stored.
		Consumption: vegetal.Consumption{
			IsShared:      row[18] == boolTrue,
			TotalConsumed: vegetal.ParseLiters(row[21]),
		},
	}

	names := splitCell(row[19])
	quantities := splitCell(row[20])
	if len(names) != len(quantities) {
		return vegetal.Session{}, 0, fmt.Errorf("claim mismatch: %d names, %d quantities", len(names), len(quantities))
	}

	placeholders := 0
	for i, name := range names {
		batchID, ok := byName[name]
		if !ok {
			batchID = vegetal.BatchID(uuid.NewString())
			if err := s.PutHistoricalBatch(ctx, vegetal.Batch{
				ID:       batchID,
				Name:     name,
				Quantity: vegetal.Liters(0),
			}); err != nil {
				return vegetal.Session{}, 0, err
			}
			byName[name] = batchID
			placeholders++
		}
		sess.Consumption.Claims = append(sess.Consumption.Claims, vegetal.Claim{
			BatchID:       batchID,
			MadeAvailable: vegetal.ParseLiters(quantities[i]),
		})
	}

	return sess, placeholders, nil
}

func parseCount(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func splitCell(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
