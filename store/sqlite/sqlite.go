/*
Package sqlite provides the SQLite-backed implementation of vegetal.TxStore.

PURPOSE:
  Persists the four logical stores (live inventory, historical index,
  movement ledger, sessions) in one SQLite file. The in-memory store in
  vegetal/store mirrors the same semantics for tests.

KEY TABLES:
  batches:   One row per batch ever created. The active flag separates
             live inventory (active=1) from the rest of the historical
             index; balance batches removed with their session are
             hard-deleted.
  movements: The ledger. Insert order is read order (rowid).
  sessions:  One row per ceremony; consumption claims as JSON.

QUANTITIES:
  Stored as decimal strings (TEXT), never REAL. Arithmetic happens in Go
  via shopspring/decimal; SQL only reads and writes the strings.

CONCURRENCY:
  sync.RWMutex on top of WAL mode. A single process owns the file; the
  mutex serializes writers and keeps WithTx callers from interleaving.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - vegetal/store.go: Interface definition
  - vegetal/store/memory.go: In-memory implementation for testing
  - engine/engine.go: The only writer
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/vegetal-engine/vegetal"
)

// Store implements vegetal.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// dbtx is the subset of *sql.DB and *sql.Tx the queries need, so every
// operation can run either directly or inside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ vegetal.TxStore = (*Store)(nil)

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Batches: historical index; active=1 marks live inventory
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		quantity TEXT NOT NULL,
		envase_date TEXT NOT NULL DEFAULT '',
		master TEXT NOT NULL DEFAULT '',
		auxiliary TEXT NOT NULL DEFAULT '',
		messenger TEXT NOT NULL DEFAULT '',
		chacrona_resp TEXT NOT NULL DEFAULT '',
		batidao_resp TEXT NOT NULL DEFAULT '',
		mariri_species TEXT NOT NULL DEFAULT '',
		chacrona_species TEXT NOT NULL DEFAULT '',
		is_balance INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_batches_active ON batches(active);

	-- Movement ledger; rowid preserves insert order
	CREATE TABLE IF NOT EXISTS movements (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		batch_name TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		quantity TEXT NOT NULL,
		occurred_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_batch ON movements(batch_id);
	CREATE INDEX IF NOT EXISTS idx_movements_session ON movements(session_id)
		WHERE session_id != '';

	-- Sessions; claims stored as JSON
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		type TEXT NOT NULL,
		dirigente TEXT NOT NULL DEFAULT '',
		explanador TEXT NOT NULL DEFAULT '',
		leitor TEXT NOT NULL DEFAULT '',
		assistant_master TEXT NOT NULL DEFAULT '',
		chamadas TEXT NOT NULL DEFAULT '',
		stories TEXT NOT NULL DEFAULT '',
		has_photo INTEGER NOT NULL DEFAULT 0,
		has_audio INTEGER NOT NULL DEFAULT 0,
		mestres INTEGER NOT NULL DEFAULT 0,
		conselho INTEGER NOT NULL DEFAULT 0,
		corpo_instrutivo INTEGER NOT NULL DEFAULT 0,
		quadro_de_socios INTEGER NOT NULL DEFAULT 0,
		visitantes INTEGER NOT NULL DEFAULT 0,
		jovens INTEGER NOT NULL DEFAULT 0,
		is_shared INTEGER NOT NULL DEFAULT 0,
		claims_json TEXT NOT NULL DEFAULT '[]',
		total_consumed TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LIVE INVENTORY
// =============================================================================

const batchColumns = `id, name, quantity, envase_date, master, auxiliary, messenger,
	chacrona_resp, batidao_resp, mariri_species, chacrona_species, is_balance`

func (s *Store) GetBatch(ctx context.Context, id vegetal.BatchID) (vegetal.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBatch(ctx, s.db, id, true)
}

func getBatch(ctx context.Context, db dbtx, id vegetal.BatchID, liveOnly bool) (vegetal.Batch, error) {
	query := "SELECT " + batchColumns + " FROM batches WHERE id = ?"
	if liveOnly {
		query += " AND active = 1"
	}
	b, err := scanBatch(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return vegetal.Batch{}, &vegetal.BatchNotFoundError{BatchID: id}
	}
	return b, err
}

func (s *Store) ListBatches(ctx context.Context) ([]vegetal.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listBatches(ctx, s.db,
		"SELECT "+batchColumns+" FROM batches WHERE active = 1 ORDER BY rowid")
}

func (s *Store) PutBatch(ctx context.Context, b vegetal.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putBatch(ctx, s.db, b, true)
}

// putBatch upserts. Putting a live batch activates the row; putting a
// historical batch leaves an existing row's active flag alone.
func putBatch(ctx context.Context, db dbtx, b vegetal.Batch, active bool) error {
	activeExpr := "batches.active"
	if active {
		activeExpr = "1"
	}
	query := `
		INSERT INTO batches
		(id, name, quantity, envase_date, master, auxiliary, messenger,
		 chacrona_resp, batidao_resp, mariri_species, chacrona_species, is_balance, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			quantity = excluded.quantity,
			envase_date = excluded.envase_date,
			master = excluded.master,
			auxiliary = excluded.auxiliary,
			messenger = excluded.messenger,
			chacrona_resp = excluded.chacrona_resp,
			batidao_resp = excluded.batidao_resp,
			mariri_species = excluded.mariri_species,
			chacrona_species = excluded.chacrona_species,
			is_balance = excluded.is_balance,
			active = ` + activeExpr + `
	`
	p := b.Provenance
	_, err := db.ExecContext(ctx, query,
		b.ID, b.Name, b.Quantity.String(),
		p.EnvaseDate, p.Master, p.Auxiliary, p.Messenger,
		p.ChacronaResp, p.BatidaoResp, p.MaririSpecies, p.ChacronaSpecies,
		b.IsBalance, boolToInt(active),
	)
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

func (s *Store) AdjustBatchQuantity(ctx context.Context, id vegetal.BatchID, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return adjustBatchQuantity(ctx, s.db, id, delta)
}

// adjustBatchQuantity reads, adds in Go and writes back; decimal math
// never happens in SQL.
func adjustBatchQuantity(ctx context.Context, db dbtx, id vegetal.BatchID, delta decimal.Decimal) error {
	var current string
	err := db.QueryRowContext(ctx,
		"SELECT quantity FROM batches WHERE id = ? AND active = 1", id,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return &vegetal.BatchNotFoundError{BatchID: id}
	}
	if err != nil {
		return err
	}

	next, err := decimal.NewFromString(current)
	if err != nil {
		return fmt.Errorf("corrupt quantity for batch %s: %w", id, err)
	}
	next = next.Add(delta)

	_, err = db.ExecContext(ctx,
		"UPDATE batches SET quantity = ? WHERE id = ?", next.String(), id)
	return err
}

func (s *Store) DeactivateBatch(ctx context.Context, id vegetal.BatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deactivateBatch(ctx, s.db, id)
}

func deactivateBatch(ctx context.Context, db dbtx, id vegetal.BatchID) error {
	res, err := db.ExecContext(ctx, "UPDATE batches SET active = 0 WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &vegetal.BatchNotFoundError{BatchID: id}
	}
	return nil
}

// =============================================================================
// HISTORICAL INDEX
// =============================================================================

func (s *Store) GetHistoricalBatch(ctx context.Context, id vegetal.BatchID) (vegetal.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBatch(ctx, s.db, id, false)
}

func (s *Store) ListHistoricalBatches(ctx context.Context) ([]vegetal.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listBatches(ctx, s.db,
		"SELECT "+batchColumns+" FROM batches ORDER BY active DESC, rowid")
}

func (s *Store) PutHistoricalBatch(ctx context.Context, b vegetal.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putBatch(ctx, s.db, b, false)
}

func (s *Store) RemoveHistoricalBatch(ctx context.Context, id vegetal.BatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeHistoricalBatch(ctx, s.db, id)
}

func removeHistoricalBatch(ctx context.Context, db dbtx, id vegetal.BatchID) error {
	res, err := db.ExecContext(ctx, "DELETE FROM batches WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &vegetal.BatchNotFoundError{BatchID: id}
	}
	return nil
}

func listBatches(ctx context.Context, db dbtx, query string, args ...any) ([]vegetal.Batch, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []vegetal.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (vegetal.Batch, error) {
	var (
		b        vegetal.Batch
		quantity string
	)
	p := &b.Provenance
	err := row.Scan(
		&b.ID, &b.Name, &quantity,
		&p.EnvaseDate, &p.Master, &p.Auxiliary, &p.Messenger,
		&p.ChacronaResp, &p.BatidaoResp, &p.MaririSpecies, &p.ChacronaSpecies,
		&b.IsBalance,
	)
	if err != nil {
		return b, err
	}
	b.Quantity, err = decimal.NewFromString(quantity)
	if err != nil {
		return b, fmt.Errorf("corrupt quantity for batch %s: %w", b.ID, err)
	}
	return b, nil
}

// =============================================================================
// MOVEMENT LEDGER
// =============================================================================

func (s *Store) AppendMovement(ctx context.Context, rec vegetal.MovementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendMovement(ctx, s.db, rec)
}

func appendMovement(ctx context.Context, db dbtx, rec vegetal.MovementRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO movements (id, batch_id, batch_name, session_id, kind, quantity, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.BatchID, rec.BatchName, rec.SessionID,
		string(rec.Kind), rec.Quantity.String(),
		rec.OccurredAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append movement: %w", err)
	}
	return nil
}

func (s *Store) Movements(ctx context.Context, f vegetal.MovementFilter) ([]vegetal.MovementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryMovements(ctx, s.db, f)
}

func queryMovements(ctx context.Context, db dbtx, f vegetal.MovementFilter) ([]vegetal.MovementRecord, error) {
	query := `
		SELECT id, batch_id, batch_name, session_id, kind, quantity, occurred_at
		FROM movements WHERE 1 = 1`
	var args []any
	if f.BatchID != nil {
		query += " AND batch_id = ?"
		args = append(args, *f.BatchID)
	}
	if f.SessionID != nil {
		query += " AND session_id = ?"
		args = append(args, *f.SessionID)
	}
	if f.Kind != nil {
		query += " AND kind = ?"
		args = append(args, string(*f.Kind))
	}
	query += " ORDER BY rowid"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var recs []vegetal.MovementRecord
	for rows.Next() {
		var (
			rec        vegetal.MovementRecord
			kind       string
			quantity   string
			occurredAt string
		)
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.BatchName, &rec.SessionID,
			&kind, &quantity, &occurredAt); err != nil {
			return nil, err
		}
		rec.Kind = vegetal.MovementKind(kind)
		rec.Quantity, err = decimal.NewFromString(quantity)
		if err != nil {
			return nil, fmt.Errorf("corrupt quantity for movement %s: %w", rec.ID, err)
		}
		rec.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *Store) DeleteSessionMovements(ctx context.Context, id vegetal.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteSessionMovements(ctx, s.db, id)
}

func deleteSessionMovements(ctx context.Context, db dbtx, id vegetal.SessionID) error {
	_, err := db.ExecContext(ctx, "DELETE FROM movements WHERE session_id = ?", id)
	return err
}

func (s *Store) RenameBatchMovements(ctx context.Context, id vegetal.BatchID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return renameBatchMovements(ctx, s.db, id, name)
}

func renameBatchMovements(ctx context.Context, db dbtx, id vegetal.BatchID, name string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE movements SET batch_name = ? WHERE batch_id = ?", name, id)
	return err
}

// =============================================================================
// SESSIONS
// =============================================================================

// claimJSON is the stored shape of one consumption claim.
type claimJSON struct {
	BatchID       string `json:"batchId"`
	MadeAvailable string `json:"madeAvailable"`
}

const sessionColumns = `id, date, type, dirigente, explanador, leitor, assistant_master,
	chamadas, stories, has_photo, has_audio,
	mestres, conselho, corpo_instrutivo, quadro_de_socios, visitantes, jovens,
	is_shared, claims_json, total_consumed`

func (s *Store) GetSession(ctx context.Context, id vegetal.SessionID) (vegetal.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getSession(ctx, s.db, id)
}

func getSession(ctx context.Context, db dbtx, id vegetal.SessionID) (vegetal.Session, error) {
	sess, err := scanSession(db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return vegetal.Session{}, fmt.Errorf("%w: %s", vegetal.ErrSessionNotFound, id)
	}
	return sess, err
}

func (s *Store) ListSessions(ctx context.Context) ([]vegetal.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSessions(ctx, s.db)
}

func listSessions(ctx context.Context, db dbtx) ([]vegetal.Session, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []vegetal.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func scanSession(row scanner) (vegetal.Session, error) {
	var (
		sess          vegetal.Session
		date          string
		sessType      string
		claimsJSON    string
		totalConsumed string
	)
	pc := &sess.Participants
	err := row.Scan(
		&sess.ID, &date, &sessType,
		&sess.Dirigente, &sess.Explanador, &sess.Leitor, &sess.AssistantMaster,
		&sess.Chamadas, &sess.Stories, &sess.HasPhoto, &sess.HasAudio,
		&pc.Mestres, &pc.Conselho, &pc.CorpoInstrutivo, &pc.QuadroDeSocios, &pc.Visitantes, &pc.Jovens,
		&sess.Consumption.IsShared, &claimsJSON, &totalConsumed,
	)
	if err != nil {
		return sess, err
	}

	sess.Type = vegetal.SessionType(sessType)
	sess.Date, err = time.Parse("2006-01-02", date)
	if err != nil {
		return sess, fmt.Errorf("corrupt date for session %s: %w", sess.ID, err)
	}
	sess.Consumption.TotalConsumed, err = decimal.NewFromString(totalConsumed)
	if err != nil {
		return sess, fmt.Errorf("corrupt total for session %s: %w", sess.ID, err)
	}

	var stored []claimJSON
	if err := json.Unmarshal([]byte(claimsJSON), &stored); err != nil {
		return sess, fmt.Errorf("corrupt claims for session %s: %w", sess.ID, err)
	}
	for _, c := range stored {
		q, err := decimal.NewFromString(c.MadeAvailable)
		if err != nil {
			return sess, fmt.Errorf("corrupt claim quantity for session %s: %w", sess.ID, err)
		}
		sess.Consumption.Claims = append(sess.Consumption.Claims, vegetal.Claim{
			BatchID:       vegetal.BatchID(c.BatchID),
			MadeAvailable: q,
		})
	}
	return sess, nil
}

func (s *Store) PutSession(ctx context.Context, sess vegetal.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putSession(ctx, s.db, sess)
}

func putSession(ctx context.Context, db dbtx, sess vegetal.Session) error {
	stored := make([]claimJSON, 0, len(sess.Consumption.Claims))
	for _, c := range sess.Consumption.Claims {
		stored = append(stored, claimJSON{
			BatchID:       string(c.BatchID),
			MadeAvailable: c.MadeAvailable.String(),
		})
	}
	claims, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode claims: %w", err)
	}

	query := `
		INSERT INTO sessions
		(id, date, type, dirigente, explanador, leitor, assistant_master,
		 chamadas, stories, has_photo, has_audio,
		 mestres, conselho, corpo_instrutivo, quadro_de_socios, visitantes, jovens,
		 is_shared, claims_json, total_consumed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			type = excluded.type,
			dirigente = excluded.dirigente,
			explanador = excluded.explanador,
			leitor = excluded.leitor,
			assistant_master = excluded.assistant_master,
			chamadas = excluded.chamadas,
			stories = excluded.stories,
			has_photo = excluded.has_photo,
			has_audio = excluded.has_audio,
			mestres = excluded.mestres,
			conselho = excluded.conselho,
			corpo_instrutivo = excluded.corpo_instrutivo,
			quadro_de_socios = excluded.quadro_de_socios,
			visitantes = excluded.visitantes,
			jovens = excluded.jovens,
			is_shared = excluded.is_shared,
			claims_json = excluded.claims_json,
			total_consumed = excluded.total_consumed
	`
	pc := sess.Participants
	_, err = db.ExecContext(ctx, query,
		sess.ID, sess.Date.Format("2006-01-02"), string(sess.Type),
		sess.Dirigente, sess.Explanador, sess.Leitor, sess.AssistantMaster,
		sess.Chamadas, sess.Stories, sess.HasPhoto, sess.HasAudio,
		pc.Mestres, pc.Conselho, pc.CorpoInstrutivo, pc.QuadroDeSocios, pc.Visitantes, pc.Jovens,
		sess.Consumption.IsShared, string(claims), sess.Consumption.TotalConsumed.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id vegetal.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteSession(ctx, s.db, id)
}

func deleteSession(ctx context.Context, db dbtx, id vegetal.SessionID) error {
	res, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", vegetal.ErrSessionNotFound, id)
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn inside a database transaction. Rollback on error,
// commit otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(vegetal.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes every Store call through the shared *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetBatch(ctx context.Context, id vegetal.BatchID) (vegetal.Batch, error) {
	return getBatch(ctx, ts.tx, id, true)
}

func (ts *txStore) ListBatches(ctx context.Context) ([]vegetal.Batch, error) {
	return listBatches(ctx, ts.tx,
		"SELECT "+batchColumns+" FROM batches WHERE active = 1 ORDER BY rowid")
}

func (ts *txStore) PutBatch(ctx context.Context, b vegetal.Batch) error {
	return putBatch(ctx, ts.tx, b, true)
}

func (ts *txStore) AdjustBatchQuantity(ctx context.Context, id vegetal.BatchID, delta decimal.Decimal) error {
	return adjustBatchQuantity(ctx, ts.tx, id, delta)
}

func (ts *txStore) DeactivateBatch(ctx context.Context, id vegetal.BatchID) error {
	return deactivateBatch(ctx, ts.tx, id)
}

func (ts *txStore) GetHistoricalBatch(ctx context.Context, id vegetal.BatchID) (vegetal.Batch, error) {
	return getBatch(ctx, ts.tx, id, false)
}

func (ts *txStore) ListHistoricalBatches(ctx context.Context) ([]vegetal.Batch, error) {
	return listBatches(ctx, ts.tx,
		"SELECT "+batchColumns+" FROM batches ORDER BY active DESC, rowid")
}

func (ts *txStore) PutHistoricalBatch(ctx context.Context, b vegetal.Batch) error {
	return putBatch(ctx, ts.tx, b, false)
}

func (ts *txStore) RemoveHistoricalBatch(ctx context.Context, id vegetal.BatchID) error {
	return removeHistoricalBatch(ctx, ts.tx, id)
}

func (ts *txStore) AppendMovement(ctx context.Context, rec vegetal.MovementRecord) error {
	return appendMovement(ctx, ts.tx, rec)
}

func (ts *txStore) Movements(ctx context.Context, f vegetal.MovementFilter) ([]vegetal.MovementRecord, error) {
	return queryMovements(ctx, ts.tx, f)
}

func (ts *txStore) DeleteSessionMovements(ctx context.Context, id vegetal.SessionID) error {
	return deleteSessionMovements(ctx, ts.tx, id)
}

func (ts *txStore) RenameBatchMovements(ctx context.Context, id vegetal.BatchID, name string) error {
	return renameBatchMovements(ctx, ts.tx, id, name)
}

func (ts *txStore) GetSession(ctx context.Context, id vegetal.SessionID) (vegetal.Session, error) {
	return getSession(ctx, ts.tx, id)
}

func (ts *txStore) ListSessions(ctx context.Context) ([]vegetal.Session, error) {
	return listSessions(ctx, ts.tx)
}

func (ts *txStore) PutSession(ctx context.Context, sess vegetal.Session) error {
	return putSession(ctx, ts.tx, sess)
}

func (ts *txStore) DeleteSession(ctx context.Context, id vegetal.SessionID) error {
	return deleteSession(ctx, ts.tx, id)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
