/*
handlers.go - HTTP handlers for the session and stock engine

PURPOSE:
  Exposes the reconciliation engine via REST. Handlers parse the request,
  delegate to the engine (never to the store directly for writes), and
  serialize the response.

ENDPOINTS:
  Auth:
    POST   /api/login                   Exchange credentials for a JWT

  Sessions:
    GET    /api/sessions                List sessions
    GET    /api/sessions/{id}           Get one session
    POST   /api/sessions                Save (create or update) a session
    DELETE /api/sessions/{id}           Delete a session, reversing its effects
    GET    /api/sessions/export         Download the history as CSV
    POST   /api/sessions/import         Merge a CSV file into the archive

  Stock:
    GET    /api/stock                   Live inventory
    GET    /api/stock/history           Historical index (all batches ever)
    POST   /api/stock                   Entry: new batch
    PUT    /api/stock/{id}              Edit batch details
    POST   /api/stock/{id}/exit         Direct outbound movement
    POST   /api/stock/{id}/adjustment   Set quantity to an explicit value
    GET    /api/stock/{id}/movements    One batch's ledger records

  Movements:
    GET    /api/movements               Ledger query (?session=, ?kind=)

  Socios:
    GET    /api/socios                  Distinct participant names
    POST   /api/socios/rename           Bulk rename across sessions and stock

  Admin:
    POST   /api/admin/seed              Load the demo dataset

ERROR HANDLING:
  - 400: Validation failures (insufficient stock, empty consumption, bad input)
  - 401: Missing/invalid bearer token
  - 404: Unknown batch or session
  - 409: Duplicate session id
  - 500: Everything else

SEE ALSO:
  - dto.go: Request/response shapes
  - auth.go: Login and bearer middleware
  - server.go: Router setup
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/warp/vegetal-engine/engine"
	"github.com/warp/vegetal-engine/exchange"
	"github.com/warp/vegetal-engine/factory"
	"github.com/warp/vegetal-engine/vegetal"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *engine.Engine
	Store  vegetal.TxStore
	Auth   *Auth

	log zerolog.Logger
}

// NewHandler creates a handler backed by the given engine.
func NewHandler(e *engine.Engine, store vegetal.TxStore, auth *Auth, log zerolog.Logger) *Handler {
	return &Handler{Engine: e, Store: store, Auth: auth, log: log}
}

// =============================================================================
// AUTH
// =============================================================================

// Login exchanges a username/password pair for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		h.log.Warn().Str("username", req.Username).Msg("failed login attempt")
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Username: req.Username})
}

// =============================================================================
// SESSIONS
// =============================================================================

// ListSessions returns every session.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Store.ListSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}

	dtos := make([]SessionDTO, len(sessions))
	for i, s := range sessions {
		dtos[i] = toSessionDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSession returns one session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := vegetal.SessionID(chi.URLParam(r, "id"))

	s, err := h.Store.GetSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get session", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(s))
}

// SaveSession runs the reconciliation save: validate fully, then apply.
// A draft without an id creates; with an id it updates, reversing the
// previous version's stock effects first.
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	var dto SessionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	draft, err := dto.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session date (use YYYY-MM-DD)", err)
		return
	}

	saved, err := h.Engine.SaveSession(r.Context(), draft)
	if err != nil {
		writeDomainError(w, "Failed to save session", err)
		return
	}

	status := http.StatusOK
	if dto.ID == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, toSessionDTO(saved))
}

// DeleteSession removes a session and reverses its stock and ledger effects.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := vegetal.SessionID(chi.URLParam(r, "id"))

	if err := h.Engine.DeleteSession(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportSessions streams the whole history as CSV.
func (h *Handler) ExportSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := h.Store.ListSessions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="historico_sessoes.csv"`)
	if err := exchange.Export(ctx, w, h.Store, sessions); err != nil {
		// Headers are gone; all we can do is log.
		h.log.Error().Err(err).Msg("csv export failed mid-stream")
	}
}

// ImportSessions merges an uploaded CSV into the archive.
func (h *Handler) ImportSessions(w http.ResponseWriter, r *http.Request) {
	summary, err := exchange.Import(r.Context(), r.Body, h.Store)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Import failed", err)
		return
	}

	h.log.Info().
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Int("placeholders", summary.Placeholders).
		Msg("csv import merged")
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// STOCK
// =============================================================================

// ListStock returns live inventory.
func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Store.ListBatches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list stock", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTOs(batches))
}

// ListStockHistory returns every batch ever created, live first.
func (h *Handler) ListStockHistory(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Store.ListHistoricalBatches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list stock history", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTOs(batches))
}

// CreateEntry registers inbound stock as a new batch.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var dto BatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	b, err := h.Engine.RecordEntry(r.Context(), dto.toDomain())
	if err != nil {
		writeDomainError(w, "Failed to record entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBatchDTO(b))
}

// UpdateBatch edits a batch's details (name, provenance, quantity).
func (h *Handler) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	var dto BatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	dto.ID = chi.URLParam(r, "id")

	if err := h.Engine.UpdateBatchDetails(r.Context(), dto.toDomain()); err != nil {
		writeDomainError(w, "Failed to update batch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordExit registers a direct outbound movement.
func (h *Handler) RecordExit(w http.ResponseWriter, r *http.Request) {
	id := vegetal.BatchID(chi.URLParam(r, "id"))
	var req QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Engine.RecordExit(r.Context(), id, vegetal.ParseLiters(req.Quantity)); err != nil {
		writeDomainError(w, "Failed to record exit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordAdjustment sets a batch's quantity to an explicit value.
func (h *Handler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	id := vegetal.BatchID(chi.URLParam(r, "id"))
	var req QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Engine.RecordAdjustment(r.Context(), id, vegetal.ParseLiters(req.Quantity)); err != nil {
		writeDomainError(w, "Failed to record adjustment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchMovements returns one batch's ledger records.
func (h *Handler) BatchMovements(w http.ResponseWriter, r *http.Request) {
	id := vegetal.BatchID(chi.URLParam(r, "id"))

	recs, err := h.Store.Movements(r.Context(), vegetal.FilterByBatch(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query movements", err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(recs))
}

// =============================================================================
// MOVEMENTS
// =============================================================================

// ListMovements returns ledger records, optionally filtered by ?session=
// and ?kind=.
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	var f vegetal.MovementFilter
	if v := r.URL.Query().Get("session"); v != "" {
		id := vegetal.SessionID(v)
		f.SessionID = &id
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		kind := vegetal.MovementKind(v)
		f.Kind = &kind
	}

	recs, err := h.Store.Movements(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query movements", err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(recs))
}

// =============================================================================
// SOCIOS
// =============================================================================

// ListSocios returns the distinct participant names.
func (h *Handler) ListSocios(w http.ResponseWriter, r *http.Request) {
	socios, err := h.Engine.Socios(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list socios", err)
		return
	}
	if socios == nil {
		socios = []string{}
	}
	writeJSON(w, http.StatusOK, socios)
}

// RenameSocios applies a batch of renames across sessions and stock.
func (h *Handler) RenameSocios(w http.ResponseWriter, r *http.Request) {
	var req RenameSociosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updates := make([]engine.NameUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = engine.NameUpdate{Old: u.Old, New: u.New}
	}

	if err := h.Engine.RenameSocios(r.Context(), updates); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rename socios", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADMIN
// =============================================================================

// SeedDemo loads the demo dataset through the engine.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	if err := factory.Seed(r.Context(), h.Engine); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed demo data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

// =============================================================================
// HELPERS
// =============================================================================

func toBatchDTOs(batches []vegetal.Batch) []BatchDTO {
	dtos := make([]BatchDTO, len(batches))
	for i, b := range batches {
		dtos[i] = toBatchDTO(b)
	}
	return dtos
}

func toMovementDTOs(recs []vegetal.MovementRecord) []MovementDTO {
	dtos := make([]MovementDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toMovementDTO(rec)
	}
	return dtos
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case vegetal.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, vegetal.ErrDuplicateSession):
		writeError(w, http.StatusConflict, message, err)
	case vegetal.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
