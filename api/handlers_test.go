package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vegetal-engine/api"
	"github.com/warp/vegetal-engine/engine"
	memstore "github.com/warp/vegetal-engine/vegetal/store"
)

type testServer struct {
	router http.Handler
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mem := memstore.NewMemory()
	e := engine.New(mem)
	auth, err := api.NewAuth("test-secret", time.Hour, map[string]string{
		"mestre":   "chave-do-mestre",
		"auxiliar": "chave-do-auxiliar",
	})
	require.NoError(t, err)

	h := api.NewHandler(e, mem, auth, zerolog.Nop())
	ts := &testServer{router: api.NewRouter(h, zerolog.Nop())}

	token, err := auth.Login("mestre", "chave-do-mestre")
	require.NoError(t, err)
	ts.token = token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (ts *testServer) createBatch(t *testing.T, name, quantity string) api.BatchDTO {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/stock", api.BatchDTO{Name: name, Quantity: quantity})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[api.BatchDTO](t, w)
}

func sessionBody(batchID, madeAvailable, totalConsumed string) api.SessionDTO {
	return api.SessionDTO{
		Date:      "2024-10-20",
		Type:      "Primeira Escala",
		Dirigente: "Mestre Gabriel",
		Consumption: api.ConsumptionDTO{
			Vegetals:      []api.ClaimDTO{{VegetalID: batchID, Disponibilizada: madeAvailable}},
			TotalConsumed: totalConsumed,
		},
	}
}

// =============================================================================
// STOCK
// =============================================================================

func TestAPI_EntryAndList(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createBatch(t, "Preparo Junho", "10")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "10", created.Quantity)

	w := ts.do(t, http.MethodGet, "/api/stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	batches := decode[[]api.BatchDTO](t, w)
	require.Len(t, batches, 1)
	assert.Equal(t, "Preparo Junho", batches[0].Name)
}

func TestAPI_EntryRejectsNegativeQuantity(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/stock", api.BatchDTO{Name: "Ruim", Quantity: "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_ExitAndAdjustment(t *testing.T) {
	ts := newTestServer(t)
	b := ts.createBatch(t, "Preparo", "10")

	w := ts.do(t, http.MethodPost, "/api/stock/"+b.ID+"/exit", api.QuantityRequest{Quantity: "4"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/stock/"+b.ID+"/adjustment", api.QuantityRequest{Quantity: "5"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/stock", nil)
	batches := decode[[]api.BatchDTO](t, w)
	require.Len(t, batches, 1)
	assert.Equal(t, "5", batches[0].Quantity)

	w = ts.do(t, http.MethodGet, "/api/stock/"+b.ID+"/movements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode[[]api.MovementDTO](t, w)
	require.Len(t, recs, 3, "entry, exit, adjustment")
	assert.Equal(t, "Entrada", recs[0].Type)
	assert.Equal(t, "Saída", recs[1].Type)
	assert.Equal(t, "Ajuste", recs[2].Type)
	assert.Equal(t, "-1", recs[2].Quantity, "adjustment carries the signed delta")
}

func TestAPI_ExitInsufficientStock(t *testing.T) {
	ts := newTestServer(t)
	b := ts.createBatch(t, "Preparo", "3")

	w := ts.do(t, http.MethodPost, "/api/stock/"+b.ID+"/exit", api.QuantityRequest{Quantity: "5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[api.ErrorResponse](t, w)
	assert.Contains(t, resp.Details, "insufficient stock")
}

func TestAPI_ExitUnknownBatch(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/stock/missing/exit", api.QuantityRequest{Quantity: "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestAPI_SessionLifecycle(t *testing.T) {
	// GIVEN: a batch with 10 L
	// WHEN: a session claims 2 L (1.8 consumed), is fetched, then deleted
	// THEN: stock dips to 8 plus a 0.2 L saldo, and recovers fully on delete

	ts := newTestServer(t)
	b := ts.createBatch(t, "Preparo", "10")

	w := ts.do(t, http.MethodPost, "/api/sessions", sessionBody(b.ID, "2", "1.8"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[api.SessionDTO](t, w)
	require.NotEmpty(t, created.ID)

	w = ts.do(t, http.MethodGet, "/api/stock", nil)
	batches := decode[[]api.BatchDTO](t, w)
	require.Len(t, batches, 2)
	assert.Equal(t, "8", batches[0].Quantity)
	assert.Equal(t, "Saldo 20/10/2024 - Primeira Escala", batches[1].Name)
	assert.True(t, batches[1].IsBalance)

	w = ts.do(t, http.MethodGet, "/api/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[api.SessionDTO](t, w)
	assert.Equal(t, "Mestre Gabriel", got.Dirigente)
	require.Len(t, got.Consumption.Vegetals, 1)
	assert.Equal(t, b.ID, got.Consumption.Vegetals[0].VegetalID)

	w = ts.do(t, http.MethodDelete, "/api/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/stock", nil)
	batches = decode[[]api.BatchDTO](t, w)
	require.Len(t, batches, 1, "balance batch removed with its session")
	assert.Equal(t, "10", batches[0].Quantity)
}

func TestAPI_SaveSessionInsufficientStock(t *testing.T) {
	ts := newTestServer(t)
	b := ts.createBatch(t, "Preparo", "1")

	w := ts.do(t, http.MethodPost, "/api/sessions", sessionBody(b.ID, "5", "5"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Stock untouched after the rejected save.
	w = ts.do(t, http.MethodGet, "/api/stock", nil)
	batches := decode[[]api.BatchDTO](t, w)
	assert.Equal(t, "1", batches[0].Quantity)
}

func TestAPI_SaveSessionEmptyConsumption(t *testing.T) {
	ts := newTestServer(t)
	body := api.SessionDTO{Date: "2024-10-20", Type: "Extra"}
	w := ts.do(t, http.MethodPost, "/api/sessions", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_GetSessionNotFound(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_SaveSessionBadDate(t *testing.T) {
	ts := newTestServer(t)
	body := sessionBody("v1", "1", "1")
	body.Date = "20/10/2024"
	w := ts.do(t, http.MethodPost, "/api/sessions", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// CSV EXCHANGE
// =============================================================================

func TestAPI_ExportImport(t *testing.T) {
	ts := newTestServer(t)
	b := ts.createBatch(t, "Preparo", "10")
	w := ts.do(t, http.MethodPost, "/api/sessions", sessionBody(b.ID, "2", "2"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/api/sessions/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "Vegetais Utilizados")
	assert.Contains(t, w.Body.String(), "Preparo")

	// Importing the same file back skips the existing session.
	csv := w.Body.String()
	w = ts.do(t, http.MethodPost, "/api/sessions/import", csv)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[map[string]int](t, w)
	assert.Equal(t, 0, summary["Imported"])
	assert.Equal(t, 1, summary["Skipped"])
}

func TestAPI_ImportMalformed(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/sessions/import", "not,a,valid,file\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// SOCIOS & ADMIN
// =============================================================================

func TestAPI_SociosListAndRename(t *testing.T) {
	ts := newTestServer(t)
	b := ts.createBatch(t, "Preparo", "10")
	w := ts.do(t, http.MethodPost, "/api/sessions", sessionBody(b.ID, "1", "1"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/api/socios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	socios := decode[[]string](t, w)
	assert.Contains(t, socios, "Mestre Gabriel")

	w = ts.do(t, http.MethodPost, "/api/socios/rename", api.RenameSociosRequest{
		Updates: []api.NameUpdateDTO{{Old: "Mestre Gabriel", New: "Mestre Gabriel Filho"}},
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/socios", nil)
	socios = decode[[]string](t, w)
	assert.Contains(t, socios, "Mestre Gabriel Filho")
	assert.NotContains(t, socios, "Mestre Gabriel")
}

func TestAPI_SeedDemo(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/admin/seed", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/stock", nil)
	batches := decode[[]api.BatchDTO](t, w)
	assert.Len(t, batches, 15)

	w = ts.do(t, http.MethodGet, "/api/sessions", nil)
	sessions := decode[[]api.SessionDTO](t, w)
	assert.Len(t, sessions, 5)
}

func TestAPI_MovementsBySession(t *testing.T) {
	ts := newTestServer(t)
	b := ts.createBatch(t, "Preparo", "10")
	w := ts.do(t, http.MethodPost, "/api/sessions", sessionBody(b.ID, "2", "1.8"))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[api.SessionDTO](t, w)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/movements?session=%s", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode[[]api.MovementDTO](t, w)
	require.Len(t, recs, 2, "consumption + saldo")

	kinds := []string{recs[0].Type, recs[1].Type}
	assert.Contains(t, kinds, "Consumo em Sessão")
	assert.Contains(t, kinds, "Saldo de Sessão")

	w = ts.do(t, http.MethodGet, "/api/movements?kind="+url.QueryEscape("Saldo de Sessão"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	recs = decode[[]api.MovementDTO](t, w)
	assert.Len(t, recs, 1)
}
