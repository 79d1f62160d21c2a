package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vegetal-engine/api"
)

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	auth, err := api.NewAuth("secret", time.Hour, map[string]string{"mestre": "senha"})
	require.NoError(t, err)

	token, err := auth.Login("mestre", "senha")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "mestre", username)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	auth, err := api.NewAuth("secret", time.Hour, map[string]string{"mestre": "senha"})
	require.NoError(t, err)

	_, err = auth.Login("mestre", "errada")
	assert.Error(t, err)

	_, err = auth.Login("desconhecido", "senha")
	assert.Error(t, err)
}

func TestVerify_RejectsForeignSignature(t *testing.T) {
	a, err := api.NewAuth("secret-a", time.Hour, map[string]string{"mestre": "senha"})
	require.NoError(t, err)
	b, err := api.NewAuth("secret-b", time.Hour, map[string]string{"mestre": "senha"})
	require.NoError(t, err)

	token, err := a.Login("mestre", "senha")
	require.NoError(t, err)

	_, err = b.Verify(token)
	assert.Error(t, err)
}

func TestNewAuth_RequiresSecret(t *testing.T) {
	_, err := api.NewAuth("", time.Hour, nil)
	assert.Error(t, err)
}

func TestLoginEndpoint(t *testing.T) {
	// GIVEN: the full router
	// WHEN: logging in over HTTP
	// THEN: good credentials yield a token, bad ones 401

	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"mestre","password":"chave-do-mestre"}`))
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[api.LoginResponse](t, w)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "mestre", resp.Username)

	req = httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"mestre","password":"errada"}`))
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_GatesProtectedRoutes(t *testing.T) {
	ts := newTestServer(t)

	// No token at all.
	req := httptest.NewRequest(http.MethodGet, "/api/stock", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong scheme.
	req = httptest.NewRequest(http.MethodGet, "/api/stock", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	req = httptest.NewRequest(http.MethodGet, "/api/stock", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token passes.
	req = httptest.NewRequest(http.MethodGet, "/api/stock", nil)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExpiredToken(t *testing.T) {
	auth, err := api.NewAuth("secret", -time.Minute, map[string]string{"mestre": "senha"})
	require.NoError(t, err)

	token, err := auth.Login("mestre", "senha")
	require.NoError(t, err)

	_, err = auth.Verify(token)
	assert.Error(t, err)
}
