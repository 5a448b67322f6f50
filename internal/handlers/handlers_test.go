package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/crypto"
	"OTPKeeper/internal/handlers"
	"OTPKeeper/internal/middleware"
	"OTPKeeper/internal/service"
	"OTPKeeper/internal/transfer"
	"OTPKeeper/internal/vault"
)

const (
	apiSecret = "test-api-secret"
	acmeURI   = "otpauth://totp/Acme:alice%40acme.com?secret=JBSWY3DPEHPK3PXP&issuer=Acme"
)

type apiClient struct {
	t     *testing.T
	srv   *httptest.Server
	token string
	dir   string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	return newAPIWithLogger(t, zap.NewNop().Sugar())
}

func newAPIWithLogger(t *testing.T, log *zap.SugaredLogger) *apiClient {
	t.Helper()
	dir := t.TempDir()

	key, err := crypto.DeriveKey(crypto.StaticIdentifier("api-host"))
	require.NoError(t, err)
	c, err := crypto.NewCipher(key)
	require.NoError(t, err)
	v, err := vault.New(filepath.Join(dir, vault.FileName), c, log)
	require.NoError(t, err)
	auth := service.NewAuthenticator(v, transfer.New(v, log), nil, log)

	h := handlers.NewHandler(auth, log, &config.Config{APISecret: apiSecret})
	srv := httptest.NewServer(h.Router)
	t.Cleanup(srv.Close)

	token, err := middleware.IssueToken(apiSecret, time.Hour)
	require.NoError(t, err)
	return &apiClient{t: t, srv: srv, token: token, dir: dir}
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.srv.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type account struct {
	Index         int     `json:"index"`
	Issuer        string  `json:"issuer"`
	Label         string  `json:"label"`
	UsedFrequency int     `json:"used_frequency"`
	Favorite      bool    `json:"favorite"`
	Icon          *string `json:"icon"`
}

func TestAPI_RequiresToken(t *testing.T) {
	api := newAPI(t)
	resp, err := http.Get(api.srv.URL + "/api/accounts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_AccountLifecycle(t *testing.T) {
	api := newAPI(t)

	var created account
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/accounts", map[string]string{"uri": acmeURI}, &created))
	assert.Equal(t, "alice@acme.com", created.Label)

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/accounts", map[string]string{"uri": acmeURI}, &errBody))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/accounts", map[string]string{"uri": "otpauth://hotp/x"}, &errBody))
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/accounts",
		map[string]string{"issuer": "Beta", "label": "bob", "secret": "GEZDGNBVGY3TQOJQ"}, &created))

	var list []account
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/accounts", nil, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Beta", list[0].Issuer)
	assert.Equal(t, 1, list[1].Index)

	var code service.Code
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/accounts/1/code", nil, &code))
	assert.Len(t, code.Code, 6)
	assert.True(t, code.SecondsRemaining >= 1 && code.SecondsRemaining <= 30)

	var uri map[string]string
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/accounts/1/uri", nil, &uri))
	assert.Equal(t, acmeURI, uri["uri"])

	var consumed account
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/accounts/1/consume", nil, &consumed))
	assert.Equal(t, 1, consumed.UsedFrequency)

	fav := true
	icon := "github"
	var updated account
	assert.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/accounts/0",
		map[string]any{"favorite": fav, "icon": icon}, &updated))
	assert.True(t, updated.Favorite)
	require.NotNil(t, updated.Icon)
	assert.Equal(t, "github", *updated.Icon)

	assert.Equal(t, http.StatusConflict, api.do(http.MethodPut, "/api/accounts/0",
		map[string]string{"issuer": "Acme", "label": "alice@acme.com"}, &errBody))

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodPost, "/api/accounts/sort?by=frequency", nil, nil))
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/accounts", nil, &list))
	assert.Equal(t, "Acme", list[0].Issuer)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/accounts/sort?by=size", nil, &errBody))

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/accounts/0", nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/accounts/7", nil, &errBody))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/accounts/x/code", nil, &errBody))
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/accounts", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Beta", list[0].Issuer)
}

func TestAPI_Transfer(t *testing.T) {
	api := newAPI(t)
	var resp handlers.TransferResponse

	backup := filepath.Join(api.dir, "backup.json")
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/transfer/backup", map[string]string{"path": backup}, &resp))

	var created account
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/accounts", map[string]string{"uri": acmeURI}, &created))

	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/transfer/backup", map[string]string{"path": backup}, &resp))
	assert.Equal(t, transfer.StatusOK, resp.Status)

	export := filepath.Join(api.dir, "export.txt")
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/transfer/export", map[string]string{"path": export, "format": "uri"}, &resp))
	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Equal(t, acmeURI+"\n", string(data))

	var preview handlers.TransferResponse
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/transfer/preview", map[string]string{"path": export}, &preview))
	require.NotNil(t, preview.Count)
	assert.Equal(t, 1, *preview.Count)
	require.Len(t, preview.Entries, 1)
	assert.Equal(t, "Acme", preview.Entries[0].Issuer)

	resp = handlers.TransferResponse{}
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/transfer/import", map[string]string{"path": export}, &resp))
	require.NotNil(t, resp.Conflicts)
	assert.Equal(t, 0, *resp.Conflicts)

	resp = handlers.TransferResponse{}
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/transfer/restore", map[string]string{"path": backup}, &resp))
	require.NotNil(t, resp.Count)
	assert.Equal(t, 1, *resp.Count)

	resp = handlers.TransferResponse{}
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/transfer/import", map[string]string{"path": filepath.Join(api.dir, "none")}, &resp))
	assert.Equal(t, transfer.StatusFileMissing, resp.Status)

	bad := filepath.Join(api.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	assert.Equal(t, http.StatusUnprocessableEntity, api.do(http.MethodPost, "/api/transfer/import", map[string]string{"path": bad}, &resp))
	assert.Equal(t, transfer.StatusJSONParse, resp.Status)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/transfer/export", map[string]string{"path": export, "format": "xml"}, &errBody))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/transfer/backup", map[string]string{}, &errBody))

	var events []map[string]any
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/events?limit=5", nil, &events))
	assert.Empty(t, events)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/events?limit=x", nil, &errBody))
}

func TestAPI_LogsTokenIDOnMutations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	api := newAPIWithLogger(t, zap.New(core).Sugar())
	jti, err := middleware.ParseToken(api.token, apiSecret)
	require.NoError(t, err)

	var created account
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/accounts", map[string]string{"uri": acmeURI}, &created))
	assert.Equal(t, 0, created.Index)
	assert.Equal(t, "Acme", created.Issuer)

	var resp handlers.TransferResponse
	export := filepath.Join(api.dir, "export.txt")
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/transfer/export", map[string]string{"path": export, "format": "uri"}, &resp))
	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/accounts/0", nil, nil))

	for _, msg := range []string{"account created", "transfer done", "account deleted"} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		assert.Equal(t, jti, entries[0].ContextMap()["token_id"], msg)
	}
}
