package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountsJSON = `[{"index":0,"issuer":"GitHub","label":"alice"}]`

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	gr, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer gr.Close()
	data, err := io.ReadAll(gr)
	require.NoError(t, err)
	return string(data)
}

func TestWithGzip_Responses(t *testing.T) {
	jsonHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// намеренно ставим Content-Length, чтобы убедиться, что мидлварь его убирает
		w.Header().Set("Content-Length", "47")
		_, _ = w.Write([]byte(accountsJSON))
	})
	noContent := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	emptyOK := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		handler        http.Handler
		acceptEncoding string
		wantStatus     int
		wantEncoding   string
		wantBody       string
	}{
		{"plain without accept-encoding", jsonHandler, "", http.StatusOK, "", accountsJSON},
		{"compressed json", jsonHandler, "gzip, deflate", http.StatusOK, "gzip", accountsJSON},
		{"no content stays empty", noContent, "gzip", http.StatusNoContent, "", ""},
		{"empty body is a valid stream", emptyOK, "gzip", http.StatusOK, "gzip", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			rr := httptest.NewRecorder()
			WithGzip(tt.handler).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantEncoding, rr.Header().Get("Content-Encoding"))
			if tt.wantEncoding == "gzip" {
				assert.Empty(t, rr.Header().Get("Content-Length"))
				assert.Equal(t, tt.wantBody, gunzip(t, rr.Body.Bytes()))
				return
			}
			assert.Equal(t, tt.wantBody, rr.Body.String())
		})
	}
}

// Тест: тело запроса с Content-Encoding: gzip распаковывается до хендлера
func TestWithGzip_DecompressesRequest(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"path":"/tmp/backup.json"}`))
	_ = zw.Close()

	h := WithGzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		_, _ = w.Write(body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/transfer/backup", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, `{"path":"/tmp/backup.json"}`, rr.Body.String())

	bad := httptest.NewRequest(http.MethodPost, "/api/transfer/backup", bytes.NewReader([]byte("plain")))
	bad.Header.Set("Content-Encoding", "gzip")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
