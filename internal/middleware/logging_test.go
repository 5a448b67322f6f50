package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLogging_RecordsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core).Sugar())
	t.Cleanup(func() { SetLogger(zap.NewNop().Sugar()) })

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot) // 418
		_, _ = w.Write([]byte("hello"))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/0/consume", nil)
	WithLogging(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot || rr.Body.String() != "hello" {
		t.Fatalf("passthrough failed: %d %q", rr.Code, rr.Body.String())
	}

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != http.MethodPost || fields["uri"] != "/api/accounts/0/consume" {
		t.Fatalf("unexpected method/uri: %v", fields)
	}
	if fields["status"] != int64(http.StatusTeapot) || fields["size"] != int64(5) {
		t.Fatalf("unexpected status/size: %v", fields)
	}
}

// без явного WriteHeader статус считается 200
func TestWithLogging_DefaultStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core).Sugar())
	t.Cleanup(func() { SetLogger(zap.NewNop().Sugar()) })

	h := WithLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events", nil))

	entries := logs.All()
	if len(entries) != 1 || entries[0].ContextMap()["status"] != int64(http.StatusOK) {
		t.Fatalf("expected status 200 entry, got %v", entries)
	}
}

func TestSetLogger_IgnoresNil(t *testing.T) {
	before := sugar
	SetLogger(nil)
	if sugar != before {
		t.Fatalf("nil logger must not replace the current one")
	}
}
