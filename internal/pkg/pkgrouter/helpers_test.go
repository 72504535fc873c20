package pkgrouter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeCID(t *testing.T) {
	if got := normalizeCID("  abc  "); got != "abc" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := normalizeCID("\n"); got != "" {
		t.Fatalf("expected empty for newline, got %q", got)
	}
	if got := normalizeCID("caf\u00e9"); got != "" {
		t.Fatalf("expected empty for non-ascii, got %q", got)
	}
	long := strings.Repeat("a", 200)
	if got := normalizeCID(long); len(got) != 128 {
		t.Fatalf("expected length 128, got %d", len(got))
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "secret")
	headers.Set("X-Api-Key", "key")
	headers.Set("X-Trace", "ok")

	masked := maskHeaders(headers)
	if got := masked.Get("Authorization"); got != "***" {
		t.Fatalf("expected masked authorization, got %q", got)
	}
	if got := masked.Get("X-Api-Key"); got != "***" {
		t.Fatalf("expected masked api key, got %q", got)
	}
	if got := masked.Get("X-Trace"); got != "ok" {
		t.Fatalf("expected X-Trace to stay, got %q", got)
	}
	if got := headers.Get("Authorization"); got != "secret" {
		t.Fatalf("expected original headers unchanged, got %q", got)
	}
}

func TestMiddlewareLoggingRecordsStatus(t *testing.T) {
	var seen int
	h := middlewareLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := w.(*statusRecorder)
		if !ok {
			t.Fatalf("expected statusRecorder, got %T", w)
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
		seen = rec.bytes
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader("payload")))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	if seen != 5 {
		t.Fatalf("expected 5 bytes recorded, got %d", seen)
	}
}

func TestBodyLimit(t *testing.T) {
	if BodyLimit(0) != nil {
		t.Fatal("expected no middleware without a limit")
	}

	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader("too long")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader("ok")))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestInternalFrames(t *testing.T) {
	stack := []byte("goroutine 1 [running]:\n" +
		"runtime/debug.Stack()\n" +
		"\t/usr/local/go/src/runtime/debug/stack.go:24 +0x5e\n" +
		"github.com/x/y/internal/export/inbound.(*HTTPEndpoint).Submit(...)\n" +
		"\t/src/app/internal/export/inbound/http_endpoint.go:42 +0x1a\n")

	frames := internalFrames(stack)
	if len(frames) != 1 || frames[0] != "internal/export/inbound/http_endpoint.go:42" {
		t.Fatalf("frames = %#v", frames)
	}
}
