package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoggingPassesResponseThrough(t *testing.T) {
	handler := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		if _, err := w.Write([]byte("short and stout")); err != nil {
			t.Fatalf("write body: %v", err)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusTeapot {
		t.Fatalf("expected 418 got %d", resp.Code)
	}
	if resp.Body.String() != "short and stout" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestStatusRecorderCapturesWriteHeader(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	rec.WriteHeader(http.StatusNotFound)
	if rec.status != http.StatusNotFound {
		t.Fatalf("expected recorded 404 got %d", rec.status)
	}
}

func TestStatusRecorderDefaultsUnset(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: inner}
	if _, err := rec.Write([]byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Implicit 200 is filled in by the access log, not the recorder.
	if rec.status != 0 {
		t.Fatalf("expected zero status before WriteHeader, got %d", rec.status)
	}
	if inner.Code != http.StatusOK {
		t.Fatalf("expected inner recorder 200 got %d", inner.Code)
	}
}
