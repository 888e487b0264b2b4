package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func TestNegotiate(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"br":                     "",
		"gzip":                   "gzip",
		"gzip, zstd":             "zstd",
		"zstd;q=0, gzip":         "gzip",
		"zstd;q=0.5, gzip;q=0.9": "gzip",
		"GZIP;q=1.0":             "gzip",
	}
	for in, want := range cases {
		if got := negotiate(in); got != want {
			t.Fatalf("negotiate(%q) = %q want %q", in, got, want)
		}
	}
}

const payload = `{"board":[[0,0,0,0,0,0,0,0]],"score":120}`

func serve(h http.Handler, enc string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/rounds/x", nil)
	if enc != "" {
		req.Header.Set("Accept-Encoding", enc)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCompressionRoundTrip(t *testing.T) {
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))

	rec := serve(h, "zstd")
	if rec.Header().Get("Content-Encoding") != "zstd" {
		t.Fatalf("want zstd, got %q", rec.Header().Get("Content-Encoding"))
	}
	zr, err := zstd.NewReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	got, err := io.ReadAll(zr)
	zr.Close()
	if err != nil || string(got) != payload {
		t.Fatalf("zstd body = %q, %v", got, err)
	}

	rec = serve(h, "gzip")
	gr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	got, _ = io.ReadAll(gr)
	if string(got) != payload {
		t.Fatalf("gzip body = %q", got)
	}

	rec = serve(h, "")
	if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != payload {
		t.Fatalf("identity body = %q", rec.Body.String())
	}
}

func TestCompressionNoBody(t *testing.T) {
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := serve(h, "zstd")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 || rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 got body %d / encoding %q", rec.Body.Len(), rec.Header().Get("Content-Encoding"))
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := RequestID(AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	out := buf.String()
	for _, want := range []string{"http.access", "status=404", "path=/missing", "level=WARN", "req_id="} {
		if !strings.Contains(out, want) {
			t.Fatalf("log %q missing %q", out, want)
		}
	}
}

func TestRecoverWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := RequestID(Recover(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) || strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if out := buf.String(); !strings.Contains(out, "http.panic") || !strings.Contains(out, "panic=boom") {
		t.Fatalf("log = %s", out)
	}
}
