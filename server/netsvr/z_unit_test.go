package netsvr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChiAdapterRoutes(t *testing.T) {
	c := NewChiServer("", Timeouts{})
	if !c.Ready() || c.Address() != defaultAddr {
		t.Fatalf("adapter not ready: %q", c.Address())
	}
	c.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Seen", "1")
			next.ServeHTTP(w, r)
		})
	})
	c.Group("/v1", func(r NetRouter) {
		r.Get("/rounds/{id}", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(URLParam(r, "id")))
		})
		r.Put("/rounds/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rounds/abc", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "abc" || rec.Header().Get("X-Seen") != "1" {
		t.Fatalf("get = %d %q", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/rounds/abc", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("put = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/rounds/abc", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("post = %d", rec.Code)
	}
}

func TestChiAdapterShutdownBeforeRun(t *testing.T) {
	c := NewChiServer("127.0.0.1:0", Timeouts{})
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	// 已關閉的 server 再 Run 回傳 ErrServerClosed，視為正常結束
	if err := c.Run(); err != nil {
		t.Fatalf("run after shutdown: %v", err)
	}
}
