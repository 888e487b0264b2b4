package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/blastlab"
	"github.com/zintix-labs/blastlab/sdk/blast"
	v1 "github.com/zintix-labs/blastlab/server/api/v1"
	"github.com/zintix-labs/blastlab/server/httperr"
	"github.com/zintix-labs/blastlab/server/netsvr"
	"github.com/zintix-labs/blastlab/server/svrcfg"
)

type apiEnv struct {
	t  *testing.T
	h  http.Handler
	rt *blastlab.RoundRuntime
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	lab, err := blastlab.NewDefault()
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	sCfg := &svrcfg.SvrCfg{Log: slog.New(slog.DiscardHandler), Lab: lab, SimMaxRounds: 50, SimMaxWorkers: 2}
	if err := sCfg.Valid(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	rt, err := lab.BuildRuntime(sCfg.Store, blastlab.WithLogger(sCfg.Log))
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	t.Cleanup(rt.Close)
	svr := netsvr.NewChiServerDefault()
	if err := RegisterRoutes(svr, sCfg, rt); err != nil {
		t.Fatalf("routes: %v", err)
	}
	return &apiEnv{t: t, h: svr.Handler(), rt: rt}
}

func (e *apiEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d, body=%s", rec.Code, status, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	e := newAPI(t)
	rec := e.do(http.MethodGet, "/healthz", nil)
	expect(t, rec, http.StatusOK)
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id middleware not applied")
	}
	e.rt.Close()
	expect(t, e.do(http.MethodGet, "/healthz", nil), http.StatusServiceUnavailable)
}

func TestRoundLifecycle(t *testing.T) {
	e := newAPI(t)

	rec := e.do(http.MethodPost, "/v1/rounds", nil)
	expect(t, rec, http.StatusCreated)
	open := decode[v1.RoundResponse](t, rec)
	if open.ID == "" || open.Profile != "standard" || open.View.State != blast.Active {
		t.Fatalf("open = %+v", open)
	}
	base := "/v1/rounds/" + open.ID

	got := decode[v1.RoundResponse](t, e.do(http.MethodGet, base, nil))
	if got.ID != open.ID || got.View.Placements != 0 {
		t.Fatalf("view = %+v", got)
	}

	rec = e.do(http.MethodGet, base+"/hint", nil)
	expect(t, rec, http.StatusOK)
	mv := decode[blast.Move](t, rec)

	pv := e.do(http.MethodGet, base+"/preview?slot="+itoa(mv.Slot)+"&row="+itoa(mv.Row)+"&col="+itoa(mv.Col), nil)
	expect(t, pv, http.StatusOK)
	if !decode[blast.PreviewView](t, pv).Valid {
		t.Fatalf("hinted move should preview as valid")
	}

	rec = e.do(http.MethodPost, base+"/place", v1.PlaceRequest{Slot: mv.Slot, Row: mv.Row, Col: mv.Col})
	expect(t, rec, http.StatusOK)
	placed := decode[v1.PlaceResponse](t, rec)
	if placed.View.Placements != 1 || placed.Result.Slot != mv.Slot {
		t.Fatalf("place = %+v", placed.Result)
	}

	// 同一個 slot 已經用掉
	rec = e.do(http.MethodPost, base+"/place", v1.PlaceRequest{Slot: mv.Slot, Row: mv.Row, Col: mv.Col})
	expect(t, rec, http.StatusConflict)
	if b := decode[httperr.Body](t, rec); b.Code != "placement_rejected" {
		t.Fatalf("body = %+v", b)
	}

	expect(t, e.do(http.MethodGet, base+"/preview?slot=9", nil), http.StatusConflict)
	expect(t, e.do(http.MethodGet, base+"/preview?slot=x", nil), http.StatusBadRequest)
	expect(t, e.do(http.MethodPost, base+"/place", map[string]any{"slot": 0, "bogus": 1}), http.StatusBadRequest)

	// 未終局不能結算
	expect(t, e.do(http.MethodPost, base+"/finish", nil), http.StatusConflict)

	expect(t, e.do(http.MethodPost, base+"/suspend", nil), http.StatusOK)
	expect(t, e.do(http.MethodGet, base, nil), http.StatusNotFound)
	rec = e.do(http.MethodPost, base+"/resume", nil)
	expect(t, rec, http.StatusOK)
	back := decode[v1.RoundResponse](t, rec)
	if back.ID != open.ID || back.View.Placements != 1 || back.View.Score != placed.View.Score {
		t.Fatalf("resume = %+v", back)
	}

	st := decode[blastlab.RuntimeStats](t, e.do(http.MethodGet, "/v1/stats", nil))
	if st.Live != 1 || st.Opened != 1 || st.Resumed != 1 {
		t.Fatalf("stats = %+v", st)
	}

	rec = e.do(http.MethodGet, base+"/snapshot", nil)
	expect(t, rec, http.StatusOK)
	tok := decode[v1.SnapshotToken](t, rec)
	// 同 id 仍在線上，不能重複匯入
	expect(t, e.do(http.MethodPost, "/v1/rounds/import", tok), http.StatusConflict)

	expect(t, e.do(http.MethodDelete, base, nil), http.StatusNoContent)
	expect(t, e.do(http.MethodDelete, base, nil), http.StatusNotFound)

	rec = e.do(http.MethodPost, "/v1/rounds/import", v1.SnapshotToken{Token: tok.Token})
	expect(t, rec, http.StatusCreated)
	if imp := decode[v1.RoundResponse](t, rec); imp.ID != open.ID || imp.View.Score != back.View.Score {
		t.Fatalf("import = %+v", imp)
	}
	expect(t, e.do(http.MethodPost, "/v1/rounds/import", v1.SnapshotToken{Token: "!!"}), http.StatusBadRequest)
}

func TestNotFoundAndMeta(t *testing.T) {
	e := newAPI(t)

	rec := e.do(http.MethodGet, "/v1/rounds/nope", nil)
	expect(t, rec, http.StatusNotFound)
	if b := decode[httperr.Body](t, rec); b.Code != "not_found" {
		t.Fatalf("body = %+v", b)
	}
	expect(t, e.do(http.MethodPost, "/v1/rounds/nope/resume", nil), http.StatusNotFound)

	best := decode[map[string]any](t, e.do(http.MethodGet, "/v1/best", nil))
	if best["best"].(float64) != 0 || best["profile"] != "standard" {
		t.Fatalf("best = %v", best)
	}
	res := e.do(http.MethodGet, "/v1/results?limit=5", nil)
	expect(t, res, http.StatusOK)
	if !strings.Contains(res.Body.String(), `"results":[]`) {
		t.Fatalf("results = %s", res.Body.String())
	}
	expect(t, e.do(http.MethodGet, "/v1/results?limit=abc", nil), http.StatusBadRequest)

	prof := e.do(http.MethodGet, "/v1/profiles", nil)
	expect(t, prof, http.StatusOK)
	for _, want := range []string{`"default":"standard"`, `"relaxed"`} {
		if !strings.Contains(prof.Body.String(), want) {
			t.Fatalf("profiles missing %s: %s", want, prof.Body.String())
		}
	}
}

func TestSimEndpoint(t *testing.T) {
	e := newAPI(t)

	rec := e.do(http.MethodGet, "/v1/sim?rounds=4&workers=2&seed=7&max_placements=20", nil)
	expect(t, rec, http.StatusOK)
	a := decode[v1.SimResponse](t, rec)
	if a.Seed != 7 || a.Profile != "standard" || a.Stats.Summary.Rounds != 4 {
		t.Fatalf("sim = %+v", a)
	}

	seed := int64(7)
	rec = e.do(http.MethodPost, "/v1/sim", v1.SimRequest{Rounds: 4, Workers: 2, MaxPlace: 20, Seed: &seed})
	expect(t, rec, http.StatusOK)
	b := decode[v1.SimResponse](t, rec)
	if b.Stats.Summary.TotalScore != a.Stats.Summary.TotalScore {
		t.Fatalf("same seed, different totals: %d vs %d", a.Stats.Summary.TotalScore, b.Stats.Summary.TotalScore)
	}

	expect(t, e.do(http.MethodGet, "/v1/sim?rounds=0", nil), http.StatusBadRequest)
	expect(t, e.do(http.MethodGet, "/v1/sim?rounds=51", nil), http.StatusBadRequest)
	expect(t, e.do(http.MethodGet, "/v1/sim?rounds=2&profile=ghost", nil), http.StatusNotFound)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
