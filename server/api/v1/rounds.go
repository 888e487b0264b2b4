package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/zintix-labs/blastlab"
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/server/httperr"
	"github.com/zintix-labs/blastlab/server/netsvr"
	"github.com/zintix-labs/blastlab/snapfmt"
)

var errNoMove = errs.NotFound("no legal move")

// RoundResponse 開局、查詢、續局共用
type RoundResponse struct {
	ID      string          `json:"id"`
	Profile string          `json:"profile"`
	View    blast.RoundView `json:"view"`
}

// PlaceRequest 放置請求；centered 為 true 時 (row, col) 是塊的中心格
type PlaceRequest struct {
	Slot     int  `json:"slot"`
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	Centered bool `json:"centered"`
}

// SnapshotToken 快照的文字形式，可用 POST /v1/rounds/import 還原
type SnapshotToken struct {
	ID    string `json:"id,omitempty"`
	Token string `json:"token"`
}

type PlaceResponse struct {
	Result blast.PlaceResult `json:"result"`
	View   blast.RoundView   `json:"view"`
}

// ============================================================
// ** RoundHandler **
// ============================================================

type RoundHandler struct {
	rt      *blastlab.RoundRuntime
	timeout time.Duration
}

func NewRoundHandler(rt *blastlab.RoundRuntime, timeout time.Duration) (*RoundHandler, error) {
	if rt == nil {
		return nil, errs.NewFatal("round runtime is required")
	}
	return &RoundHandler{rt: rt, timeout: timeout}, nil
}

func (h *RoundHandler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func roundResponse(s *blastlab.Session) RoundResponse {
	return RoundResponse{ID: s.ID(), Profile: s.Profile(), View: s.View()}
}

// Open POST /v1/rounds
func (h *RoundHandler) Open(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	s, err := h.rt.Open(ctx)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, roundResponse(s))
}

// View GET /v1/rounds/{id}
func (h *RoundHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	s, err := h.rt.Get(ctx, netsvr.URLParam(r, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roundResponse(s))
}

// Place POST /v1/rounds/{id}/place
func (h *RoundHandler) Place(w http.ResponseWriter, r *http.Request) {
	req := new(PlaceRequest)
	if !decodeJSON(w, r, req) {
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	res, view, err := h.rt.Place(ctx, netsvr.URLParam(r, "id"), req.Slot, req.Row, req.Col, req.Centered)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PlaceResponse{Result: res, View: view})
}

// Preview GET /v1/rounds/{id}/preview?slot=&row=&col=&centered=
func (h *RoundHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var (
		req PlaceRequest
		err error
	)
	if req.Slot, err = queryInt(r, "slot", -1); err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Row, err = queryInt(r, "row", 0); err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Col, err = queryInt(r, "col", 0); err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Centered, err = queryBool(r, "centered"); err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	pv, err := h.rt.Preview(ctx, netsvr.URLParam(r, "id"), req.Slot, req.Row, req.Col, req.Centered)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

// Hint GET /v1/rounds/{id}/hint，沒有合法步時回 404
func (h *RoundHandler) Hint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	m, ok, err := h.rt.Hint(ctx, netsvr.URLParam(r, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if !ok {
		httperr.Errs(w, errNoMove)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Finish POST /v1/rounds/{id}/finish
func (h *RoundHandler) Finish(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	out, err := h.rt.Finish(ctx, netsvr.URLParam(r, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Suspend POST /v1/rounds/{id}/suspend
func (h *RoundHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	id := netsvr.URLParam(r, "id")
	if err := h.rt.Suspend(ctx, id); err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "suspended"})
}

// Resume POST /v1/rounds/{id}/resume
func (h *RoundHandler) Resume(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	s, err := h.rt.Resume(ctx, netsvr.URLParam(r, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roundResponse(s))
}

// Discard DELETE /v1/rounds/{id}
func (h *RoundHandler) Discard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	if err := h.rt.Discard(ctx, netsvr.URLParam(r, "id")); err != nil {
		httperr.Errs(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Snapshot GET /v1/rounds/{id}/snapshot
func (h *RoundHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	s, err := h.rt.Get(ctx, netsvr.URLParam(r, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	blob, err := s.Snapshot()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotToken{ID: s.ID(), Token: snapfmt.EncodeToken(blob)})
}

// Import POST /v1/rounds/import
func (h *RoundHandler) Import(w http.ResponseWriter, r *http.Request) {
	req := new(SnapshotToken)
	if !decodeJSON(w, r, req) {
		return
	}
	blob, err := snapfmt.DecodeToken(req.Token)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	s, err := h.rt.Import(ctx, blob)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, roundResponse(s))
}

// Best GET /v1/best
func (h *RoundHandler) Best(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	best, err := h.rt.Best(ctx)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": h.rt.Profile(), "best": best})
}

// Results GET /v1/results?limit=
func (h *RoundHandler) Results(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	list, err := h.rt.Recent(ctx, limit)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": list})
}

// Stats GET /v1/stats
func (h *RoundHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rt.Stats())
}

// Profiles GET /v1/profiles
func (h *RoundHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	lab := h.rt.Lab()
	writeJSON(w, http.StatusOK, map[string]any{
		"default":  lab.Default(),
		"active":   h.rt.Profile(),
		"profiles": lab.Profiles(),
	})
}
