package v1

import (
	"crypto/rand"
	"encoding/binary"
	"net/http"
	"strconv"

	"github.com/zintix-labs/blastlab"
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/server/httperr"
	"github.com/zintix-labs/blastlab/server/svrcfg"
	"github.com/zintix-labs/blastlab/stats"
)

// SimRequest 模擬參數。GET 走查詢字串，POST 走 JSON。
type SimRequest struct {
	Profile  string `json:"profile"`
	Rounds   int    `json:"rounds"`
	Workers  int    `json:"workers"`
	MaxPlace int    `json:"max_placements"`
	Seed     *int64 `json:"seed,omitempty"`
}

type SimResponse struct {
	Profile  string            `json:"profile"`
	Seed     int64             `json:"seed"`
	Stats    *stats.StatReport `json:"stats"`
	UsedTime int64             `json:"used_ms"`
}

type SimHandler struct {
	lab        *blastlab.Blastlab
	maxRounds  int
	maxWorkers int
}

func NewSimHandler(sCfg *svrcfg.SvrCfg) (*SimHandler, error) {
	if sCfg == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("blastlab is required")
	}
	return &SimHandler{lab: sCfg.Lab, maxRounds: sCfg.SimMaxRounds, maxWorkers: sCfg.SimMaxWorkers}, nil
}

func (sh *SimHandler) parse(r *http.Request) (*SimRequest, error) {
	req := &SimRequest{Workers: 1}
	if r.Method == http.MethodPost {
		return req, nil
	}
	q := r.URL.Query()
	req.Profile = q.Get("profile")
	var err error
	if req.Rounds, err = queryInt(r, "rounds", 0); err != nil {
		return nil, err
	}
	if req.Workers, err = queryInt(r, "workers", 1); err != nil {
		return nil, err
	}
	if req.MaxPlace, err = queryInt(r, "max_placements", 0); err != nil {
		return nil, err
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("seed must be int64")
		}
		req.Seed = &v
	}
	return req, nil
}

// Sim GET|POST /v1/sim
func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := sh.parse(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if r.Method == http.MethodPost && !decodeJSON(w, r, req) {
		return
	}
	// 業務檢驗
	if req.Rounds < 1 || req.Rounds > sh.maxRounds {
		httperr.Errs(w, errs.Warnf("rounds must be between 1 and %d", sh.maxRounds))
		return
	}
	if req.Workers < 1 {
		httperr.Errs(w, errs.NewWarn("workers must > 0"))
		return
	}
	req.Workers = min(req.Workers, sh.maxWorkers)
	if req.MaxPlace < 0 {
		httperr.Errs(w, errs.NewWarn("max_placements must be non-negative"))
		return
	}
	if req.Seed == nil {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			httperr.Errs(w, errs.Wrap(err, "seed generate failed"))
			return
		}
		v := int64(binary.LittleEndian.Uint64(b[:]) >> 1)
		req.Seed = &v
	}

	sim, err := sh.lab.NewSimulatorWithSeed(req.Profile, *req.Seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "build simulator"))
		return
	}
	if req.MaxPlace > 0 {
		sim.SetMaxPlacements(req.MaxPlace)
	}
	// 客戶端斷線即停止
	st, used, err := sim.SimMPContext(r.Context(), req.Rounds, req.Workers, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate"))
		return
	}
	writeJSON(w, http.StatusOK, SimResponse{
		Profile:  sim.Profile,
		Seed:     sim.Seed(),
		Stats:    st,
		UsedTime: used.Milliseconds(),
	})
}
