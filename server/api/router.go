// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"log/slog"
	"net/http"

	"github.com/zintix-labs/blastlab"
	v1 "github.com/zintix-labs/blastlab/server/api/v1"
	"github.com/zintix-labs/blastlab/server/netsvr"
	"github.com/zintix-labs/blastlab/server/netsvr/middleware"
	"github.com/zintix-labs/blastlab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware、健康檢查與 v1 api
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *blastlab.RoundRuntime) error {
	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	registerHealth(svr, rt)           // 2. 健康檢查
	return registerV1API(svr, sCfg, rt)
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

func registerHealth(svr netsvr.NetRouter, rt *blastlab.RoundRuntime) {
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if rt.Closed() {
			http.Error(w, rt.ClosedReason(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *blastlab.RoundRuntime) error {
	rh, err := v1.NewRoundHandler(rt, sCfg.RequestTimeout)
	if err != nil {
		return err
	}
	sh, err := v1.NewSimHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Post("/rounds", rh.Open)
		vOne.Post("/rounds/import", rh.Import)
		vOne.Get("/rounds/{id}", rh.View)
		vOne.Delete("/rounds/{id}", rh.Discard)
		vOne.Post("/rounds/{id}/place", rh.Place)
		vOne.Get("/rounds/{id}/preview", rh.Preview)
		vOne.Get("/rounds/{id}/hint", rh.Hint)
		vOne.Post("/rounds/{id}/finish", rh.Finish)
		vOne.Post("/rounds/{id}/suspend", rh.Suspend)
		vOne.Post("/rounds/{id}/resume", rh.Resume)
		vOne.Get("/rounds/{id}/snapshot", rh.Snapshot)

		vOne.Get("/best", rh.Best)
		vOne.Get("/results", rh.Results)
		vOne.Get("/stats", rh.Stats)
		vOne.Get("/profiles", rh.Profiles)

		vOne.Get("/sim", sh.Sim)
		vOne.Post("/sim", sh.Sim)
	})
	return nil
}
