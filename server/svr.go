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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/blastlab"
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/server/api"
	"github.com/zintix-labs/blastlab/server/app"
	"github.com/zintix-labs/blastlab/server/netsvr"
	"github.com/zintix-labs/blastlab/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrCfg（包含必要依賴，例如 logger、Blastlab）。
//  2. 以 SvrCfg.Store 建立 RoundRuntime。
//  3. 建立 HTTP server（netsvr），註冊路由與 middleware（api.RegisterRoutes）。
//  4. 以 app.Run() 同時管理 HTTP server 與閒置局清理，並回傳停止原因。
//
// 注意：Run 不綁定任何「檔案路徑」或「環境變數」策略；那些屬於 cmd/svr。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	svr := netsvr.NewChiServer(sCfg.Addr, netsvr.Timeouts{})
	return RunWithSvr(sCfg, svr)
}

// RunWithSvr 與 Run() 相同，差別在於允許呼叫端注入自訂的 NetSvr。
//
// svr 參數必須非 nil，且若是 ChiAdapter 會要求 Ready() 為 true（避免注入不完整的 server）。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("default server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}

	rt, err := Assemble(sCfg, svr)
	if err != nil {
		sCfg.Log.Error("assemble failed", slog.Any("err", err))
		return err
	}

	// 後註冊先關：HTTP 先停止接新請求，再關 runtime 與 store
	a := app.NewWith(NewJanitor(rt), svr)
	a.SetLogger(sCfg.Log)
	sCfg.Log.Info("[blastlab] listening on http://localhost"+svr.Address(), slog.String("profile", rt.Profile()))
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped:", slog.Any("err", err))
		return err
	}
	return nil
}

// Assemble 建立 RoundRuntime 並把路由掛到 router 上，不啟動任何東西。
//
// 測試或嵌入到既有服務時可直接使用。sCfg 必須已通過 Valid。
func Assemble(sCfg *svrcfg.SvrCfg, router netsvr.NetRouter) (*blastlab.RoundRuntime, error) {
	rt, err := sCfg.Lab.BuildRuntime(sCfg.Store,
		blastlab.WithProfile(sCfg.Profile),
		blastlab.WithIdleTTL(sCfg.IdleTTL),
		blastlab.WithMaxSessions(sCfg.MaxSessions),
		blastlab.WithLogger(sCfg.Log),
	)
	if err != nil {
		return nil, err
	}
	if err := api.RegisterRoutes(router, sCfg, rt); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// NewJanitor 把 RoundRuntime 的閒置清理迴圈包成 app.Component。
//
// Shutdown 時關閉 runtime 並關閉 store。
func NewJanitor(rt *blastlab.RoundRuntime) *app.Background {
	return app.NewBackground(rt.Run, func(ctx context.Context) error {
		rt.Close()
		return rt.Store().Close()
	})
}
