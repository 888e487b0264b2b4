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

package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/zintix-labs/blastlab"
	"github.com/zintix-labs/blastlab/server"
	"github.com/zintix-labs/blastlab/server/logger"
	"github.com/zintix-labs/blastlab/server/svrcfg"
	"github.com/zintix-labs/blastlab/store"
)

// blastlab 的 HTTP 入口。設定來源優先序：flag > 環境變數 > YAML 檔 > 預設值。
func main() {
	sCfg, closeLog, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = server.Run(sCfg)
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	var (
		path    string
		addr    string
		logMode string
		profile string
	)
	flag.StringVar(&path, "config", "", "server config yaml (optional)")
	flag.StringVar(&addr, "addr", "", "listen address, e.g. :5808")
	flag.StringVar(&logMode, "log-mode", "", "log mode: dev|prod|silence")
	flag.StringVar(&profile, "profile", "", "balance profile for new rounds")
	flag.Parse()

	fc := svrcfg.DefaultFileCfg()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		fc, err = svrcfg.LoadFileCfg(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
	}
	fc.ApplyEnv(os.Getenv)
	if addr != "" {
		fc.Addr = addr
	}
	if logMode != "" {
		fc.LogMode = logMode
	}
	if profile != "" {
		fc.Profile = profile
	}

	mode, err := logger.ParseLogMode(fc.LogMode)
	if err != nil {
		return nil, nil, err
	}
	log, ah := logger.NewAsync(4096, mode)

	cfgs := []fs.FS{blastlab.DefaultConfigs()}
	if fc.ConfigsDir != "" {
		cfgs = append(cfgs, os.DirFS(fc.ConfigsDir))
	}
	lab, err := blastlab.New(cfgs)
	if err != nil {
		ah.Close()
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := store.Open(ctx, fc.DatabaseURL, fc.SQLitePath)
	if err != nil {
		ah.Close()
		return nil, nil, err
	}

	sCfg := &svrcfg.SvrCfg{
		Log:            log,
		Lab:            lab,
		Store:          st,
		Addr:           fc.Addr,
		Profile:        fc.Profile,
		IdleTTL:        fc.IdleTTL.Duration,
		MaxSessions:    fc.MaxSessions,
		RequestTimeout: fc.Timeout.Duration,
		SimMaxRounds:   fc.SimMaxRounds,
		SimMaxWorkers:  fc.SimWorkers,
	}
	return sCfg, ah.Close, nil
}
