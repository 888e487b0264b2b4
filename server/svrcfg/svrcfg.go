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

// Package svrcfg 集中 server 需要的所有依賴與參數。
//
// SvrCfg 是已組裝好的依賴（logger、Blastlab、ScoreStore）；FileCfg 是可以寫在 YAML 裡的純設定，
// 由 cmd/svr 讀檔、套用環境變數後轉成 SvrCfg。
package svrcfg

import (
	"bytes"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/zintix-labs/blastlab"
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/server/logger"
	"github.com/zintix-labs/blastlab/store"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr           = ":5808"
	DefaultIdleTTL        = 10 * time.Minute
	DefaultRequestTimeout = 5 * time.Second
	DefaultSimMaxRounds   = 100000
	DefaultSimMaxWorkers  = 8
)

type SvrCfg struct {
	Log            *slog.Logger
	Lab            *blastlab.Blastlab
	Store          store.ScoreStore
	Addr           string
	Profile        string        // 新局使用的 profile，空字串為預設
	IdleTTL        time.Duration // <= 0 不淘汰
	MaxSessions    int           // <= 0 不限制
	RequestTimeout time.Duration
	SimMaxRounds   int
	SimMaxWorkers  int
}

func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Lab == nil {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, "blastlab is required")
	}
	if sc.Store == nil {
		sc.Store = store.NewMemory()
	}
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if sc.RequestTimeout <= 0 {
		sc.RequestTimeout = DefaultRequestTimeout
	}
	// 模擬很吃 CPU，上限要收斂
	if sc.SimMaxRounds <= 0 {
		sc.SimMaxRounds = DefaultSimMaxRounds
	}
	sc.SimMaxWorkers = max(1, sc.SimMaxWorkers)
	sc.SimMaxWorkers = min(64, sc.SimMaxWorkers)
	if _, err := sc.Lab.Rules(sc.Profile); err != nil {
		return errs.Wrap(err, "server profile")
	}
	return nil
}

// FileCfg 設定檔內容
type FileCfg struct {
	Addr         string   `yaml:"addr"`
	LogMode      string   `yaml:"log_mode"`
	ConfigsDir   string   `yaml:"configs_dir"` // 空字串使用內嵌設定
	Profile      string   `yaml:"profile"`
	IdleTTL      Duration `yaml:"idle_ttl"`
	MaxSessions  int      `yaml:"max_sessions"`
	Timeout      Duration `yaml:"request_timeout"`
	SimMaxRounds int      `yaml:"sim_max_rounds"`
	SimWorkers   int      `yaml:"sim_max_workers"`
	SQLitePath   string   `yaml:"sqlite_path"`
	DatabaseURL  string   `yaml:"database_url"`
}

// Duration 讓 YAML 可以寫 "10m"、"30s"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Value == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(n.Value)
	if err != nil {
		return errs.Wrap(err, "invalid duration "+strconv.Quote(n.Value))
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// DefaultFileCfg 不讀任何檔案時的設定
func DefaultFileCfg() *FileCfg {
	return &FileCfg{
		Addr:         DefaultAddr,
		LogMode:      "dev",
		IdleTTL:      Duration{DefaultIdleTTL},
		Timeout:      Duration{DefaultRequestTimeout},
		SimMaxRounds: DefaultSimMaxRounds,
		SimWorkers:   DefaultSimMaxWorkers,
	}
}

// LoadFileCfg 以 DefaultFileCfg 為底讀取 YAML，未知欄位直接報錯。
func LoadFileCfg(r io.Reader) (*FileCfg, error) {
	fc := DefaultFileCfg()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(err, "read server config")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fc, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil {
		return nil, errs.NewCode(errs.Fatal, errs.CodeConfig, "failed to unmarshall server config").With(err.Error())
	}
	return fc, nil
}

// ApplyEnv 以環境變數覆寫設定：BLASTLAB_ADDR、BLASTLAB_LOG、BLASTLAB_PROFILE、BLASTLAB_SQLITE、DATABASE_URL。
func (fc *FileCfg) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&fc.Addr, "BLASTLAB_ADDR")
	set(&fc.LogMode, "BLASTLAB_LOG")
	set(&fc.Profile, "BLASTLAB_PROFILE")
	set(&fc.SQLitePath, "BLASTLAB_SQLITE")
	set(&fc.DatabaseURL, "DATABASE_URL")
}
