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

// Package blastlab 提供 Block Blast 引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Blastlab 把下列地基組裝在一起：
//  1. Catalog：具名的平衡設定檔（balance profile），每個 profile 對應一份 spec.BalanceSetting。
//  2. Rules：由設定預先建好的抽塊 CDF 與計分常數，建好後唯讀、可被所有 Session 共用。
//  3. PRNGFactory：依設定檔的 rng 欄位選擇亂數工廠，保證同一 seed 可重現同一局。
//
// 設定檔來源一律以 fs.FS 注入；不給任何來源時使用內嵌的 configs/。
//
// 典型使用情境：
//   - 後端服務：BuildRuntime 取得 RoundRuntime，HTTP handler 只操作 runtime。
//   - 模擬器：NewSimulator 以自動出塊策略跑大量對局，驗證平衡設定。
//   - 終端機試玩：NewSession 直接操作單一 Session。
package blastlab

import (
	"crypto/rand"
	"embed"
	"io/fs"
	"math"
	"math/big"

	"github.com/zintix-labs/blastlab/catalog"
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/sdk/core"
	"github.com/zintix-labs/blastlab/spec"
	"github.com/zintix-labs/blastlab/store"
)

//go:embed configs/*.yaml
var embedded embed.FS

// DefaultProfile 內嵌設定中的預設 profile 名稱
const DefaultProfile = "standard"

// DefaultConfigs 回傳內嵌的設定檔目錄（扁平 fs.FS）
func DefaultConfigs() fs.FS {
	sub, err := fs.Sub(embedded, "configs")
	if err != nil {
		panic(errs.Wrap(err, "embedded configs missing"))
	}
	return sub
}

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把設定編進 binary，也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// profile 一組已驗證、已預先計算的平衡設定
type profile struct {
	bs    *spec.BalanceSetting
	rules *blast.Rules
	cf    core.PRNGFactory
}

// Blastlab 是組裝器：建好之後只讀，可以被多個 goroutine 共用。
type Blastlab struct {
	cat      *catalog.Catalog
	profiles map[string]*profile
	def      string
	sum      []catalog.Summary
}

// New 建立 Blastlab，掃描所有來源並註冊其中的平衡設定。
//
// 有名為 standard 的 profile 時它就是預設值，否則取名稱排序後的第一個。
func New(cfgs []fs.FS) (*Blastlab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewCode(errs.Fatal, errs.CodeConfig, "configs required")
	}
	cat, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	if err := cat.RegisterAll(); err != nil {
		return nil, err
	}
	cat.Freeze()

	names := cat.Names()
	if len(names) == 0 {
		return nil, errs.NewCode(errs.Fatal, errs.CodeConfig, "no balance profile found")
	}
	lab := &Blastlab{
		cat:      cat,
		profiles: make(map[string]*profile, len(names)),
		def:      names[0],
		sum:      cat.Summaries(),
	}
	for _, n := range names {
		bs, err := cat.Balance(n)
		if err != nil {
			return nil, err
		}
		cf := core.FactoryByName(bs.RNG)
		if cf == nil {
			return nil, errs.NewCode(errs.Fatal, errs.CodeConfig, "unknown rng").With(bs.RNG)
		}
		rules, err := blast.NewRules(bs)
		if err != nil {
			return nil, err
		}
		lab.profiles[n] = &profile{bs: bs, rules: rules, cf: cf}
		if n == DefaultProfile {
			lab.def = n
		}
	}
	return lab, nil
}

// NewDefault 以內嵌設定建立 Blastlab
func NewDefault() (*Blastlab, error) {
	return New(Configs(DefaultConfigs()))
}

// Default 回傳預設 profile 名稱
func (b *Blastlab) Default() string {
	return b.def
}

// Profiles 列出所有 profile 的摘要（名稱排序）
func (b *Blastlab) Profiles() []catalog.Summary {
	return append([]catalog.Summary(nil), b.sum...)
}

// Balance 回傳設定副本。name 為空字串時使用預設 profile。
func (b *Blastlab) Balance(name string) (*spec.BalanceSetting, error) {
	if name == "" {
		name = b.def
	}
	return b.cat.Balance(name)
}

// Rules 回傳共用的唯讀規則
func (b *Blastlab) Rules(name string) (*blast.Rules, error) {
	p, err := b.profile(name)
	if err != nil {
		return nil, err
	}
	return p.rules, nil
}

func (b *Blastlab) profile(name string) (*profile, error) {
	if name == "" {
		name = b.def
	}
	e, ok := b.cat.Get(name)
	if !ok {
		return nil, errs.NotFound("profile not found").With(name)
	}
	return b.profiles[e.Name], nil
}

// NewSession 以隨機 seed 建立一局
func (b *Blastlab) NewSession(name string) (*Session, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return b.NewSessionWithSeed(name, seed)
}

// NewSessionWithSeed 以指定 seed 建立一局。同一個 profile 與 seed，在相同操作序列下得到完全相同的局。
func (b *Blastlab) NewSessionWithSeed(name string, seed int64) (*Session, error) {
	p, err := b.profile(name)
	if err != nil {
		return nil, err
	}
	return newSession(newSessionID(), p.bs.Name, seed, p), nil
}

// NewSimulator 以隨機 seed 建立模擬器
func (b *Blastlab) NewSimulator(name string) (*Simulator, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return b.NewSimulatorWithSeed(name, seed)
}

// NewSimulatorWithSeed 以指定 seed 建立模擬器，結果可重現。
func (b *Blastlab) NewSimulatorWithSeed(name string, seed int64) (*Simulator, error) {
	p, err := b.profile(name)
	if err != nil {
		return nil, err
	}
	return newSimulator(p, seed), nil
}

// BuildRuntime 建立對外服務用的 RoundRuntime。st 為 nil 時使用行程內的 store.Memory。
func (b *Blastlab) BuildRuntime(st store.ScoreStore, opts ...RuntimeOption) (*RoundRuntime, error) {
	if st == nil {
		st = store.NewMemory()
	}
	return newRoundRuntime(b, st, opts...)
}

// cryptoSeed 對外服務情境避免可預測的 seed；seed 仍會記錄在 Session 上以便追溯。
func cryptoSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return seed.Int64(), nil
}
