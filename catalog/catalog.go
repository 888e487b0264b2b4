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

// Package catalog 管理具名的平衡設定檔（balance profile）。
//
// 設定檔來源為一或多個「扁平」的 fs.FS（不得有子目錄），檔名必須唯一。
// 每個檔案宣告一組 spec.BalanceSetting，以檔內 name 欄位作為對外名稱。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/spec"
)

var (
	ErrDupName   = errs.NewCode(errs.Fatal, errs.CodeConfig, "duplicate profile name")
	ErrDupConfig = errs.NewCode(errs.Fatal, errs.CodeConfig, "duplicate config name")
	ErrFrozen    = errs.NewWarn("can not register when catalog already frozen")
)

type Entry struct {
	Name       string
	ConfigName string
}

// Summary 對外列舉用的摘要
type Summary struct {
	Name        string `json:"name"`
	Config      string `json:"config"`
	RNG         string `json:"rng"`
	Bands       int    `json:"bands"`
	CellPoints  int    `json:"cell_points"`
	LinePoints  int    `json:"line_points"`
	PayoutRatio int    `json:"payout_ratio"`
}

type Catalog struct {
	byName   map[string]Entry
	settings map[string]*spec.BalanceSetting
	names    []string            // 用來穩定排序
	unique   map[string]struct{} // 檔名需唯一
	config   *multiFS
	frozen   bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName:   map[string]Entry{},
		settings: map[string]*spec.BalanceSetting{},
		names:    make([]string, 0, 16),
		unique:   map[string]struct{}{},
		config:   multFS,
		frozen:   false,
	}, nil
}

// Register 註冊一批設定檔。
//
// 全部檔案都解析成功且名稱不衝突時才會一次寫入，不會留下註冊一半的狀態。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return ErrFrozen
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	parsed := make([]*spec.BalanceSetting, len(metas))
	for i := range metas {
		meta := &metas[i]
		meta.Name = normName(meta.Name)
		if meta.Name == "" {
			return errs.NewCode(errs.Fatal, errs.CodeConfig, "profile name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName.With(meta.Name)
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return ErrDupConfig.With(meta.ConfigName)
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName.With(meta.Name)
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return ErrDupConfig.With(meta.ConfigName)
		}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}

		src, _ := c.config.GetFS(meta.ConfigName)
		bs, err := spec.LoadBalance(src, meta.ConfigName)
		if err != nil {
			return errs.Wrap(err, "load profile "+meta.ConfigName)
		}
		parsed[i] = bs
	}
	for i, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[meta.Name] = meta
		c.settings[meta.Name] = parsed[i]
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

// RegisterAll 掃描所有來源的 .yaml/.yml/.json，以檔內 name 為名稱一次註冊。
//
// 依檔名排序後處理，任何一個檔案失敗都會直接回傳錯誤。
func (c *Catalog) RegisterAll() error {
	sources := c.config.Sources()
	if len(sources) == 0 {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, "configs required")
	}
	files := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		files = append(files, name)
	}
	sort.Strings(files)

	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		src, _ := c.config.GetFS(file)
		bs, err := spec.LoadBalance(src, file)
		if err != nil {
			return errs.Wrap(err, "parse balance failed: "+file)
		}
		entries = append(entries, Entry{Name: bs.Name, ConfigName: file})
	}
	return c.Register(entries...)
}

func (c *Catalog) Get(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		m = append(m, c.byName[n])
	}
	return m
}

// Balance 回傳設定的副本，呼叫端修改不會影響 catalog。
func (c *Catalog) Balance(name string) (*spec.BalanceSetting, error) {
	bs, ok := c.settings[normName(name)]
	if !ok {
		return nil, errs.NotFound("profile not found").With(name)
	}
	cp := *bs
	cp.Bands = append([]spec.BandSetting(nil), bs.Bands...)
	return &cp, nil
}

func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.names))
	for _, n := range c.names {
		bs := c.settings[n]
		out = append(out, Summary{
			Name:        n,
			Config:      c.byName[n].ConfigName,
			RNG:         bs.RNG,
			Bands:       len(bs.Bands),
			CellPoints:  bs.CellPoints,
			LinePoints:  bs.LinePoints,
			PayoutRatio: bs.PayoutRatio,
		})
	}
	return out
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, "empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("invalid config filename: %q (must be a basename)", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾
	if !isConfigExt(file) {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigExt(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewCode(errs.Fatal, errs.CodeConfig, "no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 16),
	}

	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 設定目錄必須是扁平的，只允許根目錄
				if path == "." {
					return nil
				}
				return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if strings.HasPrefix(path, ".") || !isConfigExt(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewCode(errs.Fatal, errs.CodeConfig, fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

func (m *multiFS) Sources() []fs.FS {
	if m == nil || len(m.src) == 0 {
		return nil
	}
	return append([]fs.FS(nil), m.src...)
}
