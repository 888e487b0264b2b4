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

// Package perf 提供模擬器的 pprof 包裝，profile 檔寫到 build/profiling。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/blastlab/errs"
)

// DefaultDir pprof檔案寫入路徑
const DefaultDir = "build/profiling"

// Modes 支援的 profile 類型；空字串代表不開 profiling
var Modes = []string{"", "cpu", "heap", "allocs", "block", "mutex"}

// ValidMode 檢查 mode 是否支援
func ValidMode(mode string) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// RunPProf 根據 mode 決定執行哪種 Profiling，exe 的錯誤原樣回傳。
//
// Usage like:
//
//	go run ./cmd/run -p cpu
//	go tool pprof build/profiling/cpu.pprof
func RunPProf(dir, mode string, exe func() error) error {
	if !ValidMode(mode) {
		return errs.Warnf("unknown pprof mode %q", mode)
	}
	if mode == "" {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create profiling dir")
	}
	path := filepath.Join(dir, mode+".pprof")

	switch mode {
	case "cpu":
		return profCPU(path, exe)
	case "block":
		runtime.SetBlockProfileRate(1)
		defer runtime.SetBlockProfileRate(0)
	case "mutex":
		runtime.SetMutexProfileFraction(1)
		defer runtime.SetMutexProfileFraction(0)
	}
	if err := exe(); err != nil {
		return err
	}
	// heap 快照前先 GC，讓 in-use 視圖貼近存活物件
	if mode == "heap" {
		runtime.GC()
	}
	return writeLookup(path, mode)
}

// profCPU 可以作性能分析，也可以拿來做構建時給pgo的優化blueprint
func profCPU(path string, exe func() error) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create cpu profile")
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

func writeLookup(path, name string) error {
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.Fatalf("pprof profile %q not found", name)
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create "+name+" profile")
	}
	defer f.Close()
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+name+" profile")
	}
	return nil
}
