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

// Package core 提供可注入、可設定種子的亂數來源。
//
// 引擎本身唯一的非決定性輸入就是抽塊（Drawer）時的亂數，因此所有抽樣都必須經過這裡的介面：
//   - 正式環境：每個 Session 以自己的 seed 建立獨立的 PRNG，Session 之間不共享任何可變狀態。
//   - 測試：直接塞入腳本化的 RAND 實作，就能精準斷言抽到哪個尺寸類別、哪一塊。
package core

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// Float64 與 IntN 是引擎實際用到的兩個均勻抽樣：
//   - Float64 給尺寸類別的累積機率比較（對應原本 rand < 0.6 這種寫法）。
//   - IntN 給同類別內的等機率挑塊。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 以 seed 建立 PRNG。
//
// 合約：在同一個實作與同一個版本下，New(seed) 必須是「決定性」的，
// 相同的 seed 必須產生相同的輸出序列（模擬、回放、測試都靠這一點）。
type PRNGFactory interface {
	New(int64) PRNG
}

// DefaultPRNG 預設工廠（PCG64）
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// PCG32Factory 產生 32-bit 輸出的 PCG，適合 32-bit 平台。
type PCG32Factory struct{}

func (f *PCG32Factory) New(seed int64) PRNG {
	return newPCG32WithSeed(seed)
}

// FactoryByName 依設定檔的名稱取得工廠，未知名稱回傳 nil。
func FactoryByName(name string) PRNGFactory {
	switch name {
	case "", "pcg64":
		return Default()
	case "pcg32":
		return &PCG32Factory{}
	default:
		return nil
	}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	idx := c.IntN(len(src))
	return src[idx]
}
