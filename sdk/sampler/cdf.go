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

// Package sampler 提供加權抽樣工具。
//
// 本檔案 (cdf.go) 實作累積分佈 (Cumulative Distribution) 抽樣：
//   - 建表：把權重正規化後做前綴和，最後一個正權重項目強制為 1。
//   - 抽樣：取一個 [0,1) 均勻亂數 u，回傳第一個 u < cum[i] 的 i。
//
// 和 LUT / AliasTable 相比，CDF 只消耗「一次」Float64，
// 因此呼叫端可以用腳本化的亂數來源精準控制抽到哪一格（尺寸類別抽樣的測試就靠這點）。
// 類別數很少（Block Blast 只有 3 類），線性掃描就足夠。

package sampler

import (
	"math"

	"github.com/zintix-labs/blastlab/sdk/core"
)

// CDF 累積分佈表
type CDF struct {
	cum []float64
}

// BuildCDF 依權重建立累積分佈表。
//
// 權重不需事先正規化；負權重、NaN、全部為零都會 panic（視為設定錯誤，應在載入設定時先擋下）。
// 權重為 0 的項目永遠不會被抽中。
func BuildCDF[T Numbers](weights []T) *CDF {
	if len(weights) == 0 {
		panic("cdf: empty weights")
	}
	total := 0.0
	for _, w := range weights {
		fw := float64(w)
		if fw < 0 || math.IsNaN(fw) || math.IsInf(fw, 0) {
			panic("cdf: invalid weight encountered")
		}
		total += fw
	}
	if total == 0 {
		panic("cdf: all weights are zero")
	}

	// 已經是機率（總和為 1）時不再除 total，保留設定檔上的門檻值原樣（0.6 就是 0.6）
	norm := total
	if math.Abs(total-1) <= 1e-9 {
		norm = 1
	}
	cum := make([]float64, len(weights))
	acc := 0.0
	for i, w := range weights {
		acc += float64(w)
		cum[i] = acc / norm
		if norm == 1 {
			// 0.6+0.3 累加成 0.8999999999999999，四捨五入回設定上的 0.9
			cum[i] = math.Round(cum[i]*1e12) / 1e12
		}
	}
	// 浮點累加可能停在 0.999...，最後一個正權重項目強制收斂到 1
	for i := len(weights) - 1; i >= 0; i-- {
		if float64(weights[i]) > 0 {
			for j := i; j < len(cum); j++ {
				cum[j] = 1
			}
			break
		}
	}
	return &CDF{cum: cum}
}

// Len 回傳項目數
func (d *CDF) Len() int {
	return len(d.cum)
}

// Cum 回傳累積機率的複本
func (d *CDF) Cum() []float64 {
	out := make([]float64, len(d.cum))
	copy(out, d.cum)
	return out
}

// Prob 回傳第 i 項的機率，越界回傳 0
func (d *CDF) Prob(i int) float64 {
	if i < 0 || i >= len(d.cum) {
		return 0
	}
	if i == 0 {
		return d.cum[0]
	}
	return d.cum[i] - d.cum[i-1]
}

// PickBy 以給定的 u ∈ [0,1) 查表。
// u 超出範圍時夾到邊界：u < 0 視為 0，u >= 1 回傳最後一個正權重項目。
func (d *CDF) PickBy(u float64) int {
	for i, c := range d.cum {
		if u < c {
			return i
		}
	}
	// u >= 1：回傳最後一個機率 > 0 的項目
	for i := len(d.cum) - 1; i >= 0; i-- {
		if d.Prob(i) > 0 {
			return i
		}
	}
	return len(d.cum) - 1
}

// Pick 透過 Core 取一次 Float64 並查表
func (d *CDF) Pick(c *core.Core) int {
	return d.PickBy(c.Float64())
}
