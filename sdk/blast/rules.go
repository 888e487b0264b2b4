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

package blast

import (
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/sdk/sampler"
	"github.com/zintix-labs/blastlab/spec"
)

// Rules 引擎執行期規則：填充率區間、每區間的尺寸類別 CDF、計分常數。
//
// 建立後唯讀，可以被多個 Round 同時共用。
type Rules struct {
	setting    *spec.BalanceSetting
	bands      []*sampler.CDF
	cellPoints int
	linePoints int
}

// NewRules 以平衡設定建立規則，設定會先做 Valid 檢查。
func NewRules(bs *spec.BalanceSetting) (*Rules, error) {
	if err := bs.Valid(); err != nil {
		return nil, errs.Wrap(err, "invalid balance setting")
	}
	r := &Rules{
		setting:    bs,
		bands:      make([]*sampler.CDF, len(bs.Bands)),
		cellPoints: bs.CellPoints,
		linePoints: bs.LinePoints,
	}
	for i, b := range bs.Bands {
		probs := b.Probs()
		r.bands[i] = sampler.BuildCDF(probs[:])
	}
	return r, nil
}

// DefaultRules 標準規則
func DefaultRules() *Rules {
	r, err := NewRules(spec.DefaultBalance())
	if err != nil {
		panic(err)
	}
	return r
}

// Setting 回傳建立時使用的設定（唯讀）
func (r *Rules) Setting() *spec.BalanceSetting { return r.setting }

// BandFor 依填充率回傳區間索引
func (r *Rules) BandFor(fill float64) int { return r.setting.BandIndex(fill) }

// NumBands 區間數
func (r *Rules) NumBands() int { return len(r.bands) }

// ClassFor 以一個 [0,1) 均勻值在指定區間內選出尺寸類別
func (r *Rules) ClassFor(band int, u float64) SizeClass {
	return SizeClass(r.bands[band].PickBy(u))
}

// ClassProb 指定區間某尺寸類別的機率
func (r *Rules) ClassProb(band int, cls SizeClass) float64 {
	return r.bands[band].Prob(int(cls))
}
