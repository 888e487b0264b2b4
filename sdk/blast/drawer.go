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
	"github.com/google/uuid"
	"github.com/zintix-labs/blastlab/sdk/core"
)

// DrawSize 每輪抽出的塊數
const DrawSize = 3

// DrawnPiece 一輪中的單一塊：目錄形狀 + consumed 旗標 + 實例鍵。
//
// Key 只給 UI 辨識用，引擎邏輯不依賴它。
type DrawnPiece struct {
	Piece    Piece
	Consumed bool
	Key      string
}

// Draw 固定 3 塊
type Draw [DrawSize]DrawnPiece

// AllConsumed 三塊是否都已放置
func (d *Draw) AllConsumed() bool {
	for i := range d {
		if !d[i].Consumed {
			return false
		}
	}
	return true
}

// Remaining 尚未放置的塊數
func (d *Draw) Remaining() int {
	n := 0
	for i := range d {
		if !d[i].Consumed {
			n++
		}
	}
	return n
}

// DrawInfo 一次抽塊的紀錄（填充率、區間、每塊的尺寸類別），給統計用。
type DrawInfo struct {
	Fill    float64
	Band    int
	Classes [DrawSize]SizeClass
}

// KeyFunc 產生 DrawnPiece.Key
type KeyFunc func() string

// Drawer 依盤面填充率自適應抽塊。
//
// 每一塊各自消耗一次 Float64（選尺寸類別）與一次 IntN（類別內挑塊），順序固定，
// 所以只要亂數來源可重播，抽塊結果就可重播。
type Drawer struct {
	rules *Rules
	rng   core.RAND
	key   KeyFunc
}

// NewDrawer 建立抽塊器；key 為 nil 時使用 uuid。
func NewDrawer(rules *Rules, rng core.RAND, key KeyFunc) *Drawer {
	if key == nil {
		key = uuid.NewString
	}
	return &Drawer{rules: rules, rng: rng, key: key}
}

// DrawThree 依目前盤面抽出 3 塊（皆為 consumed=false）。
//
// 同一輪內以目錄 id 排除重複；若該類別可用的塊都已抽過，退回整個類別池（允許重複）。
func (d *Drawer) DrawThree(b *Board) (Draw, DrawInfo) {
	var out Draw
	info := DrawInfo{Fill: b.FillRatio()}
	info.Band = d.rules.BandFor(info.Fill)

	var used [CatalogSize + 1]bool
	avail := make([]int, 0, CatalogSize)
	for i := 0; i < DrawSize; i++ {
		cls := d.rules.ClassFor(info.Band, d.rng.Float64())
		info.Classes[i] = cls
		pool := classPool[cls]

		avail = avail[:0]
		for _, id := range pool {
			if !used[id] {
				avail = append(avail, id)
			}
		}
		if len(avail) == 0 {
			avail = append(avail, pool...)
		}
		id := avail[d.rng.IntN(len(avail))]
		used[id] = true
		out[i] = DrawnPiece{Piece: catalog[id-1], Key: d.key()}
	}
	return out, info
}
