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
	"fmt"

	"github.com/zintix-labs/blastlab/spec"
)

// MaxSpan 單一塊的外框最大邊長；MaxSize 單一塊最多佔幾格。
const (
	MaxSpan = 3
	MaxSize = 4
)

// SizeClass 尺寸類別
type SizeClass uint8

const (
	Tiny   SizeClass = spec.ClassTiny   // 1 格
	Small  SizeClass = spec.ClassSmall  // 顯示為 2~3 格；抽塊池是 1~3 格
	Medium SizeClass = spec.ClassMedium // 4 格
)

func (s SizeClass) String() string {
	switch s {
	case Tiny:
		return "tiny"
	case Small:
		return "small"
	case Medium:
		return "medium"
	}
	return fmt.Sprintf("class(%d)", uint8(s))
}

// ClassOf 依格數分類，給顯示與統計用；抽塊池見 inPool
func ClassOf(size int) SizeClass {
	switch {
	case size <= 1:
		return Tiny
	case size <= 3:
		return Small
	default:
		return Medium
	}
}

// Piece 固定形狀（不可旋轉、不可翻轉）。
//
// 遮罩固定為 MaxSpan x MaxSpan，只有前 rows x cols 有意義。
// 所有欄位都是值，複製出去的 Piece 不會和目錄共享可變狀態。
type Piece struct {
	id      int
	name    string
	rows    int
	cols    int
	mask    [MaxSpan][MaxSpan]uint8
	offsets [MaxSize]Cell
	size    int
}

func (p Piece) ID() int          { return p.id }
func (p Piece) Name() string     { return p.name }
func (p Piece) Rows() int        { return p.rows }
func (p Piece) Cols() int        { return p.cols }
func (p Piece) Size() int        { return p.size }
func (p Piece) Class() SizeClass { return ClassOf(p.size) }

// Mask 回傳 rows x cols 的遮罩複本（用 int 讓 JSON 輸出為數字陣列）
func (p Piece) Mask() [][]int {
	out := make([][]int, p.rows)
	for r := 0; r < p.rows; r++ {
		out[r] = make([]int, p.cols)
		for c := 0; c < p.cols; c++ {
			out[r][c] = int(p.mask[r][c])
		}
	}
	return out
}

// Offsets 佔用格相對左上角的偏移（row-major）
func (p Piece) Offsets() []Cell {
	return append([]Cell(nil), p.offsets[:p.size]...)
}

func newPiece(id int, name string, shape [][]uint8) Piece {
	p := Piece{id: id, name: name, rows: len(shape), cols: len(shape[0])}
	if p.rows > MaxSpan || p.cols > MaxSpan {
		panic(ErrInvariant.Withf("piece %d exceeds %dx%d", id, MaxSpan, MaxSpan))
	}
	for r, line := range shape {
		if len(line) != p.cols {
			panic(ErrInvariant.Withf("piece %d is not rectangular", id))
		}
		for c, v := range line {
			if v == 0 {
				continue
			}
			if p.size == MaxSize {
				panic(ErrInvariant.Withf("piece %d has more than %d cells", id, MaxSize))
			}
			p.mask[r][c] = 1
			p.offsets[p.size] = Cell{Row: r, Col: c}
			p.size++
		}
	}
	if p.size == 0 {
		panic(ErrInvariant.Withf("piece %d is empty", id))
	}
	return p
}

// catalog 16 種固定形狀，id 1..16 依序排列
var catalog = [...]Piece{
	newPiece(1, "dot", [][]uint8{{1}}),
	newPiece(2, "i2_h", [][]uint8{{1, 1}}),
	newPiece(3, "i2_v", [][]uint8{{1}, {1}}),
	newPiece(4, "o4", [][]uint8{{1, 1}, {1, 1}}),
	newPiece(5, "i3_h", [][]uint8{{1, 1, 1}}),
	newPiece(6, "i3_v", [][]uint8{{1}, {1}, {1}}),
	newPiece(7, "l4_down", [][]uint8{{1, 1, 1}, {1, 0, 0}}),
	newPiece(8, "l4_up", [][]uint8{{1, 0}, {1, 0}, {1, 1}}),
	newPiece(9, "j4_down", [][]uint8{{1, 1, 1}, {0, 0, 1}}),
	newPiece(10, "j4_up", [][]uint8{{0, 1}, {0, 1}, {1, 1}}),
	newPiece(11, "z4_h", [][]uint8{{1, 1, 0}, {0, 1, 1}}),
	newPiece(12, "z4_v", [][]uint8{{0, 1}, {1, 1}, {1, 0}}),
	newPiece(13, "s4_h", [][]uint8{{0, 1, 1}, {1, 1, 0}}),
	newPiece(14, "s4_v", [][]uint8{{1, 0}, {1, 1}, {0, 1}}),
	newPiece(15, "t4_down", [][]uint8{{1, 1, 1}, {0, 1, 0}}),
	newPiece(16, "t4_left", [][]uint8{{0, 1}, {1, 1}, {0, 1}}),
}

// classPool 各尺寸類別的抽塊池（id 由小到大）
var classPool [spec.NumClasses][]int

// inPool 抽塊池的成員規則。small 池包含 1 格的點，所以 tiny 與 small 會重疊：
// tiny [1]、small [1 2 3 5 6]、medium 其餘 4 格的 11 塊。
func inPool(cls SizeClass, size int) bool {
	switch cls {
	case Tiny:
		return size == 1
	case Small:
		return size <= 3
	case Medium:
		return size == MaxSize
	}
	return false
}

func init() {
	for i, p := range catalog {
		if p.id != i+1 {
			panic(ErrInvariant.Withf("catalog id %d at position %d", p.id, i))
		}
		for cls := range classPool {
			if inPool(SizeClass(cls), p.size) {
				classPool[cls] = append(classPool[cls], p.id)
			}
		}
	}
	for cls, pool := range classPool {
		if len(pool) == 0 {
			panic(ErrInvariant.Withf("size class %s has no piece", SizeClass(cls)))
		}
	}
}

// CatalogSize 目錄大小
const CatalogSize = len(catalog)

// Catalog 回傳整份目錄複本
func Catalog() []Piece {
	return append([]Piece(nil), catalog[:]...)
}

// ClassPool 回傳某尺寸類別的 id 清單複本
func ClassPool(cls SizeClass) []int {
	if int(cls) >= len(classPool) {
		return nil
	}
	return append([]int(nil), classPool[cls]...)
}

// PieceByID 依 id 取得形狀，未知 id 回傳 ErrInvariant
func PieceByID(id int) (Piece, error) {
	if id < 1 || id > len(catalog) {
		return Piece{}, ErrInvariant.Withf("unknown piece id %d", id)
	}
	return catalog[id-1], nil
}

// MustPiece 同 PieceByID，未知 id 直接 panic（只用在開發期斷言）
func MustPiece(id int) Piece {
	p, err := PieceByID(id)
	if err != nil {
		panic(err)
	}
	return p
}
