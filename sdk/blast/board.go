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
	"github.com/zintix-labs/blastlab/sdk/ops"
)

// 盤面尺寸
const (
	Rows  = 8
	Cols  = 8
	Cells = Rows * Cols
)

// Cell 盤面座標（row 由上往下，col 由左往右，皆從 0 起算）
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds 是否落在 8x8 內
func (c Cell) InBounds() bool {
	return c.Row >= 0 && c.Row < Rows && c.Col >= 0 && c.Col < Cols
}

func (c Cell) index() int { return c.Row*Cols + c.Col }

func cellOf(idx int) Cell { return Cell{Row: idx / Cols, Col: idx % Cols} }

// Board 8x8 佔用盤面，扁平存放（idx = row*8 + col），0 為空、1 為佔用。
//
// Board 是值型別：直接複製就是一份獨立快照。
type Board struct {
	cells [Cells]uint8
}

// NewBoard 回傳全空盤面
func NewBoard() Board { return Board{} }

// BoardFromGrid 由 [8][8] 建立盤面，非 0 視為佔用。
func BoardFromGrid(g [Rows][Cols]uint8) Board {
	var b Board
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if g[r][c] != 0 {
				b.cells[r*Cols+c] = 1
			}
		}
	}
	return b
}

// Occupied 查詢某格是否佔用
func (b *Board) Occupied(row, col int) (bool, error) {
	c := Cell{Row: row, Col: col}
	if !c.InBounds() {
		return false, ErrOutOfRange.Withf("row=%d col=%d", row, col)
	}
	return b.cells[c.index()] != 0, nil
}

func (b *Board) occupied(c Cell) bool { return b.cells[c.index()] != 0 }

// Place 把 piece 以 (row,col) 為左上角寫入盤面。
//
// 不做重疊檢查（那是 CanPlace 的工作），只保證不越界；
// 任何一格越界時整個操作不生效並回傳 ErrOutOfRange。
func (b *Board) Place(p Piece, row, col int) error {
	for i := 0; i < p.size; i++ {
		c := Cell{Row: row + p.offsets[i].Row, Col: col + p.offsets[i].Col}
		if !c.InBounds() {
			return ErrOutOfRange.Withf("piece=%d anchor=(%d,%d)", p.id, row, col)
		}
	}
	for i := 0; i < p.size; i++ {
		b.cells[(row+p.offsets[i].Row)*Cols+col+p.offsets[i].Col] = 1
	}
	return nil
}

// ClearCells 把指定格設為空。已經是空的格維持不變。
func (b *Board) ClearCells(cells []Cell) error {
	idx := make([]int, 0, len(cells))
	for _, c := range cells {
		if !c.InBounds() {
			return ErrOutOfRange.Withf("row=%d col=%d", c.Row, c.Col)
		}
		idx = append(idx, c.index())
	}
	ops.Clear(b.cells[:], idx)
	return nil
}

// FreeCellCount 空格數
func (b *Board) FreeCellCount() int {
	return ops.Count(b.cells[:], 0)
}

// FillRatio 佔用比例 = 1 - free/64
func (b *Board) FillRatio() float64 {
	return 1 - float64(b.FreeCellCount())/float64(Cells)
}

// Grid 回傳 [8][8] 複本
func (b *Board) Grid() [Rows][Cols]uint8 {
	var g [Rows][Cols]uint8
	for i, v := range b.cells {
		g[i/Cols][i%Cols] = v
	}
	return g
}

// IsEmpty 盤面是否全空
func (b *Board) IsEmpty() bool { return b.FreeCellCount() == Cells }

// valid 檢查格值只有 0/1
func (b *Board) valid() bool {
	for _, v := range b.cells {
		if v > 1 {
			return false
		}
	}
	return true
}
