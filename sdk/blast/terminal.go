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

// Move 一個合法放置
type Move struct {
	Slot int `json:"slot"`
	Row  int `json:"row"`
	Col  int `json:"col"`
}

// FindAnchor 以 row-major 順序找出第一個可放置的錨點
func FindAnchor(b *Board, p Piece) (Cell, bool) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if CanPlace(b, p, r, c) {
				return Cell{Row: r, Col: c}, true
			}
		}
	}
	return Cell{}, false
}

// IsTerminal 是否所有未放置的塊都找不到任何合法位置。
//
// 找到任何一個合法放置就提早返回。三塊都已放置時沒有「終局」可言，回傳 ErrInvariant，
// 呼叫端應該先重抽。
func IsTerminal(b *Board, d *Draw) (bool, error) {
	if d.AllConsumed() {
		return false, ErrInvariant.With("terminal check on fully consumed draw")
	}
	return !anyFits(b, d), nil
}

// anyFits 任一未放置塊在盤面上有合法錨點
func anyFits(b *Board, d *Draw) bool {
	for i := range d {
		if d[i].Consumed {
			continue
		}
		if _, ok := FindAnchor(b, d[i].Piece); ok {
			return true
		}
	}
	return false
}

// LegalMoves 列出所有未放置塊的所有合法放置（slot、row、col 皆遞增）
func LegalMoves(b *Board, d *Draw) []Move {
	var out []Move
	for i := range d {
		if d[i].Consumed {
			continue
		}
		p := d[i].Piece
		for r := 0; r < Rows; r++ {
			for c := 0; c < Cols; c++ {
				if CanPlace(b, p, r, c) {
					out = append(out, Move{Slot: i, Row: r, Col: c})
				}
			}
		}
	}
	return out
}
