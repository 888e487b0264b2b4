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

// CanPlace 判斷 piece 以 (row,col) 為左上角是否能放進盤面。
//
// 每個佔用格都要落在盤內且目前為空；遇到第一個不合格的格就回傳 false。
// 純函式，實際放置與終局搜尋共用。
func CanPlace(b *Board, p Piece, row, col int) bool {
	for i := 0; i < p.size; i++ {
		c := Cell{Row: row + p.offsets[i].Row, Col: col + p.offsets[i].Col}
		if !c.InBounds() || b.occupied(c) {
			return false
		}
	}
	return true
}

// Footprint 回傳 piece 放在 (row,col) 時會覆蓋的盤內格（盤外格略過，row-major）。
func Footprint(p Piece, row, col int) []Cell {
	out := make([]Cell, 0, p.size)
	for i := 0; i < p.size; i++ {
		c := Cell{Row: row + p.offsets[i].Row, Col: col + p.offsets[i].Col}
		if c.InBounds() {
			out = append(out, c)
		}
	}
	return out
}

// CenterAnchor 把指標所在格換算成左上角錨點：row - h/2, col - w/2（整數除法）。
//
// 拖曳時指標落在塊的中心附近，換算後再交給 CanPlace / Place。
func CenterAnchor(p Piece, row, col int) (int, int) {
	return row - p.rows/2, col - p.cols/2
}
