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

package ops

import "slices"

// FullRows 回傳所有「整列皆非 0」的列索引（由小到大）。
//
//   - buf 可傳入重用的切片（會從 buf[:0] 開始 append），傳 nil 則新配置。
func FullRows(screen []uint8, cols int, rows int, buf []int) []int {
	out := buf[:0]
	for r := 0; r < rows; r++ {
		full := true
		base := r * cols
		for c := 0; c < cols; c++ {
			if screen[base+c] == 0 {
				full = false
				break
			}
		}
		if full {
			out = append(out, r)
		}
	}
	return out
}

// FullCols 回傳所有「整行皆非 0」的行索引（由小到大）。
func FullCols(screen []uint8, cols int, rows int, buf []int) []int {
	out := buf[:0]
	for c := 0; c < cols; c++ {
		full := true
		for r := 0; r < rows; r++ {
			if screen[r*cols+c] == 0 {
				full = false
				break
			}
		}
		if full {
			out = append(out, c)
		}
	}
	return out
}

// LineCells 把整列 / 整行展開成格子索引的聯集（去重、由小到大）。
//
// 同時屬於某一整列與某一整行的交叉格只會出現一次。
func LineCells(fullRows []int, fullCols []int, cols int, rows int) []int {
	if len(fullRows) == 0 && len(fullCols) == 0 {
		return nil
	}
	seen := make([]bool, cols*rows)
	out := make([]int, 0, (len(fullRows)*cols)+(len(fullCols)*rows))
	for _, r := range fullRows {
		for c := 0; c < cols; c++ {
			idx := r*cols + c
			if !seen[idx] {
				seen[idx] = true
				out = append(out, idx)
			}
		}
	}
	for _, c := range fullCols {
		for r := 0; r < rows; r++ {
			idx := r*cols + c
			if !seen[idx] {
				seen[idx] = true
				out = append(out, idx)
			}
		}
	}
	slices.Sort(out)
	return out
}
