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

import "github.com/zintix-labs/blastlab/sdk/ops"

// ClearResult 一次消除的結果
type ClearResult struct {
	Board Board
	// Lines 整列數 + 整行數（交叉格不影響計數）
	Lines int
	Rows  []int
	Cols  []int
	// Cells 被清空的格（去重、row-major）
	Cells []Cell
}

// Evaluate 對放置後的盤面做一次消除判定。
//
// 整列與整行都以同一個盤面快照判定，不會在部分清除後重新檢查。
// 輸入盤面不會被修改。
func Evaluate(b Board) ClearResult {
	rows := ops.FullRows(b.cells[:], Cols, Rows, nil)
	cols := ops.FullCols(b.cells[:], Cols, Rows, nil)
	res := ClearResult{Board: b, Lines: len(rows) + len(cols), Rows: rows, Cols: cols}
	if res.Lines == 0 {
		return res
	}
	idx := ops.LineCells(rows, cols, Cols, Rows)
	ops.Clear(res.Board.cells[:], idx)
	res.Cells = make([]Cell, len(idx))
	for i, v := range idx {
		res.Cells[i] = cellOf(v)
	}
	return res
}
