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

// RoundView 局的唯讀快照，讓 UI / API 不必直接碰 Round 內部。
type RoundView struct {
	State      State              `json:"state"`
	Board      [Rows][Cols]uint8  `json:"board"`
	Draw       [DrawSize]DrawView `json:"draw"`
	Score      int                `json:"score"`
	Combo      int                `json:"combo"`
	Placements int                `json:"placements"`
	Lines      int                `json:"lines"`
	MaxCombo   int                `json:"max_combo"`
	FillRatio  float64            `json:"fill_ratio"`
}

// DrawView 單一塊的唯讀快照
type DrawView struct {
	Slot     int       `json:"slot"`
	PieceID  int       `json:"piece_id"`
	Name     string    `json:"name"`
	Size     int       `json:"size"`
	Class    string    `json:"class"`
	Mask     [][]int   `json:"mask"`
	Consumed bool      `json:"consumed"`
	Key      string    `json:"key"`
}

// View 回傳目前狀態的快照
func (r *Round) View() RoundView {
	v := RoundView{
		State:      r.state,
		Board:      r.board.Grid(),
		Score:      r.tracker.Score,
		Combo:      r.tracker.Combo,
		Placements: r.placements,
		Lines:      r.lines,
		MaxCombo:   r.maxCombo,
		FillRatio:  r.board.FillRatio(),
	}
	for i, dp := range r.draw {
		v.Draw[i] = DrawView{
			Slot:     i,
			PieceID:  dp.Piece.id,
			Name:     dp.Piece.name,
			Size:     dp.Piece.size,
			Class:    dp.Piece.Class().String(),
			Mask:     dp.Piece.Mask(),
			Consumed: dp.Consumed,
			Key:      dp.Key,
		}
	}
	return v
}
