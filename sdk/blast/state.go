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

import "github.com/zintix-labs/blastlab/sdk/core"

// RoundState 局的可序列化狀態（不含亂數來源，亂數狀態由持有者另外保存）。
type RoundState struct {
	Board      [Cells]uint8 `json:"board"`
	Pieces     []int        `json:"pieces"`
	Consumed   []bool       `json:"consumed"`
	Keys       []string     `json:"keys"`
	Score      int          `json:"score"`
	Combo      int          `json:"combo"`
	Placements int          `json:"placements"`
	Draws      int          `json:"draws"`
	Lines      int          `json:"lines"`
	MaxCombo   int          `json:"max_combo"`
	State      State        `json:"state"`
}

// Export 匯出目前狀態
func (r *Round) Export() RoundState {
	st := RoundState{
		Board:      r.board.cells,
		Pieces:     make([]int, DrawSize),
		Consumed:   make([]bool, DrawSize),
		Keys:       make([]string, DrawSize),
		Score:      r.tracker.Score,
		Combo:      r.tracker.Combo,
		Placements: r.placements,
		Draws:      r.draws,
		Lines:      r.lines,
		MaxCombo:   r.maxCombo,
		State:      r.state,
	}
	for i, dp := range r.draw {
		st.Pieces[i] = dp.Piece.id
		st.Consumed[i] = dp.Consumed
		st.Keys[i] = dp.Key
	}
	return st
}

// RestoreRound 由匯出的狀態重建一局，任何不一致都回傳 ErrInvariant。
//
// rng 必須是匯出當下的亂數狀態，之後的抽塊才會和原局一致。
func RestoreRound(rules *Rules, rng core.RAND, st RoundState, opts ...Option) (*Round, error) {
	if len(st.Pieces) != DrawSize || len(st.Consumed) != DrawSize || len(st.Keys) != DrawSize {
		return nil, ErrInvariant.Withf("draw must have exactly %d entries", DrawSize)
	}
	if st.Score < 0 || st.Combo < 0 || st.Placements < 0 || st.Draws < 0 || st.Lines < 0 || st.MaxCombo < st.Combo {
		return nil, ErrInvariant.With("negative or inconsistent counters")
	}
	if st.State != Active && st.State != Terminal {
		return nil, ErrInvariant.Withf("unknown state %d", st.State)
	}
	r := newRound(rules, rng, opts)
	r.board.cells = st.Board
	if !r.board.valid() {
		return nil, ErrInvariant.With("board cells must be 0 or 1")
	}
	for i := 0; i < DrawSize; i++ {
		p, err := PieceByID(st.Pieces[i])
		if err != nil {
			return nil, err
		}
		r.draw[i] = DrawnPiece{Piece: p, Consumed: st.Consumed[i], Key: st.Keys[i]}
	}
	if st.State == Active && r.draw.AllConsumed() {
		return nil, ErrInvariant.With("active round with fully consumed draw")
	}
	r.tracker.Score = st.Score
	r.tracker.Combo = st.Combo
	r.placements = st.Placements
	r.draws = st.Draws
	r.lines = st.Lines
	r.maxCombo = st.MaxCombo
	r.state = st.State
	r.lastDraw = DrawInfo{Fill: r.board.FillRatio(), Band: rules.BandFor(r.board.FillRatio())}
	return r, nil
}
