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

	"github.com/zintix-labs/blastlab/sdk/core"
)

// State 局的狀態：Active 可放置，Terminal 為吸收態。
type State uint8

const (
	Active State = iota
	Terminal
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Terminal:
		return "terminal"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*s = Active
	case "terminal":
		*s = Terminal
	default:
		return ErrInvariant.Withf("unknown round state %q", string(b))
	}
	return nil
}

// PlaceResult 一次成功放置的完整結果
type PlaceResult struct {
	Slot         int        `json:"slot"`
	PieceID      int        `json:"piece_id"`
	Row          int        `json:"row"`
	Col          int        `json:"col"`
	Placed       []Cell     `json:"placed"`
	Lines        int        `json:"lines"`
	ClearedRows  []int      `json:"cleared_rows,omitempty"`
	ClearedCols  []int      `json:"cleared_cols,omitempty"`
	ClearedCells []Cell     `json:"cleared_cells,omitempty"`
	Points       ScoreDelta `json:"points"`
	Score        int        `json:"score"`
	Combo        int        `json:"combo"`
	// ComboEvent 有消除時為更新後的 combo，供 UI 短暫提示；沒消除時為 0
	ComboEvent int   `json:"combo_event,omitempty"`
	Redrawn    bool  `json:"redrawn"`
	State      State `json:"state"`
}

// Round 一局的狀態機：盤面、當前三塊、分數與連擊。
//
// 合約：
//   - 非並行安全。同一局的操作必須由呼叫端序列化（Session 用 mutex 保證）。
//   - 每次 Place 是原子的：被拒絕時所有狀態都不變。
//   - Terminal 之後不再接受放置，也不會自動重開。
type Round struct {
	rules   *Rules
	drawer  *Drawer
	board   Board
	draw    Draw
	tracker Tracker
	state   State

	placements int
	draws      int
	lines      int
	maxCombo   int
	lastDraw   DrawInfo
}

type roundOpts struct {
	key KeyFunc
}

// Option Round 選項
type Option func(*roundOpts)

// WithKeyFunc 指定 DrawnPiece.Key 的產生方式（模擬時可換成不配置的計數器）
func WithKeyFunc(k KeyFunc) Option {
	return func(o *roundOpts) { o.key = k }
}

func newRound(rules *Rules, rng core.RAND, opts []Option) *Round {
	o := roundOpts{}
	for _, fn := range opts {
		fn(&o)
	}
	return &Round{
		rules:   rules,
		drawer:  NewDrawer(rules, rng, o.key),
		tracker: NewTracker(rules),
		state:   Active,
	}
}

// NewRound 開新局：空盤、分數 0、combo 0，並立即抽出第一組三塊。
func NewRound(rules *Rules, rng core.RAND, opts ...Option) *Round {
	r := newRound(rules, rng, opts)
	r.redraw()
	return r
}

func (r *Round) redraw() {
	r.draw, r.lastDraw = r.drawer.DrawThree(&r.board)
	r.draws++
}

// Place 把第 slot 塊放在 (row,col)。
//
// 流程：驗證 → 寫入 → 消除 → 計分 → 標記 consumed → 三塊用完就重抽 → 終局判定。
// 驗證失敗回傳 ErrRoundTerminal / ErrSlotIndex / ErrPieceConsumed / ErrPlacementRejected，狀態不變。
func (r *Round) Place(slot, row, col int) (PlaceResult, error) {
	if r.state == Terminal {
		return PlaceResult{}, ErrRoundTerminal
	}
	if slot < 0 || slot >= DrawSize {
		return PlaceResult{}, ErrSlotIndex.Withf("slot=%d", slot)
	}
	dp := &r.draw[slot]
	if dp.Consumed {
		return PlaceResult{}, ErrPieceConsumed.Withf("slot=%d piece=%d", slot, dp.Piece.id)
	}
	if !CanPlace(&r.board, dp.Piece, row, col) {
		return PlaceResult{}, ErrPlacementRejected.Withf("slot=%d piece=%d anchor=(%d,%d)", slot, dp.Piece.id, row, col)
	}

	next := r.board
	if err := next.Place(dp.Piece, row, col); err != nil {
		return PlaceResult{}, ErrInvariant.Withf("validated placement failed: %v", err)
	}
	cr := Evaluate(next)
	delta := r.tracker.Apply(dp.Piece.size, cr.Lines)

	r.board = cr.Board
	dp.Consumed = true
	r.placements++
	r.lines += cr.Lines
	if r.tracker.Combo > r.maxCombo {
		r.maxCombo = r.tracker.Combo
	}

	res := PlaceResult{
		Slot:         slot,
		PieceID:      dp.Piece.id,
		Row:          row,
		Col:          col,
		Placed:       Footprint(dp.Piece, row, col),
		Lines:        cr.Lines,
		ClearedRows:  cr.Rows,
		ClearedCols:  cr.Cols,
		ClearedCells: cr.Cells,
		Points:       delta,
		Score:        r.tracker.Score,
		Combo:        r.tracker.Combo,
	}
	if cr.Lines > 0 {
		res.ComboEvent = r.tracker.Combo
	}

	if r.draw.AllConsumed() {
		r.redraw()
		res.Redrawn = true
	}
	// 到這裡 draw 至少有一塊未放置（剛重抽的三塊也算），全部放不下就直接結束
	if !anyFits(&r.board, &r.draw) {
		r.state = Terminal
	}
	res.State = r.state
	return res, nil
}

// PreviewView 放置預覽
type PreviewView struct {
	Slot    int    `json:"slot"`
	PieceID int    `json:"piece_id"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Cells   []Cell `json:"cells"`
	Valid   bool   `json:"valid"`
}

// Preview 回傳第 slot 塊放在 (row,col) 會覆蓋的盤內格與是否合法，不改變狀態。
func (r *Round) Preview(slot, row, col int) (PreviewView, error) {
	if slot < 0 || slot >= DrawSize {
		return PreviewView{}, ErrSlotIndex.Withf("slot=%d", slot)
	}
	dp := r.draw[slot]
	if dp.Consumed {
		return PreviewView{}, ErrPieceConsumed.Withf("slot=%d piece=%d", slot, dp.Piece.id)
	}
	return PreviewView{
		Slot:    slot,
		PieceID: dp.Piece.id,
		Row:     row,
		Col:     col,
		Cells:   Footprint(dp.Piece, row, col),
		Valid:   r.state == Active && CanPlace(&r.board, dp.Piece, row, col),
	}, nil
}

func (r *Round) Rules() *Rules          { return r.rules }
func (r *Round) Board() Board           { return r.board }
func (r *Round) Draw() Draw             { return r.draw }
func (r *Round) State() State           { return r.state }
func (r *Round) Score() int             { return r.tracker.Score }
func (r *Round) Combo() int             { return r.tracker.Combo }
func (r *Round) Placements() int        { return r.placements }
func (r *Round) Draws() int             { return r.draws }
func (r *Round) Lines() int             { return r.lines }
func (r *Round) MaxCombo() int          { return r.maxCombo }
func (r *Round) LastDrawInfo() DrawInfo { return r.lastDraw }

// LegalMoves 目前所有合法放置；Terminal 時為 nil。
func (r *Round) LegalMoves() []Move {
	if r.state == Terminal {
		return nil
	}
	return LegalMoves(&r.board, &r.draw)
}
