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

// Package autoplay 以特徵加權評估每個合法放置，挑出分數最高的一步。
//
// 用途有兩個：模擬器（大量自動對局估計分數分佈）與 API 的提示。
// 特徵都在「放置並消除之後」的盤面上計算，以 8 個 uint8 列位元表示盤面。
package autoplay

import (
	"math"
	"math/bits"

	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/sdk/blast"
)

// 特徵索引
const (
	FeatLines      = iota // 本次消除行列數
	FeatEmpty             // 剩餘空格
	FeatRowTrans          // 列方向空/滿交界（牆視為滿）
	FeatColTrans          // 行方向空/滿交界
	FeatHoles             // 上下左右都被擋住的孤立空格
	FeatNearlyFull        // 只差 1~2 格就滿的列與行
	NumFeatures
)

// Strategy 各特徵權重
type Strategy struct {
	Weights [NumFeatures]float64
}

// DefaultStrategy 預設權重：鼓勵消除、壓低破碎度與孤立空格。
func DefaultStrategy() Strategy {
	return Strategy{Weights: [NumFeatures]float64{
		FeatLines:      8,
		FeatEmpty:      0.1,
		FeatRowTrans:   -1,
		FeatColTrans:   -1,
		FeatHoles:      -6,
		FeatNearlyFull: 0.5,
	}}
}

// Policy 放置策略，唯讀，可跨 goroutine 共用。
type Policy struct {
	strat Strategy
}

func New(s Strategy) *Policy { return &Policy{strat: s} }

func Default() *Policy { return New(DefaultStrategy()) }

// Best 用預設策略回傳目前最佳一步
func Best(r *blast.Round) (blast.Move, bool) {
	return Default().Best(r)
}

// Features 計算 piece 放在 (row,col) 並消除後的特徵值，放不下回傳 false。
func Features(b blast.Board, p blast.Piece, row, col int) ([NumFeatures]float64, bool) {
	var f [NumFeatures]float64
	if !blast.CanPlace(&b, p, row, col) {
		return f, false
	}
	if err := b.Place(p, row, col); err != nil {
		return f, false
	}
	cr := blast.Evaluate(b)
	rows := rowBits(cr.Board)

	f[FeatLines] = float64(cr.Lines)
	f[FeatEmpty] = float64(cr.Board.FreeCellCount())

	var rowTrans, colTrans, holes, nearly int
	for r := 0; r < blast.Rows; r++ {
		walled := uint16(rows[r])<<1 | 0x201 // 左右各加一道牆
		rowTrans += bits.OnesCount16((walled ^ (walled >> 1)) & 0x1FF)
		// 上下鄰列，盤外視為滿
		up, down := uint8(0xFF), uint8(0xFF)
		if r > 0 {
			up = rows[r-1]
		}
		if r < blast.Rows-1 {
			down = rows[r+1]
		}
		colTrans += bits.OnesCount8(rows[r] ^ up)
		leftN, rightN := uint8(walled), uint8(walled>>2)
		holes += bits.OnesCount8(^rows[r] & up & down & leftN & rightN)
		if n := bits.OnesCount8(rows[r]); n >= blast.Cols-2 && n < blast.Cols {
			nearly++
		}
	}
	colTrans += bits.OnesCount8(rows[blast.Rows-1] ^ 0xFF)
	for c := 0; c < blast.Cols; c++ {
		n := 0
		for r := 0; r < blast.Rows; r++ {
			n += int(rows[r] >> c & 1)
		}
		if n >= blast.Rows-2 && n < blast.Rows {
			nearly++
		}
	}
	f[FeatRowTrans] = float64(rowTrans)
	f[FeatColTrans] = float64(colTrans)
	f[FeatHoles] = float64(holes)
	f[FeatNearlyFull] = float64(nearly)
	return f, true
}

// Score 特徵加權總分
func (p *Policy) Score(f [NumFeatures]float64) float64 {
	s := 0.0
	for i, w := range p.strat.Weights {
		s += w * f[i]
	}
	return s
}

// Best 掃過所有合法放置，回傳加權分數最高的一步（同分取 slot/row/col 最小者）。
// 局已結束或沒有合法放置時回傳 false。
func (p *Policy) Best(r *blast.Round) (blast.Move, bool) {
	moves := r.LegalMoves()
	if len(moves) == 0 {
		return blast.Move{}, false
	}
	b := r.Board()
	d := r.Draw()
	best, bestScore := blast.Move{}, math.Inf(-1)
	for _, m := range moves {
		f, ok := Features(b, d[m.Slot].Piece, m.Row, m.Col)
		if !ok {
			continue
		}
		if s := p.Score(f); s > bestScore {
			best, bestScore = m, s
		}
	}
	return best, !math.IsInf(bestScore, -1)
}

// Play 自動下到終局或達到 maxPlacements（<=0 不限）為止，回傳是否因上限而停止。
func (p *Policy) Play(r *blast.Round, maxPlacements int) (bool, error) {
	return p.PlayFunc(r, maxPlacements, nil)
}

// PlayFunc 同 Play，每次成功放置後呼叫 onPlace（可為 nil）
func (p *Policy) PlayFunc(r *blast.Round, maxPlacements int, onPlace func(blast.PlaceResult)) (bool, error) {
	for r.State() == blast.Active {
		if maxPlacements > 0 && r.Placements() >= maxPlacements {
			return true, nil
		}
		m, ok := p.Best(r)
		if !ok {
			return false, blast.ErrInvariant.With("active round without legal move")
		}
		res, err := r.Place(m.Slot, m.Row, m.Col)
		if err != nil {
			return false, errs.Wrap(err, "autoplay place failed")
		}
		if onPlace != nil {
			onPlace(res)
		}
	}
	return false, nil
}

// rowBits 每列轉成 8 bit，bit c 對應第 c 行
func rowBits(b blast.Board) [blast.Rows]uint8 {
	var out [blast.Rows]uint8
	g := b.Grid()
	for r := 0; r < blast.Rows; r++ {
		for c := 0; c < blast.Cols; c++ {
			if g[r][c] != 0 {
				out[r] |= 1 << c
			}
		}
	}
	return out
}
