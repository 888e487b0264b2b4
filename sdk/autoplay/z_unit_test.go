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

package autoplay

import (
	"testing"

	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/sdk/core"
)

func restore(t *testing.T, g [blast.Rows][blast.Cols]uint8, ids []int) *blast.Round {
	t.Helper()
	st := blast.RoundState{
		Pieces:   ids,
		Consumed: make([]bool, blast.DrawSize),
		Keys:     []string{"a", "b", "c"},
		State:    blast.Active,
	}
	for r := 0; r < blast.Rows; r++ {
		for c := 0; c < blast.Cols; c++ {
			st.Board[r*blast.Cols+c] = g[r][c]
		}
	}
	r, err := blast.RestoreRound(blast.DefaultRules(), core.Default().New(1), st)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	return r
}

func TestFeaturesHole(t *testing.T) {
	var g [blast.Rows][blast.Cols]uint8
	g[0][1], g[2][1], g[1][0], g[1][2] = 1, 1, 1, 1
	f, ok := Features(blast.BoardFromGrid(g), blast.MustPiece(1), 7, 7)
	if !ok {
		t.Fatalf("dot should fit at (7,7)")
	}
	if f[FeatHoles] != 2 {
		// (1,1) 被四面包住，(0,0) 被牆與兩個鄰格包住
		t.Fatalf("holes=%v", f[FeatHoles])
	}
	if f[FeatLines] != 0 || f[FeatEmpty] != 59 {
		t.Fatalf("features=%v", f)
	}
	if _, ok := Features(blast.BoardFromGrid(g), blast.MustPiece(4), 0, 0); ok {
		t.Fatalf("o4 overlaps (0,1)")
	}
}

func TestBestPrefersClear(t *testing.T) {
	var g [blast.Rows][blast.Cols]uint8
	for c := 0; c < blast.Cols-1; c++ {
		g[0][c] = 1
	}
	r := restore(t, g, []int{1, 1, 1})
	m, ok := Best(r)
	if !ok {
		t.Fatalf("no move")
	}
	if m != (blast.Move{Slot: 0, Row: 0, Col: 7}) {
		t.Fatalf("best=%+v", m)
	}
	f, _ := Features(r.Board(), blast.MustPiece(1), 0, 7)
	if f[FeatLines] != 1 || f[FeatEmpty] != 64 {
		t.Fatalf("features=%v", f)
	}
}

func TestPlayCapAndTerminal(t *testing.T) {
	p := Default()
	r := blast.NewRound(blast.DefaultRules(), core.Default().New(11))
	capped, err := p.Play(r, 5)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !capped || r.Placements() != 5 {
		t.Fatalf("capped=%v placements=%d", capped, r.Placements())
	}

	capped, err = p.Play(r, 2000)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if capped {
		if r.Placements() != 2000 || r.State() != blast.Active {
			t.Fatalf("capped at placements=%d state=%v", r.Placements(), r.State())
		}
	} else {
		if r.State() != blast.Terminal {
			t.Fatalf("state=%v", r.State())
		}
		if _, ok := p.Best(r); ok {
			t.Fatalf("terminal round should have no best move")
		}
	}
	if r.Score() < r.Placements()*10 {
		t.Fatalf("score=%d placements=%d", r.Score(), r.Placements())
	}
}

func TestPolicyDeterministic(t *testing.T) {
	play := func() (int, int) {
		r := blast.NewRound(blast.DefaultRules(), core.Default().New(123))
		if _, err := Default().Play(r, 300); err != nil {
			t.Fatalf("play: %v", err)
		}
		return r.Score(), r.Placements()
	}
	s1, n1 := play()
	s2, n2 := play()
	if s1 != s2 || n1 != n2 {
		t.Fatalf("non deterministic: %d/%d vs %d/%d", s1, n1, s2, n2)
	}
}
