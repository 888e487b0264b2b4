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

package recorder

import (
	"slices"
	"testing"

	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/spec"
)

func TestBandLabels(t *testing.T) {
	got := BandLabels(spec.DefaultBalance())
	want := []string{">0.70", "(0.50,0.70]", "(0.30,0.50]", "<=0.30"}
	if !slices.Equal(got, want) {
		t.Fatalf("labels=%v", got)
	}
}

func TestRecordAndDone(t *testing.T) {
	r, err := NewRoundRecorder(spec.DefaultBalance())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r.Record(Outcome{Score: 0, Placements: 3})
	r.Record(Outcome{Score: 250, Placements: 10, Lines: 1, MaxCombo: 1, Credit: 2})
	r.Record(Outcome{Score: 1200, Placements: 40, Lines: 6, MaxCombo: 4, Credit: 12, Capped: true})
	r.RecordDraw(blast.DrawInfo{Band: 3, Classes: [blast.DrawSize]blast.SizeClass{blast.Medium, blast.Medium, blast.Tiny}})
	r.RecordDraw(blast.DrawInfo{Band: 9}) // 越界忽略

	rep := r.Done()
	s := rep.Summary
	if s.Rounds != 3 || s.TotalScore != 1450 || s.MaxScore != 1200 || s.TotalCredit != 14 {
		t.Fatalf("summary=%+v", s)
	}
	if s.ScoredRounds != 2 || s.CappedRounds != 1 || s.MaxCombo != 4 || s.TotalLines != 7 {
		t.Fatalf("summary=%+v", s)
	}
	if s.MeanPlacements != 53.0/3 {
		t.Fatalf("mean placements=%v", s.MeanPlacements)
	}
	if rep.Dist.ScoreCollect[0] != 1 || rep.Dist.ScoreCollect[2] != 1 || rep.Dist.ScoreCollect[4] != 1 {
		t.Fatalf("collect=%v", rep.Dist.ScoreCollect)
	}
	if !slices.Equal(rep.Draw.Counts[3], []int{1, 0, 2}) || rep.Draw.Classes[2] != "medium" {
		t.Fatalf("draw=%+v", rep.Draw)
	}
	if rep.Estimate == nil || rep.Estimate.Samples != 3 {
		t.Fatalf("estimate=%+v", rep.Estimate)
	}
}

func TestMerge(t *testing.T) {
	a, _ := NewRoundRecorder(spec.DefaultBalance())
	b, _ := NewRoundRecorder(spec.DefaultBalance())
	a.Record(Outcome{Score: 100, MaxCombo: 2})
	b.Record(Outcome{Score: 300, MaxCombo: 1})
	b.RecordDraw(blast.DrawInfo{Band: 0, Classes: [blast.DrawSize]blast.SizeClass{blast.Tiny, blast.Tiny, blast.Small}})

	m, err := MergeRoundRecorder([]*RoundRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Basic.Rounds != 2 || m.Basic.TotalScore != 400 || m.Basic.MaxScore != 300 || m.Basic.MaxCombo != 2 {
		t.Fatalf("basic=%+v", m.Basic)
	}
	if !slices.Equal(m.Scores, []int{100, 300}) || !slices.Equal(m.Draw.Counts[0], []int{2, 1, 0}) {
		t.Fatalf("merged scores=%v draw=%v", m.Scores, m.Draw.Counts)
	}
	// 原本的紀錄不受影響
	if a.Basic.Rounds != 1 {
		t.Fatalf("source mutated")
	}

	other := spec.DefaultBalance()
	other.Name = "other"
	c, _ := NewRoundRecorder(other)
	if _, err := MergeRoundRecorder([]*RoundRecorder{a, c}); err == nil {
		t.Fatalf("merge of different balances should fail")
	}
	if _, err := MergeRoundRecorder(nil); err == nil {
		t.Fatalf("merge of nothing should fail")
	}
}
