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
	"fmt"

	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/spec"
	"github.com/zintix-labs/blastlab/stats"
)

// RoundRecorder 對局紀錄員
//
// RoundRecorder 負責紀錄每一局結束時的結果與每次抽塊的尺寸類別，並透過 Done 輸出統計報表
type RoundRecorder struct {
	Balance string
	Bands   []string
	Basic   *BasicRecord
	Dist    *DistRecord
	Draw    *DrawRecord
	Scores  []int
}

// BasicRecord 基本對局資料紀錄
type BasicRecord struct {
	Rounds       int
	TotalScore   int
	ScoreSqSum   float64 // 平方和
	MaxScore     int
	Placements   int
	Lines        int
	MaxCombo     int
	Credit       int
	ScoredRounds int
	CappedRounds int
}

// DistRecord 分數區間落點統計
type DistRecord struct {
	Bucket       *stats.ScoreBuckets
	ScoreCollect []int
}

// DrawRecord 每個填充率區間抽到各尺寸類別的次數 [band][class]
type DrawRecord struct {
	Counts [][]int
}

// Outcome 一局結束時的結果
type Outcome struct {
	Score      int
	Placements int
	Lines      int
	MaxCombo   int
	Credit     int
	Capped     bool
}

func NewRoundRecorder(bs *spec.BalanceSetting) (*RoundRecorder, error) {
	s := new(RoundRecorder)
	if err := bs.Valid(); err != nil {
		return s, errs.Wrap(err, "round recorder needs a valid balance")
	}
	s.Balance = bs.Name
	s.Bands = BandLabels(bs)
	s.Basic = new(BasicRecord)
	s.Dist = &DistRecord{Bucket: stats.Buckets, ScoreCollect: make([]int, stats.Buckets.Len())}
	s.Draw = &DrawRecord{Counts: make([][]int, len(bs.Bands))}
	for i := range s.Draw.Counts {
		s.Draw.Counts[i] = make([]int, spec.NumClasses)
	}
	return s, nil
}

func MergeRoundRecorder(r []*RoundRecorder) (*RoundRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge round record err : empty input")
	}
	r0 := r[0]
	s := &RoundRecorder{
		Balance: r0.Balance,
		Bands:   r0.Bands,
		Basic:   new(BasicRecord),
		Dist:    &DistRecord{Bucket: stats.Buckets, ScoreCollect: make([]int, stats.Buckets.Len())},
		Draw:    &DrawRecord{Counts: make([][]int, len(r0.Bands))},
	}
	for i := range s.Draw.Counts {
		s.Draw.Counts[i] = make([]int, spec.NumClasses)
	}
	for _, v := range r {
		if v.Balance != r0.Balance || len(v.Bands) != len(r0.Bands) {
			return s, errs.NewFatal("merge round record err : different balance")
		}
		b := v.Basic
		s.Basic.Rounds += b.Rounds
		s.Basic.TotalScore += b.TotalScore
		s.Basic.ScoreSqSum += b.ScoreSqSum
		s.Basic.MaxScore = max(s.Basic.MaxScore, b.MaxScore)
		s.Basic.Placements += b.Placements
		s.Basic.Lines += b.Lines
		s.Basic.MaxCombo = max(s.Basic.MaxCombo, b.MaxCombo)
		s.Basic.Credit += b.Credit
		s.Basic.ScoredRounds += b.ScoredRounds
		s.Basic.CappedRounds += b.CappedRounds

		for i, c := range v.Dist.ScoreCollect {
			s.Dist.ScoreCollect[i] += c
		}
		for i, row := range v.Draw.Counts {
			for j, c := range row {
				s.Draw.Counts[i][j] += c
			}
		}
		s.Scores = append(s.Scores, v.Scores...)
	}
	return s, nil
}

// Record 以一局結果更新統計
func (s *RoundRecorder) Record(o Outcome) {
	b := s.Basic
	b.Rounds++
	b.TotalScore += o.Score
	b.ScoreSqSum += float64(o.Score) * float64(o.Score)
	b.MaxScore = max(b.MaxScore, o.Score)
	b.Placements += o.Placements
	b.Lines += o.Lines
	b.MaxCombo = max(b.MaxCombo, o.MaxCombo)
	b.Credit += o.Credit
	if o.Score > 0 {
		b.ScoredRounds++
	}
	if o.Capped {
		b.CappedRounds++
	}
	s.Dist.ScoreCollect[s.Dist.Bucket.Index(o.Score)]++
	s.Scores = append(s.Scores, o.Score)
}

// RecordDraw 紀錄一次抽塊的尺寸類別
func (s *RoundRecorder) RecordDraw(info blast.DrawInfo) {
	if info.Band < 0 || info.Band >= len(s.Draw.Counts) {
		return
	}
	row := s.Draw.Counts[info.Band]
	for _, cls := range info.Classes {
		row[cls]++
	}
}

func (s *RoundRecorder) Done() *stats.StatReport {
	classes := make([]string, spec.NumClasses)
	for i := range classes {
		classes[i] = blast.SizeClass(i).String()
	}
	counts := make([][]int, len(s.Draw.Counts))
	for i, row := range s.Draw.Counts {
		counts[i] = append([]int(nil), row...)
	}
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			Balance:         s.Balance,
			Rounds:          s.Basic.Rounds,
			TotalScore:      s.Basic.TotalScore,
			ScoreSqSum:      s.Basic.ScoreSqSum,
			MaxScore:        s.Basic.MaxScore,
			TotalPlacements: s.Basic.Placements,
			TotalLines:      s.Basic.Lines,
			MaxCombo:        s.Basic.MaxCombo,
			TotalCredit:     s.Basic.Credit,
			ScoredRounds:    s.Basic.ScoredRounds,
			CappedRounds:    s.Basic.CappedRounds,
		},
		Dist: &stats.DistReport{
			ScoreBucket:  s.Dist.Bucket.Labels(),
			ScoreCollect: append([]int(nil), s.Dist.ScoreCollect...),
		},
		Draw: &stats.DrawReport{
			Bands:   s.Bands,
			Classes: classes,
			Counts:  counts,
		},
	}
	samples := make([]float64, len(s.Scores))
	for i, v := range s.Scores {
		samples[i] = float64(v)
	}
	report.SetScores(samples)
	report.Done()
	return report
}

// BandLabels 把區間下界轉成可讀標籤，例如 "(0.50,0.70]"、"<=0.30"
func BandLabels(bs *spec.BalanceSetting) []string {
	n := len(bs.Bands)
	out := make([]string, n)
	for i, b := range bs.Bands {
		switch {
		case n == 1:
			out[i] = "all"
		case i == 0:
			out[i] = fmt.Sprintf(">%.2f", b.Above)
		case i == n-1:
			out[i] = fmt.Sprintf("<=%.2f", bs.Bands[i-1].Above)
		default:
			out[i] = fmt.Sprintf("(%.2f,%.2f]", b.Above, bs.Bands[i-1].Above)
		}
	}
	return out
}
