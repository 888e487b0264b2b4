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

package stats_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/blastlab/stats"
)

// buildStatReport 由逐局分數直接組出報告
func buildStatReport(scores []int) *stats.StatReport {
	collect := make([]int, stats.Buckets.Len())
	var total int
	var sq float64
	maxScore := 0
	samples := make([]float64, len(scores))
	for i, v := range scores {
		collect[stats.Buckets.Index(v)]++
		total += v
		sq += float64(v) * float64(v)
		maxScore = max(maxScore, v)
		samples[i] = float64(v)
	}
	rep := &stats.StatReport{
		Summary: &stats.SummaryReport{
			Balance:    "test",
			Rounds:     len(scores),
			TotalScore: total,
			ScoreSqSum: sq,
			MaxScore:   maxScore,
		},
		Dist: &stats.DistReport{
			ScoreBucket:  stats.Buckets.Labels(),
			ScoreCollect: collect,
		},
		Draw: &stats.DrawReport{
			Bands:   []string{"hi", "lo"},
			Classes: []string{"tiny", "small", "medium"},
			Counts:  [][]int{{6, 3, 1}, {0, 0, 0}},
		},
	}
	rep.SetScores(samples)
	rep.Done()
	return rep
}

func TestScoreBucketIndex(t *testing.T) {
	b := stats.Buckets
	cases := map[int]int{-5: 0, 0: 0, 99: 0, 100: 1, 249: 1, 250: 2, 999: 3, 1000: 4, 49999: 8, 50000: 9, 1 << 30: 9}
	for score, want := range cases {
		if got := b.Index(score); got != want {
			t.Fatalf("Index(%d)=%d want %d", score, got, want)
		}
	}
	if b.Len() != len(b.Labels()) || b.Labels()[0] != "[0,100)" || b.Labels()[b.Len()-1] != "[50000,+inf)" {
		t.Fatalf("labels=%v", b.Labels())
	}
}

func TestStatReportCoreMetrics(t *testing.T) {
	rep := buildStatReport([]int{100, 300})
	if rep.Summary.MeanScore != 200 {
		t.Fatalf("mean=%v", rep.Summary.MeanScore)
	}
	wantStd := math.Sqrt(((100.0*100 + 300*300) - 400.0*400/2) / 1)
	if math.Abs(rep.Std()-wantStd) > 1e-9 {
		t.Fatalf("std got %v want %v", rep.Std(), wantStd)
	}
	se := wantStd / math.Sqrt(2)
	if math.Abs(rep.Summary.ScoreCI.Hi-(200+1.96*se)) > 1e-9 || math.Abs(rep.Summary.ScoreCI.Lo-(200-1.96*se)) > 1e-9 {
		t.Fatalf("ci=%+v", rep.Summary.ScoreCI)
	}
	sum := 0
	for _, c := range rep.Dist.ScoreCollect {
		sum += c
	}
	if sum != rep.Summary.Rounds {
		t.Fatalf("distribution total %d != rounds %d", sum, rep.Summary.Rounds)
	}
	if rep.Draw.Freq[0][0] != 0.6 || rep.Draw.Freq[1][0] != 0 {
		t.Fatalf("freq=%v", rep.Draw.Freq)
	}
	rep.Done() // idempotent
	if rep.Summary.MeanScore != 200 {
		t.Fatalf("mean changed after second Done")
	}
}

func TestEstimateQuantilesAndReach(t *testing.T) {
	scores := make([]float64, 100)
	for i := range scores {
		scores[i] = float64(i * 100) // 0..9900
	}
	est := stats.Estimate(scores)
	if est.Samples != 100 || math.Abs(est.Mean-4950) > 1e-9 {
		t.Fatalf("est=%+v", est)
	}
	if math.Abs(est.Median.Hat-5000) > 200 {
		t.Fatalf("median=%v", est.Median.Hat)
	}
	if math.Abs(est.Perc.P90.Hat-9000) > 200 {
		t.Fatalf("p90=%v", est.Perc.P90.Hat)
	}
	if est.Median.CI.Lo > est.Median.Hat || est.Median.CI.Hi < est.Median.Hat {
		t.Fatalf("median CI %+v excludes %v", est.Median.CI, est.Median.Hat)
	}
	// >= 100 的有 99 局，>= 10000 的沒有
	if est.Reach[0].Threshold != 100 || est.Reach[0].Hat != 0.99 {
		t.Fatalf("reach[0]=%+v", est.Reach[0])
	}
	last := est.Reach[len(est.Reach)-1]
	if last.Hat != 0 || last.CI.Lo != 0 || last.CI.Hi <= 0 {
		t.Fatalf("reach[last]=%+v", last)
	}

	one := stats.Estimate([]float64{42})
	if one.Std != 0 || one.Median.Hat != 42 || one.Median.CI.Lo != 42 {
		t.Fatalf("single sample: %+v", one)
	}
	if empty := stats.Estimate(nil); empty.Samples != 0 || empty.Reach != nil {
		t.Fatalf("empty: %+v", empty)
	}
}

func TestRenderers(t *testing.T) {
	rep := buildStatReport([]int{0, 150, 2600})
	var jb bytes.Buffer
	if err := rep.WriteWith(&jb, &stats.JsonStatReportRender{}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if _, ok := back["Estimate"]; !ok {
		t.Fatalf("json missing Estimate: %s", jb.String())
	}

	var yb bytes.Buffer
	if err := rep.WriteWith(&yb, &stats.YAMLStatReportRender{}); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	// 沒有 yaml tag，鍵名為小寫欄位名
	if !strings.Contains(yb.String(), "scorecollect: [") {
		t.Fatalf("inner lists should be flow style:\n%s", yb.String())
	}
}
