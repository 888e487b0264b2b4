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

package sampler

import (
	"math"
	"testing"

	"github.com/zintix-labs/blastlab/sdk/core"
)

// assertPanic 驗證函數是否如預期觸發 panic
func assertPanic(t *testing.T, f func(), msg string) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for %s, but got none", msg)
		}
	}()
	f()
}

func TestBuildCDFPanics(t *testing.T) {
	assertPanic(t, func() { BuildCDF([]int{}) }, "empty")
	assertPanic(t, func() { BuildCDF([]int{0, 0}) }, "all zero")
	assertPanic(t, func() { BuildCDF([]int{1, -1}) }, "negative")
	assertPanic(t, func() { BuildCDF([]float64{math.NaN()}) }, "nan")
}

func TestPickByThresholds(t *testing.T) {
	d := BuildCDF([]float64{0.6, 0.3, 0.1})
	cases := []struct {
		u    float64
		want int
	}{
		{0, 0},
		{0.5999, 0},
		{0.6, 1},
		{0.85, 1},
		{0.9, 2},
		{0.9999, 2},
		{1.5, 2},
		{-0.1, 0},
	}
	for _, tc := range cases {
		if got := d.PickBy(tc.u); got != tc.want {
			t.Errorf("PickBy(%v) want %d, got %d", tc.u, tc.want, got)
		}
	}
}

func TestZeroWeightNeverPicked(t *testing.T) {
	d := BuildCDF([]int{5, 0, 5, 0})
	for _, u := range []float64{0, 0.49, 0.5, 0.99, 1} {
		if got := d.PickBy(u); got == 1 || got == 3 {
			t.Fatalf("zero-weight item %d picked for u=%v", got, u)
		}
	}
	if d.Prob(1) != 0 || d.Prob(3) != 0 {
		t.Fatalf("zero-weight prob should be 0: %v", d.Cum())
	}
}

func TestIntegerWeightsEqualFloatWeights(t *testing.T) {
	a := BuildCDF([]int{10, 25, 65})
	b := BuildCDF([]float64{0.10, 0.25, 0.65})
	for i := 0; i < a.Len(); i++ {
		if math.Abs(a.Prob(i)-b.Prob(i)) > 1e-12 {
			t.Fatalf("prob mismatch at %d: %v vs %v", i, a.Prob(i), b.Prob(i))
		}
	}
}

// TestPickDistribution 驗證抽樣結果的分佈是否符合預期權重
func TestPickDistribution(t *testing.T) {
	c := core.New(core.Default().New(1))
	weights := []int{15, 35, 50}
	d := BuildCDF(weights)
	trials := 200000
	counts := make([]int, len(weights))
	for i := 0; i < trials; i++ {
		counts[d.Pick(c)]++
	}
	for i, w := range weights {
		got := float64(counts[i]) / float64(trials)
		want := float64(w) / 100
		if math.Abs(got-want) > 0.01 {
			t.Errorf("index %d: expected prob %.3f, got %.3f", i, want, got)
		}
	}
}
