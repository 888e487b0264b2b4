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

package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// ScoreEstimate 逐局分數的分布估計
type ScoreEstimate struct {
	Samples int
	Mean    float64
	Std     float64
	Median  PointStat
	Perc    ScorePerc
	Reach   []ReachStat // 分數達到門檻的局數比例
}

// 分位數視角：最差 10% 的局拿到幾分、最好 10% 的局拿到幾分
type ScorePerc struct {
	P10 PointStat
	P25 PointStat
	P75 PointStat
	P90 PointStat
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// ReachStat 分數 >= Threshold 的比例
type ReachStat struct {
	Threshold int
	PointStat
}

// ReachThresholds 預設門檻（100 分即可換到 1 點）
var ReachThresholds = []int{100, 500, 1000, 5000, 10000}

// ============================================================
// ** 對外 : 分數分布估計 **
// ============================================================

// Estimate 分數分布估計
//
// 1. 平均與標準差
//
// 2. 分位數 (P10/P25/P50/P75/P90) 與 95% 信賴區間（順序統計量 + Beta 反推）
//
// 3. 達標比例：分數 >= 各門檻的局數比例（Clopper-Pearson 95% CI）
func Estimate(scores []float64) *ScoreEstimate {
	n := len(scores)
	out := &ScoreEstimate{Samples: n}
	if n == 0 {
		return out
	}
	out.Mean, out.Std = stat.MeanStdDev(scores, nil)
	if n < 2 {
		out.Std = 0
	}

	point := func(q float64) PointStat {
		lo, hi := quantileCI(scores, q, 0.95)
		return PointStat{Hat: quantilePoint(scores, q), CI: CI{Lo: lo, Hi: hi}}
	}
	out.Median = point(0.5)
	out.Perc = ScorePerc{
		P10: point(0.10),
		P25: point(0.25),
		P75: point(0.75),
		P90: point(0.90),
	}

	out.Reach = make([]ReachStat, len(ReachThresholds))
	for i, th := range ReachThresholds {
		k := 0
		for _, v := range scores {
			if v >= float64(th) {
				k++
			}
		}
		hat, ci := proportionCICP(k, n, 0.95)
		out.Reach[i] = ReachStat{Threshold: th, PointStat: PointStat{Hat: hat, CI: ci}}
	}
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 想估「第 q 分位」的上下界。做法：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// 回傳 (loValue, hiValue)
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	if n < 2 {
		return cp[0], cp[0]
	}

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	// 以 CP 思想反推 p 範圍
	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	if li < 0 {
		li = 0
	}
	if li > n-1 {
		li = n - 1
	}
	if ui < 0 {
		ui = 0
	}
	if ui > n-1 {
		ui = n - 1
	}
	return cp[li], cp[ui]
}

// quantilePoint returns the empirical quantile point estimate at q.
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	// 最近秩法
	idx := int(q * float64(n))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return cp[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

func (est *ScoreEstimate) Out() {
	fmt.Println("=== Score (Per Round) ===")
	keys := []string{"Samples", "Mean", "Std", "Median", "P10", "P25", "P75", "P90"}
	msg := map[string]string{
		"Samples": fmt.Sprintf("%d", est.Samples),
		"Mean":    fmt.Sprintf("%.2f", est.Mean),
		"Std":     fmt.Sprintf("%.2f", est.Std),
		"Median":  fmtHatCI(est.Median),
		"P10":     fmtHatCI(est.Perc.P10),
		"P25":     fmtHatCI(est.Perc.P25),
		"P75":     fmtHatCI(est.Perc.P75),
		"P90":     fmtHatCI(est.Perc.P90),
	}
	printTable("Score Quantiles", keys, msg)

	fmt.Println("\n=== Reach (score >= threshold) ===")
	rk := make([]string, len(est.Reach))
	rm := make(map[string]string, len(est.Reach))
	for i, r := range est.Reach {
		rk[i] = fmt.Sprintf(">= %d", r.Threshold)
		rm[rk[i]] = fmtHatCIpct01(r.Hat, r.CI)
	}
	printTable("Reach", rk, rm)
}

func printTable(title string, keys []string, msg map[string]string) {
	fmt.Println(title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}

func fmtHatCI(p PointStat) string {
	return fmt.Sprintf("%.0f [%.0f, %.0f]", p.Hat, p.CI.Lo, p.CI.Hi)
}
