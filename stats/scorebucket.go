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

import "fmt"

// ScoreBuckets 分數區間
//
// 用來快速定位分數 -> DistRecord 位置 O(1)
//
// 請勿修改預設值
//   - 分數區間: [0,100), [100,250), ..., [25000,50000), [50000,+inf)
type ScoreBuckets struct {
	edges  []int
	labels []string
	step   int
	lut    []int // lut[score/step] = idx
}

// Buckets 預設分數區間，邊界都必須是 step 的倍數
var Buckets *ScoreBuckets = newScoreBuckets([]int{0, 100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000}, 50)

func newScoreBuckets(edges []int, step int) *ScoreBuckets {
	for i, e := range edges {
		if e%step != 0 || (i > 0 && e <= edges[i-1]) {
			panic(fmt.Sprintf("score bucket edge %d invalid", e))
		}
	}
	b := &ScoreBuckets{edges: edges, step: step}
	b.labels = make([]string, len(edges))
	for i, e := range edges {
		if i == len(edges)-1 {
			b.labels[i] = fmt.Sprintf("[%d,+inf)", e)
			continue
		}
		b.labels[i] = fmt.Sprintf("[%d,%d)", e, edges[i+1])
	}

	last := edges[len(edges)-1]
	b.lut = make([]int, last/step)
	idx := 0
	for i := range b.lut {
		lo := i * step
		for idx < len(edges)-1 && lo >= edges[idx+1] {
			idx++
		}
		b.lut[i] = idx
	}
	return b
}

// Labels 區間標籤
func (b *ScoreBuckets) Labels() []string {
	return b.labels
}

// Len 區間數
func (b *ScoreBuckets) Len() int {
	return len(b.edges)
}

// Index 分數所屬區間，負分歸到第一格
func (b *ScoreBuckets) Index(score int) int {
	if score < 0 {
		return 0
	}
	i := score / b.step
	if i >= len(b.lut) {
		return len(b.edges) - 1
	}
	return b.lut[i]
}
