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

// Tracker 分數與連擊。
//
//   - 每次放置：score += size * cellPoints
//   - 有消除：score += lines * linePoints * (combo + 1)，combo 用的是更新前的值，之後 combo += lines
//   - 沒消除：combo 歸零
//
// 分數單調不減。
type Tracker struct {
	Score int
	Combo int

	cellPoints int
	linePoints int
}

// ScoreDelta 單次放置的計分明細
type ScoreDelta struct {
	PlacePoints int `json:"place_points"`
	LinePoints  int `json:"line_points"`
	ComboBefore int `json:"combo_before"`
	ComboAfter  int `json:"combo_after"`
}

// Total 本次總得分
func (d ScoreDelta) Total() int { return d.PlacePoints + d.LinePoints }

// NewTracker 以規則建立計分器
func NewTracker(r *Rules) Tracker {
	return Tracker{cellPoints: r.cellPoints, linePoints: r.linePoints}
}

// Apply 套用一次放置
func (t *Tracker) Apply(size, lines int) ScoreDelta {
	d := ScoreDelta{ComboBefore: t.Combo}
	d.PlacePoints = size * t.cellPoints
	if lines > 0 {
		d.LinePoints = lines * t.linePoints * (t.Combo + 1)
		t.Combo += lines
	} else {
		t.Combo = 0
	}
	t.Score += d.Total()
	d.ComboAfter = t.Combo
	return d
}
