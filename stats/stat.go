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
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 模擬統計報告
type StatReport struct {
	Summary  *SummaryReport `json:"Summary"`
	Dist     *DistReport    `json:"Dist"`
	Draw     *DrawReport    `json:"Draw"`
	Estimate *ScoreEstimate `json:"Estimate,omitempty"`
	scores   []float64
	isDone   bool
}

type SummaryReport struct {
	Balance         string  `json:"Balance"`
	Rounds          int     `json:"Rounds"`
	TotalScore      int     `json:"TotalScore"`
	ScoreSqSum      float64 `json:"ScoreSqSum"` // 平方和
	MeanScore       float64 `json:"MeanScore"`
	ScoreCI         CI      `json:"ScoreCI"`
	Std             float64 `json:"Std"`
	MaxScore        int     `json:"MaxScore"`
	TotalPlacements int     `json:"TotalPlacements"`
	MeanPlacements  float64 `json:"MeanPlacements"`
	TotalLines      int     `json:"TotalLines"`
	MeanLines       float64 `json:"MeanLines"`
	MaxCombo        int     `json:"MaxCombo"`
	TotalCredit     int     `json:"TotalCredit"`
	ScoredRounds    int     `json:"ScoredRounds"`
	CappedRounds    int     `json:"CappedRounds"`
}

// DistReport 分數區間落點統計
type DistReport struct {
	ScoreBucket  []string  `json:"ScoreBucket"`
	ScoreCollect []int     `json:"ScoreCollect"`
	ScoreDist    []float64 `json:"ScoreDist"`
}

// DrawReport 各填充率區間實際抽到的尺寸類別次數與比例
type DrawReport struct {
	Bands   []string    `json:"Bands"`
	Classes []string    `json:"Classes"`
	Counts  [][]int     `json:"Counts"`
	Freq    [][]float64 `json:"Freq"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// SetScores 設定逐局分數樣本，Done 時會據此做分位估計
func (s *StatReport) SetScores(scores []float64) {
	s.scores = scores
}

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 模擬過程因為性能原因只處理 int 的紀錄，所以統計完成後
//
// 請使用 Done 來通知統計已經完成，可以一次性計算統計結果
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	rounds := float64(s.Summary.Rounds)
	if s.Summary.Rounds > 0 {
		s.Summary.MeanScore = float64(s.Summary.TotalScore) / rounds
		s.Summary.MeanPlacements = float64(s.Summary.TotalPlacements) / rounds
		s.Summary.MeanLines = float64(s.Summary.TotalLines) / rounds
	}
	s.Summary.Std = s.Std()
	s.Summary.ScoreCI = s.Ci()

	if s.Dist != nil {
		s.Dist.ScoreDist = make([]float64, len(s.Dist.ScoreCollect))
		for i, c := range s.Dist.ScoreCollect {
			if s.Summary.Rounds > 0 {
				s.Dist.ScoreDist[i] = float64(c) / rounds
			}
		}
	}
	if s.Draw != nil {
		s.Draw.Freq = make([][]float64, len(s.Draw.Counts))
		for i, row := range s.Draw.Counts {
			s.Draw.Freq[i] = make([]float64, len(row))
			total := 0
			for _, c := range row {
				total += c
			}
			if total == 0 {
				continue
			}
			for j, c := range row {
				s.Draw.Freq[i][j] = float64(c) / float64(total)
			}
		}
	}
	if len(s.scores) > 0 {
		s.Estimate = Estimate(s.scores)
	}
	s.isDone = true
}

// Mean 平均分數
func (s *StatReport) Mean() float64 {
	if s.Summary.Rounds == 0 {
		return 0
	}
	return float64(s.Summary.TotalScore) / float64(s.Summary.Rounds)
}

// Std 回傳單局分數的樣本標準差
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)
	total := float64(s.Summary.TotalScore)
	variance := (s.Summary.ScoreSqSum - total*total/rounds) / (rounds - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Ci 回傳平均分數的 95% 信賴區間
func (s *StatReport) Ci() CI {
	mean := s.Mean()
	se := float64(0)
	if s.Summary.Rounds > 1 {
		se = s.Std() / math.Sqrt(float64(s.Summary.Rounds))
	}
	return CI{
		Lo: max(mean-1.96*se, 0.0),
		Hi: mean + 1.96*se,
	}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 印出耗時與摘要表
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	formatDuration(ut, s.Summary.Rounds)
	sk, sm := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.Balance, sk, sm))
	if s.Dist != nil {
		fmt.Println(fmtTable("Score Distribution", s.Dist.ScoreBucket, s.fmtDist()))
	}
	if s.Draw != nil {
		dk, dm := s.fmtDraw()
		fmt.Println(fmtTable("Draw By Fill Band", dk, dm))
	}
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, rounds int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	rps := int(float64(rounds) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nrps : %d rounds/sec\n", sec, rps)
		return
	}
	sc := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\nrps : %d rounds/sec\n", m, sc, rps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nrps : %d rounds/sec\n", h, m, sc, rps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Balance":         p.Sprintf("%s", s.Summary.Balance),
		"Total Rounds":    p.Sprintf("%d", s.Summary.Rounds),
		"Mean Score":      p.Sprintf("%.2f", s.Summary.MeanScore),
		"Score 95% CI":    p.Sprintf("[%.2f,%.2f]", s.Summary.ScoreCI.Lo, s.Summary.ScoreCI.Hi),
		"STD":             p.Sprintf("%.3f", s.Summary.Std),
		"Max Score":       p.Sprintf("%d", s.Summary.MaxScore),
		"Mean Placements": p.Sprintf("%.2f", s.Summary.MeanPlacements),
		"Mean Lines":      p.Sprintf("%.2f", s.Summary.MeanLines),
		"Max Combo":       p.Sprintf("%d", s.Summary.MaxCombo),
		"Total Credit":    p.Sprintf("%d", s.Summary.TotalCredit),
		"Scored Rounds":   p.Sprintf("%d", s.Summary.ScoredRounds),
		"Capped Rounds":   p.Sprintf("%d", s.Summary.CappedRounds),
	}
	keys := []string{"Balance", "Total Rounds", "Mean Score", "Score 95% CI", "STD", "Max Score",
		"Mean Placements", "Mean Lines", "Max Combo", "Total Credit", "Scored Rounds", "Capped Rounds"}
	return keys, basic
}

func (s *StatReport) fmtDist() map[string]string {
	p := message.NewPrinter(lang)
	out := make(map[string]string, len(s.Dist.ScoreBucket))
	for i, label := range s.Dist.ScoreBucket {
		out[label] = p.Sprintf("%d (%.2f%%)", s.Dist.ScoreCollect[i], 100*s.Dist.ScoreDist[i])
	}
	return out
}

func (s *StatReport) fmtDraw() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	out := make(map[string]string, len(s.Draw.Bands))
	for i, band := range s.Draw.Bands {
		parts := make([]string, len(s.Draw.Classes))
		for j, cls := range s.Draw.Classes {
			parts[j] = p.Sprintf("%s %.1f%%", cls, 100*s.Draw.Freq[i][j])
		}
		out[band] = strings.Join(parts, " / ")
	}
	return s.Draw.Bands, out
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
