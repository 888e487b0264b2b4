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

package blastlab

import (
	"context"
	"time"

	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/store"
)

var (
	ErrNotTerminal    = errs.NewCode(errs.Warn, errs.CodeRejected, "round not terminal")
	ErrAlreadySettled = errs.NewCode(errs.Warn, errs.CodeTerminal, "round already settled")
)

// Settlement 終局結算
type Settlement struct {
	RoundID    string `json:"round_id"`
	Profile    string `json:"profile"`
	GameType   string `json:"game_type"`
	Score      int    `json:"score"`
	Credit     int    `json:"credit"`
	Best       int    `json:"best"`
	NewBest    bool   `json:"new_best"`
	Recorded   bool   `json:"recorded"`
	Placements int    `json:"placements"`
	Lines      int    `json:"lines"`
	MaxCombo   int    `json:"max_combo"`
}

// Credit 分數換算成獎勵：floor(score / ratio)，分數或比例不為正時為 0。
func Credit(score, ratio int) int {
	if score <= 0 || ratio <= 0 {
		return 0
	}
	return score / ratio
}

// settle 結算一個已終局的 Session，每個 Session 只會成功一次。
//
//   - 最佳分數：score 大於 store 內紀錄時寫入。
//   - 結算事件：credit > 0 才寫入。
func (s *Session) settle(ctx context.Context, st store.ScoreStore) (Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return Settlement{}, err
	}
	if s.settled {
		return Settlement{}, ErrAlreadySettled.With(s.id)
	}
	if s.round.State() != blast.Terminal {
		return Settlement{}, ErrNotTerminal.With(s.id)
	}
	score := s.round.Score()
	out := Settlement{
		RoundID:    s.id,
		Profile:    s.profile,
		GameType:   s.bs.GameType,
		Score:      score,
		Credit:     Credit(score, s.bs.PayoutRatio),
		Placements: s.round.Placements(),
		Lines:      s.round.Lines(),
		MaxCombo:   s.round.MaxCombo(),
	}

	best, improved, err := st.SubmitBest(ctx, s.bs.BestScoreKey, score)
	if err != nil {
		return Settlement{}, errs.Wrap(err, "submit best score")
	}
	out.Best, out.NewBest = best, improved

	if out.Credit > 0 {
		err := st.RecordResult(ctx, store.GameResult{
			RoundID:   s.id,
			GameType:  out.GameType,
			Score:     score,
			Credit:    out.Credit,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return Settlement{}, errs.Wrap(err, "record game result")
		}
		out.Recorded = true
	}
	s.settled = true
	return out, nil
}
