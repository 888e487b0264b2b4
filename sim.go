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
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/recorder"
	"github.com/zintix-labs/blastlab/sdk/autoplay"
	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/sdk/core"
	"github.com/zintix-labs/blastlab/spec"
	"github.com/zintix-labs/blastlab/stats"
)

const capPrepare int = 64

// Simulator 以自動出塊策略跑大量對局，驗證平衡設定（分數分布、各填充率區間實際抽到的尺寸比例）。
//
// 一局跑到 Terminal，或放置次數達到上限為止（上限來自 max_sim_placements，避免策略太強時無法收斂）。
type Simulator struct {
	Profile       string
	bs            *spec.BalanceSetting
	rules         *blast.Rules
	cf            core.PRNGFactory
	strat         autoplay.Strategy
	maxPlacements int
	initSeed      int64
	seedmaker     *seedMaker
	rBuf          []*recorder.RoundRecorder
}

func newSimulator(p *profile, seed int64) *Simulator {
	return &Simulator{
		Profile:       p.bs.Name,
		bs:            p.bs,
		rules:         p.rules,
		cf:            p.cf,
		strat:         autoplay.DefaultStrategy(),
		maxPlacements: p.bs.MaxSimPlacements,
		initSeed:      seed,
		seedmaker:     newSeedMaker(seed),
		rBuf:          make([]*recorder.RoundRecorder, 0, capPrepare),
	}
}

// Seed 初始 seed（重現用）
func (s *Simulator) Seed() int64 { return s.initSeed }

// SetStrategy 換掉自動出塊策略的權重
func (s *Simulator) SetStrategy(st autoplay.Strategy) { s.strat = st }

// SetMaxPlacements 單局放置上限，<= 0 表示不設上限
func (s *Simulator) SetMaxPlacements(n int) { s.maxPlacements = n }

// Sim 單線模擬：連續跑 rounds 局並回傳統計結果與用時
func (s *Simulator) Sim(rounds int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMPContext(context.Background(), rounds, 1, showpb)
}

// SimMP 以 workers 條 goroutine 平行跑總共 rounds 局，合併統計結果後回傳
func (s *Simulator) SimMP(rounds int, workers int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMPContext(context.Background(), rounds, workers, showpb)
}

// SimMPContext 同 SimMP，ctx 取消時中止並回傳錯誤。
//
// 第 0 條 worker 使用初始 seed，其餘由 seedMaker 依序產生；同一組 (seed, rounds, workers) 結果完全相同。
func (s *Simulator) SimMPContext(ctx context.Context, rounds int, workers int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if workers <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	workers = min(workers, rounds)
	s.seedmaker = newSeedMaker(s.initSeed)

	for len(s.rBuf) < workers {
		r, err := recorder.NewRoundRecorder(s.bs)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	ws := make([]*simWorker, workers)
	for i := range ws {
		seed := s.initSeed
		if i > 0 {
			seed = s.seedmaker.next()
		}
		ws[i] = s.newWorker(seed)
	}

	bar := pb.StartNew(rounds)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		stop     atomic.Bool
	)
	wg.Add(workers)
	per, extra := rounds/workers, rounds%workers
	for i := 0; i < workers; i++ {
		n := per
		if i < extra {
			n++
		}
		go func(w *simWorker, rec *recorder.RoundRecorder, n int) {
			defer wg.Done()
			for r := 0; r < n; r++ {
				if stop.Load() {
					return
				}
				if err := ctx.Err(); err != nil {
					errOnce.Do(func() { firstErr = errs.Wrap(err, "simulation canceled") })
					stop.Store(true)
					return
				}
				if err := w.playOne(rec); err != nil {
					errOnce.Do(func() { firstErr = err })
					stop.Store(true)
					return
				}
				bar.Increment()
			}
		}(ws[i], s.rBuf[i], n)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if firstErr != nil {
		return nil, used, firstErr
	}

	st, err := recorder.MergeRoundRecorder(s.rBuf[:workers])
	if err != nil {
		return nil, used, err
	}
	result := st.Done()
	result.Done()
	return result, used, nil
}

// simWorker 每條 goroutine 獨立的亂數與策略，不共享可變狀態
type simWorker struct {
	core   *core.Core
	rules  *blast.Rules
	policy *autoplay.Policy
	max    int
	ratio  int
	seq    uint64
}

func (s *Simulator) newWorker(seed int64) *simWorker {
	return &simWorker{
		core:   core.New(s.cf.New(seed)),
		rules:  s.rules,
		policy: autoplay.New(s.strat),
		max:    s.maxPlacements,
		ratio:  s.bs.PayoutRatio,
	}
}

// key 模擬不需要全域唯一的 key，用遞增序號即可
func (w *simWorker) key() string {
	w.seq++
	return strconv.FormatUint(w.seq, 36)
}

func (w *simWorker) playOne(rec *recorder.RoundRecorder) error {
	r := blast.NewRound(w.rules, w.core, blast.WithKeyFunc(w.key))
	rec.RecordDraw(r.LastDrawInfo())
	capped, err := w.policy.PlayFunc(r, w.max, func(res blast.PlaceResult) {
		if res.Redrawn {
			rec.RecordDraw(r.LastDrawInfo())
		}
	})
	if err != nil {
		return err
	}
	credit := 0
	if r.State() == blast.Terminal {
		credit = Credit(r.Score(), w.ratio)
	}
	rec.Record(recorder.Outcome{
		Score:      r.Score(),
		Placements: r.Placements(),
		Lines:      r.Lines(),
		MaxCombo:   r.MaxCombo(),
		Credit:     credit,
		Capped:     capped,
	})
	return nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 走全週期 LCG（不重複），再用可逆 mix63 打散。可被多 goroutine 同時呼叫。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
