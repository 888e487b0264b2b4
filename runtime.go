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
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/snapfmt"
	"github.com/zintix-labs/blastlab/store"
)

var (
	ErrSessionNotFound = errs.NotFound("session not found")
	ErrRuntimeFull     = errs.NewWarn("too many live sessions")
	ErrSessionExists   = errs.NewCode(errs.Warn, errs.CodeRejected, "session already live")
)

type runtimeOpts struct {
	profile     string
	idleTTL     time.Duration
	maxSessions int
	log         *slog.Logger
}

// RuntimeOption RoundRuntime 選項
type RuntimeOption func(*runtimeOpts)

// WithProfile Open 時使用的 profile；空字串為 Blastlab.Default()，名稱不分大小寫
func WithProfile(name string) RuntimeOption {
	return func(o *runtimeOpts) { o.profile = name }
}

// WithIdleTTL 超過此時間沒有操作的 Session 會被 EvictIdle 處理（<= 0 表示不淘汰）
func WithIdleTTL(d time.Duration) RuntimeOption {
	return func(o *runtimeOpts) { o.idleTTL = d }
}

// WithMaxSessions 同時存活的 Session 上限（<= 0 表示不限制）
func WithMaxSessions(n int) RuntimeOption {
	return func(o *runtimeOpts) { o.maxSessions = n }
}

func WithLogger(l *slog.Logger) RuntimeOption {
	return func(o *runtimeOpts) { o.log = l }
}

// RoundRuntime 線上服務用的 Session 登記表。
//
// 每個 Session 自己持有鎖，runtime 的鎖只保護 map；不同 Session 的操作可以完全並行。
type RoundRuntime struct {
	lab   *Blastlab
	st    store.ScoreStore
	log   *slog.Logger
	opts  runtimeOpts
	rules *blast.Rules

	mu       sync.RWMutex
	sessions map[string]*Session

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	opened  atomic.Uint64
	settled atomic.Uint64
	evicted atomic.Uint64
	resumed atomic.Uint64
}

// RuntimeStats 觀測用計數
type RuntimeStats struct {
	Live    int    `json:"live"`
	Opened  uint64 `json:"opened"`
	Settled uint64 `json:"settled"`
	Evicted uint64 `json:"evicted"`
	Resumed uint64 `json:"resumed"`
}

func newRoundRuntime(lab *Blastlab, st store.ScoreStore, opts ...RuntimeOption) (*RoundRuntime, error) {
	o := runtimeOpts{profile: lab.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}
	rules, err := lab.Rules(o.profile)
	if err != nil {
		return nil, err
	}
	o.profile = rules.Setting().Name
	return &RoundRuntime{
		lab:      lab,
		st:       st,
		log:      o.log,
		opts:     o,
		rules:    rules,
		sessions: make(map[string]*Session, 64),
		done:     make(chan struct{}),
	}, nil
}

func (rt *RoundRuntime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "round runtime canceled/timeout")
	case <-rt.done:
		rt.closed.Store(true)
		return errs.NewFatal("round runtime closed: " + rt.ClosedReason())
	default:
		return nil
	}
}

// Lab 回傳組裝器
func (rt *RoundRuntime) Lab() *Blastlab { return rt.lab }

// Store 回傳結算使用的 ScoreStore
func (rt *RoundRuntime) Store() store.ScoreStore { return rt.st }

// Profile 新局使用的 profile 名稱
func (rt *RoundRuntime) Profile() string { return rt.opts.profile }

// Open 開一局新的 Session
func (rt *RoundRuntime) Open(ctx context.Context) (*Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	s, err := rt.lab.NewSession(rt.opts.profile)
	if err != nil {
		return nil, err
	}
	if err := rt.add(s); err != nil {
		return nil, err
	}
	rt.opened.Add(1)
	rt.log.Info("session.open", slog.String("id", s.ID()), slog.String("profile", s.Profile()), slog.Int64("seed", s.Seed()))
	return s, nil
}

func (rt *RoundRuntime) add(s *Session) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.opts.maxSessions > 0 && len(rt.sessions) >= rt.opts.maxSessions {
		return ErrRuntimeFull
	}
	if _, ok := rt.sessions[s.ID()]; ok {
		return ErrSessionExists.With(s.ID())
	}
	rt.sessions[s.ID()] = s
	return nil
}

func (rt *RoundRuntime) remove(id string) {
	rt.mu.Lock()
	delete(rt.sessions, id)
	rt.mu.Unlock()
}

// removeSession 只在登記表裡仍是同一個 *Session 時移除
func (rt *RoundRuntime) removeSession(s *Session) {
	rt.mu.Lock()
	if rt.sessions[s.ID()] == s {
		delete(rt.sessions, s.ID())
	}
	rt.mu.Unlock()
}

// live 回傳登記表內可用的 Session；暫存中的視為不存在
func (rt *RoundRuntime) live(id string) (*Session, bool) {
	rt.mu.RLock()
	s, ok := rt.sessions[id]
	rt.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	parked := s.parked
	s.mu.Unlock()
	return s, !parked
}

// Get 取得存活中的 Session；不存在回傳 ErrSessionNotFound
func (rt *RoundRuntime) Get(ctx context.Context, id string) (*Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	rt.mu.RLock()
	s, ok := rt.sessions[id]
	rt.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound.With(id)
	}
	return s, nil
}

// Place 對指定 Session 放置；centered 為 true 時 (row, col) 代表塊的中心格
func (rt *RoundRuntime) Place(ctx context.Context, id string, slot, row, col int, centered bool) (blast.PlaceResult, blast.RoundView, error) {
	s, err := rt.Get(ctx, id)
	if err != nil {
		return blast.PlaceResult{}, blast.RoundView{}, err
	}
	if centered {
		return s.PlaceCentered(slot, row, col)
	}
	return s.Place(slot, row, col)
}

func (rt *RoundRuntime) Preview(ctx context.Context, id string, slot, row, col int, centered bool) (blast.PreviewView, error) {
	s, err := rt.Get(ctx, id)
	if err != nil {
		return blast.PreviewView{}, err
	}
	return s.Preview(slot, row, col, centered)
}

func (rt *RoundRuntime) Hint(ctx context.Context, id string) (blast.Move, bool, error) {
	s, err := rt.Get(ctx, id)
	if err != nil {
		return blast.Move{}, false, err
	}
	return s.hint()
}

// Finish 結算已終局的 Session 並移出登記表。未終局回傳 ErrNotTerminal，Session 保持存活。
func (rt *RoundRuntime) Finish(ctx context.Context, id string) (Settlement, error) {
	s, err := rt.Get(ctx, id)
	if err != nil {
		return Settlement{}, err
	}
	out, err := s.settle(ctx, rt.st)
	if err != nil {
		if c := errs.CodeOf(err); c != errs.CodeRejected && c != errs.CodeNotFound {
			rt.log.Error("session.settle", slog.String("id", id), slog.Any("err", err))
		}
		return Settlement{}, err
	}
	rt.remove(id)
	rt.settled.Add(1)
	rt.log.Info("session.finish",
		slog.String("id", id),
		slog.Int("score", out.Score),
		slog.Int("credit", out.Credit),
		slog.Bool("new_best", out.NewBest),
	)
	return out, nil
}

// Suspend 把 Session 存入 store 並移出記憶體，之後可用 Resume 以同一個 id 取回。
//
// 快照與停用在同一把鎖內完成：寫入 store 期間的放置一律回 ErrSessionNotFound，
// 不會出現「已回應成功卻不在快照裡」的步驟。寫入失敗則恢復可用。
func (rt *RoundRuntime) Suspend(ctx context.Context, id string) error {
	s, err := rt.Get(ctx, id)
	if err != nil {
		return err
	}
	blob, err := s.park()
	if err != nil {
		return err
	}
	if err := rt.st.SaveSuspended(ctx, id, blob); err != nil {
		s.unpark()
		return err
	}
	rt.removeSession(s)
	rt.log.Debug("session.suspend", slog.String("id", id), slog.Int("bytes", len(blob)), slog.String("fp", snapfmt.Fingerprint(blob)))
	return nil
}

// Resume 取回暫存的 Session；若仍在記憶體中直接回傳。
func (rt *RoundRuntime) Resume(ctx context.Context, id string) (*Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	if s, ok := rt.live(id); ok {
		return s, nil
	}
	blob, err := rt.st.LoadSuspended(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err := rt.Import(ctx, blob)
	if errors.Is(err, ErrSessionExists) {
		// 併發的 Resume 已先一步登記，回傳那一份
		if s, ok := rt.live(id); ok {
			return s, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if err := rt.st.DeleteSuspended(ctx, id); err != nil {
		rt.log.Warn("session.resume.cleanup", slog.String("id", id), slog.Any("err", err))
	}
	rt.resumed.Add(1)
	rt.log.Debug("session.resume", slog.String("id", id))
	return s, nil
}

// Discard 放棄一局：移出記憶體，不結算也不寫入 store
func (rt *RoundRuntime) Discard(ctx context.Context, id string) error {
	if _, err := rt.Get(ctx, id); err != nil {
		return err
	}
	rt.remove(id)
	rt.log.Debug("session.discard", slog.String("id", id))
	return nil
}

// Import 以快照還原一局並登記到 runtime；同 id 已存在時回傳 ErrSessionExists。
func (rt *RoundRuntime) Import(ctx context.Context, blob []byte) (*Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	s, err := rt.lab.RestoreSession(blob)
	if err != nil {
		return nil, err
	}
	if err := rt.add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// EvictIdle 處理閒置超過 idleTTL 的 Session：已終局者結算，進行中者暫存到 store。
//
// 回傳被移出記憶體的數量。
func (rt *RoundRuntime) EvictIdle(ctx context.Context, now time.Time) int {
	if rt.opts.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-rt.opts.idleTTL)
	rt.mu.RLock()
	idle := make([]*Session, 0, 8)
	for _, s := range rt.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, s)
		}
	}
	rt.mu.RUnlock()

	n := 0
	for _, s := range idle {
		var err error
		switch {
		case s.State() == blast.Terminal && !s.Settled():
			_, err = rt.Finish(ctx, s.ID())
		case s.State() == blast.Terminal:
			rt.remove(s.ID())
		default:
			err = rt.Suspend(ctx, s.ID())
		}
		if err != nil {
			rt.log.Error("session.evict", slog.String("id", s.ID()), slog.Any("err", err))
			continue
		}
		n++
	}
	if n > 0 {
		rt.evicted.Add(uint64(n))
		rt.log.Info("session.evict", slog.Int("count", n))
	}
	return n
}

// Run 週期性執行 EvictIdle，直到 ctx 結束或 runtime 關閉。
func (rt *RoundRuntime) Run(ctx context.Context) {
	if rt.opts.idleTTL <= 0 {
		return
	}
	tick := time.NewTicker(max(rt.opts.idleTTL/2, time.Second))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.done:
			return
		case now := <-tick.C:
			rt.EvictIdle(ctx, now)
		}
	}
}

// Best 目前 profile 的最佳分數
func (rt *RoundRuntime) Best(ctx context.Context) (int, error) {
	if err := rt.check(ctx); err != nil {
		return 0, err
	}
	return rt.st.BestScore(ctx, rt.rules.Setting().BestScoreKey)
}

// Recent 最近的結算事件
func (rt *RoundRuntime) Recent(ctx context.Context, limit int) ([]store.GameResult, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	return rt.st.RecentResults(ctx, limit)
}

func (rt *RoundRuntime) Stats() RuntimeStats {
	rt.mu.RLock()
	live := len(rt.sessions)
	rt.mu.RUnlock()
	return RuntimeStats{
		Live:    live,
		Opened:  rt.opened.Load(),
		Settled: rt.settled.Load(),
		Evicted: rt.evicted.Load(),
		Resumed: rt.resumed.Load(),
	}
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *RoundRuntime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *RoundRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *RoundRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *RoundRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
