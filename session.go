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
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/blastlab/sdk/autoplay"
	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/sdk/core"
	"github.com/zintix-labs/blastlab/spec"
)

// Session 一位玩家的一局。
//
// 並發語意：
//   - 每個 Session 持有自己的 Core（PRNG），Session 之間不共享任何可變狀態。
//   - 所有操作都經過 mu 序列化，放置/清除/計分/重抽/終局判定是一個不可分割的單位。
//   - 外部拿到的 RoundView / PlaceResult 都是複本，之後的操作不會改到它們。
type Session struct {
	mu       sync.Mutex
	id       string
	profile  string
	seed     int64
	core     *core.Core
	round    *blast.Round
	bs       *spec.BalanceSetting
	policy   *autoplay.Policy
	created  time.Time
	lastSeen atomic.Int64 // unix nano，淘汰閒置 Session 時無鎖讀取
	settled  bool
	parked   bool // 快照已取、正在寫入 store；期間拒絕一切會改變或依賴盤面的操作
}

func newSessionID() string {
	return uuid.NewString()
}

func newSession(id, name string, seed int64, p *profile) *Session {
	c := core.New(p.cf.New(seed))
	s := &Session{
		id:      id,
		profile: name,
		seed:    seed,
		core:    c,
		round:   blast.NewRound(p.rules, c),
		bs:      p.bs,
		policy:  autoplay.Default(),
		created: time.Now(),
	}
	s.touch()
	return s
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Profile() string      { return s.profile }
func (s *Session) Seed() int64          { return s.seed }
func (s *Session) CreatedAt() time.Time { return s.created }

// usable 需在持有 mu 時呼叫；暫存中的 Session 對外視同已離開記憶體
func (s *Session) usable() error {
	if s.parked {
		return ErrSessionNotFound.With(s.id)
	}
	return nil
}

// LastActive 最後一次被操作的時間
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Place 在 slot 指定的塊放到 (row, col)，(row, col) 為塊的左上角。
func (s *Session) Place(slot, row, col int) (blast.PlaceResult, blast.RoundView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return blast.PlaceResult{}, blast.RoundView{}, err
	}
	s.touch()
	res, err := s.round.Place(slot, row, col)
	return res, s.round.View(), err
}

// PlaceCentered 同 Place，但 (row, col) 是指標所在格，換算成以塊中心對齊的左上角。
func (s *Session) PlaceCentered(slot, row, col int) (blast.PlaceResult, blast.RoundView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return blast.PlaceResult{}, blast.RoundView{}, err
	}
	s.touch()
	r, c, err := s.centered(slot, row, col)
	if err != nil {
		return blast.PlaceResult{}, s.round.View(), err
	}
	res, err := s.round.Place(slot, r, c)
	return res, s.round.View(), err
}

// Preview 不改變狀態，回傳放置後會佔用的格子與是否合法。
func (s *Session) Preview(slot, row, col int, centered bool) (blast.PreviewView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return blast.PreviewView{}, err
	}
	s.touch()
	if centered {
		r, c, err := s.centered(slot, row, col)
		if err != nil {
			return blast.PreviewView{}, err
		}
		row, col = r, c
	}
	return s.round.Preview(slot, row, col)
}

func (s *Session) centered(slot, row, col int) (int, int, error) {
	if slot < 0 || slot >= blast.DrawSize {
		return 0, 0, blast.ErrSlotIndex.Withf("slot=%d", slot)
	}
	d := s.round.Draw()
	r, c := blast.CenterAnchor(d[slot].Piece, row, col)
	return r, c, nil
}

// Hint 依自動出塊策略給出建議；終局或暫存中 ok 為 false。
func (s *Session) Hint() (blast.Move, bool) {
	m, ok, _ := s.hint()
	return m, ok
}

func (s *Session) hint() (blast.Move, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return blast.Move{}, false, err
	}
	s.touch()
	m, ok := s.policy.Best(s.round)
	return m, ok, nil
}

func (s *Session) View() blast.RoundView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.View()
}

func (s *Session) State() blast.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.State()
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.Score()
}

// Settled 是否已結算
func (s *Session) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}
