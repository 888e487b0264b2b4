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
	"encoding/json"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/sdk/autoplay"
	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/sdk/core"
)

const snapshotVersion = 1

var ErrBadSnapshot = errs.NewCode(errs.Warn, errs.CodeInvariant, "bad session snapshot")

// SessionSnapshot Session 的完整可恢復狀態：盤面、三塊、計分與 PRNG 狀態。
//
// 以 JSON 編碼後再經 zstd 壓縮存放；還原後的抽塊序列與原 Session 完全一致。
type SessionSnapshot struct {
	Version   int              `json:"v"`
	ID        string           `json:"id"`
	Profile   string           `json:"profile"`
	Seed      int64            `json:"seed"`
	RNG       []byte           `json:"rng"`
	Round     blast.RoundState `json:"round"`
	CreatedAt time.Time        `json:"created_at"`
	Settled   bool             `json:"settled"`
}

// EncodeAll / DecodeAll 可併發呼叫，共用一組 encoder/decoder
var (
	zenc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zdec, _ = zstd.NewReader(nil)
)

// Snapshot 匯出壓縮後的 Session 狀態
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// park 取快照並在同一段臨界區內停用 Session，之後的放置不會漏進或落在快照之外。
// 已停用時回傳 ErrSessionNotFound。
func (s *Session) park() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	blob, err := s.snapshotLocked()
	if err != nil {
		return nil, err
	}
	s.parked = true
	return blob, nil
}

// unpark 寫入 store 失敗時恢復可用
func (s *Session) unpark() {
	s.mu.Lock()
	s.parked = false
	s.mu.Unlock()
}

func (s *Session) snapshotLocked() ([]byte, error) {
	rng, err := s.core.Snapshot()
	if err != nil {
		return nil, errs.Wrap(err, "snapshot core")
	}
	ss := SessionSnapshot{
		Version:   snapshotVersion,
		ID:        s.id,
		Profile:   s.profile,
		Seed:      s.seed,
		RNG:       rng,
		Round:     s.round.Export(),
		CreatedAt: s.created,
		Settled:   s.settled,
	}
	return encodeSnapshot(&ss)
}

func encodeSnapshot(ss *SessionSnapshot) ([]byte, error) {
	raw, err := json.Marshal(ss)
	if err != nil {
		return nil, errs.Wrap(err, "marshal snapshot")
	}
	return zenc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func decodeSnapshot(blob []byte) (*SessionSnapshot, error) {
	raw, err := zdec.DecodeAll(blob, nil)
	if err != nil {
		return nil, ErrBadSnapshot.With("zstd: " + err.Error())
	}
	ss := &SessionSnapshot{}
	if err := json.Unmarshal(raw, ss); err != nil {
		return nil, ErrBadSnapshot.With("json: " + err.Error())
	}
	if ss.Version != snapshotVersion {
		return nil, ErrBadSnapshot.Withf("version %d", ss.Version)
	}
	if ss.ID == "" {
		return nil, ErrBadSnapshot.With("empty id")
	}
	return ss, nil
}

// RestoreSession 由 Snapshot 的輸出重建 Session，保留原本的 id。
func (b *Blastlab) RestoreSession(blob []byte) (*Session, error) {
	ss, err := decodeSnapshot(blob)
	if err != nil {
		return nil, err
	}
	p, err := b.profile(ss.Profile)
	if err != nil {
		return nil, err
	}
	c := core.New(p.cf.New(ss.Seed))
	if err := c.Restore(ss.RNG); err != nil {
		return nil, ErrBadSnapshot.With("rng: " + err.Error())
	}
	r, err := blast.RestoreRound(p.rules, c, ss.Round)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:      ss.ID,
		profile: p.bs.Name,
		seed:    ss.Seed,
		core:    c,
		round:   r,
		bs:      p.bs,
		policy:  autoplay.Default(),
		created: ss.CreatedAt,
		settled: ss.Settled,
	}
	s.touch()
	return s, nil
}
