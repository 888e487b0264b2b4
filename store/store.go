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

// Package store 保存局外狀態：最佳分數、結算事件、暫存（suspend）中的 Session。
//
// 引擎本身不碰任何持久化，這一層只在結算與斷線重連時被 runtime 呼叫。
package store

import (
	"context"
	"sync"
	"time"

	"github.com/zintix-labs/blastlab/errs"
)

var (
	ErrSuspendedNotFound = errs.NotFound("suspended session not found")
	ErrClosed            = errs.NewFatal("store closed")
)

// GameResult 一筆結算事件
type GameResult struct {
	ID        int64     `json:"id"`
	RoundID   string    `json:"round_id"`
	GameType  string    `json:"game_type"`
	Score     int       `json:"score"`
	Credit    int       `json:"credit"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoreStore 所有實作都必須可併發使用。
type ScoreStore interface {
	BestScore(ctx context.Context, key string) (int, error)
	// SubmitBest 僅在 score 大於目前紀錄時寫入，回傳寫入後的最佳分數。
	SubmitBest(ctx context.Context, key string, score int) (best int, improved bool, err error)
	RecordResult(ctx context.Context, r GameResult) error
	// RecentResults 由新到舊
	RecentResults(ctx context.Context, limit int) ([]GameResult, error)
	SaveSuspended(ctx context.Context, id string, blob []byte) error
	// LoadSuspended 查無時回傳 ErrSuspendedNotFound
	LoadSuspended(ctx context.Context, id string) ([]byte, error)
	DeleteSuspended(ctx context.Context, id string) error
	Close() error
}

// Memory 行程內的 ScoreStore，重啟即消失。用於測試與未設定資料庫的部署。
type Memory struct {
	mu        sync.Mutex
	best      map[string]int
	results   []GameResult
	suspended map[string][]byte
	closed    bool
}

func NewMemory() *Memory {
	return &Memory{
		best:      map[string]int{},
		results:   make([]GameResult, 0, 64),
		suspended: map[string][]byte{},
	}
}

func (m *Memory) BestScore(ctx context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	return m.best[key], nil
}

func (m *Memory) SubmitBest(ctx context.Context, key string, score int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, false, ErrClosed
	}
	cur, ok := m.best[key]
	if ok && score <= cur {
		return cur, false, nil
	}
	m.best[key] = score
	return score, true, nil
}

func (m *Memory) RecordResult(ctx context.Context, r GameResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	r.ID = int64(len(m.results) + 1)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.results = append(m.results, r)
	return nil
}

func (m *Memory) RecentResults(ctx context.Context, limit int) ([]GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	limit = clampLimit(limit)
	out := make([]GameResult, 0, limit)
	for i := len(m.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.results[i])
	}
	return out, nil
}

func (m *Memory) SaveSuspended(ctx context.Context, id string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.suspended[id] = append([]byte(nil), blob...)
	return nil
}

func (m *Memory) LoadSuspended(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	b, ok := m.suspended[id]
	if !ok {
		return nil, ErrSuspendedNotFound.With(id)
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) DeleteSuspended(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.suspended, id)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

const (
	defaultLimit = 20
	maxLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// Open 依設定挑選後端：有 PostgreSQL DSN 優先，其次 SQLite 檔案，都沒有則用 Memory。
func Open(ctx context.Context, pgDSN, sqlitePath string) (ScoreStore, error) {
	switch {
	case pgDSN != "":
		return OpenPostgres(ctx, pgDSN)
	case sqlitePath != "":
		return OpenSQLite(ctx, sqlitePath)
	default:
		return NewMemory(), nil
	}
}
