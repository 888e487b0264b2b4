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

package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/blastlab/errs"
)

// dialect 兩個 SQL 後端的差異只有建表語句與佔位符
type dialect struct {
	name       string
	migrations []string
	dollar     bool // 佔位符使用 $1, $2 ...
}

// sqlStore 以 database/sql 實作 ScoreStore，SQLite 與 PostgreSQL 共用。
type sqlStore struct {
	db     *sql.DB
	d      dialect
	closed atomic.Bool
}

func newSQLStore(db *sql.DB, d dialect) *sqlStore {
	return &sqlStore{db: db, d: d}
}

// Migrate 建表，可重複執行
func (s *sqlStore) Migrate(ctx context.Context) error {
	for _, m := range s.d.migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return errs.Wrap(err, s.d.name+": migrate")
		}
	}
	return nil
}

// q 依方言把 ? 改寫為 $n
func (s *sqlStore) q(query string) string {
	if !s.d.dollar {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *sqlStore) check() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (s *sqlStore) BestScore(ctx context.Context, key string) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	var score int64
	err := s.db.QueryRowContext(ctx, s.q(`SELECT score FROM best_scores WHERE key = ?`), key).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errs.Wrap(err, s.d.name+": best score")
	}
	return int(score), nil
}

func (s *sqlStore) SubmitBest(ctx context.Context, key string, score int) (int, bool, error) {
	if err := s.check(); err != nil {
		return 0, false, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, errs.Wrap(err, s.d.name+": begin")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(
		`INSERT INTO best_scores (key, score, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   score = excluded.score,
		   updated_at = excluded.updated_at
		 WHERE excluded.score > best_scores.score`),
		key, int64(score), time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, false, errs.Wrap(err, s.d.name+": submit best")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, errs.Wrap(err, s.d.name+": rows affected")
	}
	var best int64
	if err := tx.QueryRowContext(ctx, s.q(`SELECT score FROM best_scores WHERE key = ?`), key).Scan(&best); err != nil {
		return 0, false, errs.Wrap(err, s.d.name+": read best")
	}
	if err := tx.Commit(); err != nil {
		return 0, false, errs.Wrap(err, s.d.name+": commit")
	}
	return int(best), n > 0, nil
}

func (s *sqlStore) RecordResult(ctx context.Context, r GameResult) error {
	if err := s.check(); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO game_results (round_id, game_type, score, credit, created_at)
		 VALUES (?, ?, ?, ?, ?)`),
		r.RoundID, r.GameType, int64(r.Score), int64(r.Credit), r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return errs.Wrap(err, s.d.name+": record result")
	}
	return nil
}

func (s *sqlStore) RecentResults(ctx context.Context, limit int) ([]GameResult, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT id, round_id, game_type, score, credit, created_at
		 FROM game_results
		 ORDER BY id DESC
		 LIMIT ?`),
		clampLimit(limit),
	)
	if err != nil {
		return nil, errs.Wrap(err, s.d.name+": recent results")
	}
	defer rows.Close()

	var out []GameResult
	for rows.Next() {
		var (
			r             GameResult
			score, credit int64
			created       int64
		)
		if err := rows.Scan(&r.ID, &r.RoundID, &r.GameType, &score, &credit, &created); err != nil {
			return nil, errs.Wrap(err, s.d.name+": scan result")
		}
		r.Score = int(score)
		r.Credit = int(credit)
		r.CreatedAt = time.UnixMilli(created)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, s.d.name+": iterate results")
	}
	return out, nil
}

func (s *sqlStore) SaveSuspended(ctx context.Context, id string, blob []byte) error {
	if err := s.check(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO suspended_sessions (id, blob, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   blob = excluded.blob,
		   updated_at = excluded.updated_at`),
		id, blob, time.Now().UnixMilli(),
	)
	if err != nil {
		return errs.Wrap(err, s.d.name+": save suspended")
	}
	return nil
}

func (s *sqlStore) LoadSuspended(ctx context.Context, id string) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var blob []byte
	err := s.db.QueryRowContext(ctx, s.q(`SELECT blob FROM suspended_sessions WHERE id = ?`), id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSuspendedNotFound.With(id)
	}
	if err != nil {
		return nil, errs.Wrap(err, s.d.name+": load suspended")
	}
	return blob, nil
}

func (s *sqlStore) DeleteSuspended(ctx context.Context, id string) error {
	if err := s.check(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM suspended_sessions WHERE id = ?`), id); err != nil {
		return errs.Wrap(err, s.d.name+": delete suspended")
	}
	return nil
}

func (s *sqlStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
