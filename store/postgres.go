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
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/zintix-labs/blastlab/errs"
)

var postgresDialect = dialect{
	name:   "postgres",
	dollar: true,
	migrations: []string{
		`CREATE TABLE IF NOT EXISTS best_scores (
			key TEXT PRIMARY KEY,
			score BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game_results (
			id BIGSERIAL PRIMARY KEY,
			round_id TEXT NOT NULL DEFAULT '',
			game_type TEXT NOT NULL,
			score BIGINT NOT NULL,
			credit BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_created_at ON game_results(created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS suspended_sessions (
			id TEXT PRIMARY KEY,
			blob BYTEA NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
	},
}

// Postgres 多實例部署用的 ScoreStore。
type Postgres struct {
	*sqlStore
}

// OpenPostgres 以 DSN 連線並完成建表。
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(err, "postgres: parse dsn")
	}
	// 經過 PgBouncer 之類的連線池時不能用 server-side prepared statement
	config.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	db := stdlib.OpenDB(*config)
	db.SetConnMaxIdleTime(4 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(err, "postgres: ping")
	}
	s := &Postgres{newSQLStore(db, postgresDialect)}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
