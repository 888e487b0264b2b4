package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/zintix-labs/blastlab/errs"
)

func exerciseStore(t *testing.T, s ScoreStore) {
	t.Helper()
	ctx := context.Background()
	key := "bb_highscore_" + time.Now().Format("150405.000000")

	best, err := s.BestScore(ctx, key)
	if err != nil || best != 0 {
		t.Fatalf("empty best = %d, %v", best, err)
	}
	best, improved, err := s.SubmitBest(ctx, key, 120)
	if err != nil || best != 120 || !improved {
		t.Fatalf("first submit = %d %v %v", best, improved, err)
	}
	best, improved, err = s.SubmitBest(ctx, key, 80)
	if err != nil || best != 120 || improved {
		t.Fatalf("lower submit = %d %v %v", best, improved, err)
	}
	best, improved, err = s.SubmitBest(ctx, key, 120)
	if err != nil || best != 120 || improved {
		t.Fatalf("equal submit = %d %v %v", best, improved, err)
	}
	best, improved, err = s.SubmitBest(ctx, key, 450)
	if err != nil || best != 450 || !improved {
		t.Fatalf("higher submit = %d %v %v", best, improved, err)
	}
	if got, _ := s.BestScore(ctx, key); got != 450 {
		t.Fatalf("best after submits = %d", got)
	}

	for i, sc := range []int{100, 250, 1200} {
		r := GameResult{RoundID: "r" + string(rune('a'+i)), GameType: "block_blast", Score: sc, Credit: sc / 100}
		if err := s.RecordResult(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	recent, err := s.RecentResults(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Score != 1200 || recent[1].Score != 250 {
		t.Fatalf("recent = %+v", recent)
	}
	if recent[0].Credit != 12 || recent[0].GameType != "block_blast" || recent[0].CreatedAt.IsZero() {
		t.Fatalf("recent[0] = %+v", recent[0])
	}

	id := "sess-" + key
	if _, err := s.LoadSuspended(ctx, id); !errors.Is(err, ErrSuspendedNotFound) || errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("missing suspended = %v", err)
	}
	if err := s.SaveSuspended(ctx, id, []byte{1, 2, 3}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveSuspended(ctx, id, []byte{4, 5}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	blob, err := s.LoadSuspended(ctx, id)
	if err != nil || len(blob) != 2 || blob[0] != 4 {
		t.Fatalf("load = %v %v", blob, err)
	}
	if err := s.DeleteSuspended(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.LoadSuspended(ctx, id); !errors.Is(err, ErrSuspendedNotFound) {
		t.Fatalf("after delete = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.BestScore(ctx, key); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed store = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	exerciseStore(t, s)
}

func TestSQLiteMigrateIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("BLASTLAB_PG_DSN")
	if dsn == "" {
		t.Skip("BLASTLAB_PG_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	exerciseStore(t, s)
}

func TestRebindDollar(t *testing.T) {
	s := newSQLStore(nil, postgresDialect)
	got := s.q(`SELECT a FROM t WHERE x = ? AND y = ?`)
	if got != `SELECT a FROM t WHERE x = $1 AND y = $2` {
		t.Fatalf("rebind = %q", got)
	}
	lite := newSQLStore(nil, sqliteDialect)
	if lite.q("?") != "?" {
		t.Fatalf("sqlite must keep ?")
	}
}

func TestOpenDefaultsToMemory(t *testing.T) {
	s, err := Open(context.Background(), "", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("want memory store, got %T", s)
	}
}
