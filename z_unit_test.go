package blastlab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/sdk/blast"
	"github.com/zintix-labs/blastlab/store"
)

func newLab(t *testing.T) *Blastlab {
	t.Helper()
	lab, err := NewDefault()
	if err != nil {
		t.Fatalf("new default: %v", err)
	}
	return lab
}

// terminalSession 由一般 Session 的快照改寫成已終局、指定分數的 Session
func terminalSession(t *testing.T, lab *Blastlab, seed int64, score int) *Session {
	t.Helper()
	s, err := lab.NewSessionWithSeed("", seed)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	blob, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	ss, err := decodeSnapshot(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ss.Round.State = blast.Terminal
	ss.Round.Score = score
	blob, err = encodeSnapshot(ss)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ts, err := lab.RestoreSession(blob)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	return ts
}

func drawIDs(v blast.RoundView) [3]int {
	return [3]int{v.Draw[0].PieceID, v.Draw[1].PieceID, v.Draw[2].PieceID}
}

func TestNewDefaultProfiles(t *testing.T) {
	lab := newLab(t)
	if lab.Default() != DefaultProfile {
		t.Fatalf("default = %q", lab.Default())
	}
	sums := lab.Profiles()
	if len(sums) != 2 || sums[0].Name != "relaxed" || sums[1].Name != "standard" {
		t.Fatalf("profiles = %+v", sums)
	}
	bs, err := lab.Balance("")
	if err != nil || len(bs.Bands) != 4 || bs.BestScoreKey != "bb_highscore" {
		t.Fatalf("standard = %+v, %v", bs, err)
	}
	if _, err := lab.Rules("missing"); errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("missing profile = %v", err)
	}
	if _, err := New(nil); err == nil {
		t.Fatalf("New without configs should fail")
	}
}

func TestSessionSameSeedSameRound(t *testing.T) {
	lab := newLab(t)
	a, _ := lab.NewSessionWithSeed("", 42)
	b, _ := lab.NewSessionWithSeed("", 42)
	if a.ID() == b.ID() {
		t.Fatalf("session ids must differ")
	}
	for i := 0; i < 12; i++ {
		if drawIDs(a.View()) != drawIDs(b.View()) {
			t.Fatalf("step %d: draws differ", i)
		}
		m, ok := a.Hint()
		if !ok {
			break
		}
		ra, _, errA := a.Place(m.Slot, m.Row, m.Col)
		rb, _, errB := b.Place(m.Slot, m.Row, m.Col)
		if errA != nil || errB != nil {
			t.Fatalf("place: %v %v", errA, errB)
		}
		if ra.Score != rb.Score || ra.Lines != rb.Lines || ra.Redrawn != rb.Redrawn {
			t.Fatalf("step %d: results differ %+v vs %+v", i, ra, rb)
		}
	}
}

func TestSessionPlaceCenteredAndPreview(t *testing.T) {
	lab := newLab(t)
	s, _ := lab.NewSessionWithSeed("", 3)
	v := s.View()
	p, err := blast.PieceByID(v.Draw[0].PieceID)
	if err != nil {
		t.Fatalf("piece: %v", err)
	}
	pv, err := s.Preview(0, 4, 4, true)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	r, c := blast.CenterAnchor(p, 4, 4)
	if pv.Row != r || pv.Col != c || !pv.Valid {
		t.Fatalf("preview = %+v want anchor (%d,%d)", pv, r, c)
	}
	res, after, err := s.PlaceCentered(0, 4, 4)
	if err != nil {
		t.Fatalf("place centered: %v", err)
	}
	if res.Row != r || res.Col != c || !after.Draw[0].Consumed {
		t.Fatalf("result = %+v", res)
	}
	if _, _, err := s.PlaceCentered(5, 0, 0); !errors.Is(err, blast.ErrSlotIndex) {
		t.Fatalf("bad slot = %v", err)
	}
}

func TestSnapshotRestoreContinuesIdentically(t *testing.T) {
	lab := newLab(t)
	s, _ := lab.NewSessionWithSeed("relaxed", 99)
	for i := 0; i < 4; i++ {
		m, ok := s.Hint()
		if !ok {
			t.Fatalf("no move at step %d", i)
		}
		if _, _, err := s.Place(m.Slot, m.Row, m.Col); err != nil {
			t.Fatalf("place: %v", err)
		}
	}
	blob, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	r, err := lab.RestoreSession(blob)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if r.ID() != s.ID() || r.Profile() != "relaxed" || r.Seed() != 99 {
		t.Fatalf("identity lost: %s %s %d", r.ID(), r.Profile(), r.Seed())
	}
	for i := 0; i < 10; i++ {
		va, vb := s.View(), r.View()
		if va.Board != vb.Board || drawIDs(va) != drawIDs(vb) || va.Score != vb.Score || va.Combo != vb.Combo {
			t.Fatalf("step %d: views differ", i)
		}
		m, ok := s.Hint()
		if !ok {
			break
		}
		if _, _, err := s.Place(m.Slot, m.Row, m.Col); err != nil {
			t.Fatalf("place a: %v", err)
		}
		if _, _, err := r.Place(m.Slot, m.Row, m.Col); err != nil {
			t.Fatalf("place b: %v", err)
		}
	}
	if _, err := lab.RestoreSession([]byte("garbage")); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("garbage = %v", err)
	}
}

func TestCredit(t *testing.T) {
	cases := []struct{ score, ratio, want int }{
		{0, 100, 0},
		{99, 100, 0},
		{100, 100, 1},
		{1999, 100, 19},
		{-5, 100, 0},
		{500, 0, 0},
	}
	for _, c := range cases {
		if got := Credit(c.score, c.ratio); got != c.want {
			t.Fatalf("Credit(%d,%d) = %d want %d", c.score, c.ratio, got, c.want)
		}
	}
}

func TestRuntimeFinishSettlesOnce(t *testing.T) {
	ctx := context.Background()
	lab := newLab(t)
	st := store.NewMemory()
	rt, err := lab.BuildRuntime(st)
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	defer rt.Close()

	live, err := rt.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := rt.Finish(ctx, live.ID()); !errors.Is(err, ErrNotTerminal) {
		t.Fatalf("finish active = %v", err)
	}
	if _, err := rt.Get(ctx, live.ID()); err != nil {
		t.Fatalf("active session must stay live: %v", err)
	}

	ts := terminalSession(t, lab, 5, 350)
	if err := rt.add(ts); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := rt.Finish(ctx, ts.ID())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if out.Credit != 3 || !out.NewBest || out.Best != 350 || !out.Recorded || out.GameType != "block_blast" {
		t.Fatalf("settlement = %+v", out)
	}
	if _, err := rt.Finish(ctx, ts.ID()); errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("second finish = %v", err)
	}
	if _, err := ts.settle(ctx, st); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("settle twice = %v", err)
	}

	low := terminalSession(t, lab, 6, 50)
	_ = rt.add(low)
	out, err = rt.Finish(ctx, low.ID())
	if err != nil {
		t.Fatalf("finish low: %v", err)
	}
	if out.Credit != 0 || out.Recorded || out.NewBest || out.Best != 350 {
		t.Fatalf("low settlement = %+v", out)
	}
	if best, _ := rt.Best(ctx); best != 350 {
		t.Fatalf("best = %d", best)
	}
	recent, _ := rt.Recent(ctx, 10)
	if len(recent) != 1 || recent[0].Score != 350 || recent[0].Credit != 3 {
		t.Fatalf("recent = %+v", recent)
	}
	if s := rt.Stats(); s.Settled != 2 || s.Opened != 1 || s.Live != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestRuntimeSuspendResume(t *testing.T) {
	ctx := context.Background()
	lab := newLab(t)
	rt, _ := lab.BuildRuntime(nil)
	defer rt.Close()

	s, _ := rt.Open(ctx)
	m, _ := s.Hint()
	if _, _, err := rt.Place(ctx, s.ID(), m.Slot, m.Row, m.Col, false); err != nil {
		t.Fatalf("place: %v", err)
	}
	before := s.View()
	if err := rt.Suspend(ctx, s.ID()); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, err := rt.Get(ctx, s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("get after suspend = %v", err)
	}
	r, err := rt.Resume(ctx, s.ID())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	after := r.View()
	if after.Board != before.Board || drawIDs(after) != drawIDs(before) || after.Score != before.Score {
		t.Fatalf("resumed view differs")
	}
	again, err := rt.Resume(ctx, s.ID())
	if err != nil || again != r {
		t.Fatalf("resume live = %v", err)
	}
	if _, err := rt.Resume(ctx, "nope"); errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("resume unknown = %v", err)
	}
	if rt.Stats().Resumed != 1 {
		t.Fatalf("stats = %+v", rt.Stats())
	}
}

// gateStore 讓 SaveSuspended / LoadSuspended 停在中途，直到測試放行
type gateStore struct {
	*store.Memory
	saving  chan struct{}
	loading chan struct{}
	release chan struct{}
	saveErr error
}

func newGateStore() *gateStore {
	return &gateStore{
		Memory:  store.NewMemory(),
		saving:  make(chan struct{}, 4),
		loading: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
}

func (g *gateStore) SaveSuspended(ctx context.Context, id string, blob []byte) error {
	g.saving <- struct{}{}
	<-g.release
	if g.saveErr != nil {
		return g.saveErr
	}
	return g.Memory.SaveSuspended(ctx, id, blob)
}

func (g *gateStore) LoadSuspended(ctx context.Context, id string) ([]byte, error) {
	b, err := g.Memory.LoadSuspended(ctx, id)
	g.loading <- struct{}{}
	<-g.release
	return b, err
}

func TestRuntimeSuspendRejectsConcurrentPlacement(t *testing.T) {
	ctx := context.Background()
	lab := newLab(t)
	gs := newGateStore()
	rt, _ := lab.BuildRuntime(gs)
	defer rt.Close()

	s, _ := rt.Open(ctx)
	m, _ := s.Hint()
	done := make(chan error, 1)
	go func() { done <- rt.Suspend(ctx, s.ID()) }()
	<-gs.saving

	if _, _, err := rt.Place(ctx, s.ID(), m.Slot, m.Row, m.Col, false); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("place while suspending = %v", err)
	}
	if _, _, err := rt.Place(ctx, s.ID(), m.Slot, m.Row, m.Col, true); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("centered place while suspending = %v", err)
	}
	if _, err := rt.Preview(ctx, s.ID(), m.Slot, m.Row, m.Col, false); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("preview while suspending = %v", err)
	}
	if _, _, err := rt.Hint(ctx, s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("hint while suspending = %v", err)
	}
	if err := rt.Suspend(ctx, s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second suspend = %v", err)
	}
	close(gs.release)
	if err := <-done; err != nil {
		t.Fatalf("suspend: %v", err)
	}

	r, err := rt.Resume(ctx, s.ID())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	v := r.View()
	if v.Score != 0 || v.Placements != 0 {
		t.Fatalf("resumed round carries a rejected move: %+v", v)
	}
	if _, _, err := rt.Place(ctx, r.ID(), m.Slot, m.Row, m.Col, false); err != nil {
		t.Fatalf("place after resume: %v", err)
	}
}

func TestRuntimeSuspendSaveFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	lab := newLab(t)
	gs := newGateStore()
	gs.saveErr = errs.NewFatal("disk full")
	close(gs.release)
	rt, _ := lab.BuildRuntime(gs)
	defer rt.Close()

	s, _ := rt.Open(ctx)
	if err := rt.Suspend(ctx, s.ID()); err == nil {
		t.Fatalf("suspend should fail")
	}
	m, _ := s.Hint()
	if _, _, err := rt.Place(ctx, s.ID(), m.Slot, m.Row, m.Col, false); err != nil {
		t.Fatalf("place after failed suspend: %v", err)
	}
	if rt.Stats().Live != 1 {
		t.Fatalf("stats = %+v", rt.Stats())
	}
}

func TestRuntimeConcurrentResumeSharesSession(t *testing.T) {
	ctx := context.Background()
	lab := newLab(t)
	gs := newGateStore()
	rt, _ := lab.BuildRuntime(gs)
	defer rt.Close()

	s, _ := rt.Open(ctx)
	go func() { <-gs.saving; gs.release <- struct{}{} }()
	if err := rt.Suspend(ctx, s.ID()); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	type res struct {
		s   *Session
		err error
	}
	out := make(chan res, 2)
	for i := 0; i < 2; i++ {
		go func() {
			r, err := rt.Resume(ctx, s.ID())
			out <- res{r, err}
		}()
	}
	// 兩個 Resume 都拿到 blob 後才放行
	<-gs.loading
	<-gs.loading
	close(gs.release)
	a, b := <-out, <-out
	if a.err != nil || b.err != nil {
		t.Fatalf("resume errors: %v / %v", a.err, b.err)
	}
	if a.s != b.s {
		t.Fatalf("concurrent resume returned two sessions")
	}
	if rt.Stats().Live != 1 || rt.Stats().Resumed != 1 {
		t.Fatalf("stats = %+v", rt.Stats())
	}
}

func TestRuntimeImportDiscard(t *testing.T) {
	ctx := context.Background()
	lab := newLab(t)
	rt, _ := lab.BuildRuntime(nil)
	defer rt.Close()

	s, _ := rt.Open(ctx)
	blob, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, err := rt.Import(ctx, blob); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("import live id = %v", err)
	}
	if err := rt.Discard(ctx, s.ID()); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if err := rt.Discard(ctx, s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("discard twice = %v", err)
	}
	back, err := rt.Import(ctx, blob)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if back.ID() != s.ID() || drawIDs(back.View()) != drawIDs(s.View()) {
		t.Fatalf("imported session differs")
	}
	if _, err := rt.Import(ctx, []byte("garbage")); err == nil {
		t.Fatalf("garbage snapshot should fail")
	}
	if st := rt.Stats(); st.Live != 1 || st.Settled != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestRuntimeEvictIdle(t *testing.T) {
	ctx := context.Background()
	lab := newLab(t)
	st := store.NewMemory()
	rt, _ := lab.BuildRuntime(st, WithIdleTTL(time.Minute))
	defer rt.Close()

	active, _ := rt.Open(ctx)
	ts := terminalSession(t, lab, 8, 220)
	_ = rt.add(ts)

	if n := rt.EvictIdle(ctx, time.Now()); n != 0 {
		t.Fatalf("fresh sessions evicted: %d", n)
	}
	if n := rt.EvictIdle(ctx, time.Now().Add(2*time.Minute)); n != 2 {
		t.Fatalf("evicted = %d", n)
	}
	if _, err := st.LoadSuspended(ctx, active.ID()); err != nil {
		t.Fatalf("active session not suspended: %v", err)
	}
	recent, _ := st.RecentResults(ctx, 5)
	if len(recent) != 1 || recent[0].RoundID != ts.ID() {
		t.Fatalf("terminal session not settled: %+v", recent)
	}
	if s := rt.Stats(); s.Live != 0 || s.Evicted != 2 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestRuntimeLimitsAndClose(t *testing.T) {
	ctx := context.Background()
	lab := newLab(t)
	rt, _ := lab.BuildRuntime(nil, WithMaxSessions(1), WithProfile("relaxed"))
	s, err := rt.Open(ctx)
	if err != nil || s.Profile() != "relaxed" {
		t.Fatalf("open = %v %v", s, err)
	}
	if _, err := rt.Open(ctx); !errors.Is(err, ErrRuntimeFull) {
		t.Fatalf("over limit = %v", err)
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := rt.Get(cctx, s.ID()); err == nil {
		t.Fatalf("canceled ctx should fail")
	}
	rt.Close()
	rt.Close()
	if _, err := rt.Open(ctx); !errs.IsFatal(err) || !rt.Closed() || rt.ClosedReason() != "closed" {
		t.Fatalf("closed runtime = %v", err)
	}
	if _, err := lab.BuildRuntime(nil, WithProfile("missing")); err == nil {
		t.Fatalf("unknown profile should fail")
	}
}

func TestSimDeterministic(t *testing.T) {
	lab := newLab(t)
	run := func() (int, int, int) {
		sim, err := lab.NewSimulatorWithSeed("", 2025)
		if err != nil {
			t.Fatalf("simulator: %v", err)
		}
		sim.SetMaxPlacements(60)
		rep, _, err := sim.SimMP(24, 3, false)
		if err != nil {
			t.Fatalf("sim: %v", err)
		}
		draws := 0
		for _, row := range rep.Draw.Counts {
			for _, c := range row {
				draws += c
			}
		}
		return rep.Summary.Rounds, rep.Summary.TotalScore, draws
	}
	r1, s1, d1 := run()
	r2, s2, d2 := run()
	if r1 != 24 || r1 != r2 || s1 != s2 || d1 != d2 {
		t.Fatalf("non deterministic: (%d,%d,%d) vs (%d,%d,%d)", r1, s1, d1, r2, s2, d2)
	}
	if d1 < 3*24 {
		t.Fatalf("each round draws at least once: %d", d1)
	}
}

func TestSimCapAndArgs(t *testing.T) {
	lab := newLab(t)
	sim, _ := lab.NewSimulatorWithSeed("", 1)
	sim.SetMaxPlacements(3)
	rep, _, err := sim.Sim(5, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	// 空盤 3 次放置不可能終局
	if rep.Summary.CappedRounds != 5 || rep.Summary.TotalCredit != 0 || rep.Summary.TotalPlacements != 15 {
		t.Fatalf("summary = %+v", rep.Summary)
	}
	if _, _, err := sim.SimMP(0, 1, false); err == nil {
		t.Fatalf("zero rounds should fail")
	}
	if _, _, err := sim.SimMP(1, 0, false); err == nil {
		t.Fatalf("zero workers should fail")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := sim.SimMPContext(ctx, 4, 2, false); err == nil {
		t.Fatalf("canceled simulation should fail")
	}
}

func TestSeedMakerDistinct(t *testing.T) {
	sm := newSeedMaker(7)
	seen := map[int64]struct{}{}
	for i := 0; i < 1000; i++ {
		v := sm.next()
		if v < 0 {
			t.Fatalf("negative seed %d", v)
		}
		if _, ok := seen[v]; ok {
			t.Fatalf("duplicate seed at %d", i)
		}
		seen[v] = struct{}{}
	}
}
