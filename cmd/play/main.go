package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zintix-labs/blastlab"
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/snapfmt"
	"github.com/zintix-labs/blastlab/store"
)

const usage = `commands:
  p <slot> <row> <col>   place piece, (row,col) is the top-left of its mask
  c <slot> <row> <col>   place piece centered on (row,col)
  h                      hint
  a [n]                  let the policy play n moves (default: until the round ends)
  f                      finish and settle a terminal round
  n                      new round
  save <file> / load <file>  export or import a snapshot
  best | results         best score and recent settlements
  q                      quit`

// 終端機版本：單人遊玩，分數寫進 -db 指定的 SQLite（沒給就只存在記憶體）
func main() {
	profile := flag.String("profile", "", "balance profile")
	db := flag.String("db", "", "sqlite file for best score and results")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *profile, *db); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type game struct {
	ctx context.Context
	rt  *blastlab.RoundRuntime
	id  string
	out io.Writer
}

func run(in io.Reader, out io.Writer, profile, db string) error {
	ctx := context.Background()
	lab, err := blastlab.NewDefault()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, "", db)
	if err != nil {
		return err
	}
	defer st.Close()
	rt, err := lab.BuildRuntime(st, blastlab.WithProfile(profile))
	if err != nil {
		return err
	}
	defer rt.Close()

	g := &game{ctx: ctx, rt: rt, out: out}
	if err := g.newRound(); err != nil {
		return err
	}
	fmt.Fprintln(out, usage)
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		quit, err := g.exec(strings.Fields(sc.Text()))
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		if quit {
			return nil
		}
	}
}

func (g *game) show() error {
	s, err := g.rt.Get(g.ctx, g.id)
	if err != nil {
		return err
	}
	render(g.out, s.View())
	return nil
}

func (g *game) newRound() error {
	s, err := g.rt.Open(g.ctx)
	if err != nil {
		return err
	}
	g.id = s.ID()
	return g.show()
}

func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, errs.Warnf("want %d numbers, got %d", n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, errs.Warnf("%q is not a number", a)
		}
		out[i] = v
	}
	return out, nil
}

func (g *game) exec(f []string) (bool, error) {
	if len(f) == 0 {
		return false, nil
	}
	switch f[0] {
	case "q", "quit", "exit":
		return true, nil
	case "?", "help":
		fmt.Fprintln(g.out, usage)
	case "p", "c":
		v, err := ints(f[1:], 3)
		if err != nil {
			return false, err
		}
		res, _, err := g.rt.Place(g.ctx, g.id, v[0], v[1], v[2], f[0] == "c")
		if err != nil {
			return false, err
		}
		if res.Lines > 0 {
			fmt.Fprintf(g.out, "cleared %d line(s), +%d\n", res.Lines, res.Points.LinePoints)
		}
		return false, g.show()
	case "h":
		m, ok, err := g.rt.Hint(g.ctx, g.id)
		if err != nil {
			return false, err
		}
		if !ok {
			fmt.Fprintln(g.out, "no legal move")
			return false, nil
		}
		fmt.Fprintf(g.out, "try: p %d %d %d\n", m.Slot, m.Row, m.Col)
	case "a":
		n := -1
		if len(f) > 1 {
			v, err := ints(f[1:2], 1)
			if err != nil {
				return false, err
			}
			n = v[0]
		}
		return false, g.auto(n)
	case "f":
		out, err := g.rt.Finish(g.ctx, g.id)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(g.out, "score %d  credit %d  best %d", out.Score, out.Credit, out.Best)
		if out.NewBest {
			fmt.Fprint(g.out, "  new best!")
		}
		fmt.Fprintln(g.out)
		return false, g.newRound()
	case "n":
		return false, g.newRound()
	case "save":
		if len(f) != 2 {
			return false, errs.NewWarn("usage: save <file>")
		}
		s, err := g.rt.Get(g.ctx, g.id)
		if err != nil {
			return false, err
		}
		blob, err := s.Snapshot()
		if err != nil {
			return false, err
		}
		if err := writeSnapshot(f[1], blob); err != nil {
			return false, err
		}
		fmt.Fprintf(g.out, "saved %s (%d bytes)\n", f[1], len(blob))
	case "load":
		if len(f) != 2 {
			return false, errs.NewWarn("usage: load <file>")
		}
		blob, err := readSnapshot(f[1])
		if err != nil {
			return false, err
		}
		s, err := g.rt.Import(g.ctx, blob)
		if errors.Is(err, blastlab.ErrSessionExists) {
			// 載入的就是目前這局，直接換成快照內容
			if err := g.rt.Discard(g.ctx, g.id); err != nil {
				return false, err
			}
			s, err = g.rt.Import(g.ctx, blob)
		}
		if err != nil {
			return false, err
		}
		g.id = s.ID()
		return false, g.show()
	case "best":
		b, err := g.rt.Best(g.ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(g.out, "best %d\n", b)
	case "results":
		list, err := g.rt.Recent(g.ctx, 10)
		if err != nil {
			return false, err
		}
		for _, r := range list {
			fmt.Fprintf(g.out, "%s  score %d  credit %d\n", r.CreatedAt.Format("2006-01-02 15:04"), r.Score, r.Credit)
		}
	default:
		return false, errs.Warnf("unknown command %q, type help", f[0])
	}
	return false, nil
}

// auto 由策略連續放置，n < 0 表示直到終局
func (g *game) auto(n int) error {
	for i := 0; n < 0 || i < n; i++ {
		m, ok, err := g.rt.Hint(g.ctx, g.id)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if _, _, err := g.rt.Place(g.ctx, g.id, m.Slot, m.Row, m.Col, false); err != nil {
			return err
		}
	}
	return g.show()
}

func writeSnapshot(path string, blob []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := snapfmt.WriteFrame(f, blob); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readSnapshot(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return snapfmt.ReadFrame(f)
}
