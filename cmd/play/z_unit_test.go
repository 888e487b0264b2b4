package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/blastlab/sdk/blast"
)

func TestRenderAligned(t *testing.T) {
	var v blast.RoundView
	v.Board[0][0] = 1
	v.Board[7][7] = 1
	v.Draw[0] = blast.DrawView{Slot: 0, Name: "I2", Mask: [][]int{{1, 1}}}
	v.Draw[1] = blast.DrawView{Slot: 1, Name: "O4", Mask: [][]int{{1, 1}, {1, 1}}}
	v.Draw[2] = blast.DrawView{Slot: 2, Name: "P1", Consumed: true}

	var buf bytes.Buffer
	renderBoard(&buf, v)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != blast.Rows+1 {
		t.Fatalf("lines = %d", len(lines))
	}
	want := runewidth.StringWidth(lines[1])
	for _, l := range lines[1:] {
		if runewidth.StringWidth(l) != want {
			t.Fatalf("row width mismatch: %q", l)
		}
	}
	if !strings.HasPrefix(lines[1], "0  "+glyphFull) {
		t.Fatalf("first row = %q", lines[1])
	}

	buf.Reset()
	renderDraw(&buf, v)
	out := buf.String()
	for _, s := range []string{"[0] I2", "[1] O4", "[2] P1 (used)"} {
		if !strings.Contains(out, s) {
			t.Fatalf("draw missing %q:\n%s", s, out)
		}
	}
}

func TestScriptedSession(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "round.snap")
	script := strings.Join([]string{
		"h",
		"a 3",
		"p 9 0 0",
		"f",
		"save " + snap,
		"load " + snap,
		"best",
		"bogus",
		"q",
	}, "\n")
	var out bytes.Buffer
	if err := run(strings.NewReader(script), &out, "", ""); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, s := range []string{"try: p ", "placements 3", "saved ", "best 0", `unknown command "bogus"`} {
		if !strings.Contains(got, s) {
			t.Fatalf("output missing %q:\n%s", s, got)
		}
	}
	// p 9 與未終局的 f 都只印錯誤，不結束迴圈
	if strings.Count(got, "error:") != 3 {
		t.Fatalf("want 3 errors:\n%s", got)
	}
}
