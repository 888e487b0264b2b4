package perf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunPProfWritesProfile(t *testing.T) {
	dir := t.TempDir()
	for _, mode := range []string{"cpu", "heap", "allocs"} {
		ran := false
		if err := RunPProf(dir, mode, func() error { ran = true; return nil }); err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if !ran {
			t.Fatalf("%s: exe not called", mode)
		}
		if fi, err := os.Stat(filepath.Join(dir, mode+".pprof")); err != nil || fi.Size() == 0 {
			t.Fatalf("%s: profile missing: %v", mode, err)
		}
	}
}

func TestRunPProfPassThrough(t *testing.T) {
	boom := errors.New("boom")
	if err := RunPProf(t.TempDir(), "", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if err := RunPProf(t.TempDir(), "trace", func() error { return nil }); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}
