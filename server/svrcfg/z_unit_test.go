package svrcfg

import (
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/blastlab"
	"github.com/zintix-labs/blastlab/server/logger"
	"github.com/zintix-labs/blastlab/store"
)

func TestLoadFileCfg(t *testing.T) {
	fc, err := LoadFileCfg(strings.NewReader(`
addr: ":9000"
log_mode: prod
profile: relaxed
idle_ttl: 90s
sqlite_path: /tmp/blast.db
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Addr != ":9000" || fc.LogMode != "prod" || fc.Profile != "relaxed" {
		t.Fatalf("fc = %+v", fc)
	}
	if fc.IdleTTL.Duration != 90*time.Second || fc.Timeout.Duration != DefaultRequestTimeout {
		t.Fatalf("durations = %v %v", fc.IdleTTL, fc.Timeout)
	}
	if fc.SimMaxRounds != DefaultSimMaxRounds {
		t.Fatalf("defaults lost: %+v", fc)
	}

	if _, err := LoadFileCfg(strings.NewReader("adress: x\n")); err == nil {
		t.Fatalf("unknown field should fail")
	}
	if _, err := LoadFileCfg(strings.NewReader("idle_ttl: soon\n")); err == nil {
		t.Fatalf("bad duration should fail")
	}
	empty, err := LoadFileCfg(strings.NewReader("  \n"))
	if err != nil || empty.Addr != DefaultAddr {
		t.Fatalf("empty = %+v %v", empty, err)
	}
}

func TestApplyEnv(t *testing.T) {
	fc := DefaultFileCfg()
	env := map[string]string{"BLASTLAB_ADDR": ":7000", "DATABASE_URL": "postgres://x"}
	fc.ApplyEnv(func(k string) string { return env[k] })
	if fc.Addr != ":7000" || fc.DatabaseURL != "postgres://x" || fc.LogMode != "dev" {
		t.Fatalf("fc = %+v", fc)
	}
}

func TestSvrCfgValid(t *testing.T) {
	if err := (&SvrCfg{}).Valid(); err == nil {
		t.Fatalf("missing lab should fail")
	}
	lab, err := blastlab.NewDefault()
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	sc := &SvrCfg{Lab: lab, Log: logger.NewDefaultLogger(logger.ModeSilence), SimMaxWorkers: 1000}
	if err := sc.Valid(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	if sc.Addr != DefaultAddr || sc.SimMaxWorkers != 64 || sc.RequestTimeout != DefaultRequestTimeout {
		t.Fatalf("defaults = %+v", sc)
	}
	if _, ok := sc.Store.(*store.Memory); !ok {
		t.Fatalf("store default = %T", sc.Store)
	}
	bad := &SvrCfg{Lab: lab, Log: sc.Log, Profile: "missing"}
	if err := bad.Valid(); err == nil {
		t.Fatalf("unknown profile should fail")
	}
}
