package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLogMode(t *testing.T) {
	cases := map[string]LogMode{
		"":        ModeDev,
		"DEV":     ModeDev,
		" prod ":  ModeProd,
		"json":    ModeProd,
		"silence": ModeSilence,
		"off":     ModeSilence,
	}
	for in, want := range cases {
		got, err := ParseLogMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseLogMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLogMode("verbose"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
	if ModeProd.String() != "prod" || LogMode(9).String() != "unknown" {
		t.Fatalf("String()")
	}
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewTextHandler(&buf, nil), 16)
	log := slog.New(ah).With(slog.String("svc", "blastlab"))
	for i := 0; i < 3; i++ {
		log.Info("session.open", slog.Int("i", i))
	}
	ah.Close()
	out := buf.String()
	if n := strings.Count(out, "session.open"); n != 3 {
		t.Fatalf("want 3 records, got %d: %s", n, out)
	}
	if !strings.Contains(out, "svc=blastlab") {
		t.Fatalf("attrs lost: %s", out)
	}
	log.Info("after close")
	if ah.Dropped() != 1 {
		t.Fatalf("dropped = %d", ah.Dropped())
	}
	ah.Close()
}

type blockHandler struct {
	slog.Handler
	release chan struct{}
}

func (b blockHandler) Handle(ctx context.Context, r slog.Record) error {
	<-b.release
	return nil
}

func TestAsyncCloseContextTimeout(t *testing.T) {
	bh := blockHandler{Handler: slog.NewTextHandler(io.Discard, nil), release: make(chan struct{})}
	ah := NewAsyncHandler(bh, 4)
	slog.New(ah).Info("stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := ah.CloseContext(ctx); err == nil {
		t.Fatalf("CloseContext should time out while writer is blocked")
	}
	close(bh.release)
	if err := ah.CloseContext(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestAsyncHandlerQueueFull(t *testing.T) {
	bh := blockHandler{Handler: slog.NewTextHandler(io.Discard, nil), release: make(chan struct{})}
	ah := NewAsyncHandler(bh, 1)
	log := slog.New(ah)
	for i := 0; i < 10; i++ {
		log.Info("x")
	}
	// writer 卡在第一筆，queue 容量 1，其餘至少 8 筆被丟棄
	if ah.Dropped() < 8 {
		t.Fatalf("dropped = %d", ah.Dropped())
	}
	close(bh.release)
	ah.Close()
}
