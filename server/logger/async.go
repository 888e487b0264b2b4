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

package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

const defaultAsyncBuf = 1024

// AsyncHandler 把任意 slog.Handler 變成非阻塞：
// Handle 只把 record 丟進 queue，由單一背景 goroutine 依序寫出。
// queue 滿或已 Close 時直接丟棄並計數，請求路徑不會被 I/O 卡住。
//
// slog.Logger 會忽略 Handle 的 error，next 的寫入錯誤在這裡同樣被吞掉。
type AsyncHandler struct {
	next slog.Handler
	q    *queue
}

type entry struct {
	ctx context.Context
	rec slog.Record
	h   slog.Handler
}

// queue 由同一個 AsyncHandler 衍生出的 WithAttrs/WithGroup 共用
type queue struct {
	ch      chan entry
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// NewAsyncHandler 啟動背景 writer；buf <= 0 時使用 1024。
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = buildHandler(ModeDev)
	}
	if buf <= 0 {
		buf = defaultAsyncBuf
	}
	q := &queue{
		ch:   make(chan entry, buf),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go q.loop()
	return &AsyncHandler{next: next, q: q}
}

// NewAsync 以 LogMode 的預設 handler 建立非同步 logger，回傳 handler 供 shutdown 時 Close。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(buildHandler(mode), buf)
	return slog.New(ah), ah
}

func (q *queue) loop() {
	defer close(q.done)
	for {
		select {
		case e := <-q.ch:
			e.write()
		case <-q.stop:
			// 收到 stop 後把剩下的寫完再離開
			for {
				select {
				case e := <-q.ch:
					e.write()
				default:
					return
				}
			}
		}
	}
}

func (e entry) write() {
	_ = e.h.Handle(e.ctx, e.rec)
}

func (h *AsyncHandler) Ready() bool {
	return h != nil && h.q != nil && h.next != nil
}

// Dropped 回傳因 queue 滿或 Close 之後被丟棄的筆數
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.dropped.Load()
}

// Close 停止接收並等待 queue 清空，可重複呼叫。
func (h *AsyncHandler) Close() {
	_ = h.CloseContext(context.Background())
}

// CloseContext 同 Close，但最多等到 ctx 結束；逾時回傳 ctx.Err()，未寫出的 record 由背景 goroutine 繼續處理。
func (h *AsyncHandler) CloseContext(ctx context.Context) error {
	if !h.Ready() {
		return nil
	}
	h.q.once.Do(func() { close(h.q.stop) })
	select {
	case <-h.q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Ready() {
		return nil
	}
	select {
	case <-h.q.stop:
		h.q.dropped.Add(1)
		return nil
	default:
	}
	// Record 內部 attr 切片跨 goroutine 前要 Clone
	select {
	case h.q.ch <- entry{ctx: ctx, rec: r.Clone(), h: h.next}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}
