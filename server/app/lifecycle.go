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

// Package app 定義應用程式根目錄用以管理長期運行元件的最小生命週期抽象。
package app

import (
	"context"
	"sync"
)

// Component 抽象任何「可啟動 / 可關閉」的長生命週期元件。
// - Run() 應該是阻塞呼叫，直到元件停止為止（正常或錯誤）。
// - Shutdown(ctx) 用於要求優雅關閉；實作方應該尊重 ctx deadline/cancel。
// 典型實例：HTTP Server、閒置 Session 清理、Message Consumer 等。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Background 把「以 ctx 控制的背景迴圈」包成 Component。
//
// Run 會阻塞到 Shutdown 被呼叫，即使 loop 提早返回也一樣，避免背景工作結束時拖垮整個 App。
type Background struct {
	loop    func(ctx context.Context)
	onStop  func(ctx context.Context) error
	ctx     context.Context
	cancel  context.CancelFunc
	stopped sync.Once
}

// NewBackground loop 在 Run 時啟動；onStop（可為 nil）在 Shutdown 時呼叫一次
func NewBackground(loop func(ctx context.Context), onStop func(ctx context.Context) error) *Background {
	ctx, cancel := context.WithCancel(context.Background())
	return &Background{loop: loop, onStop: onStop, ctx: ctx, cancel: cancel}
}

func (b *Background) Run() error {
	if b.loop != nil {
		b.loop(b.ctx)
	}
	<-b.ctx.Done()
	return nil
}

func (b *Background) Shutdown(ctx context.Context) error {
	var err error
	b.stopped.Do(func() {
		b.cancel()
		if b.onStop != nil {
			err = b.onStop(ctx)
		}
	})
	return err
}
