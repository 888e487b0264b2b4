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
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zintix-labs/blastlab/errs"
)

// LogMode 決定預設 handler 的格式、等級與輸出位置
type LogMode uint8

const (
	ModeDev     LogMode = iota // text, debug, stderr
	ModeProd                   // json, info, stdout
	ModeSilence                // 全部丟棄
)

var logModeNames = [...]string{
	ModeDev:     "dev",
	ModeProd:    "prod",
	ModeSilence: "silence",
}

func (m LogMode) String() string {
	if int(m) < len(logModeNames) {
		return logModeNames[m]
	}
	return "unknown"
}

// ParseLogMode 給設定檔與環境變數用，空字串視為 dev，大小寫不敏感。
func ParseLogMode(s string) (LogMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dev", "debug":
		return ModeDev, nil
	case "prod", "json":
		return ModeProd, nil
	case "silence", "off", "none":
		return ModeSilence, nil
	default:
		return ModeDev, errs.NewCode(errs.Warn, errs.CodeConfig, "unknown log mode").With(s)
	}
}

// NewDefaultLogger 依 LogMode 建立同步 logger；測試與 CLI 用這個就夠了。
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(buildHandler(mode))
}

// NewLogger 包裝呼叫者自行組裝的 handler，nil 時退回 dev 模式。
func NewLogger(h slog.Handler) *slog.Logger {
	if h == nil {
		h = buildHandler(ModeDev)
	}
	return slog.New(h)
}

func buildHandler(mode LogMode) slog.Handler {
	switch mode {
	case ModeProd:
		// 正式環境：JSON 寫 stdout，交給收集器
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, nil)
	default:
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}
