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

// Package errs 定義 blastlab 全域共用的錯誤型別。
//
// 錯誤同時帶有兩個維度：
//   - ErrLv：嚴重度（Fatal / Warn / Log），決定上層要不要中止、要不要淘汰 Session。
//   - Code：領域分類（越界、放置被拒、不變量破壞 ...），決定 HTTP 邊界層回什麼狀態碼。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Code 錯誤的領域分類
type Code uint8

const (
	CodeNone       Code = iota
	CodeOutOfRange      // 座標超出 8x8 盤面（呼叫端 bug）
	CodeRejected        // 放置驗證失敗（可預期，玩家操作）
	CodeInvariant       // 不變量被破壞（程式錯誤）
	CodeTerminal        // 對已結束的局操作
	CodeNotFound        // 查無資源（session / 暫存檔）
	CodeConfig          // 設定檔錯誤
)

var codeMap = map[Code]string{
	CodeNone:       "",
	CodeOutOfRange: "out_of_range",
	CodeRejected:   "placement_rejected",
	CodeInvariant:  "invariant_violation",
	CodeTerminal:   "round_terminal",
	CodeNotFound:   "not_found",
	CodeConfig:     "config",
}

func (c Code) String() string {
	if str, ok := codeMap[c]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 為嚴重度；Code 為領域分類。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Code    Code
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Code != CodeNone {
		base = fmt.Sprintf("errlv=%s code=%s %s", ErrLv(e.ErrLv), e.Code, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 讓同一個哨兵錯誤（sentinel）加上 Extra 之後仍能被 errors.Is 命中。
//
// 規則：target 必須是 *E，且 Message / Code / ErrLv 全部相同。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	return e.Message == t.Message && e.Code == t.Code && e.ErrLv == t.ErrLv
}

// With 複製一份錯誤並附加上下文，原哨兵不會被修改。
func (e *E) With(extra string) *E {
	c := *e
	c.Extra = extra
	return &c
}

// Withf 同 With，支援格式化。
func (e *E) Withf(format string, a ...any) *E {
	return e.With(fmt.Sprintf(format, a...))
}

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

// NewCode 建立帶有領域分類的錯誤
func NewCode(errLv ErrLevel, code Code, msg string) *E {
	return &E{Message: msg, ErrLv: errLv, Code: code}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NotFound 建立查無資源的 Warn 錯誤
func NotFound(msg string) *E {
	return NewCode(Warn, CodeNotFound, msg)
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Code 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Code（保持原本嚴重度與分類）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	code := CodeNone
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		code = e.Code
	}
	r := NewCode(errLv, code, msg)
	r.Cause = cause
	return r
}

// WrapWithExtra 同 Wrap，另外附加上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// CodeOf 取出錯誤鏈上第一個 *E 的 Code，非 *E 回傳 CodeNone。
func CodeOf(err error) Code {
	if e, ok := AsErr(err); ok {
		return e.Code
	}
	return CodeNone
}

// IsFatal 判斷錯誤鏈上第一個 *E 是否為 Fatal；非 *E 的錯誤視為 Fatal。
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := AsErr(err); ok {
		return e.ErrLv == Fatal
	}
	return true
}
