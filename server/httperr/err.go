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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/blastlab/errs"
)

// Body 錯誤回應的 JSON 形狀
type Body struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則（邊界層最小映射、可預期）：
//   - ctx timeout/cancel   → 504/408（請求生命週期問題）
//   - CodeNotFound         → 404
//   - CodeRejected/Terminal → 409（放置被拒、對已結束的局操作）
//   - 其他 errs.Warn       → 400（請求/參數問題）
//   - errs.Fatal           → 500（系統/不可恢復問題）
//
// 本函數屬於 HTTP 邊界層，核心錯誤包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout // 504
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout // 408
	}

	e, ok := errs.AsErr(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeRejected, errs.CodeTerminal:
		return http.StatusConflict
	}
	if e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Errs 決定 status code 並寫回 JSON 錯誤。
//
// 500 不回傳內部訊息，只回傳狀態文字。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	body := Body{Error: err.Error()}
	if e, ok := errs.AsErr(err); ok {
		body.Code = e.Code.String()
		if e.Extra != "" || e.Cause == nil {
			body.Error = e.Message
			if e.Extra != "" {
				body.Error += ": " + e.Extra
			}
		}
	}
	if status >= 500 {
		body.Error = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Log 依 status 決定要不要記錄：4xx 中只記 408/409/429，5xx 一律記錄。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	if (status == 408) || (status == 409) || (status == 429) {
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	} else if (status >= 500) && (status < 600) {
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
