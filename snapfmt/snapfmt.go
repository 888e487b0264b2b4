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

// Package snapfmt 定義局快照在不同傳輸媒介上的外殼格式。
//
// 快照本體（zstd 壓縮的 JSON）由 blastlab 產生；這裡只負責：
//   - 文字傳輸（HTTP/JSON）：base64url token。
//   - 檔案 / 串流：magic + uvarint 長度前綴的 frame。
//   - 日誌：短的 hex 指紋。
package snapfmt

import (
	"bufio"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
	"io"

	"github.com/zintix-labs/blastlab/errs"
)

// Magic 檔案開頭的識別字
const Magic = "BLST"

// MaxSnapshot 快照大小上限。一局的快照壓縮後只有幾百 bytes，上限只是防止讀到不可信輸入時爆記憶體。
const MaxSnapshot = 1 << 20

var ErrFormat = errs.NewWarn("bad snapshot envelope")

// EncodeToken 轉成可以放在 JSON 或 URL 裡的文字
func EncodeToken(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeToken EncodeToken 的反向
func DecodeToken(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrFormat.With("empty token")
	}
	if base64.RawURLEncoding.DecodedLen(len(s)) > MaxSnapshot {
		return nil, ErrFormat.With("token too large")
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrFormat.With(err.Error())
	}
	return b, nil
}

// WriteFrame 寫出 Magic || uvarint(len) || payload
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxSnapshot {
		return ErrFormat.With("payload too large")
	}
	var hdr [len(Magic) + binary.MaxVarintLen64]byte
	n := copy(hdr[:], Magic)
	n += binary.PutUvarint(hdr[n:], uint64(len(payload)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return errs.Wrap(err, "write snapshot frame header failed")
	}
	if _, err := w.Write(payload); err != nil {
		return errs.Wrap(err, "write snapshot frame payload failed")
	}
	return nil
}

// ReadFrame 讀取 WriteFrame 寫出的一個 frame
func ReadFrame(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	var magic [len(Magic)]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, errs.Wrap(err, "read snapshot frame magic failed")
	}
	if string(magic[:]) != Magic {
		return nil, ErrFormat.With("magic mismatch")
	}
	ln, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errs.Wrap(err, "read snapshot frame header failed")
	}
	if ln > MaxSnapshot {
		return nil, ErrFormat.With("payload exceeds limit")
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errs.Wrap(err, "read snapshot frame payload failed")
	}
	return buf, nil
}

// Fingerprint 快照的 fnv-64a 指紋，給日誌比對用
func Fingerprint(b []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}
