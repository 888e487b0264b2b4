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

package blast

import "github.com/zintix-labs/blastlab/errs"

// 引擎哨兵錯誤。呼叫端以 errors.Is 判斷，附帶資訊用 With/Withf 另外複製。
var (
	// ErrOutOfRange 座標超出 8x8 盤面，屬於呼叫端 bug。
	ErrOutOfRange = errs.NewCode(errs.Fatal, errs.CodeOutOfRange, "cell out of range")
	// ErrPlacementRejected 放置驗證失敗，狀態不變，玩家可重試。
	ErrPlacementRejected = errs.NewCode(errs.Warn, errs.CodeRejected, "placement rejected")
	// ErrInvariant 內部不變量被破壞。
	ErrInvariant = errs.NewCode(errs.Fatal, errs.CodeInvariant, "invariant violation")
	// ErrRoundTerminal 對已結束的局進行放置。
	ErrRoundTerminal = errs.NewCode(errs.Warn, errs.CodeTerminal, "round is terminal")
	// ErrPieceConsumed 選到本輪已放過的塊。
	ErrPieceConsumed = errs.NewCode(errs.Warn, errs.CodeRejected, "piece already consumed")
	// ErrSlotIndex 抽塊索引不在 0..2。
	ErrSlotIndex = errs.NewCode(errs.Warn, errs.CodeRejected, "draw slot out of range")
)
