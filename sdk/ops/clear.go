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

// Package ops 提供一維攤平盤面（flat screen，idx = r*cols + c）的基本操作。
//
// 盤面一律以 []uint8 表示，0 為空、非 0 為佔用；這些函數不知道遊戲規則，只處理格子。
package ops

// Clear 消除標記位置的格子(改為0)
//
//   - screen: 盤面數據 (將被原地修改)
//   - hitmap: 消除位置 (這些位置會被標記為 0)
//
// 越界索引會被略過，回傳實際由非 0 變成 0 的格數。
func Clear(screen []uint8, hitmap []int) int {
	n := 0
	for _, v := range hitmap {
		if v < 0 || v >= len(screen) { // 簡單防禦
			continue
		}
		if screen[v] != 0 {
			n++
		}
		screen[v] = 0
	}
	return n
}

// Count 計算盤面上值等於 v 的格數
func Count(screen []uint8, v uint8) int {
	n := 0
	for _, x := range screen {
		if x == v {
			n++
		}
	}
	return n
}
