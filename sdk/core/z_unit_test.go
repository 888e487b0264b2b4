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

package core

import (
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	for _, name := range []string{"pcg64", "pcg32"} {
		f := FactoryByName(name)
		if f == nil {
			t.Fatalf("factory %s not found", name)
		}
		c1 := New(f.New(7))
		c2 := New(f.New(7))
		for i := 0; i < 16; i++ {
			if c1.Uint64() != c2.Uint64() {
				t.Fatalf("[%s] Uint64 mismatch at %d", name, i)
			}
		}
		if c1.IntN(10) != c2.IntN(10) {
			t.Fatalf("[%s] IntN mismatch", name)
		}
		if c1.Float64() != c2.Float64() {
			t.Fatalf("[%s] Float64 mismatch", name)
		}
	}
}

func TestFactoryByNameUnknown(t *testing.T) {
	if FactoryByName("mt19937") != nil {
		t.Fatalf("expected nil factory for unknown name")
	}
}

func TestBoundsAndSentinels(t *testing.T) {
	c := New(Default().New(3))
	if got := c.IntN(0); got != -1 {
		t.Fatalf("IntN(0) want -1, got %d", got)
	}
	if got := c.UintN(0); got != 0 {
		t.Fatalf("UintN(0) want 0, got %d", got)
	}
	for i := 0; i < 1000; i++ {
		if v := c.IntN(7); v < 0 || v >= 7 {
			t.Fatalf("IntN out of range: %d", v)
		}
		if f := c.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
	}
	if got := c.Pick(nil); got != -1 {
		t.Fatalf("expected -1 for empty pick, got %d", got)
	}
	if got := c.Pick([]int{42}); got != 42 {
		t.Fatalf("single pick want 42, got %d", got)
	}
}

func TestSnapshotRestore(t *testing.T) {
	for _, name := range []string{"pcg64", "pcg32"} {
		c := New(FactoryByName(name).New(99))
		c.Uint64()
		snap, err := c.Snapshot()
		if err != nil {
			t.Fatalf("[%s] snapshot: %v", name, err)
		}
		want := []uint64{c.Uint64(), c.Uint64(), c.Uint64()}

		r := New(FactoryByName(name).New(1))
		if err := r.Restore(snap); err != nil {
			t.Fatalf("[%s] restore: %v", name, err)
		}
		for i, w := range want {
			if got := r.Uint64(); got != w {
				t.Fatalf("[%s] restored sequence mismatch at %d", name, i)
			}
		}
	}
}

func TestPCG32RestoreRejectsShortState(t *testing.T) {
	r := newPCG32WithSeed(1)
	if err := r.Restore([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for short snapshot")
	}
}

func TestPCG32Bounds(t *testing.T) {
	r := newPCG32WithSeed(5)
	for i := 0; i < 500; i++ {
		if v := r.IntN(3); v < 0 || v >= 3 {
			t.Fatalf("IntN(3) = %d", v)
		}
		if v := r.UintN(1 << 40); v >= 1<<40 {
			t.Fatalf("UintN(2^40) = %d", v)
		}
	}
	if r.IntN(-1) != -1 || r.UintN(0) != 0 {
		t.Fatalf("sentinels")
	}
}
