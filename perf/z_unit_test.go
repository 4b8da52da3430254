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

package perf_test

import (
	"errors"
	"os"
	"testing"

	"github.com/zintix-labs/machilab/perf"
)

func TestRunWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	work := func() error {
		s := make([][]int, 0, 64)
		for i := range 64 {
			s = append(s, make([]int, i))
		}
		_ = s
		return nil
	}
	for _, m := range []perf.Mode{perf.CPU, perf.Heap, perf.Allocs} {
		path, err := perf.Run(dir, m, work)
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
			t.Fatalf("%s: profile %s missing or empty", m, path)
		}
	}
}

func TestRunOffAndErrors(t *testing.T) {
	called := false
	if path, err := perf.Run(t.TempDir(), perf.Off, func() error { called = true; return nil }); err != nil || path != "" || !called {
		t.Fatalf("off mode got %q, %v, called=%v", path, err, called)
	}
	if _, err := perf.Run(t.TempDir(), "trace", func() error { return nil }); err == nil {
		t.Fatalf("unknown mode must fail")
	}
	boom := errors.New("boom")
	if _, err := perf.Run(t.TempDir(), perf.Heap, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("exe error must pass through, got %v", err)
	}
}
