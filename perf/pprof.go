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

// Package perf 以 runtime/pprof 包住一段工作，供 cmd/sim 做效能分析與 PGO。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/machilab/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// Mode 要拍哪一種 profile；空字串代表不拍。
type Mode string

const (
	Off    Mode = ""
	CPU    Mode = "cpu"
	Heap   Mode = "heap"
	Allocs Mode = "allocs"
)

func (m Mode) Valid() bool {
	switch m {
	case Off, CPU, Heap, Allocs:
		return true
	default:
		return false
	}
}

// Run 依 mode 執行 exe 並把 profile 寫到 dir/<mode>.pprof，回傳寫出的路徑（Off 時為空）。
// exe 的錯誤優先回傳。
func Run(dir string, mode Mode, exe func() error) (string, error) {
	if !mode.Valid() {
		return "", errs.Warnf("unknown pprof mode %q", mode)
	}
	if mode == Off {
		return "", exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Wrap(err, "create profiling dir")
	}
	path := filepath.Join(dir, string(mode)+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return "", errs.Wrap(err, "create "+path)
	}
	defer f.Close()

	switch mode {
	case CPU:
		if err := pprof.StartCPUProfile(f); err != nil {
			return "", errs.Wrap(err, "start cpu profile")
		}
		err := exe()
		pprof.StopCPUProfile()
		return path, err
	case Heap:
		if err := exe(); err != nil {
			return "", err
		}
		// 快照前 GC 一次，只留存活物件
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return "", errs.Wrap(err, "write heap profile")
		}
	default:
		// allocs 是累積配置，看 -alloc_space / -alloc_objects
		if err := exe(); err != nil {
			return "", err
		}
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			return "", errs.Wrap(err, "write allocs profile")
		}
	}
	return path, nil
}
