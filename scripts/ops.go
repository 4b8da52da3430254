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

// ops 開發用的工作腳本：go run ./scripts <task>
package main

import (
	"fmt"
	"os"
)

type task struct {
	desc string
	run  func() error
}

var tasks = map[string]task{
	"test":        {"go test ./... -cover, ok/FAIL lines only", runTest},
	"test-race":   {"go test ./... -race", runTestRace},
	"test-detail": {"go test ./... -v, without [no test files]", runTestDetail},
	"sim-smoke":   {"audited self-play on every ruleset and policy", runSimSmoke},
	"pgo":         {"cpu profile a long simulation into default.pgo", runPGO},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		PrintYellow(fmt.Sprintf("Unknown task: %s", os.Args[1]))
		usage()
		os.Exit(1)
	}
	if err := t.run(); err != nil {
		PrintRed(err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: go run ./scripts [task]")
	for _, name := range []string{"test", "test-race", "test-detail", "sim-smoke", "pgo"} {
		fmt.Printf("  %-12s %s\n", name, tasks[name].desc)
	}
}
