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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/game"
	"github.com/zintix-labs/machilab/setting"
	"github.com/zintix-labs/machilab/store"
)

const record = `
setting:
  version: 1
  expansions: [base]
  policy: total
  starting_coins: 3
  players: 2
  debug: true
seed: 7
moves:
  - kind: force-roll
    dice: [1]
  - kind: buy-establishment
    est: 101
  - kind: end-turn
`

func TestReplayFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.yaml")
	if err := os.WriteFile(path, []byte(record), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	if err := run(&config{file: path}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"moves 3", "#1", "rolled 1", "bought Wheat Field", "in progress: turn 2"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestReplayFromJournal(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "m.db")
	j, err := store.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	lab, err := machilab.NewAuto(nil)
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	hub := machilab.NewHub(lab, j, 0)
	id, m, err := hub.CreateWithSeed(ctx, setting.Default(catalog.V2, 3), 9)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5; i++ {
		mv := m.Legal()[0]
		if _, err := hub.Play(ctx, id, m.View().Player, mv); err != nil {
			t.Fatalf("play: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var out bytes.Buffer
	if err := run(&config{db: dbPath, id: id, asJSON: true}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var lg struct {
		ID      string `json:"id"`
		Entries []struct {
			Seq  int       `json:"seq"`
			Move game.Move `json:"move"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(out.Bytes(), &lg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lg.ID != id || len(lg.Entries) != 5 || lg.Entries[4].Seq != 5 {
		t.Fatalf("unexpected log %+v", lg)
	}

	if err := run(&config{}, &out); err == nil {
		t.Fatalf("missing source must fail")
	}
}
