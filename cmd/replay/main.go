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

// replay 重播一場對局並印出事件日誌。
//
// 紀錄可以來自 YAML/JSON 檔（-f），也可以來自 SQLite 日誌（-db 與 -id）。
//
//	go run ./cmd/replay -f match.yaml
//	go run ./cmd/replay -db machilab.db -id <uuid> -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/dto"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/server/logger"
	"github.com/zintix-labs/machilab/store"
)

type config struct {
	file   string
	db     string
	id     string
	asJSON bool
}

func main() {
	cfg := new(config)
	flag.StringVar(&cfg.file, "f", "", "record file (.yaml/.yml/.json)")
	flag.StringVar(&cfg.db, "db", "", "sqlite journal path")
	flag.StringVar(&cfg.id, "id", "", "match id in the journal")
	flag.BoolVar(&cfg.asJSON, "json", false, "print the move log as json")
	flag.Parse()

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config, w io.Writer) error {
	rec, err := cfg.load()
	if err != nil {
		return err
	}
	lab, err := machilab.NewAuto(logger.NewDefaultLogger(logger.ModeSilence))
	if err != nil {
		return err
	}
	m, err := lab.Replay(rec)
	if err != nil {
		return err
	}
	entries := m.Journal(0)
	if cfg.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.LogResponse{ID: cfg.id, Entries: dto.NewEntryDTOs(entries)})
	}

	v := m.View()
	fmt.Fprintf(w, "ruleset %s  players %d  seed %d  moves %d\n", v.Version, len(v.Money), m.Seed(), len(entries))
	for _, e := range entries {
		d := dto.NewEntryDTO(e)
		fmt.Fprintf(w, "#%-4d %s\n", d.Seq, d.Text)
		for _, ev := range d.Events {
			fmt.Fprintf(w, "      %s\n", ev.Text)
		}
	}
	if v.Over {
		fmt.Fprintf(w, "game over after %d turns, winner: player %d\n", v.Turn, v.Winner)
	} else {
		fmt.Fprintf(w, "in progress: turn %d, player %d to move (%s)\n", v.Turn, v.Player, v.Phase)
	}
	fmt.Fprintf(w, "coins %v\n", v.Money)
	return nil
}

func (cfg *config) load() (*machilab.Record, error) {
	switch {
	case cfg.file != "":
		raw, err := os.ReadFile(cfg.file)
		if err != nil {
			return nil, errs.Wrap(err, "read record")
		}
		if strings.EqualFold(filepath.Ext(cfg.file), ".json") {
			return machilab.GetRecordByJSON(raw)
		}
		return machilab.GetRecordByYAML(raw)
	case cfg.db != "" && cfg.id != "":
		ctx := context.Background()
		j, err := store.Open(ctx, cfg.db)
		if err != nil {
			return nil, err
		}
		defer j.Close()
		return j.LoadMatch(ctx, cfg.id)
	default:
		return nil, errs.NewWarn("need -f, or -db with -id")
	}
}
