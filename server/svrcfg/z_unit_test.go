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

package svrcfg_test

import (
	"testing"
	"time"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/server/logger"
	"github.com/zintix-labs/machilab/server/svrcfg"
)

func TestLoadEnvFrom(t *testing.T) {
	e, err := svrcfg.LoadEnvFrom(map[string]string{
		"MACHILAB_ADDR":            ":9000",
		"MACHILAB_LOG_MODE":        "prod",
		"MACHILAB_DB_PATH":         "/tmp/m.db",
		"MACHILAB_DEBUG_MOVES":     "true",
		"MACHILAB_MAX_MATCHES":     "7",
		"MACHILAB_REQUEST_TIMEOUT": "2s",
	})
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	if e.Addr != ":9000" || e.LogMode != logger.ModeProd || e.DBPath != "/tmp/m.db" ||
		!e.DebugMoves || e.MaxMatches != 7 || e.Timeout != 2*time.Second || e.MaxSimMatches != 20000 {
		t.Fatalf("unexpected env %+v", e)
	}

	d, err := svrcfg.LoadEnvFrom(nil)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if d.Addr != ":5808" || d.LogMode != logger.ModeDev || d.MaxMatches != 1000 {
		t.Fatalf("unexpected defaults %+v", d)
	}

	if _, err := svrcfg.LoadEnvFrom(map[string]string{"MACHILAB_LOG_MODE": "loud"}); err == nil {
		t.Fatalf("bad log mode must fail")
	}
}

func TestValid(t *testing.T) {
	if err := (&svrcfg.SvrCfg{}).Valid(); err == nil {
		t.Fatalf("missing lab must fail")
	}
	lab, err := machilab.NewAuto(nil)
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	sc := &svrcfg.SvrCfg{Lab: lab, Log: logger.NewDefaultLogger(logger.ModeSilence)}
	if err := sc.Valid(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	if sc.Hub == nil || sc.Addr != ":5808" || sc.Timeout != 5*time.Second {
		t.Fatalf("defaults not filled: %+v", sc)
	}
}
