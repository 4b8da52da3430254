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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/server/logger"
	"github.com/zintix-labs/machilab/store"
)

// Env 由環境變數讀入的伺服器設定；cmd/svr 的 flag 可再覆寫。
type Env struct {
	Addr          string         `env:"MACHILAB_ADDR"            envDefault:":5808"`
	LogMode       logger.LogMode `env:"MACHILAB_LOG_MODE"        envDefault:"dev"`
	DBPath        string         `env:"MACHILAB_DB_PATH"`
	DebugMoves    bool           `env:"MACHILAB_DEBUG_MOVES"`
	MaxMatches    int            `env:"MACHILAB_MAX_MATCHES"     envDefault:"1000"`
	MaxSimMatches int            `env:"MACHILAB_MAX_SIM_MATCHES" envDefault:"20000"`
	Timeout       time.Duration  `env:"MACHILAB_REQUEST_TIMEOUT" envDefault:"5s"`
}

// LoadEnv 從行程環境變數讀設定。
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, errs.Wrap(err, "parse env")
	}
	return e, nil
}

// LoadEnvFrom 從給定的 map 讀設定，不碰行程環境變數。
func LoadEnvFrom(vars map[string]string) (Env, error) {
	if vars == nil {
		// nil 會讓 env 退回讀 os.Environ
		vars = map[string]string{}
	}
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Env{}, errs.Wrap(err, "parse env")
	}
	return e, nil
}

// SvrCfg 伺服器組裝所需的全部依賴。
//
//   - Lab 必填。
//   - Hub 為 nil 時由 Valid 以 Lab、Journal 與 MaxMatches 建立。
//   - Journal 為 nil 時對局只存在記憶體，GET /v1/matches 回空列表。
type SvrCfg struct {
	Env
	Log     *slog.Logger
	Lab     *machilab.Machilab
	Hub     *machilab.Hub
	Journal *store.Store
}

func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, sc.LogMode)
	}
	if sc.Lab == nil {
		return errs.NewFatal("machilab is required")
	}
	if sc.Addr == "" {
		sc.Addr = ":5808"
	}
	if sc.Timeout <= 0 {
		sc.Timeout = 5 * time.Second
	}
	sc.MaxSimMatches = max(1, sc.MaxSimMatches)
	if sc.Hub == nil {
		// 介面值不能直接放 nil 指標
		var st machilab.Store
		if sc.Journal != nil {
			st = sc.Journal
		}
		sc.Hub = machilab.NewHub(sc.Lab, st, sc.MaxMatches)
	}
	return nil
}
