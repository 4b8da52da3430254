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
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/server"
	"github.com/zintix-labs/machilab/server/logger"
	"github.com/zintix-labs/machilab/server/svrcfg"
	"github.com/zintix-labs/machilab/store"
)

// 設定先讀 MACHILAB_* 環境變數，再由 flag 覆寫。
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	env, err := svrcfg.LoadEnv()
	if err != nil {
		return err
	}
	flag.StringVar(&env.Addr, "addr", env.Addr, "listen address")
	flag.TextVar(&env.LogMode, "log-mode", env.LogMode, "log mode: dev|prod|silence")
	flag.StringVar(&env.DBPath, "db", env.DBPath, "sqlite journal path; empty keeps matches in memory only")
	flag.BoolVar(&env.DebugMoves, "debug-moves", env.DebugMoves, "allow debug matches with force-roll")
	flag.IntVar(&env.MaxMatches, "max-matches", env.MaxMatches, "max live matches; <= 0 means unlimited")
	flag.IntVar(&env.MaxSimMatches, "max-sim", env.MaxSimMatches, "max matches per /v1/sim request")
	flag.Parse()

	log, ah := logger.NewAsync(4096, env.LogMode)
	defer ah.Close()

	lab, err := machilab.NewAuto(log)
	if err != nil {
		return err
	}
	sCfg := &svrcfg.SvrCfg{Env: env, Log: log, Lab: lab}
	if env.DBPath != "" {
		j, err := store.Open(context.Background(), env.DBPath)
		if err != nil {
			return err
		}
		// 關閉交給 server 的生命週期
		sCfg.Journal = j
	}
	return server.Run(sCfg)
}
