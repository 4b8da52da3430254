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

// Package server 組裝 machilab 的 HTTP 服務：chi 路由、middleware、/v1 API 與生命週期。
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/server/api"
	"github.com/zintix-labs/machilab/server/app"
	"github.com/zintix-labs/machilab/server/netsvr"
	"github.com/zintix-labs/machilab/server/svrcfg"
)

// Run 以 sCfg.Addr 建立預設的 chi server 並阻塞到收到 SIGINT/SIGTERM。
//
// 所有依賴都由 SvrCfg 注入；Run 不讀環境變數也不開資料庫，那是 cmd/svr 的工作。
// sCfg.Journal 不為 nil 時，關閉流程會在 HTTP 停止後關閉它。
func Run(sCfg *svrcfg.SvrCfg) error {
	a, svr, err := Build(sCfg, nil)
	if err != nil {
		return err
	}
	sCfg.Log.Info("[machilab] listening", slog.String("addr", addrOf(svr)))
	return stopped(sCfg.Log, a.Run())
}

// RunContext 與 Run 相同，但改由 ctx 結束觸發關閉；svr 為 nil 時使用預設 chi server。
func RunContext(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	a, svr, err := Build(sCfg, svr)
	if err != nil {
		return err
	}
	sCfg.Log.Info("[machilab] listening", slog.String("addr", addrOf(svr)))
	return stopped(sCfg.Log, a.RunContext(ctx))
}

func stopped(log *slog.Logger, err error) error {
	if err != nil {
		log.Error("app stopped", slog.Any("err", err))
	}
	return err
}

// Build 驗證設定、註冊路由並回傳待啟動的 App。
func Build(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) (*app.App, netsvr.NetSvr, error) {
	if sCfg == nil {
		return nil, nil, errs.NewFatal("server config is required")
	}
	if err := sCfg.Valid(); err != nil {
		// logger 可能不可用，直接寫 stderr
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	if svr == nil {
		svr = netsvr.NewChiServer(sCfg.Addr)
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return nil, nil, errs.NewFatal("default server is not ready")
	}
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		return nil, nil, err
	}
	a := app.NewWith(sCfg.Log, svr)
	if j := sCfg.Journal; j != nil {
		a.Register(app.OnShutdown(func(context.Context) error { return j.Close() }))
	}
	return a, svr, nil
}

func addrOf(svr netsvr.NetSvr) string {
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		return s.Address()
	}
	return "custom"
}
