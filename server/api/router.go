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

package api

import (
	"log/slog"
	"net/http"

	v1 "github.com/zintix-labs/machilab/server/api/v1"
	"github.com/zintix-labs/machilab/server/netsvr"
	"github.com/zintix-labs/machilab/server/netsvr/middleware"
	"github.com/zintix-labs/machilab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與所有路由；sCfg 需先通過 Valid。
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg.Log)
	svr.Get("/healthz", healthz)
	return registerV1API(svr, sCfg)
}

func registerMiddleware(svr netsvr.NetSvr, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/rules", h.Versions)
		vOne.Get("/rules/{version}", h.Rules)

		vOne.Get("/matches", h.ListMatches)
		vOne.Post("/matches", h.CreateMatch)
		vOne.Get("/matches/{id}", h.GetMatch)
		vOne.Post("/matches/{id}/moves", h.Play)
		vOne.Get("/matches/{id}/legal", h.Legal)
		vOne.Get("/matches/{id}/log", h.Log)
		vOne.Get("/matches/{id}/watch", h.Watch)

		vOne.Post("/sim", h.Sim)
	})
	return nil
}
