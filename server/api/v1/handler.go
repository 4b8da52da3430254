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

// Package v1 machilab 的 HTTP API（/v1）。
//
// 對局相關的 handler 只做三件事：解碼請求、呼叫 Hub、把結果編成 dto。
// 規則判斷全部在引擎裡，這一層不重複檢查。
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/server/httperr"
	"github.com/zintix-labs/machilab/server/svrcfg"
	"github.com/zintix-labs/machilab/store"
)

// Handler 持有 /v1 路由所需的依賴。
type Handler struct {
	lab      *machilab.Machilab
	hub      *machilab.Hub
	journal  *store.Store
	log      *slog.Logger
	debug    bool
	maxSim   int
	timeout  time.Duration
	upgrader websocket.Upgrader
}

func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	if sCfg == nil || sCfg.Lab == nil || sCfg.Hub == nil {
		return nil, errs.NewFatal("v1 handler requires a validated server config")
	}
	return &Handler{
		lab:     sCfg.Lab,
		hub:     sCfg.Hub,
		journal: sCfg.Journal,
		log:     sCfg.Log,
		debug:   sCfg.DebugMoves,
		maxSim:  sCfg.MaxSimMatches,
		timeout: sCfg.Timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// 觀戰是唯讀的公開資料
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// writeJSON 先編碼到記憶體，避免寫到一半才出錯。
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
