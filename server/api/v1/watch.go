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

package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zintix-labs/machilab/dto"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/server/httperr"
	"github.com/zintix-labs/machilab/server/netsvr"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxReadMsg = 512
)

// Watch GET /v1/matches/{id}/watch?since=
//
// 升級成 websocket 後，先送 seq > since 的既有招式，再即時推送之後的招式。
// 每則訊息是一個 dto.EntryDTO；對局結束後送出 close frame。
// 觀戰者只讀不寫，送來的訊息一律丟棄。
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	id := netsvr.URLParam(r, "id")
	since := 0
	if s := r.URL.Query().Get("since"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			httperr.BadRequest(w, errs.NewWarn("since must be a non-negative integer"))
			return
		}
		since = n
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	m, err := h.hub.Get(ctx, id)
	if err != nil {
		cancel()
		httperr.Errs(w, err)
		return
	}
	// 先訂閱再補送，不會漏掉中間的招式
	feed, unsubscribe, err := h.hub.Watch(ctx, id)
	cancel()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已寫回錯誤
		h.log.Debug("watch upgrade failed", slog.String("id", id), slog.Any("err", err))
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// 以 Match 的日誌為準補送；漏掉的批次也會在這裡補上
	last := since
	flush := func() bool {
		for _, e := range m.Journal(last) {
			b, err := json.Marshal(dto.NewEntryDTO(e))
			if err != nil {
				return false
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return false
			}
			last = e.Seq
		}
		return true
	}
	if !flush() {
		return
	}

	for {
		if over, _ := m.Over(); over {
			if flush() {
				closeFrame(conn, "match over")
			}
			return
		}
		select {
		case _, ok := <-feed:
			if !ok {
				closeFrame(conn, "match removed")
				return
			}
			if !flush() {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// readPump 只處理 pong 與關閉；連線斷開時關閉 closed。
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxReadMsg)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func closeFrame(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
