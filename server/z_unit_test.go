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

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzip"
	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/server"
	"github.com/zintix-labs/machilab/server/logger"
	"github.com/zintix-labs/machilab/server/svrcfg"
)

const debugMatch = `{"setting":{"version":1,"expansions":["base"],"policy":"total","starting_coins":3,"players":2,"debug":true},"seed":7}`

type viewDoc struct {
	ID   string `json:"id"`
	Seed *int64 `json:"seed"`
	View struct {
		Phase  string `json:"phase"`
		Player int    `json:"player"`
		Turn   int    `json:"turn"`
		Money  []int  `json:"money"`
	} `json:"view"`
}

func newServer(t *testing.T, debug bool) http.Handler {
	t.Helper()
	lab, err := machilab.NewAuto(logger.NewDefaultLogger(logger.ModeSilence))
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	env, err := svrcfg.LoadEnvFrom(map[string]string{"MACHILAB_MAX_SIM_MATCHES": "50"})
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	env.DebugMoves = debug
	cfg := &svrcfg.SvrCfg{Env: env, Log: logger.NewDefaultLogger(logger.ModeSilence), Lab: lab}
	_, svr, err := server.Build(cfg, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return svr.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func createMatch(t *testing.T, h http.Handler) viewDoc {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/matches", debugMatch)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create got %d: %s", rec.Code, rec.Body.String())
	}
	var doc viewDoc
	decode(t, rec, &doc)
	if doc.ID == "" || doc.Seed == nil || *doc.Seed != 7 {
		t.Fatalf("unexpected create response %+v", doc)
	}
	return doc
}

func TestMatchLifecycle(t *testing.T) {
	h := newServer(t, true)
	doc := createMatch(t, h)
	base := "/v1/matches/" + doc.ID
	if doc.View.Phase != "roll" || doc.View.Turn != 1 {
		t.Fatalf("fresh match got %+v", doc.View)
	}
	p := doc.View.Player

	rec := do(t, h, http.MethodGet, base+"/legal", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("legal got %d", rec.Code)
	}
	var legal struct {
		Player int              `json:"player"`
		Phase  string           `json:"phase"`
		Moves  []map[string]any `json:"moves"`
	}
	decode(t, rec, &legal)
	if legal.Player != p || legal.Phase != "roll" || len(legal.Moves) == 0 {
		t.Fatalf("legal got %+v", legal)
	}

	// 不是自己的回合：規則拒絕 → 409
	rec = do(t, h, http.MethodPost, base+"/moves", `{"player":`+itoa(1-p)+`,"move":"roll-one"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("wrong seat got %d: %s", rec.Code, rec.Body.String())
	}
	// 格式錯誤 → 400
	for _, bad := range []string{
		`{"player":0,`,
		`{"player":0,"move":"fly"}`,
		`{"player":0,"move":"buy-establishment"}`,
		`{"player":0,"move":"roll-one","x":1}`,
		// 不屬於此對局版本的卡片 id
		`{"player":0,"move":"buy-establishment","est":999}`,
		`{"player":0,"move":"buy-landmark","land":205}`,
	} {
		if rec = do(t, h, http.MethodPost, base+"/moves", bad); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s got %d", bad, rec.Code)
		}
	}

	moves := []string{
		`{"player":` + itoa(p) + `,"move":"force-roll","dice":[1]}`,
		`{"player":` + itoa(p) + `,"move":"buy-establishment","est":101}`,
		`{"player":` + itoa(p) + `,"move":"end-turn"}`,
	}
	for i, mv := range moves {
		rec = do(t, h, http.MethodPost, base+"/moves", mv)
		if rec.Code != http.StatusOK {
			t.Fatalf("move %d got %d: %s", i, rec.Code, rec.Body.String())
		}
		var out struct {
			Entry struct {
				Seq    int `json:"seq"`
				Events []struct {
					Kind string `json:"kind"`
					Text string `json:"text"`
				} `json:"events"`
			} `json:"entry"`
		}
		decode(t, rec, &out)
		// end-turn 沒有事件
		if out.Entry.Seq != i+1 || (i < 2 && len(out.Entry.Events) == 0) {
			t.Fatalf("move %d entry %+v", i, out.Entry)
		}
	}

	rec = do(t, h, http.MethodGet, base, "")
	var now viewDoc
	decode(t, rec, &now)
	if now.View.Turn != 2 || now.View.Phase != "roll" || now.View.Player == p || now.Seed != nil {
		t.Fatalf("after end-turn got %+v", now)
	}

	rec = do(t, h, http.MethodGet, base+"/log?since=1", "")
	var lg struct {
		Since   int              `json:"since"`
		Entries []map[string]any `json:"entries"`
	}
	decode(t, rec, &lg)
	if lg.Since != 1 || len(lg.Entries) != 2 {
		t.Fatalf("log got %+v", lg)
	}
	if rec = do(t, h, http.MethodGet, base+"/log?since=-1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative since got %d", rec.Code)
	}
}

func TestNotFoundAndRules(t *testing.T) {
	h := newServer(t, false)
	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/v1/matches/nope", "", http.StatusNotFound},
		{http.MethodGet, "/v1/matches/nope/legal", "", http.StatusNotFound},
		{http.MethodPost, "/v1/matches/nope/moves", `{"player":0,"move":"roll-one"}`, http.StatusNotFound},
		{http.MethodGet, "/v1/rules/v1", "", http.StatusOK},
		{http.MethodGet, "/v1/rules/2", "", http.StatusOK},
		{http.MethodGet, "/v1/rules/v9", "", http.StatusNotFound},
		{http.MethodGet, "/v1/rules/latest", "", http.StatusBadRequest},
		{http.MethodGet, "/v1/rules", "", http.StatusOK},
		{http.MethodGet, "/v1/matches", "", http.StatusOK},
		{http.MethodGet, "/healthz", "", http.StatusOK},
		// 伺服器未開 debug：force-roll 對局不能開
		{http.MethodPost, "/v1/matches", debugMatch, http.StatusBadRequest},
		{http.MethodPost, "/v1/matches", `{"setting":{"version":1,"expansions":["base"],"policy":"total","players":9}}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		if rec := do(t, h, c.method, c.path, c.body); rec.Code != c.want {
			t.Fatalf("%s %s got %d want %d: %s", c.method, c.path, rec.Code, c.want, rec.Body.String())
		}
	}

	rec := do(t, h, http.MethodGet, "/v1/rules/v2", "")
	var rs struct {
		Version        int              `json:"version"`
		Establishments []map[string]any `json:"establishments"`
	}
	decode(t, rec, &rs)
	if rs.Version != 2 || len(rs.Establishments) == 0 {
		t.Fatalf("rules got version %d with %d cards", rs.Version, len(rs.Establishments))
	}
}

func TestSimEndpoint(t *testing.T) {
	h := newServer(t, false)
	body := `{"setting":{"version":2,"expansions":["base"],"policy":"variable","starting_coins":3,"players":3},"matches":12,"workers":2,"seed":5,"audit":true}`
	rec := do(t, h, http.MethodPost, "/v1/sim", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("sim got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Seed  int64 `json:"seed"`
		Stats struct {
			Summary struct {
				Matches int `json:"Matches"`
				Players int `json:"Players"`
			} `json:"Summary"`
			Seats []map[string]any `json:"Seats"`
		} `json:"stats"`
	}
	decode(t, rec, &out)
	if out.Seed != 5 || out.Stats.Summary.Matches != 12 || len(out.Stats.Seats) != 3 {
		t.Fatalf("sim got %+v", out)
	}

	over := strings.Replace(body, `"matches":12`, `"matches":51`, 1)
	if rec = do(t, h, http.MethodPost, "/v1/sim", over); rec.Code != http.StatusBadRequest {
		t.Fatalf("over limit got %d", rec.Code)
	}
}

func TestCompression(t *testing.T) {
	h := newServer(t, false)
	req := httptest.NewRequest(http.MethodGet, "/v1/rules/v1", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, headers %v", rec.Header())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
	zr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("gzip read: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("decompressed body is not json")
	}
}

func TestWatchStreamsEntries(t *testing.T) {
	h := newServer(t, true)
	ts := httptest.NewServer(h)
	defer ts.Close()
	doc := createMatch(t, h)
	p := itoa(doc.View.Player)

	post := func(body string) {
		resp, err := http.Post(ts.URL+"/v1/matches/"+doc.ID+"/moves", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("post %s got %d", body, resp.StatusCode)
		}
	}
	// 連線前已存在的招式會先補送
	post(`{"player":` + p + `,"move":"force-roll","dice":[1]}`)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/matches/" + doc.ID + "/watch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	post(`{"player":` + p + `,"move":"end-turn"}`)

	for want := 1; want <= 2; want++ {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", want, err)
		}
		var e struct {
			Seq int `json:"seq"`
		}
		if err := json.Unmarshal(msg, &e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if e.Seq != want {
			t.Fatalf("got seq %d want %d", e.Seq, want)
		}
	}

	resp, err := http.Get(ts.URL + "/v1/matches/missing/watch")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing watch got %d", resp.StatusCode)
	}
}

func TestRunContextStops(t *testing.T) {
	lab, err := machilab.NewAuto(nil)
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	cfg := &svrcfg.SvrCfg{
		Env: svrcfg.Env{Addr: "127.0.0.1:0"},
		Log: logger.NewDefaultLogger(logger.ModeSilence),
		Lab: lab,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := server.RunContext(ctx, cfg, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
