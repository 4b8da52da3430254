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
	"net/http"
	"strconv"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/dto"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/server/httperr"
	"github.com/zintix-labs/machilab/server/netsvr"
	"github.com/zintix-labs/machilab/store"
)

// CreateMatch POST /v1/matches
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeCreateMatchRequest(r)
	if err != nil {
		httperr.BadRequest(w, err)
		return
	}
	ms := &req.Setting
	if err := ms.Init(); err != nil {
		httperr.BadRequest(w, err)
		return
	}
	if ms.Debug && !h.debug {
		httperr.BadRequest(w, errs.NewWarn("debug matches are disabled on this server"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	} else if seed, err = machilab.NewSeed(); err != nil {
		httperr.Errs(w, err)
		return
	}
	id, m, err := h.hub.CreateWithSeed(ctx, ms, seed)
	if err != nil {
		httperr.Log(h.log, "create match", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.MatchResponse{ID: id, Seed: &seed, View: m.View()})
}

// GetMatch GET /v1/matches/{id}
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id := netsvr.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	m, err := h.hub.Get(ctx, id)
	if err != nil {
		httperr.Log(h.log, "get match", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MatchResponse{ID: id, View: m.View()})
}

// ListMatches GET /v1/matches?limit=
// 只列出已寫入日誌的對局；沒有設定資料庫時回空列表。
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			httperr.BadRequest(w, errs.NewWarn("limit must be between 1 and 500"))
			return
		}
		limit = n
	}
	out := []store.Summary{}
	if h.journal != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		rows, err := h.journal.List(ctx, limit)
		if err != nil {
			httperr.Log(h.log, "list matches", err)
			httperr.Errs(w, err)
			return
		}
		out = rows
	}
	writeJSON(w, http.StatusOK, out)
}

// Play POST /v1/matches/{id}/moves
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	id := netsvr.URLParam(r, "id")
	req, err := dto.DecodeMoveRequest(r)
	if err != nil {
		httperr.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	m, err := h.hub.Get(ctx, id)
	if err != nil {
		httperr.Log(h.log, "play", err)
		httperr.Errs(w, err)
		return
	}
	rs, err := h.lab.Library().Ruleset(m.Setting().Version)
	if err != nil {
		httperr.Log(h.log, "play", err)
		httperr.Errs(w, err)
		return
	}
	mv, err := req.Parse(rs)
	if err != nil {
		httperr.BadRequest(w, err)
		return
	}
	e, err := h.hub.Play(ctx, id, req.Player, mv)
	if err != nil {
		httperr.Log(h.log, "play", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MoveResponse{ID: id, Entry: dto.NewEntryDTO(e), View: m.View()})
}

// Legal GET /v1/matches/{id}/legal
func (h *Handler) Legal(w http.ResponseWriter, r *http.Request) {
	id := netsvr.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	m, err := h.hub.Get(ctx, id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	v := m.View()
	writeJSON(w, http.StatusOK, dto.LegalResponse{ID: id, Player: v.Player, Phase: v.Phase, Moves: m.Legal()})
}

// Log GET /v1/matches/{id}/log?since=
func (h *Handler) Log(w http.ResponseWriter, r *http.Request) {
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
	defer cancel()
	m, err := h.hub.Get(ctx, id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.LogResponse{ID: id, Since: since, Entries: dto.NewEntryDTOs(m.Journal(since))})
}
