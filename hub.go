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

package machilab

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/game"
	"github.com/zintix-labs/machilab/setting"
)

var (
	ErrMatchNotFound = errs.NewWarn("match not found")
	ErrHubFull       = errs.NewWarn("too many live matches")
)

// watchBuf 每個觀戰者的緩衝；滿了就丟，慢的觀戰者會漏批次
const watchBuf = 64

// Store 對局日誌的持久層。Hub 只依賴這個介面，實作見 store 套件。
type Store interface {
	CreateMatch(ctx context.Context, id string, rec *Record) error
	AppendMove(ctx context.Context, id string, e Entry) error
	FinishMatch(ctx context.Context, id string, winner int) error
	LoadMatch(ctx context.Context, id string) (*Record, error)
}

// Hub 以 uuid 為鍵管理多場進行中的對局。
//
//   - store 不為 nil 時，開局與每個被接受的招式都會同步寫入（write-through）；
//     記憶體中找不到的對局會從 store 讀紀錄並重播回來。
//   - 每個被接受的招式會以 Entry 推送給該對局的所有觀戰者。
type Hub struct {
	mu      sync.RWMutex
	lab     *Machilab
	store   Store
	max     int
	pending int
	matches map[string]*hubMatch
}

type hubMatch struct {
	m        *Match
	mu       sync.Mutex
	watchers map[int]chan Entry
	nextW    int
}

// NewHub max <= 0 代表不限制同時進行的對局數。
func NewHub(lab *Machilab, store Store, max int) *Hub {
	return &Hub{
		lab:     lab,
		store:   store,
		max:     max,
		matches: make(map[string]*hubMatch),
	}
}

// Create 開一場新對局並回傳其 id。
func (h *Hub) Create(ctx context.Context, ms *setting.MatchSetting) (string, *Match, error) {
	seed, err := NewSeed()
	if err != nil {
		return "", nil, err
	}
	return h.CreateWithSeed(ctx, ms, seed)
}

func (h *Hub) CreateWithSeed(ctx context.Context, ms *setting.MatchSetting, seed int64) (string, *Match, error) {
	// 先在寫鎖下保留名額，寫入 store 期間的並行開局不會超過 max
	h.mu.Lock()
	if h.max > 0 && len(h.matches)+h.pending >= h.max {
		h.mu.Unlock()
		return "", nil, errs.Reject(ErrHubFull, "max=%d", h.max)
	}
	h.pending++
	h.mu.Unlock()
	release := func(id string, hm *hubMatch) {
		h.mu.Lock()
		h.pending--
		if hm != nil {
			h.matches[id] = hm
		}
		h.mu.Unlock()
	}

	m, err := h.lab.NewMatchWithSeed(ms, seed)
	if err != nil {
		release("", nil)
		return "", nil, err
	}
	id := uuid.NewString()
	if h.store != nil {
		if err := h.store.CreateMatch(ctx, id, m.Record()); err != nil {
			release("", nil)
			return "", nil, err
		}
	}
	release(id, &hubMatch{m: m, watchers: make(map[int]chan Entry)})
	h.lab.log.Info("match created", "id", id, "version", ms.Version, "players", ms.Players)
	return id, m, nil
}

// Get 取得對局；記憶體沒有時嘗試從 store 重播。
func (h *Hub) Get(ctx context.Context, id string) (*Match, error) {
	hm, err := h.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return hm.m, nil
}

func (h *Hub) get(ctx context.Context, id string) (*hubMatch, error) {
	h.mu.RLock()
	hm, ok := h.matches[id]
	h.mu.RUnlock()
	if ok {
		return hm, nil
	}
	if h.store == nil {
		return nil, errs.Reject(ErrMatchNotFound, "id=%s", id)
	}
	rec, err := h.store.LoadMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := h.lab.Replay(rec)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	// 另一個請求可能已經先載入
	if hm, ok := h.matches[id]; ok {
		return hm, nil
	}
	hm = &hubMatch{m: m, watchers: make(map[int]chan Entry)}
	h.matches[id] = hm
	h.lab.log.Info("match restored", "id", id, "moves", len(rec.Moves))
	return hm, nil
}

// Play 以 player 身分執行招式，寫入 store 並推送給觀戰者。
func (h *Hub) Play(ctx context.Context, id string, player int, mv game.Move) (Entry, error) {
	hm, err := h.get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	// 持有 hm.mu 讓寫入 store 與推送的順序與 Seq 一致
	hm.mu.Lock()
	defer hm.mu.Unlock()
	var persist func(Entry) error
	if h.store != nil {
		persist = func(e Entry) error {
			if err := h.store.AppendMove(ctx, id, e); err != nil {
				h.lab.log.Error("journal write failed", "id", id, "seq", e.Seq, "err", err)
				return err
			}
			return nil
		}
	}
	e, err := hm.m.playCommit(player, mv, persist)
	if err != nil {
		return Entry{}, err
	}
	// 招式已入日誌；結束旗標只是摘要，重播會從招式重新算出，失敗只記錄
	if over, winner := hm.m.Over(); over && h.store != nil {
		if err := h.store.FinishMatch(ctx, id, winner); err != nil {
			h.lab.log.Error("journal finish failed", "id", id, "err", err)
		}
	}
	for _, w := range hm.watchers {
		select {
		case w <- e:
		default:
		}
	}
	return e, nil
}

// Watch 訂閱對局之後被接受的招式；cancel 會關閉 channel。
func (h *Hub) Watch(ctx context.Context, id string) (<-chan Entry, func(), error) {
	hm, err := h.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	hm.mu.Lock()
	wid := hm.nextW
	hm.nextW++
	ch := make(chan Entry, watchBuf)
	hm.watchers[wid] = ch
	hm.mu.Unlock()

	cancel := func() {
		hm.mu.Lock()
		defer hm.mu.Unlock()
		if w, ok := hm.watchers[wid]; ok {
			delete(hm.watchers, wid)
			close(w)
		}
	}
	return ch, cancel, nil
}

// Remove 把對局移出記憶體並關閉其觀戰者；store 內的紀錄保留。
func (h *Hub) Remove(id string) bool {
	h.mu.Lock()
	hm, ok := h.matches[id]
	delete(h.matches, id)
	h.mu.Unlock()
	if !ok {
		return false
	}
	hm.mu.Lock()
	for wid, w := range hm.watchers {
		close(w)
		delete(hm.watchers, wid)
	}
	hm.mu.Unlock()
	return true
}

// Len 記憶體中的對局數。
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matches)
}

// IsNotFound 回報 err 是否為找不到對局。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMatchNotFound)
}
