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

// Package game 是規則引擎本體：回合/階段狀態機、效果結算、事件緩衝與勝利判定。
//
// 引擎本身無狀態。每個招式把 *State 傳進 Apply，成功時回傳新的狀態與本招式的事件；
// 被拒絕時原狀態原封不動、沒有任何事件。亂數狀態存在 State.Secret 中，
// 因此同一個 seed 與同一串招式一定重現相同的狀態與事件。
package game

import (
	"io"
	"log/slog"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/landmark"
	"github.com/zintix-labs/machilab/rng"
	"github.com/zintix-labs/machilab/setting"
	"github.com/zintix-labs/machilab/supply"
)

// Engine 持有唯讀的卡表、亂數工廠與 logger，可被多場對局共用。
type Engine struct {
	lib  *catalog.Library
	prng rng.PRNGFactory
	log  *slog.Logger
}

// New 建立引擎；prng 為 nil 時使用預設 PCG64，log 為 nil 時不輸出。
func New(lib *catalog.Library, prng rng.PRNGFactory, log *slog.Logger) *Engine {
	if prng == nil {
		prng = rng.Default()
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{lib: lib, prng: prng, log: log}
}

// Library 回傳引擎使用的卡表。
func (e *Engine) Library() *catalog.Library { return e.lib }

func (e *Engine) ruleset(st *State) (*catalog.Ruleset, error) {
	return e.lib.Ruleset(st.Version)
}

// Setup 依設定與 seed 建立一場新對局，回合 1 的開始補充已完成。
func (e *Engine) Setup(ms *setting.MatchSetting, seed int64) (*State, []Event, error) {
	ms = ms.Clone()
	if err := ms.Init(); err != nil {
		e.log.Error("setup rejected", "err", err)
		return nil, nil, err
	}
	rs, err := e.lib.Ruleset(ms.Version)
	if err != nil {
		return nil, nil, err
	}
	core := rng.New(e.prng.New(seed))

	order := make([]int, ms.Players)
	for i := range order {
		order[i] = i
	}
	if ms.ShuffleOrder {
		core.ShuffleInts(order)
	}

	est, decks, err := supply.Init(rs, ms, core)
	if err != nil {
		return nil, nil, err
	}
	land, ldeck, err := landmark.Init(rs, ms, core)
	if err != nil {
		return nil, nil, err
	}

	money := make([]int, ms.Players)
	for i := range money {
		money[i] = ms.StartingCoins
	}
	st := &State{
		Setting:   *ms,
		Version:   ms.Version,
		Money:     money,
		TurnOrder: order,
		Est:       est,
		Land:      land,
		Winner:    -1,
		Secret:    Secret{Supply: decks, Landmarks: ldeck},
	}
	beginTurn(st)
	st.Turn = 1
	if st.Secret.RNG, err = core.Snapshot(); err != nil {
		return nil, nil, errs.Wrap(err, "rng snapshot failed")
	}
	e.log.Debug("match setup", "version", ms.Version, "players", ms.Players, "policy", ms.Policy, "seed", seed)
	return st, []Event{}, nil
}

// Apply 以目前玩家身分執行 mv。
//
// 成功：回傳新狀態（原狀態不變）與本招式事件。
// 失敗：回傳原狀態、nil 事件與錯誤；Warn 為被拒絕的招式，Fatal 為呼叫端或資料缺陷。
func (e *Engine) Apply(st *State, mv Move) (*State, []Event, error) {
	if err := e.Check(st, mv); err != nil {
		e.reject(st, mv, err)
		return st, nil, err
	}
	rs, _ := e.ruleset(st)
	ns := st.Clone()
	prng := e.prng.New(0)
	if err := prng.Restore(ns.Secret.RNG); err != nil {
		err = errs.Wrap(err, "rng restore failed")
		e.reject(st, mv, err)
		return st, nil, err
	}
	s := &step{st: ns, rs: rs, core: rng.New(prng), buf: &Buffer{}}
	if err := s.apply(mv); err != nil {
		e.reject(st, mv, err)
		return st, nil, err
	}
	snap, err := s.core.Snapshot()
	if err != nil {
		err = errs.Wrap(err, "rng snapshot failed")
		e.reject(st, mv, err)
		return st, nil, err
	}
	ns.Secret.RNG = snap
	return ns, s.buf.Flush(), nil
}

func (e *Engine) reject(st *State, mv Move, err error) {
	if errs.IsWarn(err) {
		e.log.Debug("move rejected", "move", mv.String(), "phase", st.Phase.String(), "err", err)
		return
	}
	e.log.Error("move failed", "move", mv.String(), "phase", st.Phase.String(), "err", err)
}

// step 單一招式的工作區。
type step struct {
	st   *State
	rs   *catalog.Ruleset
	core *rng.Core
	buf  *Buffer
}

func (s *step) apply(mv Move) error {
	switch mv.Kind {
	case MoveRollOne:
		s.roll(EvRollOne, s.core.Roll(1))
	case MoveRollTwo:
		s.roll(EvRollTwo, s.core.Roll(2))
	case MoveForceRoll:
		kind := EvRollOne
		if len(mv.Dice) == 2 {
			kind = EvRollTwo
		}
		s.roll(kind, append([]int(nil), mv.Dice...))
	case MoveKeepRoll:
		s.commit()
	case MoveModifyRoll:
		s.modify()
	case MoveBuyEst:
		return s.buyEstablishment(mv.Est)
	case MoveBuyLand:
		return s.buyLandmark(mv.Land)
	case MoveResolveTV:
		s.resolveTV(mv.Target)
	case MoveOffice1:
		s.stageOffice(mv.Est)
	case MoveOffice2:
		return s.tradeOffice(mv.Target, mv.Est)
	case MoveEndTurn:
		s.endTurn()
	default:
		return errs.Reject(ErrUnknownMove, "kind=%q", mv.Kind)
	}
	return nil
}
