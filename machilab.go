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

// Package machilab 提供 Machilab 規則引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Machilab 把三個必需的地基組裝在一起，並提供建立對局（Match）、重播（Replay）與自我對戰模擬（Simulator）的入口：
//  1. Library：卡表（Single Source of Truth / SSOT），兩套規則版本的所有設施與地標。
//  2. PRNGFactory：亂數工廠，保證同一個 seed 與同一串招式可以位元等價地重現。
//  3. Logger：log/slog；被拒絕的招式記在 Debug，致命錯誤記在 Error。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Hub 持有多場 Match，Match 對外提供 Play。
//   - 模擬器（sim）：由 Simulator 以隨機合法招式大量自我對戰，輸出座位勝率等統計。
//   - 重播（replay）：由 Record（設定 + seed + 招式）重建整場對局。
package machilab

import (
	"crypto/rand"
	"io"
	"log/slog"
	"math"
	"math/big"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/game"
	"github.com/zintix-labs/machilab/rng"
	"github.com/zintix-labs/machilab/setting"
)

// Machilab 是「組裝器（assembler）」與「運行入口（runtime entry）」。
//
// 一個 instance 可同時服務多場對局：卡表唯讀，引擎無狀態，對局之間不共享可變狀態。
type Machilab struct {
	lib  *catalog.Library
	prng rng.PRNGFactory
	log  *slog.Logger
	eng  *game.Engine
}

// New 建立一個 Machilab instance。
//
// 參數要求（是合約的一部分）：
//   - lib 不能為 nil：沒有卡表就無法開局。
//   - prng 不能為 nil：沒有亂數工廠就無法保證可重現。
//   - log 可為 nil，此時不輸出任何紀錄。
func New(lib *catalog.Library, prng rng.PRNGFactory, log *slog.Logger) (*Machilab, error) {
	if lib == nil {
		return nil, errs.NewFatal("card library required")
	}
	if prng == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Machilab{
		lib:  lib,
		prng: prng,
		log:  log,
		eng:  game.New(lib, prng, log),
	}, nil
}

// NewAuto 以內建卡表與預設 PCG64 建立 Machilab。
func NewAuto(log *slog.Logger) (*Machilab, error) {
	lib, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	return New(lib, rng.Default(), log)
}

func (l *Machilab) Engine() *game.Engine { return l.eng }

func (l *Machilab) Library() *catalog.Library { return l.lib }

func (l *Machilab) Logger() *slog.Logger { return l.log }

// NewMatch 以隨機 seed 開一場新對局。
func (l *Machilab) NewMatch(ms *setting.MatchSetting) (*Match, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return l.NewMatchWithSeed(ms, seed)
}

// NewMatchWithSeed 以指定 seed 開一場新對局。
func (l *Machilab) NewMatchWithSeed(ms *setting.MatchSetting, seed int64) (*Match, error) {
	st, evs, err := l.eng.Setup(ms, seed)
	if err != nil {
		return nil, err
	}
	return newMatch(l.eng, st, seed, evs), nil
}

// NewSeed 由 crypto/rand 產生非負 seed。
func NewSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "seed generation failed")
	}
	return seed.Int64(), nil
}
