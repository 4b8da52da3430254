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
	"slices"
	"sync"

	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/game"
	"github.com/zintix-labs/machilab/setting"
)

var ErrNotYourTurn = errs.NewWarn("not your turn")

// Entry 招式日誌的一筆：只收被接受的招式，Seq 從 1 起算。
type Entry struct {
	Seq    int          `json:"seq"`
	Player int          `json:"player"`
	Move   game.Move    `json:"move"`
	Events []game.Event `json:"events"`
}

// Match 一場進行中的對局。
//
// 引擎本身無狀態，Match 持有目前狀態並以 mutex 串行化招式；
// 同一時間只有一個招式在結算，讀取則拿到深拷貝。
type Match struct {
	mu      sync.Mutex
	eng     *game.Engine
	seed    int64
	st      *game.State
	journal []Entry
	log     []game.Event
}

func newMatch(eng *game.Engine, st *game.State, seed int64, setup []game.Event) *Match {
	return &Match{
		eng:     eng,
		seed:    seed,
		st:      st,
		journal: make([]Entry, 0, 256),
		log:     append(make([]game.Event, 0, 1024), setup...),
	}
}

// Play 以 player 身分執行 mv；不是 player 的回合時回傳 ErrNotYourTurn。
func (m *Match) Play(player int, mv game.Move) (Entry, error) {
	return m.playCommit(player, mv, nil)
}

// playCommit 與 Play 相同，但在提交前先呼叫 persist；
// persist 回傳錯誤時招式不會寫進記憶體，對局維持原狀。
func (m *Match) playCommit(player int, mv game.Move, persist func(Entry) error) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.st.Over && player != m.st.Player() {
		return Entry{}, errs.Reject(ErrNotYourTurn, "player=%d current=%d", player, m.st.Player())
	}
	return m.apply(mv, persist)
}

// Apply 以目前輪到的玩家身分執行 mv。
func (m *Match) Apply(mv game.Move) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(mv, nil)
}

func (m *Match) apply(mv game.Move, persist func(Entry) error) (Entry, error) {
	player := m.st.Player()
	ns, evs, err := m.eng.Apply(m.st, mv)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Seq: len(m.journal) + 1, Player: player, Move: mv, Events: evs}
	if persist != nil {
		if err := persist(e); err != nil {
			return Entry{}, err
		}
	}
	m.st = ns
	m.journal = append(m.journal, e)
	m.log = append(m.log, evs...)
	return e, nil
}

// View 目前的公開視圖。
func (m *Match) View() game.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.View()
}

// State 目前完整狀態（含 Secret）的深拷貝，供重播比對與除錯。
func (m *Match) State() *game.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Clone()
}

// Legal 目前玩家可走的合法招式（不含 force-roll）。
func (m *Match) Legal() []game.Move {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eng.LegalMoves(m.st)
}

// Log 至今所有事件。
func (m *Match) Log() []game.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.log)
}

// Journal 至今所有被接受的招式；since 之後（不含）的部分。
func (m *Match) Journal(since int) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	since = min(max(since, 0), len(m.journal))
	return slices.Clone(m.journal[since:])
}

func (m *Match) Seed() int64 { return m.seed }

func (m *Match) Setting() setting.MatchSetting {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.st.Setting.Clone()
}

// Over 回報對局是否結束以及勝者座位（未結束或無勝者時為 -1）。
func (m *Match) Over() (bool, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Over, m.st.Winner
}

// Record 足以重建整場對局的最小資料。
func (m *Match) Record() *Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	moves := make([]game.Move, len(m.journal))
	for i, e := range m.journal {
		moves[i] = e.Move
	}
	return &Record{Setting: *m.st.Setting.Clone(), Seed: m.seed, Moves: moves}
}
