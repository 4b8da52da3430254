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

package game

import "github.com/zintix-labs/machilab/catalog"

// EventKind 事件種類，集合固定。
type EventKind string

const (
	EvRollOne      EventKind = "roll-one"
	EvRollTwo      EventKind = "roll-two"
	EvRollModified EventKind = "roll-modified"
	EvEarn         EventKind = "earn"
	EvTake         EventKind = "take"
	EvBuy          EventKind = "buy"
	EvOfficeTrade  EventKind = "office-trade"
	EvSharedRoll   EventKind = "shared-roll-used"
	EvEndGame      EventKind = "end-game"
)

// Bank 代表銀行的座位值。
const Bank = -1

// Event 一筆結構化事件，帶足夠資料讓呈現層直接組句，不必回頭查狀態。
//
//   - Player：行動者或收款人。
//   - From：take 的付款人、office-trade 的對手；earn 與其他事件為 Bank。
type Event struct {
	Kind    EventKind      `json:"kind"`
	Player  int            `json:"player"`
	From    int            `json:"from"`
	Amount  int            `json:"amount,omitempty"`
	Dice    []int          `json:"dice,omitempty"`
	Roll    int            `json:"roll,omitempty"`
	Card    string         `json:"card,omitempty"`
	Est     catalog.EstID  `json:"est,omitempty"`
	Land    catalog.LandID `json:"land,omitempty"`
	Got     catalog.EstID  `json:"got,omitempty"`
	GotCard string         `json:"got_card,omitempty"`
}

// Buffer 單一招式的事件緩衝，招式結束時整批交給呼叫端。
type Buffer struct {
	events []Event
}

func (b *Buffer) Push(e Event) {
	b.events = append(b.events, e)
}

// Flush 取出並清空緩衝。
func (b *Buffer) Flush() []Event {
	out := b.events
	b.events = nil
	if out == nil {
		out = []Event{}
	}
	return out
}
