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

package dto

import (
	"fmt"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/game"
)

// MatchResponse 開局或查詢對局的回應。
type MatchResponse struct {
	ID   string    `json:"id"`
	Seed *int64    `json:"seed,omitempty"` // 只在開局時回傳一次
	View game.View `json:"view"`
}

// EventDTO 事件加上一句可直接顯示的描述。
type EventDTO struct {
	game.Event
	Text string `json:"text"`
}

// EntryDTO 招式日誌的一筆。
type EntryDTO struct {
	Seq    int        `json:"seq"`
	Player int        `json:"player"`
	Move   game.Move  `json:"move"`
	Text   string     `json:"text"`
	Events []EventDTO `json:"events"`
}

// MoveResponse 招式被接受後的回應。
type MoveResponse struct {
	ID    string    `json:"id"`
	Entry EntryDTO  `json:"entry"`
	View  game.View `json:"view"`
}

// LegalResponse 目前玩家可走的招式。
type LegalResponse struct {
	ID     string      `json:"id"`
	Player int         `json:"player"`
	Phase  game.Phase  `json:"phase"`
	Moves  []game.Move `json:"moves"`
}

// LogResponse 招式日誌（seq > since）。
type LogResponse struct {
	ID      string     `json:"id"`
	Since   int        `json:"since"`
	Entries []EntryDTO `json:"entries"`
}

func NewEntryDTO(e machilab.Entry) EntryDTO {
	out := EntryDTO{
		Seq:    e.Seq,
		Player: e.Player,
		Move:   e.Move,
		Text:   fmt.Sprintf("player %d: %s", e.Player, e.Move),
		Events: make([]EventDTO, len(e.Events)),
	}
	for i, ev := range e.Events {
		out.Events[i] = NewEventDTO(ev)
	}
	return out
}

func NewEntryDTOs(es []machilab.Entry) []EntryDTO {
	out := make([]EntryDTO, len(es))
	for i, e := range es {
		out[i] = NewEntryDTO(e)
	}
	return out
}

func NewEventDTO(ev game.Event) EventDTO {
	return EventDTO{Event: ev, Text: Describe(ev)}
}

// Describe 把事件組成一句英文描述，只用事件本身帶的資料。
func Describe(ev game.Event) string {
	switch ev.Kind {
	case game.EvRollOne, game.EvRollTwo:
		if len(ev.Dice) == 2 {
			return fmt.Sprintf("player %d rolled %d + %d = %d", ev.Player, ev.Dice[0], ev.Dice[1], ev.Roll)
		}
		return fmt.Sprintf("player %d rolled %d", ev.Player, ev.Roll)
	case game.EvRollModified:
		return fmt.Sprintf("player %d added %d, roll is now %d", ev.Player, ev.Amount, ev.Roll)
	case game.EvEarn:
		return fmt.Sprintf("player %d earned %d %s from %s", ev.Player, ev.Amount, coins(ev.Amount), ev.Card)
	case game.EvTake:
		return fmt.Sprintf("player %d took %d %s from player %d with %s", ev.Player, ev.Amount, coins(ev.Amount), ev.From, ev.Card)
	case game.EvBuy:
		return fmt.Sprintf("player %d bought %s for %d %s", ev.Player, ev.Card, ev.Amount, coins(ev.Amount))
	case game.EvOfficeTrade:
		return fmt.Sprintf("player %d traded %s to player %d for %s", ev.Player, ev.Card, ev.From, ev.GotCard)
	case game.EvSharedRoll:
		return fmt.Sprintf("shared roll for this turn is %d", ev.Roll)
	case game.EvEndGame:
		return fmt.Sprintf("player %d wins by building %s", ev.Player, ev.Card)
	default:
		return string(ev.Kind)
	}
}

func coins(n int) string {
	if n == 1 {
		return "coin"
	}
	return "coins"
}
