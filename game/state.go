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

import (
	"slices"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/landmark"
	"github.com/zintix-labs/machilab/setting"
	"github.com/zintix-labs/machilab/supply"
)

// TurnFlags 回合內暫存值，每回合開始時歸零一次。
type TurnFlags struct {
	PendingTV     bool          `json:"pending_tv"`
	PendingOffice bool          `json:"pending_office"`
	OfficeStaged  catalog.EstID `json:"office_staged,omitempty"`
	RepeatTurn    bool          `json:"repeat_turn"`
	Bought        bool          `json:"bought"`
	TunaRoll      int           `json:"tuna_roll,omitempty"` // 0 代表本回合尚未擲
}

// Secret 隱藏資訊：牌堆順序與亂數狀態，絕不進入公開視圖。
type Secret struct {
	Supply    supply.Decks  `json:"supply"`
	Landmarks landmark.Deck `json:"landmarks"`
	RNG       []byte        `json:"rng"`
}

func (s *Secret) Clone() Secret {
	return Secret{
		Supply:    s.Supply.Clone(),
		Landmarks: s.Landmarks.Clone(),
		RNG:       slices.Clone(s.RNG),
	}
}

// State 一場對局的完整狀態。引擎不持有它，每個招式傳入並回傳新的一份。
type State struct {
	Setting   setting.MatchSetting `json:"setting"`
	Version   catalog.Version      `json:"version"`
	Phase     Phase                `json:"phase"`
	Roll      int                  `json:"roll"`
	Dice      []int                `json:"dice"`
	NumRolls  int                  `json:"num_rolls"`
	Money     []int                `json:"money"`
	TurnOrder []int                `json:"turn_order"`
	Current   int                  `json:"current"` // TurnOrder 的索引
	Turn      int                  `json:"turn"`
	Est       supply.Table         `json:"est"`
	Land      landmark.Table       `json:"land"`
	Flags     TurnFlags            `json:"flags"`
	Winner    int                  `json:"winner"`
	Over      bool                 `json:"over"`
	Secret    Secret               `json:"-"`
}

// Player 目前輪到的玩家座位。
func (s *State) Player() int { return s.TurnOrder[s.Current] }

func (s *State) Players() int { return len(s.Money) }

// Seat 回報 p 是否為合法座位。
func (s *State) Seat(p int) bool { return p >= 0 && p < len(s.Money) }

// Clone 深拷貝，招式只在拷貝上動作。
func (s *State) Clone() *State {
	c := *s
	c.Setting = *s.Setting.Clone()
	c.Dice = slices.Clone(s.Dice)
	c.Money = slices.Clone(s.Money)
	c.TurnOrder = slices.Clone(s.TurnOrder)
	c.Est = s.Est.Clone()
	c.Land = s.Land.Clone()
	c.Secret = s.Secret.Clone()
	return &c
}

// View 公開視圖：除隱藏牌堆與亂數狀態之外的一切。
type View struct {
	Setting   setting.MatchSetting `json:"setting"`
	Version   catalog.Version      `json:"version"`
	Phase     Phase                `json:"phase"`
	Player    int                  `json:"player"`
	Roll      int                  `json:"roll"`
	Dice      []int                `json:"dice"`
	NumRolls  int                  `json:"num_rolls"`
	Money     []int                `json:"money"`
	TurnOrder []int                `json:"turn_order"`
	Current   int                  `json:"current"`
	Turn      int                  `json:"turn"`
	Est       supply.Table         `json:"est"`
	Land      landmark.Table       `json:"land"`
	Flags     TurnFlags            `json:"flags"`
	Winner    int                  `json:"winner"`
	Over      bool                 `json:"over"`
}

func (s *State) View() View {
	c := s.Clone()
	return View{
		Setting:   c.Setting,
		Version:   c.Version,
		Phase:     c.Phase,
		Player:    c.Player(),
		Roll:      c.Roll,
		Dice:      c.Dice,
		NumRolls:  c.NumRolls,
		Money:     c.Money,
		TurnOrder: c.TurnOrder,
		Current:   c.Current,
		Turn:      c.Turn,
		Est:       c.Est,
		Land:      c.Land,
		Flags:     c.Flags,
		Winner:    c.Winner,
		Over:      c.Over,
	}
}
