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
	"fmt"

	"github.com/zintix-labs/machilab/catalog"
)

// MoveKind 招式名稱。
type MoveKind string

const (
	MoveRollOne    MoveKind = "roll-one"
	MoveRollTwo    MoveKind = "roll-two"
	MoveKeepRoll   MoveKind = "keep-roll"
	MoveModifyRoll MoveKind = "modify-roll"
	MoveBuyEst     MoveKind = "buy-establishment"
	MoveBuyLand    MoveKind = "buy-landmark"
	MoveResolveTV  MoveKind = "resolve-tv"
	MoveOffice1    MoveKind = "resolve-office-phase1"
	MoveOffice2    MoveKind = "resolve-office-phase2"
	MoveEndTurn    MoveKind = "end-turn"
	MoveForceRoll  MoveKind = "force-roll"
)

// AllMoveKinds 所有招式，force-roll 在最後。
var AllMoveKinds = []MoveKind{
	MoveRollOne, MoveRollTwo, MoveKeepRoll, MoveModifyRoll, MoveBuyEst, MoveBuyLand,
	MoveResolveTV, MoveOffice1, MoveOffice2, MoveEndTurn, MoveForceRoll,
}

// Move 一個招式與其參數。行動者一律是目前輪到的玩家。
type Move struct {
	Kind   MoveKind       `json:"kind"             yaml:"kind"`
	Est    catalog.EstID  `json:"est,omitempty"    yaml:"est,omitempty"`
	Land   catalog.LandID `json:"land,omitempty"   yaml:"land,omitempty"`
	Target int            `json:"target,omitempty" yaml:"target,omitempty"`
	Dice   []int          `json:"dice,omitempty"   yaml:"dice,omitempty"`
}

func (m Move) String() string {
	switch m.Kind {
	case MoveBuyEst, MoveOffice1:
		return fmt.Sprintf("%s(%d)", m.Kind, m.Est)
	case MoveBuyLand:
		return fmt.Sprintf("%s(%d)", m.Kind, m.Land)
	case MoveResolveTV:
		return fmt.Sprintf("%s(%d)", m.Kind, m.Target)
	case MoveOffice2:
		return fmt.Sprintf("%s(%d,%d)", m.Kind, m.Target, m.Est)
	case MoveForceRoll:
		return fmt.Sprintf("%s(%v)", m.Kind, m.Dice)
	default:
		return string(m.Kind)
	}
}

func RollOne() Move    { return Move{Kind: MoveRollOne} }
func RollTwo() Move    { return Move{Kind: MoveRollTwo} }
func KeepRoll() Move   { return Move{Kind: MoveKeepRoll} }
func ModifyRoll() Move { return Move{Kind: MoveModifyRoll} }
func EndTurn() Move    { return Move{Kind: MoveEndTurn} }

func BuyEstablishment(id catalog.EstID) Move { return Move{Kind: MoveBuyEst, Est: id} }
func BuyLandmark(id catalog.LandID) Move     { return Move{Kind: MoveBuyLand, Land: id} }
func ResolveTV(opponent int) Move            { return Move{Kind: MoveResolveTV, Target: opponent} }
func ResolveOffice1(id catalog.EstID) Move   { return Move{Kind: MoveOffice1, Est: id} }

func ResolveOffice2(opponent int, id catalog.EstID) Move {
	return Move{Kind: MoveOffice2, Target: opponent, Est: id}
}

// ForceRoll 僅在 MatchSetting.Debug 開啟時合法。
func ForceRoll(dice ...int) Move { return Move{Kind: MoveForceRoll, Dice: dice} }
