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
	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/landmark"
	"github.com/zintix-labs/machilab/supply"
)

// 被拒絕的招式（Warn）。可用 errors.Is 比對。
var (
	ErrGameOver      = errs.NewWarn("match is over")
	ErrWrongPhase    = errs.NewWarn("move not legal in this phase")
	ErrRollCap       = errs.NewWarn("no rolls left this turn")
	ErrNoTwoDice     = errs.NewWarn("rolling two dice needs train station")
	ErrNotRolled     = errs.NewWarn("nothing rolled yet")
	ErrCannotModify  = errs.NewWarn("roll cannot be modified")
	ErrBadTarget     = errs.NewWarn("invalid target player")
	ErrNotOwned      = errs.NewWarn("establishment not owned")
	ErrPurpleTrade   = errs.NewWarn("purple establishments cannot be traded")
	ErrBadDice       = errs.NewWarn("invalid forced dice")
	ErrUnaffordable  = supply.ErrUnaffordable
	ErrNotAvailable  = supply.ErrNotAvailable
	ErrPurpleOwned   = supply.ErrPurpleOwned
	ErrLandOwned     = landmark.ErrOwned
	ErrLandNotForBuy = landmark.ErrNotAvailable
)

// 程式或資料錯誤（Fatal）。
var (
	ErrUnknownMove = errs.NewFatal("unknown move kind")
	ErrDebugOff    = errs.NewFatal("force-roll needs a debug match")
)

// Check 依招式種類呼叫對應的 guard。
func (e *Engine) Check(st *State, mv Move) error {
	switch mv.Kind {
	case MoveRollOne:
		return e.CanRollOne(st)
	case MoveRollTwo:
		return e.CanRollTwo(st)
	case MoveKeepRoll:
		return e.CanKeepRoll(st)
	case MoveModifyRoll:
		return e.CanModifyRoll(st)
	case MoveBuyEst:
		return e.CanBuyEstablishment(st, mv.Est)
	case MoveBuyLand:
		return e.CanBuyLandmark(st, mv.Land)
	case MoveResolveTV:
		return e.CanResolveTV(st, mv.Target)
	case MoveOffice1:
		return e.CanResolveOffice1(st, mv.Est)
	case MoveOffice2:
		return e.CanResolveOffice2(st, mv.Target, mv.Est)
	case MoveEndTurn:
		return e.CanEndTurn(st)
	case MoveForceRoll:
		return e.CanForceRoll(st, mv.Dice)
	default:
		return errs.Reject(ErrUnknownMove, "kind=%q", mv.Kind)
	}
}

// inPhase 共用前置檢查：對局未結束且在指定階段。
func (e *Engine) inPhase(st *State, want ...Phase) (*catalog.Ruleset, error) {
	rs, err := e.ruleset(st)
	if err != nil {
		return nil, err
	}
	if st.Over {
		return nil, ErrGameOver
	}
	for _, p := range want {
		if st.Phase == p {
			return rs, nil
		}
	}
	return nil, errs.Reject(ErrWrongPhase, "phase=%s", st.Phase)
}

// rollCap 本回合可擲次數：1，擁有 Radio Tower 為 2。
func rollCap(rs *catalog.Ruleset, st *State) int {
	if landmark.OwnsAbility(rs, &st.Land, st.Player(), catalog.AbilityReroll) {
		return 2
	}
	return 1
}

func canReroll(rs *catalog.Ruleset, st *State) bool {
	return st.NumRolls < rollCap(rs, st)
}

// canHarbor 擁有 Harbor 且點數達門檻時可 +2。
func canHarbor(rs *catalog.Ruleset, st *State) bool {
	if st.NumRolls == 0 {
		return false
	}
	id, ok := rs.LandByAbility(catalog.AbilityHarbor)
	if !ok || !landmark.Owns(&st.Land, st.Player(), id) {
		return false
	}
	return st.Roll >= rs.MustLand(id).Threshold
}

func (e *Engine) CanRollOne(st *State) error {
	rs, err := e.inPhase(st, PhaseRoll)
	if err != nil {
		return err
	}
	if !canReroll(rs, st) {
		return errs.Reject(ErrRollCap, "rolls=%d", st.NumRolls)
	}
	return nil
}

func (e *Engine) CanRollTwo(st *State) error {
	if err := e.CanRollOne(st); err != nil {
		return err
	}
	rs, _ := e.ruleset(st)
	if !canTwoDice(rs, st) {
		return ErrNoTwoDice
	}
	return nil
}

func canTwoDice(rs *catalog.Ruleset, st *State) bool {
	switch rs.Version {
	case catalog.V1:
		return landmark.OwnsAbility(rs, &st.Land, st.Player(), catalog.AbilityTwoDice)
	case catalog.V2:
		return rs.Rules.TwoDiceAlways
	default:
		return false
	}
}

func (e *Engine) CanKeepRoll(st *State) error {
	if _, err := e.inPhase(st, PhaseRoll); err != nil {
		return err
	}
	if st.NumRolls == 0 {
		return ErrNotRolled
	}
	return nil
}

func (e *Engine) CanModifyRoll(st *State) error {
	rs, err := e.inPhase(st, PhaseRoll)
	if err != nil {
		return err
	}
	if st.NumRolls == 0 {
		return ErrNotRolled
	}
	if !canHarbor(rs, st) {
		return errs.Reject(ErrCannotModify, "roll=%d", st.Roll)
	}
	return nil
}

// CanForceRoll 僅限 Debug 對局；關閉時為 Fatal。
func (e *Engine) CanForceRoll(st *State, dice []int) error {
	if !st.Setting.Debug {
		return ErrDebugOff
	}
	if err := e.CanRollOne(st); err != nil {
		return err
	}
	if len(dice) != 1 && len(dice) != 2 {
		return errs.Reject(ErrBadDice, "dice=%v", dice)
	}
	for _, d := range dice {
		if d < 1 || d > 6 {
			return errs.Reject(ErrBadDice, "dice=%v", dice)
		}
	}
	return nil
}

func (e *Engine) CanBuyEstablishment(st *State, id catalog.EstID) error {
	rs, err := e.inPhase(st, PhaseBuy)
	if err != nil {
		return err
	}
	p := st.Player()
	return supply.CanBuy(rs, &st.Est, p, id, st.Money[p])
}

func (e *Engine) CanBuyLandmark(st *State, id catalog.LandID) error {
	rs, err := e.inPhase(st, PhaseBuy)
	if err != nil {
		return err
	}
	p := st.Player()
	return landmark.CanBuy(rs, &st.Land, p, id, st.Money[p])
}

func (e *Engine) CanResolveTV(st *State, opponent int) error {
	if _, err := e.inPhase(st, PhaseTV); err != nil {
		return err
	}
	if !st.Seat(opponent) || opponent == st.Player() {
		return errs.Reject(ErrBadTarget, "target=%d", opponent)
	}
	return nil
}

func (e *Engine) CanResolveOffice1(st *State, id catalog.EstID) error {
	rs, err := e.inPhase(st, PhaseOffice1)
	if err != nil {
		return err
	}
	return tradable(rs, st, st.Player(), id)
}

func (e *Engine) CanResolveOffice2(st *State, opponent int, id catalog.EstID) error {
	rs, err := e.inPhase(st, PhaseOffice2)
	if err != nil {
		return err
	}
	if !st.Seat(opponent) || opponent == st.Player() {
		return errs.Reject(ErrBadTarget, "target=%d", opponent)
	}
	return tradable(rs, st, opponent, id)
}

// tradable 玩家 p 持有 id 且 id 不是紫卡。
func tradable(rs *catalog.Ruleset, st *State, p int, id catalog.EstID) error {
	est, err := rs.Est(id)
	if err != nil {
		return err
	}
	if est.Color == catalog.Purple {
		return errs.Reject(ErrPurpleTrade, "establishment=%d", id)
	}
	if supply.Owned(&st.Est, p, id) == 0 {
		return errs.Reject(ErrNotOwned, "establishment=%d player=%d", id, p)
	}
	return nil
}

func (e *Engine) CanEndTurn(st *State) error {
	_, err := e.inPhase(st, PhaseBuy, PhaseEnd)
	return err
}

// LegalMoves 列出目前玩家所有合法招式（不含 force-roll），順序固定。
func (e *Engine) LegalMoves(st *State) []Move {
	out := make([]Move, 0, 16)
	try := func(mv Move) {
		if e.Check(st, mv) == nil {
			out = append(out, mv)
		}
	}
	if st.Over {
		return out
	}
	p := st.Player()
	switch st.Phase {
	case PhaseRoll:
		try(RollOne())
		try(RollTwo())
		try(KeepRoll())
		try(ModifyRoll())
	case PhaseTV:
		for q := range st.Money {
			try(ResolveTV(q))
		}
	case PhaseOffice1:
		for _, id := range st.Est.IDs {
			if supply.Owned(&st.Est, p, id) > 0 {
				try(ResolveOffice1(id))
			}
		}
	case PhaseOffice2:
		for q := range st.Money {
			if q == p {
				continue
			}
			for _, id := range st.Est.IDs {
				if supply.Owned(&st.Est, q, id) > 0 {
					try(ResolveOffice2(q, id))
				}
			}
		}
	case PhaseBuy:
		for _, id := range st.Est.IDs {
			try(BuyEstablishment(id))
		}
		for _, id := range st.Land.IDs {
			try(BuyLandmark(id))
		}
		try(EndTurn())
	case PhaseEnd:
		try(EndTurn())
	}
	return out
}
