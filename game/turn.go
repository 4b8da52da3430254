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

// beginTurn 回合開始：重置旗標（每回合恰好一次）並補充市場，之後才進入擲骰。
func beginTurn(st *State) {
	st.Flags = TurnFlags{}
	st.Phase = PhaseRoll
	st.Roll = 0
	st.Dice = nil
	st.NumRolls = 0
	supply.Replenish(&st.Est, &st.Secret.Supply)
	landmark.Replenish(&st.Land, &st.Secret.Landmarks)
}

// roll 記錄擲骰；沒有任何可選動作（重擲、港口 +2）時直接確定。
func (s *step) roll(kind EventKind, dice []int) {
	st := s.st
	st.Dice = dice
	st.Roll = 0
	for _, d := range dice {
		st.Roll += d
	}
	st.NumRolls++
	s.buf.Push(Event{Kind: kind, Player: st.Player(), From: Bank, Dice: append([]int(nil), dice...), Roll: st.Roll})
	if canReroll(s.rs, st) || canHarbor(s.rs, st) {
		return
	}
	s.commit()
}

// modify 港口 +2 後確定點數。
func (s *step) modify() {
	st := s.st
	id, _ := s.rs.LandByAbility(catalog.AbilityHarbor)
	bonus := s.rs.MustLand(id).Amount
	st.Roll += bonus
	s.buf.Push(Event{Kind: EvRollModified, Player: st.Player(), From: Bank, Amount: bonus, Dice: append([]int(nil), st.Dice...), Roll: st.Roll, Land: id})
	s.commit()
}

// commit 結算後依旗標分流。
func (s *step) commit() {
	s.resolve()
	s.branch()
}

// branch TV 優先，其次 Business Center，最後進入購買。
func (s *step) branch() {
	st := s.st
	if st.Flags.PendingTV {
		st.Phase = PhaseTV
		return
	}
	if st.Flags.PendingOffice {
		if s.officePossible() {
			st.Phase = PhaseOffice1
			return
		}
		st.Flags.PendingOffice = false
	}
	s.enterBuy()
}

// enterBuy 零元補助（City Hall）後進入購買階段。
func (s *step) enterBuy() {
	st := s.st
	p := st.Player()
	if id, ok := s.rs.LandByAbility(catalog.AbilityZeroCoin); ok && landmark.Owns(&st.Land, p, id) && st.Money[p] == 0 {
		l := s.rs.MustLand(id)
		s.earn(p, l.Amount, l.Name)
	}
	st.Phase = PhaseBuy
}

// officePossible 自己與至少一位對手都有可交換的非紫卡。
func (s *step) officePossible() bool {
	st := s.st
	p := st.Player()
	if len(supply.OwnedKinds(s.rs, &st.Est, p, catalog.Purple)) == 0 {
		return false
	}
	for q := range st.Money {
		if q != p && len(supply.OwnedKinds(s.rs, &st.Est, q, catalog.Purple)) > 0 {
			return true
		}
	}
	return false
}

func (s *step) resolveTV(opponent int) {
	st := s.st
	amount, name := 0, ""
	if id, ok := s.rs.EstByEffect(catalog.EffectTV); ok {
		est := s.rs.MustEst(id)
		amount, name = est.Base, est.Name
	}
	s.take(st.Player(), opponent, amount, name)
	st.Flags.PendingTV = false
	s.branch()
}

func (s *step) stageOffice(id catalog.EstID) {
	s.st.Flags.OfficeStaged = id
	s.st.Phase = PhaseOffice2
}

func (s *step) tradeOffice(opponent int, id catalog.EstID) error {
	st := s.st
	p := st.Player()
	given := st.Flags.OfficeStaged
	if err := supply.Transfer(&st.Est, p, opponent, given); err != nil {
		return errs.Wrap(err, "office trade out of sync")
	}
	if err := supply.Transfer(&st.Est, opponent, p, id); err != nil {
		return errs.Wrap(err, "office trade out of sync")
	}
	s.buf.Push(Event{
		Kind:    EvOfficeTrade,
		Player:  p,
		From:    opponent,
		Est:     given,
		Card:    s.rs.MustEst(given).Name,
		Got:     id,
		GotCard: s.rs.MustEst(id).Name,
	})
	st.Flags.PendingOffice = false
	st.Flags.OfficeStaged = 0
	s.enterBuy()
	return nil
}

func (s *step) buyEstablishment(id catalog.EstID) error {
	st := s.st
	p := st.Player()
	cost, err := supply.Buy(s.rs, &st.Est, p, id, st.Money[p])
	if err != nil {
		return err
	}
	st.Money[p] -= cost
	st.Flags.Bought = true
	s.buf.Push(Event{Kind: EvBuy, Player: p, From: Bank, Amount: cost, Est: id, Card: s.rs.MustEst(id).Name})
	st.Phase = PhaseEnd
	return nil
}

func (s *step) buyLandmark(id catalog.LandID) error {
	st := s.st
	p := st.Player()
	cost, err := landmark.Buy(s.rs, &st.Land, p, id, st.Money[p])
	if err != nil {
		return err
	}
	st.Money[p] -= cost
	st.Flags.Bought = true
	s.buf.Push(Event{Kind: EvBuy, Player: p, From: Bank, Amount: cost, Land: id, Card: s.rs.MustLand(id).Name})
	st.Phase = PhaseEnd
	s.checkVictory(id)
	return nil
}

// endTurn 發放回合結束獎勵（Airport，本回合未購買時），換下一位或再來一回合。
func (s *step) endTurn() {
	st := s.st
	p := st.Player()
	if !st.Flags.Bought {
		if id, ok := s.rs.LandByAbility(catalog.AbilityAirport); ok && landmark.Owns(&st.Land, p, id) {
			l := s.rs.MustLand(id)
			s.earn(p, l.Amount, l.Name)
		}
	}
	if !st.Flags.RepeatTurn {
		st.Current = (st.Current + 1) % st.Players()
	}
	st.Turn++
	beginTurn(st)
}
