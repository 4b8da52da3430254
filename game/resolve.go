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
	"github.com/zintix-labs/machilab/landmark"
	"github.com/zintix-labs/machilab/supply"
)

// resolve 對已確定的點數執行四輪結算：紅 → 綠 → 藍 → 紫，每輪內依建物 id 遞增。
// 之後處理雙骰效果（依地標 id 遞增）。
func (s *step) resolve() {
	st, rs := s.st, s.rs
	roller := st.Player()
	n := st.Players()

	matching := make([]*catalog.Establishment, 0, 8)
	for _, id := range st.Est.IDs {
		if !st.Est.Data[id].InUse {
			continue
		}
		if est := rs.MustEst(id); est.Activates(st.Roll) {
			matching = append(matching, est)
		}
	}

	// 紅：從擲骰者的上一位開始逆時針，向擲骰者收款
	for i := 1; i < n; i++ {
		opp := st.TurnOrder[(st.Current-i+n)%n]
		for _, est := range matching {
			if est.Color != catalog.Red {
				continue
			}
			count := s.activeCount(opp, est)
			if count == 0 {
				continue
			}
			s.take(opp, roller, (est.Base+s.mallBonus(opp, est))*count, est.Name)
		}
	}

	// 綠：只有擲骰者，銀行付款
	for _, est := range matching {
		if est.Color != catalog.Green {
			continue
		}
		count := s.activeCount(roller, est)
		if count == 0 {
			continue
		}
		s.earn(roller, (est.Base+s.mallBonus(roller, est))*s.multiplier(roller, est)*count, est.Name)
	}

	// 藍：從擲骰者開始順時針，所有人都領
	for i := 0; i < n; i++ {
		p := st.TurnOrder[(st.Current+i)%n]
		for _, est := range matching {
			if est.Color != catalog.Blue {
				continue
			}
			count := s.activeCount(p, est)
			if count == 0 {
				continue
			}
			amount := est.Base * count
			if est.Effect == catalog.EffectTuna {
				amount = s.tunaRoll() * count
			}
			s.earn(p, amount, est.Name)
		}
	}

	// 紫：只有擲骰者
	for _, est := range matching {
		if est.Color != catalog.Purple {
			continue
		}
		count := s.activeCount(roller, est)
		if count == 0 {
			continue
		}
		s.purple(roller, est, count)
	}

	s.doubles(roller)
}

// activeCount 玩家 p 持有且可生效的張數；需要港口的建物在缺港口時為 0。
func (s *step) activeCount(p int, est *catalog.Establishment) int {
	count := supply.Owned(&s.st.Est, p, est.ID)
	if count == 0 {
		return 0
	}
	if est.Harbor && !landmark.OwnsAbility(s.rs, &s.st.Land, p, catalog.AbilityHarbor) {
		return 0
	}
	return count
}

// mallBonus Shopping Mall 對 cup/shop 類每張加成。
func (s *step) mallBonus(p int, est *catalog.Establishment) int {
	if est.Combo != catalog.Cup && est.Combo != catalog.Shop {
		return 0
	}
	id, ok := s.rs.LandByAbility(catalog.AbilityMall)
	if !ok || !landmark.Owns(&s.st.Land, p, id) {
		return 0
	}
	return s.rs.MustLand(id).Amount
}

// multiplier 綠卡倍率：依圖示分類或指定建物的持有數，一般卡為 1。
func (s *step) multiplier(p int, est *catalog.Establishment) int {
	switch {
	case est.MultCombo != catalog.NoCombo:
		return supply.OwnedByCombo(s.rs, &s.st.Est, p, est.MultCombo)
	case est.MultEst != 0:
		return supply.Owned(&s.st.Est, p, est.MultEst)
	default:
		return 1
	}
}

// tunaRoll 本回合共用的 2d6，最多擲一次並快取在 TurnFlags。
func (s *step) tunaRoll() int {
	if s.st.Flags.TunaRoll == 0 {
		dice := s.core.Roll(2)
		s.st.Flags.TunaRoll = dice[0] + dice[1]
		s.buf.Push(Event{Kind: EvSharedRoll, Player: s.st.Player(), From: Bank, Dice: dice, Roll: s.st.Flags.TunaRoll})
	}
	return s.st.Flags.TunaRoll
}

// opponents 從擲骰者下一位開始順時針的對手。
func (s *step) opponents() []int {
	n := s.st.Players()
	out := make([]int, 0, n-1)
	for i := 1; i < n; i++ {
		out = append(out, s.st.TurnOrder[(s.st.Current+i)%n])
	}
	return out
}

func (s *step) purple(roller int, est *catalog.Establishment, count int) {
	st := s.st
	switch est.Effect {
	case catalog.EffectStadium:
		for _, opp := range s.opponents() {
			s.take(roller, opp, est.Base*count, est.Name)
		}
	case catalog.EffectTV:
		st.Flags.PendingTV = true
	case catalog.EffectOffice:
		st.Flags.PendingOffice = true
	case catalog.EffectPublisher:
		for _, opp := range s.opponents() {
			n := supply.OwnedByCombo(s.rs, &st.Est, opp, catalog.Cup) + supply.OwnedByCombo(s.rs, &st.Est, opp, catalog.Shop)
			s.take(roller, opp, est.Base*n*count, est.Name)
		}
	case catalog.EffectTax:
		for _, opp := range s.opponents() {
			if st.Money[opp] >= est.Threshold {
				s.take(roller, opp, st.Money[opp]/2, est.Name)
			}
		}
	}
}

// doubles 擲出雙骰時，擲骰者的地標效果依 id 遞增生效。
func (s *step) doubles(roller int) {
	st := s.st
	if len(st.Dice) != 2 || st.Dice[0] != st.Dice[1] {
		return
	}
	for _, id := range st.Land.IDs {
		if !landmark.Owns(&st.Land, roller, id) {
			continue
		}
		l := s.rs.MustLand(id)
		switch l.Ability {
		case catalog.AbilityRepeat:
			st.Flags.RepeatTurn = true
		case catalog.AbilityTemple:
			for _, opp := range s.opponents() {
				s.take(roller, opp, l.Amount, l.Name)
			}
		}
	}
}

// take 從 src 轉給 dst，以 src 餘額為上限；實際金額 > 0 才記事件。
func (s *step) take(dst, src, amount int, card string) {
	moved := min(amount, s.st.Money[src])
	if moved <= 0 {
		return
	}
	s.st.Money[src] -= moved
	s.st.Money[dst] += moved
	s.buf.Push(Event{Kind: EvTake, Player: dst, From: src, Amount: moved, Card: card})
}

// earn 銀行無條件付款；金額 > 0 才記事件。
func (s *step) earn(dst, amount int, card string) {
	if amount <= 0 {
		return
	}
	s.st.Money[dst] += amount
	s.buf.Push(Event{Kind: EvEarn, Player: dst, From: Bank, Amount: amount, Card: card})
}
