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

// Package supply 管理建物供給：隱藏牌堆、市場可購買數量與各玩家持有數。
//
// 計數約定：
//   - Remaining：尚未被任何玩家持有的張數（牌堆 + 市場）。
//   - Available：目前市場上可購買的張數，恆 <= Remaining。
//   - InDeck() = Remaining - Available。
//
// 守恆式 InDeck + Available + ΣOwned == InitialSupply 對三種策略在任何時刻成立（見 Audit）。
package supply

import (
	"fmt"
	"slices"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/rng"
	"github.com/zintix-labs/machilab/setting"
)

var (
	ErrNotAvailable = errs.NewWarn("establishment not available")
	ErrUnaffordable = errs.NewWarn("establishment unaffordable")
	ErrPurpleOwned  = errs.NewWarn("purple establishment already owned")
	ErrNotOwned     = errs.NewWarn("establishment not owned")
	ErrAudit        = errs.NewFatal("supply conservation broken")
)

// Entry 單一建物的計數。
type Entry struct {
	InUse     bool  `json:"in_use"`
	Remaining int   `json:"remaining"`
	Available int   `json:"available"`
	Owned     []int `json:"owned"`
}

// InDeck 仍在隱藏牌堆中的張數。
func (e *Entry) InDeck() int { return e.Remaining - e.Available }

// Table 以建物 id 為鍵的計數表，IDs 遞增排列。
type Table struct {
	IDs  []catalog.EstID          `json:"ids"`
	Data map[catalog.EstID]*Entry `json:"data"`
}

// Clone 深拷貝。
func (t *Table) Clone() Table {
	c := Table{
		IDs:  slices.Clone(t.IDs),
		Data: make(map[catalog.EstID]*Entry, len(t.Data)),
	}
	for id, e := range t.Data {
		cp := *e
		cp.Owned = slices.Clone(e.Owned)
		c.Data[id] = &cp
	}
	return c
}

// Band Hybrid 策略的分堆。
type Band string

const (
	BandAll    Band = "all"
	BandLow    Band = "low"
	BandHigh   Band = "high"
	BandPurple Band = "purple"
)

// Pile 一疊隱藏牌堆。Target 為市場上此堆要維持的相異種類數，0 代表一次全部倒出。
type Pile struct {
	Band   Band            `json:"band"`
	Target int             `json:"target"`
	Kinds  []catalog.EstID `json:"kinds"`
	Cards  []catalog.EstID `json:"cards"` // 從尾端抽
}

// Decks 一場對局的全部隱藏牌堆。
type Decks struct {
	Policy setting.Policy `json:"policy"`
	Piles  []Pile         `json:"piles"`
}

func (d *Decks) Clone() Decks {
	c := Decks{Policy: d.Policy, Piles: make([]Pile, len(d.Piles))}
	for i, p := range d.Piles {
		c.Piles[i] = Pile{
			Band:   p.Band,
			Target: p.Target,
			Kinds:  slices.Clone(p.Kinds),
			Cards:  slices.Clone(p.Cards),
		}
	}
	return c
}

// Init 建立計數表與牌堆，發放起始建物，並做第一次補充。
func Init(rs *catalog.Ruleset, ms *setting.MatchSetting, core *rng.Core) (Table, Decks, error) {
	if rs.Version != ms.Version {
		return Table{}, Decks{}, errs.Reject(catalog.ErrVersionMatch, "ruleset=%s setting=%s", rs.Version, ms.Version)
	}
	players := ms.Players
	t := Table{
		IDs:  make([]catalog.EstID, 0, len(rs.Establishments)),
		Data: make(map[catalog.EstID]*Entry, len(rs.Establishments)),
	}
	inUse := rs.EstInUse(ms.Expansions)
	used := make(map[catalog.EstID]bool, len(inUse))
	for _, id := range inUse {
		used[id] = true
	}
	for i := range rs.Establishments {
		est := &rs.Establishments[i]
		e := &Entry{InUse: used[est.ID], Owned: make([]int, players)}
		if e.InUse {
			e.Remaining = est.InitialSupply(players)
			if est.Starting {
				for p := range e.Owned {
					e.Owned[p] = 1
				}
				e.Remaining -= players
			}
		}
		t.IDs = append(t.IDs, est.ID)
		t.Data[est.ID] = e
	}

	d, err := buildDecks(rs, ms.Policy, &t, inUse)
	if err != nil {
		return Table{}, Decks{}, err
	}
	if ms.Policy != setting.Total {
		for i := range d.Piles {
			rng.Shuffle(core, d.Piles[i].Cards)
		}
	}
	Replenish(&t, &d)
	return t, d, nil
}

func buildDecks(rs *catalog.Ruleset, policy setting.Policy, t *Table, inUse []catalog.EstID) (Decks, error) {
	d := Decks{Policy: policy}
	switch policy {
	case setting.Total:
		d.Piles = []Pile{{Band: BandAll, Target: 0}}
	case setting.Variable:
		d.Piles = []Pile{{Band: BandAll, Target: rs.Rules.VariableTarget}}
	case setting.Hybrid:
		d.Piles = []Pile{
			{Band: BandLow, Target: rs.Rules.HybridLow},
			{Band: BandHigh, Target: rs.Rules.HybridHigh},
		}
		switch rs.Version {
		case catalog.V1:
			d.Piles = append(d.Piles, Pile{Band: BandPurple, Target: rs.Rules.HybridPurple})
		case catalog.V2:
		default:
			return Decks{}, errs.Reject(catalog.ErrUnknownVersion, "version=%d", rs.Version)
		}
	default:
		return Decks{}, errs.NewFatal(fmt.Sprintf("unknown policy %q", policy))
	}

	for _, id := range inUse {
		est := rs.MustEst(id)
		p := &d.Piles[pileIndex(rs.Version, policy, est)]
		p.Kinds = append(p.Kinds, id)
		for range t.Data[id].Remaining {
			p.Cards = append(p.Cards, id)
		}
	}
	return d, nil
}

// pileIndex 決定建物落在哪一堆。
//
// Hybrid：最大點數 <= 6 為 low，否則 high；版本 1 的紫卡另成一堆。
func pileIndex(v catalog.Version, policy setting.Policy, est *catalog.Establishment) int {
	if policy != setting.Hybrid {
		return 0
	}
	if v == catalog.V1 && est.Color == catalog.Purple {
		return 2
	}
	if est.MaxRoll() <= 6 {
		return 0
	}
	return 1
}

// Replenish 依各堆目標補充市場。每回合開始、擲骰之前呼叫一次。
func Replenish(t *Table, d *Decks) {
	for i := range d.Piles {
		p := &d.Piles[i]
		if p.Target == 0 {
			for _, id := range p.Cards {
				t.Data[id].Available++
			}
			p.Cards = p.Cards[:0]
			continue
		}
		for len(p.Cards) > 0 && distinctAvailable(t, p.Kinds) < p.Target {
			last := len(p.Cards) - 1
			t.Data[p.Cards[last]].Available++
			p.Cards = p.Cards[:last]
		}
	}
}

func distinctAvailable(t *Table, kinds []catalog.EstID) int {
	n := 0
	for _, id := range kinds {
		if t.Data[id].Available > 0 {
			n++
		}
	}
	return n
}

// CanBuy 純檢查，不改動狀態。
func CanBuy(rs *catalog.Ruleset, t *Table, p int, id catalog.EstID, money int) error {
	est, err := rs.Est(id)
	if err != nil {
		return err
	}
	e := t.Data[id]
	if !e.InUse || e.Available <= 0 {
		return errs.Reject(ErrNotAvailable, "establishment=%d", id)
	}
	if money < est.Cost {
		return errs.Reject(ErrUnaffordable, "establishment=%d cost=%d money=%d", id, est.Cost, money)
	}
	if rs.Rules.PurpleUnique && est.Color == catalog.Purple && e.Owned[p] > 0 {
		return errs.Reject(ErrPurpleOwned, "establishment=%d player=%d", id, p)
	}
	return nil
}

// Buy 玩家 p 買下一張 id，回傳應付金額；失敗時不改動任何計數。
func Buy(rs *catalog.Ruleset, t *Table, p int, id catalog.EstID, money int) (int, error) {
	if err := CanBuy(rs, t, p, id, money); err != nil {
		return 0, err
	}
	e := t.Data[id]
	e.Remaining--
	e.Available--
	e.Owned[p]++
	return rs.MustEst(id).Cost, nil
}

// Transfer 將一張 id 從 from 移給 to，不動牌堆與市場。
func Transfer(t *Table, from, to int, id catalog.EstID) error {
	e, ok := t.Data[id]
	if !ok || e.Owned[from] <= 0 {
		return errs.Reject(ErrNotOwned, "establishment=%d player=%d", id, from)
	}
	e.Owned[from]--
	e.Owned[to]++
	return nil
}

func Available(t *Table, id catalog.EstID) int {
	if e, ok := t.Data[id]; ok {
		return e.Available
	}
	return 0
}

func Remaining(t *Table, id catalog.EstID) int {
	if e, ok := t.Data[id]; ok {
		return e.Remaining
	}
	return 0
}

func Owned(t *Table, p int, id catalog.EstID) int {
	if e, ok := t.Data[id]; ok {
		return e.Owned[p]
	}
	return 0
}

// OwnedByCombo 玩家 p 持有某圖示分類的總張數。
func OwnedByCombo(rs *catalog.Ruleset, t *Table, p int, c catalog.Combo) int {
	n := 0
	for _, id := range t.IDs {
		if rs.MustEst(id).Combo == c {
			n += t.Data[id].Owned[p]
		}
	}
	return n
}

// OwnedKinds 玩家 p 持有的建物 id（遞增），可依顏色排除。
func OwnedKinds(rs *catalog.Ruleset, t *Table, p int, exclude catalog.Color) []catalog.EstID {
	out := make([]catalog.EstID, 0, 8)
	for _, id := range t.IDs {
		if t.Data[id].Owned[p] > 0 && rs.MustEst(id).Color != exclude {
			out = append(out, id)
		}
	}
	return out
}

// Audit 檢查守恆式以及牌堆內容與 InDeck 一致。
func Audit(rs *catalog.Ruleset, t *Table, d *Decks, players int) error {
	inDeck := map[catalog.EstID]int{}
	for _, p := range d.Piles {
		for _, id := range p.Cards {
			inDeck[id]++
		}
	}
	for _, id := range t.IDs {
		e := t.Data[id]
		if !e.InUse {
			if e.Remaining != 0 || e.Available != 0 || sum(e.Owned) != 0 {
				return errs.Reject(ErrAudit, "unused establishment=%d has counts", id)
			}
			continue
		}
		if e.Available < 0 || e.Available > e.Remaining {
			return errs.Reject(ErrAudit, "establishment=%d available=%d remaining=%d", id, e.Available, e.Remaining)
		}
		if inDeck[id] != e.InDeck() {
			return errs.Reject(ErrAudit, "establishment=%d deck=%d counted=%d", id, inDeck[id], e.InDeck())
		}
		want := rs.MustEst(id).InitialSupply(players)
		if got := e.InDeck() + e.Available + sum(e.Owned); got != want {
			return errs.Reject(ErrAudit, "establishment=%d total=%d initial=%d", id, got, want)
		}
	}
	return nil
}

func sum(xs []int) int {
	s := 0
	for _, x := range xs {
		s += x
	}
	return s
}
