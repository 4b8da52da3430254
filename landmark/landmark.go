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

// Package landmark 管理地標的持有、市場與價格。
//
// 版本 1：所有使用中的地標永遠可買，每位玩家各可建一次。
// 版本 2：起始地標與勝利地標之外，其餘地標放進洗好的牌堆，市場補到固定種類數；
// 每張地標只有一份，建好就離開市場。
package landmark

import (
	"slices"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/rng"
	"github.com/zintix-labs/machilab/setting"
)

var (
	ErrNotAvailable = errs.NewWarn("landmark not available")
	ErrOwned        = errs.NewWarn("landmark already owned")
	ErrUnaffordable = errs.NewWarn("landmark unaffordable")
)

// Entry 單一地標的狀態。
type Entry struct {
	InUse     bool   `json:"in_use"`
	Available bool   `json:"available"`
	Owned     []bool `json:"owned"`
}

// Table 以地標 id 為鍵，IDs 遞增排列。
type Table struct {
	IDs  []catalog.LandID          `json:"ids"`
	Data map[catalog.LandID]*Entry `json:"data"`
}

func (t *Table) Clone() Table {
	c := Table{
		IDs:  slices.Clone(t.IDs),
		Data: make(map[catalog.LandID]*Entry, len(t.Data)),
	}
	for id, e := range t.Data {
		cp := *e
		cp.Owned = slices.Clone(e.Owned)
		c.Data[id] = &cp
	}
	return c
}

// Deck 版本 2 的隱藏地標牌堆；版本 1 為空。
type Deck struct {
	Target int              `json:"target"`
	Kinds  []catalog.LandID `json:"kinds"`
	Cards  []catalog.LandID `json:"cards"` // 從尾端抽
}

func (d *Deck) Clone() Deck {
	return Deck{
		Target: d.Target,
		Kinds:  slices.Clone(d.Kinds),
		Cards:  slices.Clone(d.Cards),
	}
}

// Init 建立地標表，起始地標發給每位玩家，版本 2 另建牌堆並補市場。
func Init(rs *catalog.Ruleset, ms *setting.MatchSetting, core *rng.Core) (Table, Deck, error) {
	if rs.Version != ms.Version {
		return Table{}, Deck{}, errs.Reject(catalog.ErrVersionMatch, "ruleset=%s setting=%s", rs.Version, ms.Version)
	}
	t := Table{
		IDs:  make([]catalog.LandID, 0, len(rs.Landmarks)),
		Data: make(map[catalog.LandID]*Entry, len(rs.Landmarks)),
	}
	inUse := map[catalog.LandID]bool{}
	for _, id := range rs.LandInUse(ms.Expansions) {
		inUse[id] = true
	}
	d := Deck{}
	for i := range rs.Landmarks {
		l := &rs.Landmarks[i]
		e := &Entry{InUse: inUse[l.ID], Owned: make([]bool, ms.Players)}
		t.IDs = append(t.IDs, l.ID)
		t.Data[l.ID] = e
		if !e.InUse {
			continue
		}
		if l.Starting {
			for p := range e.Owned {
				e.Owned[p] = true
			}
			continue
		}
		switch rs.Version {
		case catalog.V1:
			e.Available = true
		case catalog.V2:
			if l.Ability == catalog.AbilityWin {
				e.Available = true
				continue
			}
			d.Kinds = append(d.Kinds, l.ID)
			d.Cards = append(d.Cards, l.ID)
		default:
			return Table{}, Deck{}, errs.Reject(catalog.ErrUnknownVersion, "version=%d", rs.Version)
		}
	}
	d.Target = rs.Rules.LandmarkMarket
	rng.Shuffle(core, d.Cards)
	Replenish(&t, &d)
	return t, d, nil
}

// Replenish 補充地標市場至 Target 種；版本 1 牌堆為空，不做任何事。
func Replenish(t *Table, d *Deck) {
	for len(d.Cards) > 0 && marketSize(t, d.Kinds) < d.Target {
		last := len(d.Cards) - 1
		t.Data[d.Cards[last]].Available = true
		d.Cards = d.Cards[:last]
	}
}

func marketSize(t *Table, kinds []catalog.LandID) int {
	n := 0
	for _, id := range kinds {
		if t.Data[id].Available {
			n++
		}
	}
	return n
}

// BuiltCount 玩家 p 已建的地標數，不含起始地標。
func BuiltCount(rs *catalog.Ruleset, t *Table, p int) int {
	n := 0
	for _, id := range t.IDs {
		if t.Data[id].Owned[p] && !rs.MustLand(id).Starting {
			n++
		}
	}
	return n
}

func Owns(t *Table, p int, id catalog.LandID) bool {
	e, ok := t.Data[id]
	return ok && e.InUse && e.Owned[p]
}

func AnyoneOwns(t *Table, id catalog.LandID) bool {
	e, ok := t.Data[id]
	if !ok || !e.InUse {
		return false
	}
	for _, o := range e.Owned {
		if o {
			return true
		}
	}
	return false
}

// OwnsAbility 玩家 p 是否擁有帶此能力的地標。
func OwnsAbility(rs *catalog.Ruleset, t *Table, p int, a catalog.Ability) bool {
	id, ok := rs.LandByAbility(a)
	return ok && Owns(t, p, id)
}

// OwnsAll 玩家 p 是否擁有全部使用中的地標。
func OwnsAll(t *Table, p int) bool {
	for _, id := range t.IDs {
		e := t.Data[id]
		if e.InUse && !e.Owned[p] {
			return false
		}
	}
	return true
}

// CostOf 玩家 p 購買 id 的實際價格。
//
// 版本 2：以 p 已建數（不含起始地標）索引價格陣列，超出取最後一格；
// Observatory 被任何人擁有後，所有人的 Launch Pad 折扣；Exhibit Hall 讓擁有者其他地標折扣。
// 價格不低於 0。
func CostOf(rs *catalog.Ruleset, t *Table, id catalog.LandID, p int) (int, error) {
	l, err := rs.Land(id)
	if err != nil {
		return 0, err
	}
	switch rs.Version {
	case catalog.V1:
		return l.Cost[0], nil
	case catalog.V2:
		idx := min(BuiltCount(rs, t, p), len(l.Cost)-1)
		cost := l.Cost[idx]
		if l.Ability == catalog.AbilityWin {
			if obs, ok := rs.LandByAbility(catalog.AbilityObservatory); ok && AnyoneOwns(t, obs) {
				cost -= rs.MustLand(obs).Amount
			}
		}
		if ex, ok := rs.LandByAbility(catalog.AbilityExhibit); ok && ex != id && Owns(t, p, ex) {
			cost -= rs.MustLand(ex).Amount
		}
		return max(cost, 0), nil
	default:
		return 0, errs.Reject(catalog.ErrUnknownVersion, "version=%d", rs.Version)
	}
}

// CanBuy 純檢查，不改動狀態。
func CanBuy(rs *catalog.Ruleset, t *Table, p int, id catalog.LandID, money int) error {
	cost, err := CostOf(rs, t, id, p)
	if err != nil {
		return err
	}
	e := t.Data[id]
	if e.Owned[p] {
		return errs.Reject(ErrOwned, "landmark=%d player=%d", id, p)
	}
	if !e.InUse || !e.Available {
		return errs.Reject(ErrNotAvailable, "landmark=%d", id)
	}
	if money < cost {
		return errs.Reject(ErrUnaffordable, "landmark=%d cost=%d money=%d", id, cost, money)
	}
	return nil
}

// Buy 玩家 p 建造 id，回傳應付金額。版本 2 建好即離開市場。
func Buy(rs *catalog.Ruleset, t *Table, p int, id catalog.LandID, money int) (int, error) {
	if err := CanBuy(rs, t, p, id, money); err != nil {
		return 0, err
	}
	cost, _ := CostOf(rs, t, id, p)
	e := t.Data[id]
	e.Owned[p] = true
	if rs.Version == catalog.V2 {
		e.Available = false
	}
	return cost, nil
}
