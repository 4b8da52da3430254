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

package landmark

import (
	"errors"
	"testing"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/rng"
	"github.com/zintix-labs/machilab/setting"
)

func newTable(t *testing.T, v catalog.Version, players int, exp ...catalog.Expansion) (*catalog.Ruleset, Table, Deck) {
	t.Helper()
	rs, _ := catalog.MustDefault().Ruleset(v)
	ms := setting.Default(v, players)
	ms.Expansions = append(ms.Expansions, exp...)
	if err := ms.Init(); err != nil {
		t.Fatalf("setting: %v", err)
	}
	tb, d, err := Init(rs, ms, rng.New(rng.Default().New(5)))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	return rs, tb, d
}

func TestV1AlwaysAvailable(t *testing.T) {
	rs, tb, d := newTable(t, catalog.V1, 2, catalog.Harbor)
	if len(d.Cards) != 0 {
		t.Fatalf("ruleset 1 has no landmark deck")
	}
	if !Owns(&tb, 0, 101) || !Owns(&tb, 1, 101) {
		t.Fatalf("city hall is a starting landmark")
	}
	if BuiltCount(rs, &tb, 0) != 0 {
		t.Fatalf("starting landmark must not count as built")
	}
	cost, err := Buy(rs, &tb, 0, 103, 4)
	if err != nil || cost != 4 {
		t.Fatalf("buy train station: %d %v", cost, err)
	}
	if !tb.Data[103].Available {
		t.Fatalf("ruleset 1 landmarks stay available for other players")
	}
	if _, err := Buy(rs, &tb, 1, 103, 4); err != nil {
		t.Fatalf("second player buy: %v", err)
	}
	if _, err := Buy(rs, &tb, 0, 103, 40); !errors.Is(err, ErrOwned) {
		t.Fatalf("expected already owned, got %v", err)
	}
	if _, err := Buy(rs, &tb, 0, 107, 29); !errors.Is(err, ErrUnaffordable) || !errs.IsWarn(err) {
		t.Fatalf("expected unaffordable, got %v", err)
	}
	if _, err := CostOf(rs, &tb, 203, 0); !errs.IsFatal(err) {
		t.Fatalf("cross-version landmark must be fatal, got %v", err)
	}
}

func TestV1BaseExcludesHarborLandmarks(t *testing.T) {
	rs, tb, _ := newTable(t, catalog.V1, 2)
	if tb.Data[101].InUse || Owns(&tb, 0, 101) {
		t.Fatalf("city hall is harbor-only in ruleset 1")
	}
	if _, err := Buy(rs, &tb, 0, 102, 10); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected harbor landmark unavailable, got %v", err)
	}
	for _, id := range []catalog.LandID{103, 104, 105, 106} {
		tb.Data[id].Owned[1] = true
	}
	if !OwnsAll(&tb, 1) || OwnsAll(&tb, 0) {
		t.Fatalf("owns-all check wrong")
	}
}

func TestV2Market(t *testing.T) {
	rs, tb, d := newTable(t, catalog.V2, 3)
	if got := marketSize(&tb, d.Kinds); got != 5 {
		t.Fatalf("market should hold 5 landmarks, got %d", got)
	}
	if len(d.Cards) != 2 {
		t.Fatalf("deck should keep 2 landmarks, got %d", len(d.Cards))
	}
	if !tb.Data[202].Available || !Owns(&tb, 2, 201) {
		t.Fatalf("launch pad available and city hall owned from the start")
	}

	var bought catalog.LandID
	for _, id := range d.Kinds {
		if tb.Data[id].Available {
			bought = id
			break
		}
	}
	if _, err := Buy(rs, &tb, 0, bought, 30); err != nil {
		t.Fatalf("buy %d: %v", bought, err)
	}
	if tb.Data[bought].Available {
		t.Fatalf("built landmark must leave the market")
	}
	if _, err := Buy(rs, &tb, 1, bought, 30); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("single copy landmark, got %v", err)
	}
	Replenish(&tb, &d)
	if got := marketSize(&tb, d.Kinds); got != 5 {
		t.Fatalf("replenish should refill to 5, got %d", got)
	}
}

func TestV2Costs(t *testing.T) {
	rs, tb, _ := newTable(t, catalog.V2, 2)
	cost := func(id catalog.LandID, p int) int {
		c, err := CostOf(rs, &tb, id, p)
		if err != nil {
			t.Fatalf("cost %d: %v", id, err)
		}
		return c
	}

	if cost(205, 0) != 12 {
		t.Fatalf("first landmark cost, got %d", cost(205, 0))
	}
	tb.Data[207].Owned[0] = true
	if cost(205, 0) != 16 {
		t.Fatalf("second landmark cost, got %d", cost(205, 0))
	}
	tb.Data[208].Owned[0] = true
	tb.Data[209].Owned[0] = true
	if cost(205, 0) != 22 {
		t.Fatalf("clamped cost, got %d", cost(205, 0))
	}

	if cost(202, 1) != 45 {
		t.Fatalf("launch pad base cost, got %d", cost(202, 1))
	}
	tb.Data[203].Owned[0] = true
	if cost(202, 1) != 40 || cost(202, 0) != 40 {
		t.Fatalf("observatory discount applies to everyone")
	}

	tb.Data[204].Owned[1] = true
	if cost(202, 1) != 38 {
		t.Fatalf("exhibit hall discount on launch pad, got %d", cost(202, 1))
	}
	if cost(204, 1) != 14 {
		t.Fatalf("exhibit hall does not discount itself, got %d", cost(204, 1))
	}
	if cost(202, 0) != 40 {
		t.Fatalf("exhibit hall only discounts its owner")
	}
}
