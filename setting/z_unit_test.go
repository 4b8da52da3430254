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

package setting

import (
	"testing"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
)

func TestValidSettings(t *testing.T) {
	cases := []struct {
		name string
		ms   MatchSetting
		ok   bool
	}{
		{"v1 base", MatchSetting{Version: 1, Expansions: []catalog.Expansion{"base"}, Policy: Total, Players: 2}, true},
		{"v1 harbor", MatchSetting{Version: 1, Expansions: []catalog.Expansion{"harbor", "base"}, Policy: Hybrid, Players: 5}, true},
		{"v2 base", MatchSetting{Version: 2, Expansions: []catalog.Expansion{"base"}, Policy: Variable, Players: 3}, true},
		{"v2 harbor", MatchSetting{Version: 2, Expansions: []catalog.Expansion{"base", "harbor"}, Policy: Total, Players: 3}, false},
		{"no base", MatchSetting{Version: 1, Expansions: []catalog.Expansion{"harbor"}, Policy: Total, Players: 3}, false},
		{"one player", MatchSetting{Version: 1, Expansions: []catalog.Expansion{"base"}, Policy: Total, Players: 1}, false},
		{"six players", MatchSetting{Version: 1, Expansions: []catalog.Expansion{"base"}, Policy: Total, Players: 6}, false},
		{"negative coins", MatchSetting{Version: 1, Expansions: []catalog.Expansion{"base"}, Policy: Total, Players: 2, StartingCoins: -1}, false},
		{"bad policy", MatchSetting{Version: 1, Expansions: []catalog.Expansion{"base"}, Policy: "random", Players: 2}, false},
		{"bad version", MatchSetting{Version: 3, Expansions: []catalog.Expansion{"base"}, Policy: Total, Players: 2}, false},
		{"dup expansion", MatchSetting{Version: 1, Expansions: []catalog.Expansion{"base", "base"}, Policy: Total, Players: 2}, false},
	}
	for _, c := range cases {
		err := c.ms.Init()
		if c.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok {
			if err == nil {
				t.Fatalf("%s: expected error", c.name)
			}
			if !errs.IsFatal(err) {
				t.Fatalf("%s: setup errors must be fatal, got %v", c.name, err)
			}
		}
	}
}

func TestDecodeYAMLAndJSON(t *testing.T) {
	y := []byte(`
version: 1
expansions: [Harbor, base]
policy: Hybrid
starting_coins: 3
shuffle_order: true
players: 4
`)
	ms, err := GetMatchSettingByYAML(y)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !ms.Has(catalog.Harbor) || ms.Policy != Hybrid || !ms.ShuffleOrder || ms.Players != 4 {
		t.Fatalf("unexpected setting %+v", ms)
	}

	j := []byte(`{"version":2,"expansions":["base"],"policy":"variable","starting_coins":5,"players":2}`)
	ms2, err := GetMatchSettingByJSON(j)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if ms2.Version != catalog.V2 || ms2.StartingCoins != 5 {
		t.Fatalf("unexpected setting %+v", ms2)
	}

	if _, err := GetMatchSettingByJSON([]byte(`{"version":2,"expansions":["base"],"policy":"total","players":9}`)); err == nil {
		t.Fatalf("expected invalid players to fail")
	}
}

func TestCloneIsDeep(t *testing.T) {
	ms := Default(catalog.V1, 3)
	c := ms.Clone()
	c.Expansions[0] = catalog.Harbor
	if ms.Expansions[0] != catalog.Base {
		t.Fatalf("clone shares expansions")
	}
}
