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

package catalog

import (
	"errors"
	"testing"

	"github.com/zintix-labs/machilab/errs"
)

func TestDefaultTables(t *testing.T) {
	lib, err := Default()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if got := lib.Versions(); len(got) != 2 || got[0] != V1 || got[1] != V2 {
		t.Fatalf("unexpected versions %v", got)
	}

	v1, _ := lib.Ruleset(V1)
	if len(v1.Establishments) != 25 || len(v1.Landmarks) != 7 {
		t.Fatalf("v1 sizes: est=%d land=%d", len(v1.Establishments), len(v1.Landmarks))
	}
	v2, _ := lib.Ruleset(V2)
	if len(v2.Establishments) != 17 || len(v2.Landmarks) != 9 {
		t.Fatalf("v2 sizes: est=%d land=%d", len(v2.Establishments), len(v2.Landmarks))
	}

	base := v1.EstInUse([]Expansion{Base})
	if len(base) != 15 {
		t.Fatalf("v1 base establishments: %d", len(base))
	}
	if got := v1.LandInUse([]Expansion{Base}); len(got) != 4 {
		t.Fatalf("v1 base landmarks: %v", got)
	}
	if got := v1.LandInUse([]Expansion{Base, Harbor}); len(got) != 7 {
		t.Fatalf("v1 harbor landmarks: %v", got)
	}
}

func TestLookupErrors(t *testing.T) {
	lib := MustDefault()
	v1, _ := lib.Ruleset(V1)

	_, err := v1.Est(201)
	if !errors.Is(err, ErrVersionMatch) || !errs.IsFatal(err) {
		t.Fatalf("expected version mismatch fatal, got %v", err)
	}
	_, err = v1.Est(199)
	if !errors.Is(err, ErrUnknownCard) {
		t.Fatalf("expected unknown card, got %v", err)
	}
	_, err = v1.Land(202)
	if !errors.Is(err, ErrVersionMatch) {
		t.Fatalf("expected landmark version mismatch, got %v", err)
	}
	if _, err := lib.Ruleset(3); !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("expected unknown version, got %v", err)
	}
}

func TestEstablishmentHelpers(t *testing.T) {
	v1, _ := MustDefault().Ruleset(V1)

	wheat := v1.MustEst(101)
	if wheat.InitialSupply(4) != 10 {
		t.Fatalf("starting card supply: %d", wheat.InitialSupply(4))
	}
	stadium := v1.MustEst(107)
	if stadium.InitialSupply(3) != 3 {
		t.Fatalf("purple supply should follow player count: %d", stadium.InitialSupply(3))
	}
	tuna := v1.MustEst(125)
	if tuna.MinRoll() != 12 || tuna.MaxRoll() != 14 || !tuna.Activates(13) || tuna.Activates(11) {
		t.Fatalf("tuna rolls wrong: %v", tuna.Rolls)
	}
	if id, ok := v1.LandByAbility(AbilityHarbor); !ok || id != 102 {
		t.Fatalf("harbor lookup: %d %v", id, ok)
	}
	if EstID(217).Version() != V2 || LandID(107).Version() != V1 {
		t.Fatalf("version from id broken")
	}
}

func TestParseRulesetRejectsForeignID(t *testing.T) {
	raw := []byte(`
version: 1
establishments:
  - { id: 205, name: X, cost: 1, base: 1, rolls: [1], color: blue, effect: earn }
`)
	if _, err := ParseRuleset(raw); !errors.Is(err, ErrVersionMatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	bad := []byte(`
version: 1
establishments:
  - { id: 105, name: X, cost: 1, base: 1, rolls: [1], color: teal, effect: earn }
`)
	if _, err := ParseRuleset(bad); err == nil {
		t.Fatalf("expected unknown color to fail")
	}
}
