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

// Package setting 定義開局設定 MatchSetting 以及其 YAML/JSON 解碼與檢查。
//
// 設定錯誤（人數越界、版本與擴充不相容…）一律是 Fatal：代表呼叫端有缺陷，不是玩家操作錯誤。
package setting

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"gopkg.in/yaml.v3"
)

const (
	MinPlayers = 2
	MaxPlayers = 5
)

// Policy 供給補充策略，開局選定後整場固定。
type Policy string

const (
	Total    Policy = "total"
	Variable Policy = "variable"
	Hybrid   Policy = "hybrid"
)

func (p Policy) Valid() bool {
	switch p {
	case Total, Variable, Hybrid:
		return true
	default:
		return false
	}
}

// MatchSetting 開一場對局所需的全部設定。
type MatchSetting struct {
	Version       catalog.Version     `yaml:"version"        json:"version"`
	Expansions    []catalog.Expansion `yaml:"expansions"     json:"expansions"`
	Policy        Policy              `yaml:"policy"         json:"policy"`
	StartingCoins int                 `yaml:"starting_coins" json:"starting_coins"`
	ShuffleOrder  bool                `yaml:"shuffle_order"  json:"shuffle_order"`
	Players       int                 `yaml:"players"        json:"players"`
	Debug         bool                `yaml:"debug"          json:"debug"` // 開啟 force-roll
}

// Default 回傳指定版本與人數的常用設定（Total 策略、3 枚起始金幣、不洗座位）。
func Default(v catalog.Version, players int) *MatchSetting {
	return &MatchSetting{
		Version:       v,
		Expansions:    []catalog.Expansion{catalog.Base},
		Policy:        Total,
		StartingCoins: 3,
		Players:       players,
	}
}

// Init 正規化擴充列表並執行檢查。
func (ms *MatchSetting) Init() error {
	for i, e := range ms.Expansions {
		ms.Expansions[i] = catalog.Expansion(strings.ToLower(strings.TrimSpace(string(e))))
	}
	slices.Sort(ms.Expansions)
	ms.Policy = Policy(strings.ToLower(string(ms.Policy)))
	return ms.Valid()
}

// Valid 檢查設定是否可開局，所有錯誤皆為 Fatal。
func (ms *MatchSetting) Valid() error {
	if ms.Players < MinPlayers || ms.Players > MaxPlayers {
		return errs.NewFatal(fmt.Sprintf("players must be %d-%d, got %d", MinPlayers, MaxPlayers, ms.Players))
	}
	if ms.StartingCoins < 0 {
		return errs.NewFatal(fmt.Sprintf("starting_coins must be >= 0, got %d", ms.StartingCoins))
	}
	if !ms.Policy.Valid() {
		return errs.NewFatal(fmt.Sprintf("unknown policy %q", ms.Policy))
	}
	if !slices.Contains(ms.Expansions, catalog.Base) {
		return errs.NewFatal("expansions must include base")
	}
	seen := map[catalog.Expansion]struct{}{}
	for _, e := range ms.Expansions {
		if _, ok := seen[e]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate expansion %q", e))
		}
		seen[e] = struct{}{}
	}
	switch ms.Version {
	case catalog.V1:
		if len(ms.Expansions) > 2 {
			return errs.NewFatal("ruleset 1 accepts at most one expansion")
		}
		for _, e := range ms.Expansions {
			if e != catalog.Base && e != catalog.Harbor {
				return errs.NewFatal(fmt.Sprintf("ruleset 1 does not support expansion %q", e))
			}
		}
	case catalog.V2:
		if len(ms.Expansions) != 1 {
			return errs.NewFatal("ruleset 2 accepts no expansion")
		}
	default:
		return errs.NewFatal(fmt.Sprintf("unsupported ruleset version %d", ms.Version))
	}
	return nil
}

// Has 回報是否啟用某擴充。
func (ms *MatchSetting) Has(e catalog.Expansion) bool {
	return slices.Contains(ms.Expansions, e)
}

// Clone 深拷貝設定。
func (ms *MatchSetting) Clone() *MatchSetting {
	c := *ms
	c.Expansions = slices.Clone(ms.Expansions)
	return &c
}

// GetMatchSettingByYAML
// 會讀取 YAML 設定、正規化並執行檢查後回傳。
func GetMatchSettingByYAML(data []byte) (*MatchSetting, error) {
	ms := &MatchSetting{}
	if err := yaml.Unmarshal(data, ms); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := ms.Init(); err != nil {
		return nil, errs.Wrap(err, "match setting initialized err")
	}
	return ms, nil
}

// GetMatchSettingByJSON
// 會讀取 Json 設定、正規化並執行檢查後回傳
func GetMatchSettingByJSON(data []byte) (*MatchSetting, error) {
	ms := &MatchSetting{}
	if err := json.Unmarshal(data, ms); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := ms.Init(); err != nil {
		return nil, errs.Wrap(err, "match setting initialized err")
	}
	return ms, nil
}
