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
	"fmt"
	"strings"
)

// Version 規則版本。卡片 id 的百位數就是版本（101 → 1，217 → 2）。
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
)

func (v Version) Valid() bool {
	switch v {
	case V1, V2:
		return true
	default:
		return false
	}
}

func (v Version) String() string {
	return fmt.Sprintf("v%d", uint8(v))
}

// EstID 建物（Establishment）id。
type EstID int

// Version 由 id 推回所屬規則版本。
func (id EstID) Version() Version { return Version(id / 100) }

// LandID 地標（Landmark）id。
type LandID int

// Version 由 id 推回所屬規則版本。
func (id LandID) Version() Version { return Version(id / 100) }

// Color 建物顏色，決定結算順序與作用對象。
type Color uint8

const (
	Blue Color = iota + 1
	Green
	Red
	Purple
)

var colorNames = map[Color]string{Blue: "blue", Green: "green", Red: "red", Purple: "purple"}

func (c Color) String() string { return colorNames[c] }

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for k, v := range colorNames {
		if v == s {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown color %q", s)
}

// Combo 建物的圖示分類，部分綠卡以它作為倍率來源。
type Combo uint8

const (
	NoCombo Combo = iota
	Wheat
	Animal
	Gear
	Cup
	Shop
	Fruit
)

var comboNames = map[Combo]string{
	NoCombo: "none", Wheat: "wheat", Animal: "animal", Gear: "gear",
	Cup: "cup", Shop: "shop", Fruit: "fruit",
}

func (c Combo) String() string { return comboNames[c] }

func (c Combo) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Combo) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	if s == "" {
		*c = NoCombo
		return nil
	}
	for k, v := range comboNames {
		if v == s {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown combo %q", s)
}

// Effect 建物效果種類。
type Effect uint8

const (
	EffectEarn      Effect = iota + 1 // 銀行付款（藍、綠）
	EffectTake                        // 向擲骰者收款（紅）
	EffectTuna                        // 銀行依全場共用擲骰付款
	EffectStadium                     // 向每位對手收固定金額
	EffectTV                          // 開啟 TV 子階段
	EffectOffice                      // 開啟交換子階段
	EffectPublisher                   // 依對手 cup+shop 數量收款
	EffectTax                         // 對達門檻的對手收一半
)

var effectNames = map[Effect]string{
	EffectEarn: "earn", EffectTake: "take", EffectTuna: "tuna", EffectStadium: "stadium",
	EffectTV: "tv", EffectOffice: "office", EffectPublisher: "publisher", EffectTax: "tax",
}

func (e Effect) String() string { return effectNames[e] }

func (e Effect) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *Effect) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for k, v := range effectNames {
		if v == s {
			*e = k
			return nil
		}
	}
	return fmt.Errorf("unknown effect %q", s)
}

// Ability 地標能力。
type Ability uint8

const (
	AbilityZeroCoin    Ability = iota + 1 // 結算後恰好 0 元時補 1 元
	AbilityHarbor                         // 點數 >= 門檻時可 +2，並啟用港口類建物
	AbilityTwoDice                        // 可擲兩顆骰
	AbilityMall                           // cup/shop 類建物每張 +1
	AbilityRepeat                         // 擲出雙骰時再來一回合
	AbilityReroll                         // 每回合可重擲一次
	AbilityAirport                        // 回合內沒買東西時結束可得獎勵
	AbilityWin                            // 買下即獲勝
	AbilityObservatory                    // 任何人擁有後，所有人 Launch Pad 折扣
	AbilityExhibit                        // 擁有者其他地標折扣
	AbilityTemple                         // 擲出雙骰時向每位對手收款
)

var abilityNames = map[Ability]string{
	AbilityZeroCoin: "zero_coin", AbilityHarbor: "harbor", AbilityTwoDice: "two_dice",
	AbilityMall: "mall", AbilityRepeat: "repeat", AbilityReroll: "reroll",
	AbilityAirport: "airport", AbilityWin: "win", AbilityObservatory: "observatory",
	AbilityExhibit: "exhibit", AbilityTemple: "temple",
}

func (a Ability) String() string { return abilityNames[a] }

func (a Ability) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Ability) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for k, v := range abilityNames {
		if v == s {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown ability %q", s)
}

// Expansion 擴充名稱。
type Expansion string

const (
	Base   Expansion = "base"
	Harbor Expansion = "harbor"
)

// Establishment 建物的靜態資料。
type Establishment struct {
	ID        EstID     `yaml:"id"         json:"id"`
	Name      string    `yaml:"name"       json:"name"`
	Cost      int       `yaml:"cost"       json:"cost"`
	Base      int       `yaml:"base"       json:"base"`
	Rolls     []int     `yaml:"rolls"      json:"rolls"`
	Color     Color     `yaml:"color"      json:"color"`
	Combo     Combo     `yaml:"combo"      json:"combo"`
	Effect    Effect    `yaml:"effect"     json:"effect"`
	MultCombo Combo     `yaml:"mult_combo" json:"mult_combo,omitempty"`
	MultEst   EstID     `yaml:"mult_est"   json:"mult_est,omitempty"`
	Harbor    bool      `yaml:"harbor"     json:"needs_harbor,omitempty"` // 擁有者需有港口能力
	Threshold int       `yaml:"threshold"  json:"threshold,omitempty"`
	Supply    int       `yaml:"supply"     json:"supply,omitempty"` // 0 代表等於玩家人數
	Starting  bool      `yaml:"starting"   json:"starting,omitempty"`
	Expansion Expansion `yaml:"expansion"  json:"expansion"`
}

// Activates 回報 roll 是否落在啟動點數中。
func (e *Establishment) Activates(roll int) bool {
	for _, r := range e.Rolls {
		if r == roll {
			return true
		}
	}
	return false
}

// MinRoll / MaxRoll 供 Hybrid 供給分堆使用。
func (e *Establishment) MinRoll() int {
	m := e.Rolls[0]
	for _, r := range e.Rolls[1:] {
		m = min(m, r)
	}
	return m
}

func (e *Establishment) MaxRoll() int {
	m := e.Rolls[0]
	for _, r := range e.Rolls[1:] {
		m = max(m, r)
	}
	return m
}

// InitialSupply 回傳此建物在 players 人對局中的總張數（含起始手牌）。
func (e *Establishment) InitialSupply(players int) int {
	n := e.Supply
	if n == 0 {
		n = players
	}
	if e.Starting {
		n += players
	}
	return n
}

// Landmark 地標的靜態資料。
type Landmark struct {
	ID        LandID    `yaml:"id"        json:"id"`
	Name      string    `yaml:"name"      json:"name"`
	Cost      []int     `yaml:"cost"      json:"cost"`
	Ability   Ability   `yaml:"ability"   json:"ability"`
	Amount    int       `yaml:"amount"    json:"amount,omitempty"`
	Threshold int       `yaml:"threshold" json:"threshold,omitempty"`
	Starting  bool      `yaml:"starting"  json:"starting,omitempty"`
	Expansion Expansion `yaml:"expansion" json:"expansion"`
}
