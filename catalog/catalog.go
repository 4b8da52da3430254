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

// Package catalog 是卡片登錄表（Card Registry）。
//
// 每個規則版本一份 YAML 表（tables/v1.yaml、tables/v2.yaml），內嵌於二進位檔中。
// 所有查詢都帶著版本：拿版本 1 的 id 去查版本 2 的表是資料錯誤（Fatal），不是靜默略過。
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"sort"

	"github.com/zintix-labs/machilab/errs"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var tablesFS embed.FS

var (
	ErrUnknownVersion = errs.NewFatal("unknown ruleset version")
	ErrUnknownCard    = errs.NewFatal("unknown card id")
	ErrVersionMatch   = errs.NewFatal("card id does not belong to ruleset")
	ErrDupID          = errs.NewFatal("duplicate card id")
)

// Rules 版本層級的數值參數。
type Rules struct {
	VariableTarget int  `yaml:"variable_target" json:"variable_target"`
	HybridLow      int  `yaml:"hybrid_low"      json:"hybrid_low"`
	HybridHigh     int  `yaml:"hybrid_high"     json:"hybrid_high"`
	HybridPurple   int  `yaml:"hybrid_purple"   json:"hybrid_purple"`
	LandmarkMarket int  `yaml:"landmark_market" json:"landmark_market"`
	TwoDiceAlways  bool `yaml:"two_dice_always" json:"two_dice_always"`
	PurpleUnique   bool `yaml:"purple_unique"   json:"purple_unique"`
}

// Ruleset 單一版本的完整卡表，載入後唯讀。
type Ruleset struct {
	Version        Version         `yaml:"version"        json:"version"`
	Rules          Rules           `yaml:"rules"          json:"rules"`
	Establishments []Establishment `yaml:"establishments" json:"establishments"`
	Landmarks      []Landmark      `yaml:"landmarks"      json:"landmarks"`
	estIdx         map[EstID]int
	landIdx        map[LandID]int
}

// init 排序、建立索引並做基本檢查。
func (rs *Ruleset) init() error {
	if !rs.Version.Valid() {
		return errs.Reject(ErrUnknownVersion, "version=%d", rs.Version)
	}
	sort.Slice(rs.Establishments, func(i, j int) bool { return rs.Establishments[i].ID < rs.Establishments[j].ID })
	sort.Slice(rs.Landmarks, func(i, j int) bool { return rs.Landmarks[i].ID < rs.Landmarks[j].ID })

	rs.estIdx = make(map[EstID]int, len(rs.Establishments))
	for i := range rs.Establishments {
		e := &rs.Establishments[i]
		if e.ID.Version() != rs.Version {
			return errs.Reject(ErrVersionMatch, "establishment=%d ruleset=%s", e.ID, rs.Version)
		}
		if _, ok := rs.estIdx[e.ID]; ok {
			return errs.Reject(ErrDupID, "establishment=%d", e.ID)
		}
		if len(e.Rolls) == 0 || e.Color == 0 || e.Effect == 0 {
			return errs.Fatalf("establishment %d: rolls, color and effect are required", e.ID)
		}
		if e.Cost < 0 || e.Base < 0 || e.Supply < 0 {
			return errs.Fatalf("establishment %d: negative cost, base or supply", e.ID)
		}
		if e.MultEst != 0 && e.MultEst.Version() != rs.Version {
			return errs.Reject(ErrVersionMatch, "establishment=%d mult_est=%d", e.ID, e.MultEst)
		}
		if e.Expansion == "" {
			e.Expansion = Base
		}
		rs.estIdx[e.ID] = i
	}

	rs.landIdx = make(map[LandID]int, len(rs.Landmarks))
	for i := range rs.Landmarks {
		l := &rs.Landmarks[i]
		if l.ID.Version() != rs.Version {
			return errs.Reject(ErrVersionMatch, "landmark=%d ruleset=%s", l.ID, rs.Version)
		}
		if _, ok := rs.landIdx[l.ID]; ok {
			return errs.Reject(ErrDupID, "landmark=%d", l.ID)
		}
		if len(l.Cost) == 0 || l.Ability == 0 {
			return errs.Fatalf("landmark %d: cost and ability are required", l.ID)
		}
		if l.Expansion == "" {
			l.Expansion = Base
		}
		rs.landIdx[l.ID] = i
	}
	return nil
}

// Est 依 id 取得建物；id 不屬於此版本或不存在皆為 Fatal。
func (rs *Ruleset) Est(id EstID) (*Establishment, error) {
	if id.Version() != rs.Version {
		return nil, errs.Reject(ErrVersionMatch, "establishment=%d ruleset=%s", id, rs.Version)
	}
	i, ok := rs.estIdx[id]
	if !ok {
		return nil, errs.Reject(ErrUnknownCard, "establishment=%d", id)
	}
	return &rs.Establishments[i], nil
}

// Land 依 id 取得地標；規則同 Est。
func (rs *Ruleset) Land(id LandID) (*Landmark, error) {
	if id.Version() != rs.Version {
		return nil, errs.Reject(ErrVersionMatch, "landmark=%d ruleset=%s", id, rs.Version)
	}
	i, ok := rs.landIdx[id]
	if !ok {
		return nil, errs.Reject(ErrUnknownCard, "landmark=%d", id)
	}
	return &rs.Landmarks[i], nil
}

// MustEst 僅供內部已驗證過的 id 使用（例如從 Table.IDs 迭代而來）。
func (rs *Ruleset) MustEst(id EstID) *Establishment {
	e, err := rs.Est(id)
	if err != nil {
		panic(err)
	}
	return e
}

func (rs *Ruleset) MustLand(id LandID) *Landmark {
	l, err := rs.Land(id)
	if err != nil {
		panic(err)
	}
	return l
}

// LandByAbility 找出此版本中具有指定能力的地標（每種能力至多一張）。
func (rs *Ruleset) LandByAbility(a Ability) (LandID, bool) {
	for i := range rs.Landmarks {
		if rs.Landmarks[i].Ability == a {
			return rs.Landmarks[i].ID, true
		}
	}
	return 0, false
}

// EstByEffect 找出此版本中第一張具有指定效果的建物。
func (rs *Ruleset) EstByEffect(f Effect) (EstID, bool) {
	for i := range rs.Establishments {
		if rs.Establishments[i].Effect == f {
			return rs.Establishments[i].ID, true
		}
	}
	return 0, false
}

// EstInUse 回傳在此擴充組合下使用中的建物 id（遞增）。
func (rs *Ruleset) EstInUse(exp []Expansion) []EstID {
	ids := make([]EstID, 0, len(rs.Establishments))
	for i := range rs.Establishments {
		if slices.Contains(exp, rs.Establishments[i].Expansion) {
			ids = append(ids, rs.Establishments[i].ID)
		}
	}
	return ids
}

// LandInUse 回傳在此擴充組合下使用中的地標 id（遞增）。
func (rs *Ruleset) LandInUse(exp []Expansion) []LandID {
	ids := make([]LandID, 0, len(rs.Landmarks))
	for i := range rs.Landmarks {
		if slices.Contains(exp, rs.Landmarks[i].Expansion) {
			ids = append(ids, rs.Landmarks[i].ID)
		}
	}
	return ids
}

// Library 所有版本卡表的集合。
type Library struct {
	byVersion map[Version]*Ruleset
	versions  []Version
}

// Default 載入內嵌的 v1 與 v2 卡表。
func Default() (*Library, error) {
	sub, err := fs.Sub(tablesFS, "tables")
	if err != nil {
		return nil, errs.Wrap(err, "catalog embed fs error")
	}
	return Load(sub)
}

// MustDefault 與 Default 相同，失敗時 panic（內嵌表不可能損毀，除非建置有誤）。
func MustDefault() *Library {
	lib, err := Default()
	if err != nil {
		panic(err)
	}
	return lib
}

// Load 讀取 fs 根目錄下所有 .yaml 卡表。
func Load(src fs.FS) (*Library, error) {
	files, err := fs.Glob(src, "*.yaml")
	if err != nil {
		return nil, errs.Wrap(err, "catalog glob error")
	}
	if len(files) == 0 {
		return nil, errs.NewFatal("no ruleset table found")
	}
	lib := &Library{byVersion: make(map[Version]*Ruleset, len(files))}
	for _, name := range files {
		raw, err := fs.ReadFile(src, name)
		if err != nil {
			return nil, errs.Wrap(err, "catalog read file error")
		}
		rs, err := ParseRuleset(raw)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("catalog parse %s error", name))
		}
		if _, ok := lib.byVersion[rs.Version]; ok {
			return nil, errs.Fatalf("duplicate ruleset %s in %s", rs.Version, name)
		}
		lib.byVersion[rs.Version] = rs
		lib.versions = append(lib.versions, rs.Version)
	}
	slices.Sort(lib.versions)
	return lib, nil
}

// ParseRuleset 解析單一版本 YAML 卡表並初始化索引。
func ParseRuleset(raw []byte) (*Ruleset, error) {
	rs := &Ruleset{}
	if err := yaml.Unmarshal(raw, rs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := rs.init(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Ruleset 取得指定版本卡表，未知版本為 Fatal。
func (l *Library) Ruleset(v Version) (*Ruleset, error) {
	rs, ok := l.byVersion[v]
	if !ok {
		return nil, errs.Reject(ErrUnknownVersion, "version=%d", v)
	}
	return rs, nil
}

func (l *Library) Versions() []Version {
	return append([]Version(nil), l.versions...)
}
