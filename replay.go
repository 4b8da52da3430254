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

package machilab

import (
	"encoding/json"

	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/game"
	"github.com/zintix-labs/machilab/setting"
	"gopkg.in/yaml.v3"
)

// ErrReplayDiverged 紀錄中的招式在重播時被拒絕：紀錄與卡表或引擎版本不一致。
var ErrReplayDiverged = errs.NewFatal("replay diverged")

// Record 設定 + seed + 依序被接受的招式。三者相同，重播結果必定位元等價。
type Record struct {
	Setting setting.MatchSetting `yaml:"setting" json:"setting"`
	Seed    int64                `yaml:"seed"    json:"seed"`
	Moves   []game.Move          `yaml:"moves"   json:"moves"`
}

// Replay 依紀錄重建對局。
func (l *Machilab) Replay(rec *Record) (*Match, error) {
	if rec == nil {
		return nil, errs.NewFatal("replay record required")
	}
	m, err := l.NewMatchWithSeed(&rec.Setting, rec.Seed)
	if err != nil {
		return nil, err
	}
	for i, mv := range rec.Moves {
		if _, err := m.Apply(mv); err != nil {
			return nil, errs.Reject(ErrReplayDiverged, "move #%d %s: %v", i+1, mv.String(), err)
		}
	}
	return m, nil
}

func GetRecordByYAML(data []byte) (*Record, error) {
	rec := new(Record)
	if err := yaml.Unmarshal(data, rec); err != nil {
		return nil, errs.Wrap(err, "decode record yaml failed")
	}
	return rec, nil
}

func GetRecordByJSON(data []byte) (*Record, error) {
	rec := new(Record)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, errs.Wrap(err, "decode record json failed")
	}
	return rec, nil
}
