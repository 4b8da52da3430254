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
	"fmt"
	"strings"
)

// Phase 回合內的階段。
type Phase uint8

const (
	PhaseRoll    Phase = iota + 1 // 擲骰（含擲後等待保留/修正）
	PhaseTV                       // TV Station 指定對手
	PhaseOffice1                  // Business Center 選自己要換出的建物
	PhaseOffice2                  // Business Center 選對手與換入的建物
	PhaseBuy                      // 購買或結束回合
	PhaseEnd                      // 已購買，只能結束回合
)

var phaseNames = map[Phase]string{
	PhaseRoll:    "roll",
	PhaseTV:      "tv",
	PhaseOffice1: "office-phase1",
	PhaseOffice2: "office-phase2",
	PhaseBuy:     "buy",
	PhaseEnd:     "end",
}

// AllPhases 依回合流程排列。
var AllPhases = []Phase{PhaseRoll, PhaseTV, PhaseOffice1, PhaseOffice2, PhaseBuy, PhaseEnd}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	for k, v := range phaseNames {
		if v == s {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", s)
}
