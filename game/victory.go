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
	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/landmark"
)

// checkVictory 每次買下地標後呼叫。
//
// 版本 1：擁有全部使用中的地標。版本 2：買下的是勝利地標（Launch Pad）。
func (s *step) checkVictory(bought catalog.LandID) {
	st := s.st
	p := st.Player()
	won := false
	switch s.rs.Version {
	case catalog.V1:
		won = landmark.OwnsAll(&st.Land, p)
	case catalog.V2:
		won = s.rs.MustLand(bought).Ability == catalog.AbilityWin
	}
	if !won {
		return
	}
	st.Over = true
	st.Winner = p
	s.buf.Push(Event{Kind: EvEndGame, Player: p, From: Bank, Land: bought, Card: s.rs.MustLand(bought).Name})
}
