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

package dto

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/game"
	"github.com/zintix-labs/machilab/setting"
)

// 防止 body 過大（預設 1MiB）
const maxBody = 1 << 20

// CreateMatchRequest 開局請求。Seed 缺省時由伺服器以 crypto/rand 產生。
type CreateMatchRequest struct {
	Setting setting.MatchSetting `json:"setting"`
	Seed    *int64               `json:"seed,omitempty"`
}

// MoveRequest 招式請求。
//
// Player 是送出招式的座位；不是他的回合會被拒絕（409）。
// 其餘欄位依招式種類使用：
//   - buy-establishment / resolve-office-phase1：est
//   - buy-landmark：land
//   - resolve-tv：target
//   - resolve-office-phase2：target + est
//   - force-roll：dice（僅 debug 對局）
type MoveRequest struct {
	Player int            `json:"player"`
	Move   game.MoveKind  `json:"move"`
	Est    catalog.EstID  `json:"est,omitempty"`
	Land   catalog.LandID `json:"land,omitempty"`
	Target int            `json:"target,omitempty"`
	Dice   []int          `json:"dice,omitempty"`
}

// SimRequest 自我對戰模擬請求。
type SimRequest struct {
	Setting setting.MatchSetting `json:"setting"`
	Matches int                  `json:"matches"`
	Workers int                  `json:"workers,omitempty"`
	Seed    *int64               `json:"seed,omitempty"`
	Audit   bool                 `json:"audit,omitempty"`
}

func DecodeCreateMatchRequest(r *http.Request) (*CreateMatchRequest, error) {
	req := new(CreateMatchRequest)
	if err := decodeJSON(r, req); err != nil {
		return nil, err
	}
	return req, nil
}

func DecodeMoveRequest(r *http.Request) (*MoveRequest, error) {
	req := new(MoveRequest)
	if err := decodeJSON(r, req); err != nil {
		return nil, err
	}
	return req, nil
}

func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	req := new(SimRequest)
	if err := decodeJSON(r, req); err != nil {
		return nil, err
	}
	return req, nil
}

// decodeJSON 只收 POST；開啟 DisallowUnknownFields，對未知欄位採用嚴格拒絕，以避免靜默丟資料。
func decodeJSON(r *http.Request, v any) error {
	if r == nil {
		return errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return errs.Warnf("method not allowed: %s", r.Method)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Warnf("invalid json: %v", err)
	}
	return nil
}

// Parse 轉成引擎招式；這裡只檢查格式與卡片 id，合法性由引擎判斷。
// rs 為對局使用的規則版本，不屬於它的 est/land 一律視為請求錯誤（Warn）；rs 為 nil 時不檢查 id。
func (mr *MoveRequest) Parse(rs *catalog.Ruleset) (game.Move, error) {
	if !slices.Contains(game.AllMoveKinds, mr.Move) {
		return game.Move{}, errs.Warnf("unknown move %q", mr.Move)
	}
	mv := game.Move{Kind: mr.Move}
	switch mr.Move {
	case game.MoveBuyEst, game.MoveOffice1:
		if mr.Est == 0 {
			return game.Move{}, errs.Warnf("%s requires est", mr.Move)
		}
		mv.Est = mr.Est
	case game.MoveBuyLand:
		if mr.Land == 0 {
			return game.Move{}, errs.Warnf("%s requires land", mr.Move)
		}
		mv.Land = mr.Land
	case game.MoveResolveTV:
		mv.Target = mr.Target
	case game.MoveOffice2:
		if mr.Est == 0 {
			return game.Move{}, errs.Warnf("%s requires est", mr.Move)
		}
		mv.Target = mr.Target
		mv.Est = mr.Est
	case game.MoveForceRoll:
		mv.Dice = slices.Clone(mr.Dice)
	}
	if err := checkCards(rs, mv); err != nil {
		return game.Move{}, err
	}
	return mv, nil
}

func checkCards(rs *catalog.Ruleset, mv game.Move) error {
	if rs == nil {
		return nil
	}
	if mv.Est != 0 {
		if _, err := rs.Est(mv.Est); err != nil {
			return errs.Warnf("%s: unknown est %d for %s", mv.Kind, mv.Est, rs.Version)
		}
	}
	if mv.Land != 0 {
		if _, err := rs.Land(mv.Land); err != nil {
			return errs.Warnf("%s: unknown land %d for %s", mv.Kind, mv.Land, rs.Version)
		}
	}
	return nil
}

// Valid 模擬請求的基本範圍檢查。
func (sr *SimRequest) Valid(maxMatches int) error {
	if sr.Matches < 1 {
		return errs.NewWarn("matches must > 0")
	}
	if maxMatches > 0 && sr.Matches > maxMatches {
		return errs.Warnf("matches must <= %d", maxMatches)
	}
	if sr.Workers < 0 {
		return errs.NewWarn("workers must >= 0")
	}
	return nil
}
