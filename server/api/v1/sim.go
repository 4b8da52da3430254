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

package v1

import (
	"net/http"
	"runtime"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/dto"
	"github.com/zintix-labs/machilab/server/httperr"
	"github.com/zintix-labs/machilab/stats"
)

// SimResponse 模擬結果與耗時。
type SimResponse struct {
	Seed     int64             `json:"seed"`
	Stats    *stats.StatReport `json:"stats"`
	UsedTime int64             `json:"used_ms"`
}

// Sim POST /v1/sim
//
// 以隨機合法招式自我對戰，回傳座位勝率與回合數統計。場數上限由 MACHILAB_MAX_SIM_MATCHES 決定。
func (h *Handler) Sim(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		httperr.BadRequest(w, err)
		return
	}
	if err := req.Valid(h.maxSim); err != nil {
		httperr.BadRequest(w, err)
		return
	}
	ms := &req.Setting
	if err := ms.Init(); err != nil {
		httperr.BadRequest(w, err)
		return
	}
	// 模擬器只用隨機合法招式，不需要 force-roll
	ms.Debug = false

	sim, err := h.newSimulator(req)
	if err != nil {
		httperr.Log(h.log, "sim", err)
		httperr.Errs(w, err)
		return
	}
	sim.Audit = req.Audit
	workers := req.Workers
	if workers == 0 {
		workers = 1
	}
	rep, used, err := sim.SimMP(req.Matches, workers, false)
	if err != nil {
		httperr.Log(h.log, "sim", err)
		httperr.Errs(w, err)
		return
	}
	rep.Done()
	writeJSON(w, http.StatusOK, SimResponse{Seed: sim.Seed(), Stats: rep, UsedTime: used.Milliseconds()})
}

func (h *Handler) newSimulator(req *dto.SimRequest) (*machilab.Simulator, error) {
	req.Workers = min(req.Workers, runtime.GOMAXPROCS(0))
	if req.Seed != nil {
		return h.lab.NewSimulatorWithSeed(&req.Setting, *req.Seed)
	}
	return h.lab.NewSimulator(&req.Setting)
}
