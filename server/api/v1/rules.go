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
	"strconv"
	"strings"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/server/httperr"
	"github.com/zintix-labs/machilab/server/netsvr"
)

// Rules GET /v1/rules/{version}，version 可寫 1 或 v1。
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(strings.ToLower(netsvr.URLParam(r, "version")), "v")
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		httperr.BadRequest(w, errs.Warnf("bad ruleset version %q", raw))
		return
	}
	rs, err := h.lab.Library().Ruleset(catalog.Version(n))
	if err != nil {
		httperr.Write(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// Versions GET /v1/rules
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	vs := h.lab.Library().Versions()
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	writeJSON(w, http.StatusOK, out)
}
