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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/errs"
)

// Body 錯誤回應的 JSON 形狀。
type Body struct {
	Status int    `json:"status"`
	Level  string `json:"level,omitempty"`
	Error  string `json:"error"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則（邊界層最小映射）：
//   - ctx timeout/cancel → 504/408
//   - 找不到對局         → 404
//   - 對局數已滿         → 429
//   - errs.Warn          → 409（招式被規則拒絕，狀態未變）
//   - errs.Fatal         → 500
//
// 格式錯誤的請求不經過這裡，由 handler 直接呼叫 BadRequest。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case machilab.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, machilab.ErrHubFull):
		return http.StatusTooManyRequests
	}
	var e *errs.E
	if errors.As(err, &e) && e.ErrLv == errs.Warn {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Errs 依 StatusCode 寫回 JSON 錯誤。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	Write(w, StatusCode(err), err)
}

// BadRequest 請求本身不合格（JSON 壞掉、缺欄位、設定不合法）一律 400。
func BadRequest(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	Write(w, http.StatusBadRequest, err)
}

func Write(w http.ResponseWriter, status int, err error) {
	b := Body{Status: status, Error: err.Error()}
	if e, ok := errs.AsErr(err); ok {
		b.Level = errs.ErrLv(e.ErrLv)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(b)
}

// Log 只記錄值得注意的錯誤：逾時與限流記 Warn，5xx 記 Error。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500 && status < 600:
		log.Error(msg, slog.Any("err", err))
	}
}
