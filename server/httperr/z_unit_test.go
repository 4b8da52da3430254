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

package httperr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/server/httperr"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errs.Wrap(context.Canceled, "play"), http.StatusRequestTimeout},
		{errs.Reject(machilab.ErrMatchNotFound, "id=x"), http.StatusNotFound},
		{errs.Reject(machilab.ErrHubFull, "max=1"), http.StatusTooManyRequests},
		{machilab.ErrNotYourTurn, http.StatusConflict},
		{errs.NewWarn("cannot afford"), http.StatusConflict},
		{errs.NewFatal("broken"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := httperr.StatusCode(c.err); got != c.want {
			t.Fatalf("%v got %d want %d", c.err, got, c.want)
		}
	}
}

func TestWriteBody(t *testing.T) {
	rec := httptest.NewRecorder()
	httperr.BadRequest(rec, errs.NewWarn("invalid json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
	var b httperr.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Status != http.StatusBadRequest || b.Level != "warn" || b.Error == "" {
		t.Fatalf("body %+v", b)
	}

	rec = httptest.NewRecorder()
	httperr.Errs(rec, nil)
	if rec.Body.Len() != 0 {
		t.Fatalf("nil error must not write")
	}
}
