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

package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestRejectKeepsSentinel(t *testing.T) {
	sentinel := NewWarn("wrong phase")
	err := Reject(sentinel, "phase=%s", "buy")
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected errors.Is to match sentinel")
	}
	if !IsWarn(err) || IsFatal(err) {
		t.Fatalf("expected warn level, got %v", err)
	}
	if err.Extra != "phase=buy" {
		t.Fatalf("unexpected extra %q", err.Extra)
	}
}

func TestWrapLevels(t *testing.T) {
	w := Wrap(NewWarn("inner"), "outer")
	if w.ErrLv != Warn {
		t.Fatalf("wrap should keep warn level, got %s", ErrLv(w.ErrLv))
	}
	f := Wrap(fmt.Errorf("io"), "outer")
	if f.ErrLv != Fatal {
		t.Fatalf("foreign cause should be fatal, got %s", ErrLv(f.ErrLv))
	}
	if !IsFatal(fmt.Errorf("plain")) {
		t.Fatalf("plain errors are fatal")
	}
	if IsFatal(nil) || IsWarn(nil) {
		t.Fatalf("nil is neither warn nor fatal")
	}
}
