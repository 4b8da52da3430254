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

package logger_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/zintix-labs/machilab/server/logger"
)

// syncBuf 背景 worker 寫入、測試讀取
type syncBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuf) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuf) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestParseMode(t *testing.T) {
	cases := map[string]logger.LogMode{"": logger.ModeDev, "DEV": logger.ModeDev, "prod": logger.ModeProd, " silence ": logger.ModeSilence}
	for in, want := range cases {
		got, err := logger.ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("%q got %v, %v", in, got, err)
		}
	}
	if _, err := logger.ParseMode("loud"); err == nil {
		t.Fatalf("unknown mode must fail")
	}
	var m logger.LogMode
	if err := m.UnmarshalText([]byte("prod")); err != nil || m != logger.ModeProd {
		t.Fatalf("unmarshal got %v, %v", m, err)
	}
}

func TestAsyncDrainsOnClose(t *testing.T) {
	var buf syncBuf
	log, ah := logger.NewAsyncTo(&buf, 64, logger.ModeProd)
	for range 10 {
		log.With("match", "m1").Info("move applied", "seq", 1)
	}
	ah.Close()
	ah.Close()
	if n := strings.Count(buf.String(), `"msg":"move applied"`); n+int(ah.Dropped()) != 10 {
		t.Fatalf("written %d dropped %d", n, ah.Dropped())
	}
	if !strings.Contains(buf.String(), `"match":"m1"`) {
		t.Fatalf("attrs lost: %s", buf.String())
	}
	log.Info("after close")
	if strings.Contains(buf.String(), "after close") {
		t.Fatalf("closed handler must drop")
	}
}
