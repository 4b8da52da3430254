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
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/game"
	"github.com/zintix-labs/machilab/rng"
	"github.com/zintix-labs/machilab/setting"
)

func newLab(t *testing.T) *Machilab {
	t.Helper()
	lab, err := NewAuto(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return lab
}

// playSome 以固定選招序列推進對局 n 步。
func playSome(t *testing.T, m *Match, seed int64, n int) {
	t.Helper()
	pick := rng.New(rng.Default().New(seed))
	for i := 0; i < n; i++ {
		if over, _ := m.Over(); over {
			return
		}
		legal := m.Legal()
		mv := legal[pick.IntN(len(legal))]
		if _, err := m.Apply(mv); err != nil {
			t.Fatalf("legal move %s rejected: %v", mv, err)
		}
	}
}

func TestNewRequiresParts(t *testing.T) {
	if _, err := New(nil, rng.Default(), nil); !errs.IsFatal(err) {
		t.Fatalf("nil library must be fatal, got %v", err)
	}
	if _, err := New(catalog.MustDefault(), nil, nil); !errs.IsFatal(err) {
		t.Fatalf("nil prng must be fatal, got %v", err)
	}
}

func TestMatchPlayChecksTurn(t *testing.T) {
	lab := newLab(t)
	m, err := lab.NewMatchWithSeed(setting.Default(catalog.V1, 3), 9)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	cur := m.View().Player
	other := (cur + 1) % 3

	if _, err := m.Play(other, game.RollOne()); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if len(m.Journal(0)) != 0 {
		t.Fatalf("rejected move must not be journaled")
	}
	e, err := m.Play(cur, game.RollOne())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if e.Seq != 1 || e.Player != cur || len(e.Events) == 0 || e.Events[0].Kind != game.EvRollOne {
		t.Fatalf("entry %+v", e)
	}
	if got := m.Log(); len(got) != len(e.Events) {
		t.Fatalf("log should hold the roll events, got %d", len(got))
	}
	if _, err := m.Play(cur, game.RollOne()); !errs.IsWarn(err) {
		t.Fatalf("second roll must be rejected, got %v", err)
	}
}

func TestReplayIsIdentical(t *testing.T) {
	lab := newLab(t)
	ms := setting.Default(catalog.V1, 4)
	ms.Expansions = append(ms.Expansions, catalog.Harbor)
	ms.Policy = setting.Hybrid
	ms.ShuffleOrder = true

	m, err := lab.NewMatchWithSeed(ms, 31337)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	playSome(t, m, 5, 400)

	rec := m.Record()
	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := GetRecordByJSON(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, err := lab.Replay(back)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !reflect.DeepEqual(m.State(), r.State()) {
		t.Fatalf("replayed state differs")
	}
	l1, _ := json.Marshal(m.Log())
	l2, _ := json.Marshal(r.Log())
	if string(l1) != string(l2) {
		t.Fatalf("replayed log differs")
	}
}

func TestReplayYAMLAndDivergence(t *testing.T) {
	lab := newLab(t)
	doc := []byte(`
setting:
  version: 1
  expansions: [base]
  policy: total
  starting_coins: 3
  players: 2
  debug: true
seed: 7
moves:
  - kind: force-roll
    dice: [1]
  - kind: buy-establishment
    est: 101
  - kind: end-turn
`)
	rec, err := GetRecordByYAML(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m, err := lab.Replay(rec)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if v := m.View(); v.Turn != 2 || v.Phase != game.PhaseRoll {
		t.Fatalf("turn=%d phase=%s", v.Turn, v.Phase)
	}

	rec.Moves = append(rec.Moves, game.KeepRoll())
	if _, err := lab.Replay(rec); !errors.Is(err, ErrReplayDiverged) || !errs.IsFatal(err) {
		t.Fatalf("expected fatal divergence, got %v", err)
	}
}

type memStore struct {
	mu    sync.Mutex
	recs  map[string]*Record
	moves map[string][]Entry
	done  map[string]int

	appendErr error
}

func newMemStore() *memStore {
	return &memStore{recs: map[string]*Record{}, moves: map[string][]Entry{}, done: map[string]int{}}
}

func (s *memStore) CreateMatch(_ context.Context, id string, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[id] = rec
	return nil
}

func (s *memStore) AppendMove(_ context.Context, id string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.moves[id] = append(s.moves[id], e)
	return nil
}

func (s *memStore) FinishMatch(_ context.Context, id string, winner int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[id] = winner
	return nil
}

func (s *memStore) LoadMatch(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, errs.Reject(ErrMatchNotFound, "id=%s", id)
	}
	out := *rec
	out.Moves = nil
	for _, e := range s.moves[id] {
		out.Moves = append(out.Moves, e.Move)
	}
	return &out, nil
}

func TestHubWriteThroughAndRestore(t *testing.T) {
	ctx := context.Background()
	lab := newLab(t)
	st := newMemStore()
	hub := NewHub(lab, st, 0)

	id, m, err := hub.CreateWithSeed(ctx, setting.Default(catalog.V2, 2), 42)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ch, cancel, err := hub.Watch(ctx, id)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	pick := rng.New(rng.Default().New(3))
	for i := 0; i < 30; i++ {
		legal := m.Legal()
		mv := legal[pick.IntN(len(legal))]
		e, err := hub.Play(ctx, id, m.View().Player, mv)
		if err != nil {
			t.Fatalf("play: %v", err)
		}
		got := <-ch
		if got.Seq != e.Seq {
			t.Fatalf("watcher got seq %d want %d", got.Seq, e.Seq)
		}
	}
	if len(st.moves[id]) != 30 {
		t.Fatalf("store has %d moves", len(st.moves[id]))
	}

	want := m.State()
	if !hub.Remove(id) {
		t.Fatalf("remove failed")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("watch channel should be closed after remove")
	}
	back, err := hub.Get(ctx, id)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !reflect.DeepEqual(want, back.State()) {
		t.Fatalf("restored match differs")
	}
}

func TestHubLimitsAndMissing(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(newLab(t), nil, 1)
	if _, _, err := hub.Create(ctx, setting.Default(catalog.V1, 2)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := hub.Create(ctx, setting.Default(catalog.V1, 2)); !errors.Is(err, ErrHubFull) {
		t.Fatalf("expected ErrHubFull, got %v", err)
	}
	if _, err := hub.Get(ctx, "nope"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := hub.Play(ctx, "nope", 0, game.RollOne()); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHubJournalFailureKeepsMatch(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	hub := NewHub(newLab(t), st, 0)
	id, m, err := hub.CreateWithSeed(ctx, setting.Default(catalog.V1, 2), 11)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ch, cancel, err := hub.Watch(ctx, id)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	before := m.State()
	diskFull := errors.New("disk full")
	st.mu.Lock()
	st.appendErr = diskFull
	st.mu.Unlock()

	mv := m.Legal()[0]
	if _, err := hub.Play(ctx, id, before.Player(), mv); !errors.Is(err, diskFull) {
		t.Fatalf("expected journal error, got %v", err)
	}
	if n := len(m.Journal(0)); n != 0 {
		t.Fatalf("journal grew to %d after failed write", n)
	}
	if !reflect.DeepEqual(before, m.State()) {
		t.Fatalf("state changed after failed write")
	}
	select {
	case e := <-ch:
		t.Fatalf("watcher got seq %d for a rejected write", e.Seq)
	default:
	}

	// 同一招式在日誌恢復後可以重送
	st.mu.Lock()
	st.appendErr = nil
	st.mu.Unlock()
	e, err := hub.Play(ctx, id, before.Player(), mv)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if e.Seq != 1 || len(st.moves[id]) != 1 {
		t.Fatalf("retry seq %d, stored %d", e.Seq, len(st.moves[id]))
	}
}

func TestHubLimitUnderConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	const limit = 4
	hub := NewHub(newLab(t), newMemStore(), limit)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		full int
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := hub.Create(ctx, setting.Default(catalog.V1, 2))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrHubFull):
				full++
			default:
				t.Errorf("create: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok != limit || full != 32-limit || hub.Len() != limit {
		t.Fatalf("ok=%d full=%d len=%d", ok, full, hub.Len())
	}
}

func TestSimulatorReport(t *testing.T) {
	lab := newLab(t)
	for _, v := range []catalog.Version{catalog.V1, catalog.V2} {
		ms := setting.Default(v, 3)
		ms.Policy = setting.Variable
		ms.ShuffleOrder = true
		sim, err := lab.NewSimulatorWithSeed(ms, 11)
		if err != nil {
			t.Fatalf("simulator: %v", err)
		}
		sim.Audit = true
		rep, _, err := sim.SimMP(24, 3, false)
		if err != nil {
			t.Fatalf("sim %s: %v", v, err)
		}
		sm := rep.Summary
		if sm.Matches != 24 || sm.Finished+sm.Timeouts != 24 {
			t.Fatalf("summary %+v", sm)
		}
		wins := 0
		for _, s := range rep.Seats {
			wins += s.Wins
		}
		if wins != sm.Finished {
			t.Fatalf("wins %d != finished %d", wins, sm.Finished)
		}
	}
}

func TestSimulatorPlayOneIsDeterministic(t *testing.T) {
	lab := newLab(t)
	sim, err := lab.NewSimulatorWithSeed(setting.Default(catalog.V1, 4), 1)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	a, err := sim.PlayOne(99)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	b, _ := sim.PlayOne(99)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed gave %+v and %+v", a, b)
	}
	if _, _, err := sim.SimMP(0, 1, false); !errs.IsWarn(err) {
		t.Fatalf("zero matches should warn, got %v", err)
	}
}

func TestSeedMakerUnique(t *testing.T) {
	sm := newSeedMaker(123)
	seen := map[int64]bool{}
	for i := 0; i < 10000; i++ {
		s := sm.next()
		if s < 0 || seen[s] {
			t.Fatalf("seed %d repeated or negative", s)
		}
		seen[s] = true
	}
}
