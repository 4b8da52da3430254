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
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/game"
	"github.com/zintix-labs/machilab/landmark"
	"github.com/zintix-labs/machilab/recorder"
	"github.com/zintix-labs/machilab/rng"
	"github.com/zintix-labs/machilab/setting"
	"github.com/zintix-labs/machilab/stats"
	"github.com/zintix-labs/machilab/supply"
)

// DefaultMaxSteps 單場自我對戰的招式上限，超過視為 Timeout。
const DefaultMaxSteps int = 5000

// Simulator 以隨機合法招式大量自我對戰，平行紀錄座位勝率與對局長度。
//
// Audit 開啟時，每一步都會檢查供給守恆、金幣非負與紫卡唯一；違反即回傳 Fatal。
type Simulator struct {
	Name      string
	MaxSteps  int
	Audit     bool
	lab       *Machilab
	ms        *setting.MatchSetting
	rs        *catalog.Ruleset
	initSeed  int64
	seedmaker *seedMaker
}

// NewSimulator 以隨機 seed 建立模擬器。
func (l *Machilab) NewSimulator(ms *setting.MatchSetting) (*Simulator, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return l.NewSimulatorWithSeed(ms, seed)
}

func (l *Machilab) NewSimulatorWithSeed(ms *setting.MatchSetting, seed int64) (*Simulator, error) {
	ms = ms.Clone()
	if err := ms.Init(); err != nil {
		return nil, err
	}
	rs, err := l.lib.Ruleset(ms.Version)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		Name:      fmt.Sprintf("%s/%s/%dp", ms.Version, ms.Policy, ms.Players),
		MaxSteps:  DefaultMaxSteps,
		lab:       l,
		ms:        ms,
		rs:        rs,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
	}, nil
}

func (s *Simulator) Seed() int64 { return s.initSeed }

// Sim 單線模擬器：連續跑 matches 場並回傳統計結果與用時
func (s *Simulator) Sim(matches int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMP(matches, 1, showpb)
}

// SimMP 平行執行 mp 個 worker，總計 matches 場，合併統計結果後回傳統計結果與用時
func (s *Simulator) SimMP(matches int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if matches < 1 {
		return nil, 0, errs.NewWarn("matches must > 0")
	}
	recs := make([]*recorder.MatchRecorder, mp)
	for i := range recs {
		r, err := recorder.NewMatchRecorder(s.Name, s.ms.Version, s.ms.Policy, s.ms.Players)
		if err != nil {
			return nil, 0, err
		}
		recs[i] = r
	}

	// 作一個緩衝 channel 依序派發每場的 seed
	jobs := make(chan int64, 2048)
	errc := make(chan error, mp)

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.New(matches)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	bar.Start()
	for w := 0; w < mp; w++ {
		go func(r *recorder.MatchRecorder) {
			defer wg.Done()
			for seed := range jobs {
				o, err := s.playOne(seed)
				if err == nil {
					err = r.Record(o)
				}
				if err != nil {
					errc <- err
					// 把剩下的工作排空，讓派發端不會卡住
					for range jobs {
					}
					return
				}
				bar.Increment()
			}
		}(recs[w])
	}
	for range matches {
		jobs <- s.seedmaker.next()
	}
	close(jobs)
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	select {
	case err := <-errc:
		return nil, used, err
	default:
	}

	merged, err := recorder.Merge(recs)
	if err != nil {
		return nil, used, err
	}
	return merged.Done(), used, nil
}

// PlayOne 以 seed 跑一場完整的自我對戰並回傳結果；同一個 seed 結果必定相同。
func (s *Simulator) PlayOne(seed int64) (recorder.Outcome, error) {
	return s.playOne(seed)
}

func (s *Simulator) playOne(seed int64) (recorder.Outcome, error) {
	eng := s.lab.eng
	st, _, err := eng.Setup(s.ms, seed)
	if err != nil {
		return recorder.Outcome{}, err
	}
	// 選招用的亂數與對局亂數分開，避免影響對局本身的序列
	pick := rng.New(s.lab.prng.New(int64(mix63(uint64(seed)))))
	for step := 0; step < s.MaxSteps && !st.Over; step++ {
		legal := eng.LegalMoves(st)
		if len(legal) == 0 {
			return recorder.Outcome{}, errs.Fatalf("no legal move: phase=%s turn=%d", st.Phase, st.Turn)
		}
		mv := legal[pick.IntN(len(legal))]
		ns, evs, err := eng.Apply(st, mv)
		if err != nil {
			return recorder.Outcome{}, errs.Wrap(err, fmt.Sprintf("legal move %s rejected", mv))
		}
		if s.Audit {
			if err := s.audit(st, ns, evs); err != nil {
				return recorder.Outcome{}, err
			}
		}
		st = ns
	}
	return s.outcome(st), nil
}

func (s *Simulator) outcome(st *game.State) recorder.Outcome {
	n := st.Players()
	o := recorder.Outcome{
		Winner:  -1,
		Turns:   st.Turn,
		Coins:   make([]int, n),
		Built:   make([]int, n),
		Timeout: !st.Over,
	}
	for seat, p := range st.TurnOrder {
		o.Coins[seat] = st.Money[p]
		o.Built[seat] = landmark.BuiltCount(s.rs, &st.Land, p)
		if st.Over && st.Winner == p {
			o.Winner = seat
		}
	}
	return o
}

// audit 檢查單步前後的守恆性質。
func (s *Simulator) audit(before, after *game.State, evs []game.Event) error {
	if err := supply.Audit(s.rs, &after.Est, &after.Secret.Supply, after.Players()); err != nil {
		return err
	}
	bank := 0
	for _, ev := range evs {
		switch ev.Kind {
		case game.EvEarn:
			bank += ev.Amount
		case game.EvBuy:
			bank -= ev.Amount
		}
	}
	delta := 0
	for p := range after.Money {
		if after.Money[p] < 0 {
			return errs.Fatalf("audit: player %d has %d coins", p, after.Money[p])
		}
		delta += after.Money[p] - before.Money[p]
	}
	if delta != bank {
		return errs.Fatalf("audit: coins moved %d but bank events say %d", delta, bank)
	}
	if s.rs.Rules.PurpleUnique {
		for _, id := range after.Est.IDs {
			if s.rs.MustEst(id).Color != catalog.Purple {
				continue
			}
			for p, c := range after.Est.Data[id].Owned {
				if c > 1 {
					return errs.Fatalf("audit: player %d owns %d copies of purple %d", p, c, id)
				}
			}
		}
	}
	return nil
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以全週期 LCG 推進 state，再用可逆 mix63 打散；CAS 保證併發下每次取得唯一的 seed。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
