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

package recorder

import (
	"slices"

	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/setting"
	"github.com/zintix-labs/machilab/stats"
)

// Outcome 一場對局結束時的結果，一律以出手順位（seat）索引。
//
// Winner 為 -1 代表對局在步數上限內沒有分出勝負（Timeout）。
type Outcome struct {
	Winner  int
	Turns   int
	Coins   []int
	Built   []int
	Timeout bool
}

// MatchRecorder 對局紀錄員
//
// MatchRecorder 只累加整數，透過 Done 輸出統計報表。每個 worker 各持一份，最後再 Merge。
type MatchRecorder struct {
	Name    string
	Version catalog.Version
	Policy  setting.Policy
	Players int
	Basic   *BasicRecord
	Seats   []*SeatRecord
	Dist    []int
	Samples []int
}

// BasicRecord 基本對局資料紀錄
type BasicRecord struct {
	Matches    int
	Finished   int
	Timeouts   int
	TotalTurns int
	TurnsSqSum int // 平方和
}

// SeatRecord 單一出手順位的累計
type SeatRecord struct {
	Wins  int
	Coins int
	Built int
}

func NewMatchRecorder(name string, v catalog.Version, policy setting.Policy, players int) (*MatchRecorder, error) {
	r := new(MatchRecorder)
	if !v.Valid() {
		return r, errs.Fatalf("recorder: unknown ruleset %d", v)
	}
	if players < setting.MinPlayers || players > setting.MaxPlayers {
		return r, errs.Fatalf("recorder: players out of range, got %d", players)
	}
	r.Name = name
	r.Version = v
	r.Policy = policy
	r.Players = players
	r.Basic = new(BasicRecord)
	r.Seats = make([]*SeatRecord, players)
	for i := range r.Seats {
		r.Seats[i] = new(SeatRecord)
	}
	r.Dist = make([]int, stats.Buckets.Len())
	return r, nil
}

// Record 以單場 Outcome 更新統計
func (r *MatchRecorder) Record(o Outcome) error {
	if len(o.Coins) != r.Players || len(o.Built) != r.Players {
		return errs.Fatalf("recorder: outcome has %d seats, want %d", len(o.Coins), r.Players)
	}
	if o.Winner >= r.Players || o.Winner < -1 {
		return errs.Fatalf("recorder: winner seat %d out of range", o.Winner)
	}
	b := r.Basic
	b.Matches++
	if o.Timeout || o.Winner < 0 {
		b.Timeouts++
	} else {
		b.Finished++
		b.TotalTurns += o.Turns
		b.TurnsSqSum += o.Turns * o.Turns
		r.Seats[o.Winner].Wins++
		r.Dist[stats.Buckets.Index(o.Turns)]++
		r.Samples = append(r.Samples, o.Turns)
	}
	for i, s := range r.Seats {
		s.Coins += o.Coins[i]
		s.Built += o.Built[i]
	}
	return nil
}

// Merge 合併多個 worker 的紀錄；設定不一致視為 Fatal。
func Merge(rs []*MatchRecorder) (*MatchRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge match record err : nothing to merge")
	}
	r0 := rs[0]
	m, err := NewMatchRecorder(r0.Name, r0.Version, r0.Policy, r0.Players)
	if err != nil {
		return m, err
	}
	for _, v := range rs {
		if v.Version != r0.Version || v.Policy != r0.Policy || v.Players != r0.Players {
			return m, errs.NewFatal("merge match record err : different setting")
		}
		m.Basic.Matches += v.Basic.Matches
		m.Basic.Finished += v.Basic.Finished
		m.Basic.Timeouts += v.Basic.Timeouts
		m.Basic.TotalTurns += v.Basic.TotalTurns
		m.Basic.TurnsSqSum += v.Basic.TurnsSqSum
		for i, s := range v.Seats {
			m.Seats[i].Wins += s.Wins
			m.Seats[i].Coins += s.Coins
			m.Seats[i].Built += s.Built
		}
		for i, c := range v.Dist {
			m.Dist[i] += c
		}
		m.Samples = append(m.Samples, v.Samples...)
	}
	return m, nil
}

// Done 產生統計報表
func (r *MatchRecorder) Done() *stats.StatReport {
	seats := make([]*stats.SeatReport, r.Players)
	for i, s := range r.Seats {
		seats[i] = &stats.SeatReport{
			Seat:       i,
			Wins:       s.Wins,
			TotalCoins: s.Coins,
			TotalBuilt: s.Built,
		}
	}
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			Name:       r.Name,
			Version:    r.Version,
			Policy:     r.Policy,
			Players:    r.Players,
			Matches:    r.Basic.Matches,
			Finished:   r.Basic.Finished,
			Timeouts:   r.Basic.Timeouts,
			TotalTurns: r.Basic.TotalTurns,
			TurnsSqSum: r.Basic.TurnsSqSum,
		},
		Seats: seats,
		Dist: &stats.DistReport{
			TurnBucket:  stats.Buckets.Labels(),
			TurnCollect: slices.Clone(r.Dist),
		},
		TurnSamples: slices.Clone(r.Samples),
	}
	report.Done()
	return report
}
