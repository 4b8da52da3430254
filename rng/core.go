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

// Package rng 是每場對局唯一的亂數來源（Randomness Service）。
//
// 規則引擎只透過這裡擲骰與洗牌；PRNG 的內部狀態可以 Snapshot/Restore，
// 因此整個亂數序列可以跟著對局狀態一起保存，重播時得到位元等價的結果。
package rng

// PRNG 定義引擎所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：相同實作、相同版本下，New(seed) 必須是決定性的，
	// 相同的 seed 產生相同的初始狀態與輸出序列。重播依賴這一點。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）。
type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供擲骰與洗牌。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Die 擲一顆 sides 面骰，回傳 [1,sides]。
func (c *Core) Die(sides int) int {
	return c.IntN(sides) + 1
}

// Roll 擲 n 顆六面骰並依擲出順序回傳各顆點數。
func (c *Core) Roll(n int) []int {
	dice := make([]int, n)
	for i := range dice {
		dice[i] = c.Die(6)
	}
	return dice
}

// ShuffleInts 使用 Fisher-Yates 對 []int 就地重排，所有 N! 種排列機率相等。
func (c *Core) ShuffleInts(src []int) {
	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}

// Shuffle 與 ShuffleInts 相同，但適用任意元素型別（牌堆內放的是卡片 id）。
func Shuffle[T any](c *Core, src []T) {
	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}
