package stats

import "fmt"

// maxLutTurns 查表只建到這個回合數，以上直接落在最後一桶
const maxLutTurns int = 200

// TurnBuckets
//
// 用來快速定位回合數 ->  DistReport 位置 O(1)
//
// 請勿修改預設值
//   - 回合區間: [1,10), [10,15), [15,20), ..., [60,100), [100,+inf)
type TurnBuckets struct {
	edges  []int
	labels []string
	lut    []int
}

// Buckets 預設回合分桶
var Buckets *TurnBuckets = NewTurnBuckets([]int{1, 10, 15, 20, 25, 30, 40, 60, 100})

// NewTurnBuckets 以遞增的下界建立分桶，最後一桶無上界。
func NewTurnBuckets(edges []int) *TurnBuckets {
	labels := make([]string, len(edges))
	for i, lo := range edges {
		if i == len(edges)-1 {
			labels[i] = fmt.Sprintf("[%d,+inf)", lo)
			continue
		}
		labels[i] = fmt.Sprintf("[%d,%d)", lo, edges[i+1])
	}

	// 建立LUT反查表 lut[turns] = idx
	lut := make([]int, maxLutTurns)
	idx := 0
	for t := range lut {
		for idx < len(edges)-1 && t >= edges[idx+1] {
			idx++
		}
		lut[t] = idx
	}
	return &TurnBuckets{edges: edges, labels: labels, lut: lut}
}

func (b *TurnBuckets) Labels() []string {
	return b.labels
}

func (b *TurnBuckets) Len() int {
	return len(b.edges)
}

func (b *TurnBuckets) Index(turns int) int {
	if turns < 0 {
		return 0
	}
	if turns >= maxLutTurns {
		return len(b.edges) - 1
	}
	return b.lut[turns]
}
