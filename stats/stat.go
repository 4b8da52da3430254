package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/setting"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// Confidence 報表一律使用 95% 信賴水準
const Confidence = 0.95

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64 `json:"Hat"`
	CI  CI      `json:"CI"`
}

// StatReport 自我對戰統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Seats   []*SeatReport  `json:"Seats"`
	Dist    *DistReport    `json:"Dist"`
	// TurnSamples 每場完賽的回合數，只用來估中位數
	TurnSamples []int `json:"-" yaml:"-"`
	isDone      bool
}

type SummaryReport struct {
	Name        string          `json:"Name"`
	Version     catalog.Version `json:"Version"`
	Policy      setting.Policy  `json:"Policy"`
	Players     int             `json:"Players"`
	Matches     int             `json:"Matches"`
	Finished    int             `json:"Finished"`
	Timeouts    int             `json:"Timeouts"`
	TotalTurns  int             `json:"TotalTurns"`
	TurnsSqSum  int             `json:"TurnsSqSum"` // 平方和
	MeanTurns   float64         `json:"MeanTurns"`
	StdTurns    float64         `json:"StdTurns"`
	TurnsCI     CI              `json:"TurnsCI"`
	MedianTurns PointStat       `json:"MedianTurns"`
	FinishRate  PointStat       `json:"FinishRate"`
}

// SeatReport 依出手順位統計（Seat 0 為第一個行動的玩家）
type SeatReport struct {
	Seat          int       `json:"Seat"`
	Wins          int       `json:"Wins"`
	WinRate       PointStat `json:"WinRate"`
	TotalCoins    int       `json:"TotalCoins"`
	MeanCoins     float64   `json:"MeanCoins"`
	TotalBuilt    int       `json:"TotalBuilt"`
	MeanLandmarks float64   `json:"MeanLandmarks"`
}

// DistReport 完賽回合數落點統計
type DistReport struct {
	TurnBucket  []string  `json:"TurnBucket"`
	TurnCollect []int     `json:"TurnCollect"`
	TurnDist    []float64 `json:"TurnDist"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 紀錄過程只累加整數，統計完成後呼叫一次 Done 把比例、平均與信賴區間一次算好。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	sm := s.Summary
	sm.MeanTurns = s.MeanTurns()
	sm.StdTurns = s.StdTurns()
	sm.TurnsCI = s.TurnsCI()
	sm.FinishRate.Hat, sm.FinishRate.CI = proportionCICP(sm.Finished, sm.Matches, Confidence)
	sm.MedianTurns = s.medianTurns()

	for _, seat := range s.Seats {
		seat.WinRate.Hat, seat.WinRate.CI = proportionCICP(seat.Wins, sm.Matches, Confidence)
		if sm.Matches > 0 {
			seat.MeanCoins = float64(seat.TotalCoins) / float64(sm.Matches)
			seat.MeanLandmarks = float64(seat.TotalBuilt) / float64(sm.Matches)
		}
	}

	if s.Dist != nil {
		s.Dist.TurnDist = make([]float64, len(s.Dist.TurnCollect))
		if sm.Finished > 0 {
			for i, c := range s.Dist.TurnCollect {
				s.Dist.TurnDist[i] = float64(c) / float64(sm.Finished)
			}
		}
	}
	s.isDone = true
}

// MeanTurns 完賽對局的平均回合數
func (s *StatReport) MeanTurns() float64 {
	if s.Summary.Finished == 0 {
		return 0
	}
	return float64(s.Summary.TotalTurns) / float64(s.Summary.Finished)
}

// StdTurns 完賽回合數的樣本標準差
func (s *StatReport) StdTurns() float64 {
	n := float64(s.Summary.Finished)
	if n < 2 {
		return 0
	}
	sum := float64(s.Summary.TotalTurns)
	variance := (float64(s.Summary.TurnsSqSum) - sum*sum/n) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// TurnsCI 回傳平均回合數的 95% 信賴區間
func (s *StatReport) TurnsCI() CI {
	mean := s.MeanTurns()
	se := float64(0)
	if s.Summary.Finished > 1 {
		se = s.StdTurns() / math.Sqrt(float64(s.Summary.Finished))
	}
	return CI{
		Lo: max(mean-1.96*se, 0.0),
		Hi: mean + 1.96*se,
	}
}

func (s *StatReport) medianTurns() PointStat {
	if len(s.TurnSamples) == 0 {
		return PointStat{}
	}
	data := make([]float64, len(s.TurnSamples))
	for i, v := range s.TurnSamples {
		data[i] = float64(v)
	}
	lo, hi := quantileCI(data, 0.5, Confidence)
	return PointStat{Hat: quantilePoint(data, 0.5), CI: CI{Lo: lo, Hi: hi}}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

func (s *StatReport) StdOut(ut time.Duration) {
	_ = s.WriteWith(os.Stdout, &TableStatReportRender{Used: ut})
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(w io.Writer, d time.Duration, matches int) {
	p := message.NewPrinter(lang)
	if d <= 0 {
		return
	}
	sec := d.Seconds()
	mps := int(float64(matches) / sec)
	if sec < 60.0 {
		p.Fprintf(w, "used: %.2f seconds\nmps : %d matches/sec\n", sec, mps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Fprintf(w, "used: %dm %ds\nmps : %d matches/sec\n", m, s, mps)
		return
	}
	p.Fprintf(w, "used: %dh:%dm:%ds\nmps : %d matches/sec\n", h, m, s, mps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sm := s.Summary
	basic := map[string]string{
		"Name":         p.Sprintf("%s", sm.Name),
		"Ruleset":      sm.Version.String(),
		"Policy":       string(sm.Policy),
		"Players":      p.Sprintf("%d", sm.Players),
		"Matches":      p.Sprintf("%d", sm.Matches),
		"Finished":     fmtHatCIpct01(sm.FinishRate.Hat, sm.FinishRate.CI),
		"Timeouts":     p.Sprintf("%d", sm.Timeouts),
		"Mean Turns":   p.Sprintf("%.2f [%.2f,%.2f]", sm.MeanTurns, sm.TurnsCI.Lo, sm.TurnsCI.Hi),
		"Median Turns": p.Sprintf("%.0f [%.0f,%.0f]", sm.MedianTurns.Hat, sm.MedianTurns.CI.Lo, sm.MedianTurns.CI.Hi),
		"STD Turns":    p.Sprintf("%.3f", sm.StdTurns),
	}
	keys := []string{"Name", "Ruleset", "Policy", "Players", "Matches", "Finished", "Timeouts", "Mean Turns", "Median Turns", "STD Turns"}
	return keys, basic
}

func (s *StatReport) fmtSeats() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Seats))
	msg := make(map[string]string, len(s.Seats))
	for _, seat := range s.Seats {
		k := fmt.Sprintf("Seat %d", seat.Seat+1)
		keys = append(keys, k)
		msg[k] = p.Sprintf("%s  coins %.1f  built %.2f", fmtHatCIpct01(seat.WinRate.Hat, seat.WinRate.CI), seat.MeanCoins, seat.MeanLandmarks)
	}
	return keys, msg
}

func (s *StatReport) fmtDist() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Dist.TurnBucket))
	msg := make(map[string]string, len(s.Dist.TurnBucket))
	for i, k := range s.Dist.TurnBucket {
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d (%.2f%%)", s.Dist.TurnCollect[i], 100.0*s.Dist.TurnDist[i])
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title) / 2
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}
