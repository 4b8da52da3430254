package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/zintix-labs/machilab"
	"github.com/zintix-labs/machilab/catalog"
	"github.com/zintix-labs/machilab/errs"
	"github.com/zintix-labs/machilab/perf"
	"github.com/zintix-labs/machilab/server/logger"
	"github.com/zintix-labs/machilab/setting"
	"github.com/zintix-labs/machilab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	setting   string
	version   uint
	players   int
	policy    string
	exp       string
	coins     int
	shuffle   bool
	matches   int
	worker    int
	seed      int64
	audit     bool
	out       string
	pprofmode perf.Mode
	pprofDir  string
}

func bindVar() {
	flag.StringVar(&cfg.setting, "setting", "", "match setting yaml file; overrides -v/-players/-policy/-exp/-coins/-shuffle")
	flag.UintVar(&cfg.version, "v", 1, "ruleset version: 1|2")
	flag.IntVar(&cfg.players, "players", 2, "number of players")
	flag.StringVar(&cfg.policy, "policy", "total", "supply policy: total|variable|hybrid")
	flag.StringVar(&cfg.exp, "exp", "base", "comma separated expansions")
	flag.IntVar(&cfg.coins, "coins", 3, "starting coins")
	flag.BoolVar(&cfg.shuffle, "shuffle", false, "shuffle turn order")
	flag.IntVar(&cfg.matches, "matches", 100000, "number of matches")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed; < 1 picks a random seed")
	flag.BoolVar(&cfg.audit, "audit", false, "check supply, money and purple invariants after every move")
	flag.StringVar(&cfg.out, "out", "table", "report format: table|json|yaml")
	flag.StringVar((*string)(&cfg.pprofmode), "p", "", "pprof: '', cpu, heap, allocs")
	flag.StringVar(&cfg.pprofDir, "pprof-dir", perf.DefaultDir, "pprof output directory")

	flag.Parse()

	// 不合法的 seed -> 隨機 seed
	if cfg.seed < 1 {
		seed, err := machilab.NewSeed()
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed
	}
}

func (cfg *config) matchSetting() (*setting.MatchSetting, error) {
	if cfg.setting != "" {
		raw, err := os.ReadFile(cfg.setting)
		if err != nil {
			return nil, errs.Wrap(err, "read setting")
		}
		return setting.GetMatchSettingByYAML(raw)
	}
	ms := setting.Default(catalog.Version(cfg.version), cfg.players)
	ms.Policy = setting.Policy(cfg.policy)
	ms.StartingCoins = cfg.coins
	ms.ShuffleOrder = cfg.shuffle
	ms.Expansions = ms.Expansions[:0]
	for _, e := range strings.Split(cfg.exp, ",") {
		if e = strings.TrimSpace(e); e != "" {
			ms.Expansions = append(ms.Expansions, catalog.Expansion(e))
		}
	}
	return ms, ms.Init()
}

func (cfg *config) render() (stats.StatReportRender, error) {
	switch cfg.out {
	case "json":
		return &stats.JsonStatReportRender{}, nil
	case "yaml":
		return &stats.YAMLStatReportRender{}, nil
	case "table":
		return nil, nil
	default:
		return nil, errs.Warnf("unknown report format %q", cfg.out)
	}
}

// 這裡解析設定並執行模擬
func executeSimulator() error {
	if cfg.worker < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	if cfg.matches < 1 {
		return errs.NewWarn("value err : matches must > 0")
	}
	ms, err := cfg.matchSetting()
	if err != nil {
		return err
	}
	rd, err := cfg.render()
	if err != nil {
		return err
	}
	lab, err := machilab.NewAuto(logger.NewDefaultLogger(logger.ModeSilence))
	if err != nil {
		return err
	}
	s, err := lab.NewSimulatorWithSeed(ms, cfg.seed)
	if err != nil {
		return err
	}
	s.Audit = cfg.audit

	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	showpb := rd == nil
	if showpb {
		p := message.NewPrinter(language.English)
		p.Printf("%s[WORKERS:%d] [RULESET:%s] [PLAYERS:%d] [POLICY:%s] [MATCHES:%d] [SEED:%d]%s\n",
			green, cfg.worker, ms.Version, ms.Players, ms.Policy, cfg.matches, cfg.seed, reset)
	}
	st, used, err := s.SimMP(cfg.matches, cfg.worker, showpb)
	if err != nil {
		return err
	}
	if rd == nil {
		st.StdOut(used)
		return nil
	}
	return st.WriteWith(os.Stdout, rd)
}
