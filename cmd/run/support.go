package main

import (
	"flag"
	"log"
	"os"

	"github.com/zintix-labs/blastlab"
	"github.com/zintix-labs/blastlab/errs"
	"github.com/zintix-labs/blastlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	profile    string
	configsDir string
	worker     int
	rounds     int
	maxPlace   int
	seed       int64
	output     string
	pprofmode  string
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.profile, "profile", "", "balance profile name (default: standard)")
	flag.StringVar(&cfg.configsDir, "configs", "", "extra balance config directory")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.rounds, "rounds", 10000, "total rounds")
	flag.IntVar(&cfg.maxPlace, "max", 0, "placement cap per round (0: default)")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.output, "o", "table", "output: table|json|yaml")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs, block, mutex")

	flag.Parse()
}

// 這裡解析並執行模擬器
func executeSimulator() error {
	if err := cfg.valid(); err != nil {
		return err
	}
	var lab *blastlab.Blastlab
	var err error
	if cfg.configsDir != "" {
		lab, err = blastlab.New(blastlab.Configs(blastlab.DefaultConfigs(), os.DirFS(cfg.configsDir)))
	} else {
		lab, err = blastlab.NewDefault()
	}
	if err != nil {
		return err
	}
	var s *blastlab.Simulator
	if cfg.seed < 1 { // given seed illeagel -> random seed
		s, err = lab.NewSimulator(cfg.profile)
	} else {
		s, err = lab.NewSimulatorWithSeed(cfg.profile, cfg.seed)
	}
	if err != nil {
		return err
	}
	if cfg.maxPlace > 0 {
		s.SetMaxPlacements(cfg.maxPlace)
	}
	// 至此確保可執行
	table := cfg.output == "table"
	if table {
		green := "\033[1;32m"
		reset := "\033[0m"
		p := message.NewPrinter(language.English)
		p.Printf("%s[PROFILE:%s] [WORKERS:%d] [ROUNDS:%d] [SEED:%d]%s\n", green, s.Profile, cfg.worker, cfg.rounds, s.Seed(), reset)
	}
	st, used, err := s.SimMP(cfg.rounds, cfg.worker, table)
	if err != nil {
		return err
	}
	switch cfg.output {
	case "json":
		return st.WriteWith(os.Stdout, &stats.JsonStatReportRender{})
	case "yaml":
		return st.WriteWith(os.Stdout, &stats.YAMLStatReportRender{})
	}
	st.StdOut(used)
	if st.Estimate != nil {
		st.Estimate.Out()
	}
	return nil
}

func (cfg *config) valid() error {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	// 局數檢查
	if cfg.rounds < 1 {
		return errs.NewWarn("value err : rounds must > 0")
	}
	if cfg.maxPlace < 0 {
		return errs.NewWarn("value err : max must >= 0")
	}
	switch cfg.output {
	case "table", "json", "yaml":
	default:
		return errs.Warnf("value err : unknown output %q", cfg.output)
	}
	// 局數太多 resize，逐局分數樣本會全部留在記憶體
	if cfg.rounds > 50_000_000 {
		log.Print(p.Sprintf("too much rounds: %d resized to 50M rounds", cfg.rounds))
		cfg.rounds = 50_000_000
	}
	return nil
}
