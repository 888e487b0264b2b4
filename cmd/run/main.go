package main

import (
	"fmt"
	"os"

	"github.com/zintix-labs/blastlab/sdk/perf"
)

// makefile runner
func main() {
	bindVar()
	if err := perf.RunPProf(perf.DefaultDir, cfg.pprofmode, executeSimulator); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
