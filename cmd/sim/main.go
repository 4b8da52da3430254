package main

import (
	"log"

	"github.com/zintix-labs/machilab/perf"
)

// makefile runner
func main() {
	bindVar()
	if _, err := perf.Run(cfg.pprofDir, cfg.pprofmode, executeSimulator); err != nil {
		log.Fatal(err)
	}
}
