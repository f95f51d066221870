// Command velab drives the elaboration core over a yaml parse-tree fixture:
// load, elaborate, optionally synthesize, and print the diagnostic report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shirou/gopsutil/process"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/velab/api"
	"github.com/sarchlab/velab/cache"
	"github.com/sarchlab/velab/diag"
	"github.com/sarchlab/velab/elaborate"
	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/synth"
	"github.com/sarchlab/velab/velabcfg"
)

var (
	configPath  = flag.String("config", "", "path to a velabcfg yaml config file")
	fixturePath = flag.String("fixture", "", "path to a pform yaml fixture file")
	rootName    = flag.String("root", "", "root module name (overrides config)")
	doSynth     = flag.Bool("synth", false, "run the synthesis pass after elaboration")
	cacheDSN    = flag.String("cache", "", "sqlite3 DSN of the diagnostic cache (overrides config)")
	stats       = flag.Bool("stats", false, "report process resource usage at exit")
	serve       = flag.Bool("serve", false, "start the HTTP elaboration service instead of a one-shot run")
)

func main() {
	flag.Parse()

	cfg := &velabcfg.Config{}
	if *configPath != "" {
		loaded, err := velabcfg.Load(*configPath)
		if err != nil {
			log.Fatalf("velab: %v", err)
		}
		cfg = loaded
	}
	if *rootName != "" {
		cfg.RootModule = *rootName
	}
	if *doSynth {
		cfg.Synthesize = true
	}
	if *cacheDSN != "" {
		cfg.CacheDSN = *cacheDSN
	}

	if *stats {
		atexit.Register(reportStats)
	}

	if *serve || cfg.API.Enabled {
		runServer(cfg)
		return
	}

	if *fixturePath == "" || cfg.RootModule == "" {
		fmt.Fprintln(os.Stderr, "usage: velab -fixture <file.yaml> -root <module> [-synth] [-cache <dsn>] [-stats]")
		atexit.Exit(2)
	}

	var store *cache.Store
	var sourceHash string
	if cfg.CacheDSN != "" {
		var err error
		store, err = cache.Open(cfg.CacheDSN)
		if err != nil {
			log.Fatalf("velab: %v", err)
		}
		atexit.Register(func() { store.Close() })

		sourceHash, err = cache.HashFile(*fixturePath)
		if err != nil {
			log.Fatalf("velab: %v", err)
		}
		if entry, hit, err := store.Get(cfg.RootModule, sourceHash); err == nil && hit {
			fmt.Printf("velab: unchanged input, cached result: %s\n", entry.Summary)
			if entry.Errors > 0 {
				atexit.Exit(1)
			}
			atexit.Exit(0)
		}
	}

	modules, err := pform.LoadFixtureFile(*fixturePath)
	if err != nil {
		log.Fatalf("velab: %v", err)
	}

	des, report := run(modules, cfg.RootModule, cfg.Synthesize)

	report.Write(os.Stdout)

	if store != nil {
		summary := fmt.Sprintf("%d issue(s), %d error(s)", len(report.Issues), report.Errors)
		err := store.Put(cache.Entry{
			RootModule: cfg.RootModule,
			SourceHash: sourceHash,
			Errors:     report.Errors,
			Issues:     len(report.Issues),
			Summary:    summary,
		})
		if err != nil {
			log.Printf("velab: %v", err)
		}
	}

	if des == nil || report.HasErrors() {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// run elaborates and optionally synthesizes, converting an elaborator panic
// (an internal error, SPEC_FULL.md §B.2) into a final diagnostic instead of
// a bare crash.
func run(modules map[string]*pform.Module, root string, synthesize bool) (des *netlist.Design, report *diag.Report) {
	defer func() {
		if r := recover(); r != nil {
			if report == nil {
				report = &diag.Report{}
			}
			report.Add("", 0, diag.Internal, "elaboration panicked: %v", r)
			des = nil
		}
	}()

	des, report = elaborate.Elaborate(modules, nil, root)
	if des != nil && synthesize && !report.HasErrors() {
		synth.Run(des)
	}
	return des, report
}

func runServer(cfg *velabcfg.Config) {
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8080"
	}
	server := api.ServerBuilder{}.WithAddr(cfg.API.Addr).Build()
	log.Printf("velab: serving on %s", cfg.API.Addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("velab: %v", err)
	}
}

func reportStats() {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return
	}
	fmt.Printf("velab: RSS at exit %.1f MiB\n", float64(mem.RSS)/(1024*1024))
}
