package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/netlens/netlens/internal/netinfo"
	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/internal/probe"
	"github.com/netlens/netlens/internal/session"
)

// runExport runs a full measurement session plus the network overview and
// writes the combined snapshot to a file.
func runExport(args []string) int {
	flagSet := flag.NewFlagSet("netlens export", flag.ContinueOnError)
	flagSet.SetOutput(os.Stdout)

	var (
		outPath  string
		duration int
		opts     outputOptions
	)
	flagSet.StringVar(&outPath, "o", "netlens-snapshot.json", "Output file path")
	flagSet.StringVar(&outPath, "output", "netlens-snapshot.json", "Output file path")
	flagSet.IntVar(&duration, "duration", 0, "Per-phase duration in seconds (1-60)")
	flagSet.BoolVar(&opts.Plain, "plain", false, "Plain text output")
	flagSet.BoolVar(&opts.NoColor, "no-color", false, "Disable color output")
	help := flagSet.Bool("help", false, "Show help")
	flagSet.BoolVar(help, "h", false, "Show help (short)")

	if err := flagSet.Parse(args); err != nil {
		return exitUsage
	}
	if *help {
		flagSet.PrintDefaults()
		return exitSuccess
	}
	opts.resolve()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "netlens export: %v\n", err)
		return exitUsage
	}
	if duration != 0 {
		if duration < 1 || duration > 60 {
			fmt.Fprintln(os.Stderr, "netlens export: duration must be between 1 and 60 seconds")
			return exitUsage
		}
		cfg.TestDuration = time.Duration(duration) * time.Second
	}

	client := probe.NewClient()
	notifier := notify.New(cfg.NoticeDismiss, cfg.NoticeDismissError)
	defer notifier.Close()
	notifier.AddSink(stderrNoticeSink(opts.colorEnabled()))

	orch := session.NewOrchestrator(cfg, client, notifier)
	orch.AddListener(progressPrinter{color: opts.colorEnabled()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		orch.Stop()
		<-sigCh
		os.Exit(exitInterrupt)
	}()

	if _, started := orch.Start(ctx); !started {
		fmt.Fprintln(os.Stderr, "netlens export: a test is already running")
		return exitFailure
	}
	orch.Wait()

	fmt.Println("Gathering network overview...")
	agg := netinfo.NewAggregator(client, cfg, netinfo.InterfaceHints{}, notifier)
	infoCtx, infoCancel := context.WithTimeout(ctx, 30*time.Second)
	defer infoCancel()
	info := agg.Gather(infoCtx)

	snap := orch.Snapshot(info)
	if err := session.WriteSnapshot(outPath, snap); err != nil {
		fmt.Fprintf(os.Stderr, "netlens export: %v\n", err)
		return exitFailure
	}

	fmt.Printf("Snapshot written to %s\n", outPath)
	return exitSuccess
}
