package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/internal/probe"
	"github.com/netlens/netlens/internal/session"
	"github.com/netlens/netlens/pkg/diagnostic"
	"github.com/netlens/netlens/pkg/types"
)

// TestReport is the structured output of netlens test.
type TestReport struct {
	SessionID        string             `json:"sessionId"`
	LatencyMs        float64            `json:"latencyMs"`
	LatencyEstimated bool               `json:"latencyEstimated"`
	LatencyRating    string             `json:"latencyRating"`
	TestData         types.TestData     `json:"testData"`
	Statistics       types.SessionStats `json:"statistics"`
	Summary          string             `json:"summary"`
}

func runTest(args []string) int {
	flagSet := flag.NewFlagSet("netlens test", flag.ContinueOnError)
	flagSet.SetOutput(os.Stdout)

	var (
		duration int
		opts     outputOptions
	)
	flagSet.IntVar(&duration, "duration", 0, "Per-phase duration in seconds (1-60)")
	flagSet.IntVar(&duration, "t", 0, "Per-phase duration in seconds (short)")
	flagSet.BoolVar(&opts.JSON, "json", false, "Output results as JSON")
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
		fmt.Fprintf(os.Stderr, "netlens test: %v\n", err)
		return exitUsage
	}
	if duration != 0 {
		if duration < 1 || duration > 60 {
			fmt.Fprintln(os.Stderr, "netlens test: duration must be between 1 and 60 seconds")
			return exitUsage
		}
		cfg.TestDuration = time.Duration(duration) * time.Second
	}

	client := probe.NewClient()

	notifier := notify.New(cfg.NoticeDismiss, cfg.NoticeDismissError)
	defer notifier.Close()
	if !opts.JSON {
		notifier.AddSink(stderrNoticeSink(opts.colorEnabled()))
	}

	if !opts.JSON {
		fmt.Println("Measuring latency...")
	}
	chain := probe.NewChain(client, probe.ChainConfig{
		ReferenceURL: cfg.ReferenceURL,
		TinyAssetURL: cfg.TinyAssetURL,
		STUNServers:  cfg.STUNServers,
		Trials:       cfg.LatencyTrials,
		TrialPause:   cfg.TrialPause,
		Timeout:      cfg.ProbeTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	latency := chain.Measure(ctx)
	if !opts.JSON {
		note := ""
		if latency.Estimated {
			note = " (estimated)"
		}
		fmt.Printf("  latency: %.0f ms%s (%s)\n\n", latency.AvgMs, note, diagnostic.RateLatency(latency.AvgMs))
	}

	orch := session.NewOrchestrator(cfg, client, notifier)
	if !opts.JSON {
		orch.AddListener(progressPrinter{color: opts.colorEnabled()})
	}

	// First interrupt stops the session cooperatively; the in-flight
	// transfer finishes in the background. A second one exits.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		orch.Stop()
		<-sigCh
		os.Exit(exitInterrupt)
	}()

	sessionID, started := orch.Start(ctx)
	if !started {
		fmt.Fprintln(os.Stderr, "netlens test: a test is already running")
		return exitFailure
	}
	orch.Wait()

	data := orch.TestData()
	stats := orch.Stats()

	report := TestReport{
		SessionID:        sessionID,
		LatencyMs:        latency.AvgMs,
		LatencyEstimated: latency.Estimated,
		LatencyRating:    diagnostic.RateLatency(latency.AvgMs),
		TestData:         data,
		Statistics:       stats,
		Summary:          diagnostic.Summary(stats.AvgDownload(), stats.AvgUpload(), latency.AvgMs),
	}

	if opts.JSON {
		if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "netlens test: json encode error: %v\n", err)
			return exitFailure
		}
		return exitSuccess
	}

	fmt.Println()
	fmt.Printf("Download: %s\n", colorize(fmt.Sprintf("%.1f Mbps", stats.AvgDownload()), "36", opts.colorEnabled()))
	fmt.Printf("Upload:   %s\n", colorize(fmt.Sprintf("%.1f Mbps", stats.AvgUpload()), "33", opts.colorEnabled()))
	fmt.Printf("Latency:  %.0f ms (%s)\n", latency.AvgMs, report.LatencyRating)
	fmt.Printf("\n%s\n", report.Summary)

	return exitSuccess
}
