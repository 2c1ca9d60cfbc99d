package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/netlens/netlens/internal/netinfo"
	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/internal/probe"
)

func runInfo(args []string) int {
	flagSet := flag.NewFlagSet("netlens info", flag.ContinueOnError)
	flagSet.SetOutput(os.Stdout)

	var opts outputOptions
	flagSet.BoolVar(&opts.JSON, "json", false, "Output as JSON")
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
		fmt.Fprintf(os.Stderr, "netlens info: %v\n", err)
		return exitUsage
	}

	client := probe.NewClient()
	notifier := notify.New(cfg.NoticeDismiss, cfg.NoticeDismissError)
	defer notifier.Close()
	if !opts.JSON {
		notifier.AddSink(stderrNoticeSink(opts.colorEnabled()))
	}

	agg := netinfo.NewAggregator(client, cfg, netinfo.InterfaceHints{}, notifier)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info := agg.Gather(ctx)

	if opts.JSON {
		if err := json.NewEncoder(os.Stdout).Encode(info); err != nil {
			fmt.Fprintf(os.Stderr, "netlens info: json encode error: %v\n", err)
			return exitFailure
		}
		return exitSuccess
	}

	color := opts.colorEnabled()
	fmt.Printf("Local IP:   %s\n", info.LocalIP)
	fmt.Printf("Public IP:  %s\n", info.PublicIP)
	fmt.Printf("Location:   %s, %s\n", info.City, info.Country)
	fmt.Printf("Provider:   %s\n", info.ISP)
	fmt.Printf("Connection: %s", info.ConnectionType)
	if info.EffectiveType != "" {
		fmt.Printf(" (%s)", info.EffectiveType)
	}
	fmt.Println()
	if info.EstimatedSpeed != "" {
		fmt.Printf("Estimated:  %s\n", info.EstimatedSpeed)
	}
	fmt.Printf("Quality:    %s\n", colorize(info.Quality, qualityColor(info.Quality), color))

	return exitSuccess
}

func qualityColor(quality string) string {
	switch quality {
	case "Excellent", "Good":
		return "32"
	case "Fair":
		return "33"
	case "Poor", "Very Poor":
		return "31"
	default:
		return "37"
	}
}
