package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/netlens/netlens/internal/probe"
)

func runDNS(args []string) int {
	flagSet := flag.NewFlagSet("netlens dns", flag.ContinueOnError)
	flagSet.SetOutput(os.Stdout)

	var (
		domain     string
		recordType string
		opts       outputOptions
	)
	flagSet.StringVar(&domain, "domain", "example.com", "Domain to resolve")
	flagSet.StringVar(&domain, "d", "example.com", "Domain to resolve (short)")
	flagSet.StringVar(&recordType, "type", "A", "Record type")
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

	// Positional arg = domain
	if rest := flagSet.Args(); len(rest) == 1 {
		domain = rest[0]
	} else if len(rest) > 1 {
		fmt.Fprintln(os.Stderr, "netlens dns: too many positional arguments")
		return exitUsage
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "netlens dns: %v\n", err)
		return exitUsage
	}

	client := probe.NewClient()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	timings := probe.TimeResolvers(ctx, client, cfg.Resolvers, domain, recordType, cfg.LookupTimeout)

	if opts.JSON {
		if err := json.NewEncoder(os.Stdout).Encode(timings); err != nil {
			fmt.Fprintf(os.Stderr, "netlens dns: json encode error: %v\n", err)
			return exitFailure
		}
		return exitSuccess
	}

	color := opts.colorEnabled()
	fmt.Printf("DNS timings for %s (%s):\n", domain, recordType)
	for _, t := range timings {
		if t.Err != "" {
			fmt.Printf("  %-12s %s\n", t.Name, colorize(t.Err, "31", color))
			continue
		}
		fmt.Printf("  %-12s %s\n", t.Name, colorize(fmt.Sprintf("%.0f ms", t.Ms), "36", color))
	}

	return exitSuccess
}
