package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/netlens/netlens/internal/netinfo"
	"github.com/netlens/netlens/pkg/diagnostic"
)

// ScanReport describes what connection-type information is obtainable
// without privileged wireless access.
type ScanReport struct {
	Supported      bool    `json:"supported"`
	Reason         string  `json:"reason"`
	ConnectionType string  `json:"connection_type,omitempty"`
	EffectiveType  string  `json:"effective_type,omitempty"`
	DownlinkMbps   float64 `json:"downlink_mbps,omitempty"`
	Quality        string  `json:"quality,omitempty"`
}

// runScan reports hint-derived estimates. Active wireless scanning needs
// privileged radio access that this process does not have.
func runScan(args []string) int {
	flagSet := flag.NewFlagSet("netlens scan", flag.ContinueOnError)
	flagSet.SetOutput(os.Stdout)

	var opts outputOptions
	flagSet.BoolVar(&opts.JSON, "json", false, "Output as JSON")
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

	report := ScanReport{
		Reason: "active wireless scanning is not available in this execution context",
	}

	hints, err := netinfo.InterfaceHints{}.Hints()
	if err == nil {
		report.ConnectionType = hints.Type
		report.EffectiveType = hints.EffectiveType
		report.DownlinkMbps = hints.DownlinkMbps
		if hints.DownlinkMbps > 0 {
			report.Quality = diagnostic.QualityFromDownlink(hints.DownlinkMbps)
		} else if hints.EffectiveType != "" {
			report.Quality = diagnostic.QualityFromEffectiveType(hints.EffectiveType)
		}
	}

	if opts.JSON {
		if encErr := json.NewEncoder(os.Stdout).Encode(report); encErr != nil {
			fmt.Fprintf(os.Stderr, "netlens scan: json encode error: %v\n", encErr)
			return exitFailure
		}
		return exitSuccess
	}

	fmt.Printf("Network scan: %s\n", report.Reason)
	if report.ConnectionType != "" {
		fmt.Printf("  Connection type (estimated): %s\n", report.ConnectionType)
	}
	if report.Quality != "" {
		fmt.Printf("  Quality (estimated):         %s\n", report.Quality)
	}

	return exitSuccess
}
