package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/netlens/netlens/internal/config"
	"github.com/netlens/netlens/internal/logging"
	"github.com/netlens/netlens/internal/mcp"
)

var version = "dev"

const (
	exitSuccess   = 0
	exitFailure   = 1
	exitUsage     = 2
	exitInterrupt = 130
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		os.Exit(runTest(nil))
	}

	switch args[0] {
	case "test":
		os.Exit(runTest(args[1:]))
	case "info":
		os.Exit(runInfo(args[1:]))
	case "dns":
		os.Exit(runDNS(args[1:]))
	case "scan":
		os.Exit(runScan(args[1:]))
	case "export":
		os.Exit(runExport(args[1:]))
	case "serve":
		os.Exit(runServe(args[1:]))
	case "mcp":
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "netlens: %v\n", err)
			os.Exit(exitFailure)
		}
		os.Exit(mcp.Run(cfg, version))
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "--version":
		fmt.Printf("netlens %s\n", version)
		return
	default:
		if strings.HasPrefix(args[0], "-") {
			os.Exit(runTest(args))
		}
		fmt.Fprintf(os.Stderr, "netlens: unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(exitUsage)
	}
}

// loadConfig builds the effective configuration: defaults, then the YAML
// config file, then NETLENS_* environment overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	file, err := config.LoadFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "netlens: warning: failed to load config file: %v\n", err)
	} else if err := file.Merge(cfg); err != nil {
		return nil, err
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logLevel := logging.LevelWarn
	switch os.Getenv("NETLENS_LOG_LEVEL") {
	case "debug":
		logLevel = logging.LevelDebug
	case "info":
		logLevel = logging.LevelInfo
	}
	logging.Init(logLevel)

	return cfg, nil
}

func printUsage() {
	fmt.Fprintf(os.Stdout, `Usage: netlens <command> [args]

Commands:
  test      Run a timed download/upload speed test (default)
  info      Show the network overview (addresses, provider, quality)
  dns       Time DNS-over-HTTPS lookups against each resolver
  scan      Report connection-type estimates
  export    Run a full session and write a snapshot file
  serve     Run the local HTTP server with the live chart feed
  mcp       Run as MCP server (stdio transport, for AI agents)

Examples:
  netlens test -duration 10
  netlens info -json
  netlens dns -domain example.org -type AAAA
  netlens export -o snapshot.json
  netlens serve -listen 127.0.0.1:8090
`)
}
