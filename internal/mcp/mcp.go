// Package mcp implements the `netlens mcp` subcommand — an MCP (Model Context
// Protocol) server over stdio transport. Agents can spawn this process and
// call the diagnostics tools directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/netlens/netlens/internal/config"
	"github.com/netlens/netlens/internal/netinfo"
	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/internal/probe"
	"github.com/netlens/netlens/internal/session"
	"github.com/netlens/netlens/pkg/diagnostic"
	"github.com/netlens/netlens/pkg/types"
)

type toolDeps struct {
	cfg    *config.Config
	client *probe.Client
}

// Run starts the MCP stdio server. Blocks until stdin closes or signal received.
func Run(cfg *config.Config, version string) int {
	deps := &toolDeps{
		cfg:    cfg,
		client: probe.NewClient(),
	}

	s := server.NewMCPServer(
		"netlens",
		version,
		server.WithToolCapabilities(true),
	)

	speedTool := mcp.NewTool("run_speed_test",
		mcp.WithDescription("Timed download and upload sampling against the probe service. Returns per-interval throughput samples, phase means, session statistics, and a one-line quality summary. Takes roughly twice the configured phase duration."),
		mcp.WithNumber("duration",
			mcp.Description("Per-phase duration in seconds, 1-60 (default: 10)"),
		),
	)
	s.AddTool(speedTool, deps.handleSpeedTest)

	infoTool := mcp.NewTool("network_info",
		mcp.WithDescription("Gather the network overview: local and public address, provider and location, connection quality rating. Partial lookup failures come back as placeholder fields, never an error."),
	)
	s.AddTool(infoTool, deps.handleNetworkInfo)

	dnsTool := mcp.NewTool("dns_timing",
		mcp.WithDescription("Time a DNS-over-HTTPS query against each configured resolver and report per-resolver milliseconds."),
		mcp.WithString("domain",
			mcp.Description("Domain to resolve (default: example.com)"),
		),
		mcp.WithString("type",
			mcp.Description("Record type (default: A)"),
		),
	)
	s.AddTool(dnsTool, deps.handleDNSTiming)

	latencyTool := mcp.NewTool("probe_latency",
		mcp.WithDescription("Estimate round-trip latency via the probe fallback chain (HTTP timing, tiny asset, STUN binding, synthetic estimate). Always produces a value; Estimated marks a heuristic stand-in."),
	)
	s.AddTool(latencyTool, deps.handleLatency)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "netlens mcp: error: %v\n", err)
		return 1
	}
	return 0
}

type speedTestReport struct {
	SessionID  string             `json:"sessionId"`
	TestData   types.TestData     `json:"testData"`
	Statistics types.SessionStats `json:"statistics"`
	Summary    string             `json:"summary"`
}

func (d *toolDeps) handleSpeedTest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	duration := req.GetInt("duration", int(d.cfg.TestDuration.Seconds()))
	if duration < 1 {
		duration = 1
	}
	if duration > 60 {
		duration = 60
	}

	cfg := *d.cfg
	cfg.TestDuration = time.Duration(duration) * time.Second

	notifier := notify.New(cfg.NoticeDismiss, cfg.NoticeDismissError)
	defer notifier.Close()

	orch := session.NewOrchestrator(&cfg, d.client, notifier)

	testCtx, cancel := context.WithTimeout(ctx, 2*cfg.TestDuration+30*time.Second)
	defer cancel()

	sessionID, started := orch.Start(testCtx)
	if !started {
		return mcp.NewToolResultError("speed test already running"), nil
	}
	orch.Wait()

	data := orch.TestData()
	stats := orch.Stats()

	report := speedTestReport{
		SessionID:  sessionID,
		TestData:   data,
		Statistics: stats,
		Summary:    diagnostic.Summary(stats.AvgDownload(), stats.AvgUpload(), 0),
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("JSON encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (d *toolDeps) handleNetworkInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notifier := notify.New(d.cfg.NoticeDismiss, d.cfg.NoticeDismissError)
	defer notifier.Close()

	agg := netinfo.NewAggregator(d.client, d.cfg, netinfo.InterfaceHints{}, notifier)

	gatherCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	info := agg.Gather(gatherCtx)
	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("JSON encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (d *toolDeps) handleDNSTiming(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain := req.GetString("domain", "example.com")
	recordType := req.GetString("type", "A")

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	timings := probe.TimeResolvers(queryCtx, d.client, d.cfg.Resolvers, domain, recordType, d.cfg.LookupTimeout)
	out, err := json.MarshalIndent(timings, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("JSON encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (d *toolDeps) handleLatency(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chain := probe.NewChain(d.client, probe.ChainConfig{
		ReferenceURL: d.cfg.ReferenceURL,
		TinyAssetURL: d.cfg.TinyAssetURL,
		STUNServers:  d.cfg.STUNServers,
		Trials:       d.cfg.LatencyTrials,
		TrialPause:   d.cfg.TrialPause,
		Timeout:      d.cfg.ProbeTimeout,
	})

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result := chain.Measure(probeCtx)
	out, err := json.MarshalIndent(struct {
		AvgMs     float64   `json:"avgMs"`
		Trials    []float64 `json:"trials"`
		Estimated bool      `json:"estimated"`
		Rating    string    `json:"rating"`
	}{
		AvgMs:     result.AvgMs,
		Trials:    result.Trials,
		Estimated: result.Estimated,
		Rating:    diagnostic.RateLatency(result.AvgMs),
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("JSON encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
