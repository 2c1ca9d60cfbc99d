package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/netlens/netlens/internal/api"
	"github.com/netlens/netlens/internal/logging"
	"github.com/netlens/netlens/internal/netinfo"
	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/internal/probe"
	"github.com/netlens/netlens/internal/session"
	"github.com/netlens/netlens/internal/websocket"
)

// runServe starts the local HTTP server: the REST API plus the WebSocket
// chart feed that streams live samples and notices to connected clients.
func runServe(args []string) int {
	flagSet := flag.NewFlagSet("netlens serve", flag.ContinueOnError)
	flagSet.SetOutput(os.Stdout)

	var listen string
	flagSet.StringVar(&listen, "listen", "", "Listen address (host:port)")
	help := flagSet.Bool("help", false, "Show help")
	flagSet.BoolVar(help, "h", false, "Show help (short)")

	if err := flagSet.Parse(args); err != nil {
		return exitUsage
	}
	if *help {
		flagSet.PrintDefaults()
		return exitSuccess
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "netlens serve: %v\n", err)
		return exitUsage
	}
	logging.GetLogger().SetLevel(logging.LevelInfo)

	addr := cfg.BindAddress + ":" + cfg.Port
	if listen != "" {
		if !strings.Contains(listen, ":") {
			fmt.Fprintf(os.Stderr, "netlens serve: invalid listen address %q\n", listen)
			return exitUsage
		}
		addr = listen
	}

	client := probe.NewClient()
	notifier := notify.New(cfg.NoticeDismiss, cfg.NoticeDismissError)
	defer notifier.Close()

	orch := session.NewOrchestrator(cfg, client, notifier)
	agg := netinfo.NewAggregator(client, cfg, netinfo.InterfaceHints{}, notifier)
	chain := probe.NewChain(client, probe.ChainConfig{
		ReferenceURL: cfg.ReferenceURL,
		TinyAssetURL: cfg.TinyAssetURL,
		STUNServers:  cfg.STUNServers,
		Trials:       cfg.LatencyTrials,
		TrialPause:   cfg.TrialPause,
		Timeout:      cfg.ProbeTimeout,
	})

	feed := websocket.NewFeed()
	feed.SetAllowedOrigins(cfg.AllowedOrigins)
	defer feed.Close()
	orch.AddListener(feed)
	notifier.AddSink(feed)

	handler := api.NewHandler(cfg, orch, agg, chain, client, notifier)
	handler.SetVersion(version)

	router := api.NewRouter(handler)
	router.SetWebSocketHandler(feed.Handle)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server starting",
			logging.Field{Key: "address", Value: addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case sig := <-quit:
		logging.Info("Shutting down server",
			logging.Field{Key: "signal", Value: sig.String()})
	case err := <-errCh:
		logging.Error("Server failed",
			logging.Field{Key: "error", Value: err})
		return exitFailure
	}

	orch.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown error",
			logging.Field{Key: "error", Value: err})
		return exitFailure
	}

	return exitSuccess
}
