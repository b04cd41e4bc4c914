// Package main provides the anistream command, a terminal front end for the
// browser automation core. It browses anime sites, extracts episode data,
// locates and downloads videos, and asks the operator to clear bot checks
// in the automation browser window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entrhq/anistream/pkg/automation"
	appconfig "github.com/entrhq/anistream/pkg/config"
	"github.com/entrhq/anistream/pkg/logging"
	"github.com/entrhq/anistream/pkg/service"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile        string
	OverridesFile     string
	MetricsAddr       string
	LogLevel          string
	Timeout           time.Duration
	NavigationTimeout time.Duration
	Concurrency       int
	Headless          bool
	AdBlock           bool
	AutoDetect        bool
	JSON              bool
	Copy              bool
	ShowVersion       bool

	// set records which flags were given explicitly.
	set map[string]bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("anistream v%s\n", version)
		return
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	if err := run(ctx, config, flag.Arg(0), flag.Args()[1:]); err != nil {
		cancel()
		log.Printf("%s %v", errorStyle.Render("anistream:"), err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	config := &CLIConfig{set: map[string]bool{}}

	flag.StringVar(&config.ConfigFile, "config", "", "Path to the settings file (default ~/.anistream/config.json)")
	flag.StringVar(&config.OverridesFile, "overrides", "", "YAML file of setting overrides for this run")
	flag.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flag.DurationVar(&config.Timeout, "timeout", 0, "Overall timeout for the command (0 waits indefinitely)")
	flag.DurationVar(&config.NavigationTimeout, "nav-timeout", 0, "Per-page load timeout (default from settings)")
	flag.IntVar(&config.Concurrency, "concurrency", 3, "Pages processed at once by extract")
	flag.BoolVar(&config.Headless, "headless", false, "Run the browser without a window")
	flag.BoolVar(&config.AdBlock, "adblock", true, "Block ad and tracker requests while browsing")
	flag.BoolVar(&config.AutoDetect, "detect", true, "Detect anime on browsed pages")
	flag.BoolVar(&config.JSON, "json", false, "Print results as JSON")
	flag.BoolVar(&config.Copy, "copy", false, "Copy the located video URL to the clipboard")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", headerStyle.Render("anistream - anime site automation"))
		fmt.Fprintf(os.Stderr, "Usage: anistream [options] <command> <args>\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  browse <url...>           Open pages and report detected anime\n")
		fmt.Fprintf(os.Stderr, "  extract <url...>          Extract title, episode and poster\n")
		fmt.Fprintf(os.Stderr, "  locate <url>              Print the video URL of an episode page\n")
		fmt.Fprintf(os.Stderr, "  download <url> <file>     Download the episode video\n")
		fmt.Fprintf(os.Stderr, "  sites                     List sites with dedicated extraction rules\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nWhen a bot check appears, solve it in the browser window and press Enter.\n")
	}

	flag.Parse()
	flag.Visit(func(f *flag.Flag) { config.set[f.Name] = true })
	return config
}

// run executes one command
func run(ctx context.Context, cliConfig *CLIConfig, command string, args []string) error {
	if command == "sites" {
		return listSites()
	}

	logger, err := logging.NewLogger("anistream")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	level, err := logging.ParseLevel(cliConfig.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	if initErr := appconfig.Initialize(cliConfig.ConfigFile); initErr != nil {
		return fmt.Errorf("failed to initialize configuration: %w", initErr)
	}
	manager := appconfig.Global()

	if cliConfig.OverridesFile != "" {
		if err := appconfig.LoadOverrides(manager, cliConfig.OverridesFile); err != nil {
			return fmt.Errorf("failed to apply overrides: %w", err)
		}
	}
	applyFlags(manager, cliConfig)

	var registry *prometheus.Registry
	if cliConfig.MetricsAddr != "" {
		registry = prometheus.NewRegistry()
		stop := serveMetrics(cliConfig.MetricsAddr, registry, logger)
		defer stop()
	}

	out := newConsole(os.Stdout, cliConfig.JSON)
	deps := service.Deps{
		EmitEvent: out.handle,
		Logger:    logger,
	}
	if registry != nil {
		deps.Registerer = registry
	}
	if command == "download" {
		deps.Progress = os.Stderr
	}

	svc := service.Build(manager, deps)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	go out.readResolutions(os.Stdin, svc)

	if cliConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliConfig.Timeout)
		defer cancel()
	}

	logger.Infof("running %s with %d argument(s)", command, len(args))

	switch command {
	case "browse":
		err = runBrowse(ctx, svc, out, cliConfig, args)
	case "extract":
		err = runExtract(ctx, svc, out, cliConfig, args)
	case "locate":
		err = runLocate(ctx, svc, out, cliConfig, args)
	case "download":
		err = runDownload(ctx, svc, out, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	if automation.IsLaunchError(err) {
		return fmt.Errorf("the automation browser could not be started: %w", err)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// applyFlags copies explicitly given flags onto the settings.
func applyFlags(m *appconfig.Manager, cliConfig *CLIConfig) {
	automationSettings := appconfig.AutomationOf(m)
	if cliConfig.set["headless"] {
		automationSettings.SetHeadless(cliConfig.Headless)
	}
	if cliConfig.set["nav-timeout"] && cliConfig.NavigationTimeout > 0 {
		automationSettings.SetNavigationTimeout(cliConfig.NavigationTimeout)
	}

	adBlock, autoDetect := appconfig.BrowsingOf(m).Defaults()
	if !cliConfig.set["adblock"] {
		cliConfig.AdBlock = adBlock
	}
	if !cliConfig.set["detect"] {
		cliConfig.AutoDetect = autoDetect
	}
}

// serveMetrics exposes registry over HTTP and returns a shutdown func.
func serveMetrics(addr string, registry *prometheus.Registry, logger *logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server: %v", err)
		}
	}()
	logger.Infof("serving metrics on %s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
