// Package main is the entry point for the LP deposit orchestrator.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fd1az/lp-deposit/business/deposit"
	depositDI "github.com/fd1az/lp-deposit/business/deposit/di"
	depositdomain "github.com/fd1az/lp-deposit/business/deposit/domain"
	"github.com/fd1az/lp-deposit/business/pool"
	poolDI "github.com/fd1az/lp-deposit/business/pool/di"
	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/apm"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/config"
	"github.com/fd1az/lp-deposit/internal/health"
	"github.com/fd1az/lp-deposit/internal/logger"
	"github.com/fd1az/lp-deposit/internal/metrics"
	"github.com/fd1az/lp-deposit/internal/monolith"
	"github.com/fd1az/lp-deposit/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run a scripted deposit with logs (no TUI)")
	amountFlag := flag.String("amount", "", "Deposit amount (CLI mode)")
	tokenFlag := flag.String("token", "", "Token symbol the amount is denominated in (CLI mode)")
	presetFlag := flag.String("preset", "medium", "Range preset: narrow, medium, wide, full (CLI mode)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lp-deposit %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default; CLI runs one scripted deposit
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	opts := cliOptions{
		amount: *amountFlag,
		token:  *tokenFlag,
		preset: *presetFlag,
	}
	if err := run(ctx, *configPath, tuiMode, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type cliOptions struct {
	amount string
	token  string
	preset string
}

func run(ctx context.Context, configPath string, tuiMode bool, opts cliOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Deposit.TUIMode = tuiMode

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting LP deposit orchestrator",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Modules in dependency order: deposit resolves the pool pair
	// through the pool module's public service.
	modules := []monolith.Module{
		&pool.Module{},
		&deposit.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	services := mono.Services()
	if tuiMode {
		return ui.Run(ui.Deps{
			Machine:       depositDI.GetMachine(services),
			Tracker:       depositDI.GetTracker(services),
			Bus:           depositDI.GetEventBus(services),
			Pool:          poolDI.GetPoolService(services),
			QuoteDebounce: cfg.Deposit.QuoteDebounce,
		})
	}

	return runCLI(ctx, mono, opts, log)
}

// runCLI executes one scripted deposit end to end, confirming every
// step automatically.
func runCLI(ctx context.Context, mono monolith.Monolith, opts cliOptions, log *logger.Logger) error {
	services := mono.Services()
	poolSvc := poolDI.GetPoolService(services)
	machine := depositDI.GetMachine(services)
	tracker := depositDI.GetTracker(services)

	if opts.amount == "" || opts.token == "" {
		return fmt.Errorf("CLI mode needs -amount and -token")
	}

	preset, err := presetByName(opts.preset)
	if err != nil {
		return err
	}

	ord := poolSvc.Ordering()
	var input *asset.Asset
	var side depositdomain.InputSide
	switch opts.token {
	case ord.Canonical0().Symbol():
		input, side = ord.Canonical0(), depositdomain.InputSide0
	case ord.Canonical1().Symbol():
		input, side = ord.Canonical1(), depositdomain.InputSide1
	default:
		return fmt.Errorf("token %s is not part of the %s/%s pool",
			opts.token, ord.Canonical0().Symbol(), ord.Canonical1().Symbol())
	}

	amount, err := asset.ParseString(input, opts.amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", opts.amount, err)
	}

	r, err := poolSvc.ResolvePreset(ctx, preset)
	if err != nil {
		return fmt.Errorf("failed to resolve preset: %w", err)
	}
	log.Info(ctx, "range resolved", "preset", preset.Label, "range", r.String())

	quote, err := poolSvc.QuotePairedAmount(ctx, amount, r)
	if err != nil {
		return fmt.Errorf("failed to quote paired amount: %w", err)
	}
	log.Info(ctx, "paired amount quoted",
		"input", quote.InputAmount.String(),
		"paired", quote.PairedAmount.String(),
	)

	intent := &depositdomain.DepositIntent{
		Range:           r,
		ActiveInputSide: side,
	}
	if side == depositdomain.InputSide0 {
		intent.Amount0, intent.Amount1 = amount, quote.PairedAmount
	} else {
		intent.Amount0, intent.Amount1 = quote.PairedAmount, amount
	}

	if err := machine.Commit(ctx, intent); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	// Walk the authorization sequence until the deposit lands.
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		progress := tracker.Progress()
		log.Info(ctx, "deposit progress",
			"phase", machine.State().Phase(),
			"completed", progress.Completed,
			"involved", progress.Involved,
		)

		switch state := machine.State().(type) {
		case depositdomain.StateApproving:
			log.Info(ctx, "sending approval", "token", state.Step.Token.Symbol())
			if err := machine.ConfirmApproval(ctx); err != nil {
				return fmt.Errorf("approval failed: %w", err)
			}
		case depositdomain.StatePermitSigning:
			log.Info(ctx, "signing permit batch", "tokens", len(state.Step.CoveredTokens))
			if err := machine.SignAndSubmit(ctx); err != nil {
				return fmt.Errorf("permit failed: %w", err)
			}
		case depositdomain.StateMinting:
			log.Info(ctx, "sending mint transaction")
			if err := machine.Execute(ctx); err != nil {
				return fmt.Errorf("mint failed: %w", err)
			}
		case depositdomain.StateDone:
			log.Info(ctx, "deposit complete", "tx", state.TxHash.Hex())
			return nil
		default:
			return fmt.Errorf("unexpected phase %q", machine.State().Phase())
		}
	}
}

func presetByName(name string) (pooldomain.RangePreset, error) {
	switch name {
	case "narrow":
		return pooldomain.PresetNarrow, nil
	case "medium":
		return pooldomain.PresetMedium, nil
	case "wide":
		return pooldomain.PresetWide, nil
	case "full":
		return pooldomain.PresetFull, nil
	}
	return pooldomain.RangePreset{}, fmt.Errorf("unknown preset %q", name)
}
