package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/engine"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/events"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/observability"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/observability/logging"
	telemetry "github.com/gabrielfst30/descentralized-stablecoin-engine/observability/otel"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/oracle"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/services/engined/config"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/services/engined/server"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/storage"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/token"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// logEmitter mirrors engine events into structured logs and the liquidation
// flow counters.
type logEmitter struct {
	log     *slog.Logger
	metrics *observability.EngineMetrics
}

func (e *logEmitter) Emit(event events.Event) {
	switch ev := event.(type) {
	case events.CollateralDeposited:
		e.log.Info("collateral deposited", "account", ev.Account.String(), "asset", ev.Asset, "amount", ev.Amount.String())
	case events.CollateralRedeemed:
		e.log.Info("collateral redeemed", "from", ev.From.String(), "to", ev.To.String(), "asset", ev.Asset, "amount", ev.Amount.String())
	case events.DebtMinted:
		e.log.Info("debt minted", "account", ev.Account.String(), "amount", ev.Amount.String())
	case events.DebtBurned:
		e.log.Info("debt burned", "account", ev.Account.String(), "payer", ev.Payer.String(), "amount", ev.Amount.String())
	case events.Liquidated:
		e.log.Info("position liquidated",
			"liquidator", ev.Liquidator.String(), "victim", ev.Victim.String(),
			"asset", ev.Asset, "debtCovered", ev.DebtCovered.String(), "seized", ev.Seized.String())
		covered, _ := new(big.Float).SetInt(ev.DebtCovered).Float64()
		seized, _ := new(big.Float).SetInt(ev.Seized).Float64()
		e.metrics.ObserveLiquidation(covered, seized)
	default:
		e.log.Info("engine event", "type", event.EventType())
	}
}

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/engined/config.yaml", "path to engined config")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("DSC_ENV"))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Environment != "" {
		env = cfg.Environment
	}
	logger := logging.Setup("engined", env, cfg.LogFile)

	otelCfg := telemetry.Config{
		ServiceName: "engined",
		Environment: env,
		Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Insecure:    strings.EqualFold(strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")), "true"),
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Metrics:     true,
		Traces:      true,
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), otelCfg)
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	engineCfg, err := engine.LoadConfig(cfg.EngineConfig)
	if err != nil {
		log.Fatalf("load engine config: %v", err)
	}
	registry, err := engineCfg.Registry()
	if err != nil {
		log.Fatalf("build collateral registry: %v", err)
	}

	feed := oracle.NewManualFeed()
	for _, quote := range cfg.Feeds {
		if err := feed.SetDecimal(quote.Feed, quote.Price, time.Now()); err != nil {
			log.Fatalf("seed feed %s: %v", quote.Feed, err)
		}
	}

	custody, err := crypto.DecodeAddress(cfg.Custody)
	if err != nil {
		log.Fatalf("custody address: %v", err)
	}

	var db storage.Database
	if cfg.DataDir == "" {
		logger.Warn("no data_dir configured, ledger state is in-memory")
		db = storage.NewMemDB()
	} else {
		db, err = storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			log.Fatalf("open ledger database: %v", err)
		}
	}
	defer db.Close()

	dsc := token.NewStableCoin("Decentralized Stable Coin", "DSC", custody)
	eng := engine.NewEngine(custody, registry, feed, dsc, engineCfg.Risk)
	eng.SetState(storage.NewState(db))
	eng.SetEmitter(&logEmitter{log: logger, metrics: observability.Engine()})
	for _, ct := range registry.Types() {
		eng.SetCollateralToken(ct.Symbol, token.NewAsset(ct.Symbol, custody))
	}

	srv := server.New(eng, feed, logger, cfg.Auth.APITokens, cfg.Auth.AllowAnonymous)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           otelhttp.NewHandler(srv.Router(), "engined"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("engined listening", "addr", cfg.ListenAddress)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}
}
