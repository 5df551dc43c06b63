package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	appfinance "github.com/restoreops/backend/internal/application/finance"
	ledgerapp "github.com/restoreops/backend/internal/application/ledger"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/infrastructure/cache"
	"github.com/restoreops/backend/internal/infrastructure/config"
	"github.com/restoreops/backend/internal/infrastructure/event"
	"github.com/restoreops/backend/internal/infrastructure/logger"
	"github.com/restoreops/backend/internal/infrastructure/payment"
	"github.com/restoreops/backend/internal/infrastructure/persistence"
	"github.com/restoreops/backend/internal/infrastructure/printing"
	"github.com/restoreops/backend/internal/infrastructure/storage"
	"github.com/restoreops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errGatewayNotConfigured is returned by card operations when no card
// gateway base URL is set
var errGatewayNotConfigured = errors.New("card gateway is not configured (set card_gateway.base_url)")

// app holds the wired services for one command invocation
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *persistence.Database
	bus *event.InMemoryEventBus

	ledger     *ledgerapp.Service
	payments   *appfinance.PaymentService
	cards      *appfinance.CreditCardService
	forwarding *appfinance.ForwardingService
	lifecycles map[finance.EntityKind]*appfinance.LifecycleService

	closers []func(context.Context) error
}

// newApp loads configuration and wires every adapter. Close must be called
// when the command finishes.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     cfg.Log.Format,
		Output:     "stderr",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	a.onClose(func(context.Context) error { return logger.Sync(log) })
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg
	tel := cfg.Telemetry

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         tel.ProfilingEnabled,
		ServerAddress:   tel.ProfilingAddress,
		ApplicationName: tel.ServiceName,
	}, a.log)
	if err != nil {
		return err
	}
	a.onClose(func(context.Context) error { return profiler.Stop() })

	providers, err := telemetry.Setup(ctx, telemetry.Settings{
		Enabled:           tel.Enabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		Insecure:          tel.Insecure,
		ServiceName:       tel.ServiceName,
		SamplingRatio:     tel.SamplingRatio,
		MetricsEnabled:    tel.MetricsEnabled,
		LogsEnabled:       tel.LogsEnabled,
		SpanProfiles:      tel.ProfilingEnabled,
	}, a.log)
	if err != nil {
		return err
	}
	a.onClose(providers.Shutdown)
	a.log = providers.Bridge(a.log, tel.ServiceName, zapcore.InfoLevel)

	metrics, err := telemetry.NewFinanceMetrics(providers.Meter("restoreops/finance"))
	if err != nil {
		return err
	}

	db, err := persistence.NewDatabase(&cfg.Database, a.log,
		persistence.WithGormLogLevel(cfg.Log.GormLevel),
		persistence.WithSlowQueryThreshold(tel.DBSlowQueryThresh),
		persistence.WithTracing(telemetry.DBTracingConfig{
			Enabled:    tel.Enabled && tel.DBTraceEnabled,
			DBName:     cfg.Database.DBName,
			LogFullSQL: tel.DBLogFullSQL,
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	a.onClose(func(context.Context) error { return db.Close() })

	a.bus = event.NewInMemoryEventBus(a.log)
	a.bus.Subscribe(event.NewAuditLogHandler(a.log))

	idempotency, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cache.WithLogger(a.log))
	if err != nil {
		return err
	}
	a.onClose(func(context.Context) error { return idempotency.Close() })

	documents, err := storage.NewDocumentStore(&cfg.Storage, storage.WithLogger(a.log))
	if err != nil {
		return fmt.Errorf("failed to create document store: %w", err)
	}

	chrome, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Printing.RenderTimeout,
		ExecPath:       cfg.Printing.ChromeExecPath,
		NoSandbox:      true,
		Logger:         a.log,
	})
	if err != nil {
		return fmt.Errorf("failed to create PDF renderer: %w", err)
	}
	a.onClose(func(context.Context) error { return chrome.Close() })

	renderer, err := printing.NewDocumentRenderer(chrome, printing.DocumentRendererConfig{
		OutputDir:   cfg.Printing.OutputDir,
		TemplateDir: cfg.Printing.TemplateDir,
		Timeout:     cfg.Printing.RenderTimeout,
		Logger:      a.log,
	})
	if err != nil {
		return fmt.Errorf("failed to create document renderer: %w", err)
	}

	var processor appfinance.PaymentProcessor = unconfiguredProcessor{}
	if cfg.CardGateway.BaseURL != "" {
		gateway, err := payment.NewCardGatewayAdapter(
			payment.NewCardGatewayConfig(cfg.CardGateway),
			payment.WithLogger(a.log),
		)
		if err != nil {
			return fmt.Errorf("failed to create card gateway: %w", err)
		}
		processor = gateway
	}

	opts := []appfinance.Option{
		appfinance.WithLogger(a.log),
		appfinance.WithMetrics(metrics),
		appfinance.WithEventPublisher(a.bus),
		appfinance.WithDocuments(renderer, documents),
		appfinance.WithCaptureIdempotencyTTL(cfg.Finance.CaptureIdempotencyTTL),
	}
	scope := db.Scope()
	directory := persistence.NewGormApproverDirectory(db.DB)
	repos := db.Repositories()

	a.ledger = ledgerapp.NewService(repos.GLAccountRepo(), repos.LedgerTransactionRepo(),
		ledgerapp.WithLogger(a.log),
		ledgerapp.WithMetrics(metrics),
	)
	a.payments = appfinance.NewPaymentService(scope, opts...)
	a.cards = appfinance.NewCreditCardService(a.payments, processor, idempotency, opts...)
	a.forwarding = appfinance.NewForwardingService(a.payments, directory, opts...)
	a.lifecycles = map[finance.EntityKind]*appfinance.LifecycleService{
		finance.KindInvoice:       appfinance.NewInvoiceService(scope, directory, opts...),
		finance.KindCreditNote:    appfinance.NewCreditNoteService(scope, directory, opts...),
		finance.KindPurchaseOrder: appfinance.NewPurchaseOrderService(scope, directory, opts...),
	}

	a.log.Debug("ledgerctl wired",
		zap.String("env", cfg.App.Env),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("telemetry", tel.Enabled),
	)
	return nil
}

// unconfiguredProcessor stands in for the card gateway when none is set.
// Read-only card commands work without it.
type unconfiguredProcessor struct{}

func (unconfiguredProcessor) Process(context.Context, appfinance.CardPaymentRequest) (*appfinance.CardAuthorization, error) {
	return nil, errGatewayNotConfigured
}

func (unconfiguredProcessor) Capture(context.Context, appfinance.CardPaymentRequest, string) (*appfinance.CardCapture, error) {
	return nil, errGatewayNotConfigured
}
