package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tallyworks/backoffice-api/config"
	"github.com/tallyworks/backoffice-api/internal/adapters/reportgen"
	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/data"
	"github.com/tallyworks/backoffice-api/internal/observability/statsd"
	"github.com/tallyworks/backoffice-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Reports       *service.ReportJobService
	Tickets       *service.TicketService
	DB            *sql.DB // for the /healthz database ping
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires repositories, observability, and the domain services
// into one container. No database or redis round-trips happen here;
// repositories defer connection use until queried.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := deps.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	observability := newObservability(logger, appCfg.Observability)

	reports, err := newReportJobService(deps.RedisClient, appCfg.Reports, observability.MetricsSink, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	tickets, err := newTicketService(deps.DB, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		Reports:       reports,
		Tickets:       tickets,
		DB:            deps.DB,
		Observability: observability,
	}, nil
}

// newObservability builds the metrics sink. A statsd setup failure is
// logged and leaves the sink nil; metrics are optional, the service is not.
func newObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	if !cfg.Metrics.IsEnabled() {
		return ObservabilityContainer{}
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  "tallyworks",
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return ObservabilityContainer{}
	}
	return ObservabilityContainer{MetricsSink: client}
}

func newReportJobService(
	redisClient redis.UniversalClient,
	cfg config.ReportsConfig,
	sink *statsd.Client,
	logger *slog.Logger,
) (*service.ReportJobService, error) {
	delays, err := cfg.DelaysByKind()
	if err != nil {
		return nil, fmt.Errorf("configure report delays: %w", err)
	}
	generator, err := reportgen.New(reportgen.Options{
		LedgerDir: cfg.LedgerDir,
		OutputDir: cfg.OutputDir,
		Delays:    delays,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build report generator: %w", err)
	}

	var cache core.CacheRepository
	if cfg.CacheResults && redisClient != nil {
		cache = data.NewRedisCacheRepo(redisClient)
	}
	return service.MustNewReportJobService(service.ReportJobServiceOptions{
		Store:     data.NewReportJobStore(),
		Generator: generator,
		Cache:     cache,
		Config: service.ReportJobServiceConfig{
			RetentionAge:   cfg.RetentionAge,
			LegacyBaseline: cfg.LegacyBaseline,
		},
		Logger: logger,
		Sink:   sink,
	}), nil
}

func newTicketService(db *sql.DB, logger *slog.Logger) (*service.TicketService, error) {
	router, err := service.NewAssignmentRouter(service.AssignmentRouterOptions{
		Rules:  data.NewAssignmentRuleRepo(db),
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build assignment router: %w", err)
	}
	return service.MustNewTicketService(service.TicketServiceOptions{
		Repo:   data.NewTicketRepo(db),
		Router: router,
		Logger: logger,
	}), nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// shutdownWaitTimeout bounds the graceful drain of each stopping service.
const shutdownWaitTimeout = 15 * time.Second

// backgroundService is a startable long-running component. start blocks
// until the context is cancelled or the component fails.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// runningService pairs a started background service with its completion
// signal.
type runningService struct {
	name string
	done <-chan struct{}
}

// orchestrator owns the lifecycle of every enabled service.
type orchestrator struct {
	cfg     *ServiceOrchestrationConfig
	logger  *slog.Logger
	enabled map[config.ServiceMode]bool
	errCh   chan error

	httpServer *http.Server
	running    []runningService
}

// RunServicesWithShutdown starts every enabled service and blocks until a
// shutdown signal arrives or one of them fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	o := &orchestrator{
		cfg:     cfg,
		logger:  logger,
		enabled: enabled,
		errCh:   make(chan error, errorChannelBufferSize(enabled)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.startAll(ctx)
	return o.waitForShutdown(cancel)
}

func (o *orchestrator) startAll(ctx context.Context) {
	if o.enabled[config.ServiceModeHTTP] {
		o.httpServer = StartHTTPServer(&HTTPServerConfig{
			Config:   o.cfg.Config,
			Services: o.cfg.Services,
			Logger:   o.logger,
		})
	}

	for _, svc := range o.backgroundServices() {
		if o.enabled[svc.mode] {
			o.launch(ctx, svc)
		}
	}
}

// backgroundServices lists every long-running component other than HTTP.
func (o *orchestrator) backgroundServices() []backgroundService {
	return []backgroundService{o.reportSchedulerService()}
}

func (o *orchestrator) reportSchedulerService() backgroundService {
	return backgroundService{
		mode: config.ServiceModeReportScheduler,
		name: "report scheduler",
		start: func(ctx context.Context) error {
			entries, err := service.ParseScheduleEntries(o.cfg.Config.Reports.Schedules)
			if err != nil {
				return fmt.Errorf("parse report schedules: %w", err)
			}
			if len(entries) == 0 {
				return errors.New("report-scheduler mode requires REPORT_SCHEDULES")
			}
			scheduler, err := service.NewReportScheduler(service.ReportSchedulerOptions{
				Jobs:    o.cfg.Services.Reports,
				Entries: entries,
				Logger:  o.logger,
			})
			if err != nil {
				return err
			}
			return scheduler.Run(ctx)
		},
	}
}

// launch runs svc.start in a goroutine and records its completion channel.
// The error channel is sized for one failure per service, so the default
// arm only fires once a failure has already been collected; such extras
// are logged and dropped.
func (o *orchestrator) launch(ctx context.Context, svc backgroundService) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := svc.start(ctx)
		if err == nil {
			return
		}
		err = fmt.Errorf("%s failed: %w", svc.name, err)
		select {
		case o.errCh <- err:
		case <-ctx.Done():
		default:
			o.logger.WarnContext(ctx, "dropping background service error", "service", svc.name, "error", err)
		}
	}()

	o.logger.InfoContext(ctx, "background service started", "service", svc.name, "mode", svc.mode)
	o.running = append(o.running, runningService{name: svc.name, done: done})
}

// errorChannelCapacity counts the enabled services that can report a
// terminal error.
func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

// errorChannelBufferSize is the error channel capacity: one slot per
// enabled service plus a spare.
func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// waitForShutdown blocks until SIGINT/SIGTERM or a service failure, then
// cancels the service context and drains everything.
func (o *orchestrator) waitForShutdown(cancel context.CancelFunc) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		o.logger.Info("shutting down services...")
		cancel()
		return o.gracefulStop()
	case err := <-o.errCh:
		o.logger.Error("service error", "error", err)
		cancel()
		if stopErr := o.gracefulStop(); stopErr != nil {
			o.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop drains submitters first: the HTTP server stops accepting
// requests and the scheduler loop winds down, and only then is the report
// pipeline closed.
func (o *orchestrator) gracefulStop() error {
	if o.httpServer != nil {
		// The service context is already cancelled; the drain deadline must
		// come from a live parent or Shutdown aborts immediately.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: ctx,
			Server:  o.httpServer,
			Logger:  o.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range o.running {
		select {
		case <-svc.done:
			o.logger.Info(svc.name + " stopped")
		case <-time.After(shutdownWaitTimeout):
			o.logger.Warn("timeout waiting for " + svc.name + " to stop")
		}
	}

	if reports := o.cfg.Services.Reports; reports != nil {
		reports.Close()
		o.logger.Info("report pipeline closed")
	}
	return nil
}
