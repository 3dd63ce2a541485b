package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/application/contracts"
	paymentApplication "github.com/MatLock/UdeSa-Ing-Examen/internal/application/payment"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/config"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/logging"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/metrics"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/eventbus"
	httpapi "github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/http"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/outbox"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters := metrics.NewCounters(reg)

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	service := &paymentApplication.Service{
		Repo:       st.Payments,
		Rules:      payment.NewRuleEngine(),
		Logger:     logger.Named("payments"),
		Metrics:    counters,
		MaxRetries: cfg.Settlement.MaxRetries,
		RetryDelay: cfg.Settlement.RetryDelay,
	}

	dispatcher := &outbox.Dispatcher{
		Repo:         st.Outbox,
		EventBus:     publisher,
		Logger:       logger.Named("outbox"),
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
	}
	go dispatcher.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(&httpapi.PaymentHandler{Service: service}, logger.Named("http"), reg)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server running", map[string]any{
			"addr":    cfg.HTTP.Addr,
			"storage": cfg.Storage.Driver,
			"version": Version,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newPublisher relays to Kafka when brokers are configured, otherwise to an
// in-memory bus whose subscribers write the audit log.
func newPublisher(cfg *config.Config, logger *logging.ZapLogger) (contracts.EventPublisher, func()) {
	if len(cfg.Kafka.Brokers) > 0 {
		kp := eventbus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		return kp, func() {
			if err := kp.Close(); err != nil {
				logger.Error("close kafka writer", map[string]any{"err": err})
			}
		}
	}

	bus := eventbus.NewInMemoryBus()
	audit := &paymentApplication.AuditHandler{Logger: logger.Named("audit")}
	for _, t := range paymentApplication.AuditedEvents() {
		bus.Subscribe(t, audit.Handle)
	}
	return bus, func() {}
}
