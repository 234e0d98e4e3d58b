package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"quotecraft/internal/approval"
	"quotecraft/internal/compare/handler"
	"quotecraft/internal/compare/service"
	"quotecraft/internal/compare/store"
	"quotecraft/internal/config"
	"quotecraft/internal/erp"
	"quotecraft/internal/flow"
	"quotecraft/internal/kpi"
	"quotecraft/internal/notify"
	"quotecraft/internal/policy"
	serverhttp "quotecraft/server/http"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	pol := policy.New(cfg.PolicyThresholds(), cfg.PreferredVendors)
	engine := service.NewEngine(cfg.EngineOptions(), pol, logger)
	st := store.NewMemory()
	po := erp.NewMock(cfg.ERPPOPrefix, logger)

	notifiers := notify.Multi{notify.NewSlack(cfg.SlackWebhookURL, cfg.ApproverEmail, logger)}
	nc := connectNATS(cfg, logger)
	if nc != nil {
		notifiers = append(notifiers, notify.NewEvents(nc, cfg.NatsSubjectPrefix))
	}
	notifier := notify.NewAsync(notifiers, logger)

	api := handler.New(handler.Deps{
		Engine:    engine,
		Store:     st,
		Approvals: approval.NewService(st, po, notifier, logger),
		ERP:       po,
		KPI:       kpi.New(),
		Notifier:  notifier,
		Flow:      flow.New(cfg.Flow(), logger),
		Logger:    logger,
	})

	r := serverhttp.NewRouter(cfg, logger, api)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if nc != nil {
		_ = nc.Drain()
	}
	logger.Info().Msg("bye")
}

// connectNATS returns nil when NATS_URL is unset or unreachable; events are
// then skipped and the service keeps running.
func connectNATS(cfg config.Config, logger zerolog.Logger) *nats.Conn {
	if cfg.NatsURL == "" {
		return nil
	}
	nc, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		logger.Error().Err(err).Str("url", cfg.NatsURL).Msg("nats connect failed, events disabled")
		return nil
	}
	logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats connected")
	return nc
}
