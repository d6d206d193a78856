package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ehopa/internal/platform/config"
	"ehopa/internal/platform/httpserver"
	"ehopa/internal/platform/logger"
	httpmetrics "ehopa/internal/platform/metrics"
	"ehopa/internal/platform/middleware"
	"ehopa/internal/reference"
	regmetrics "ehopa/internal/registration/metrics"
	"ehopa/internal/registration/service"
	"ehopa/internal/session"
	sessionhandler "ehopa/internal/session/handler"
	"ehopa/internal/sheets"
	"ehopa/pkg/platform/httputil"
)

// main wires the sheet clients, storage backends and notifiers into the form
// gateway and keeps the server lifecycle small. Workflow logic lives in the
// internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Format, cfg.Logging.Level)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	regMetrics := regmetrics.New(reg)

	feeds := sheets.NewClient(cfg.Sheets.BaseURL, cfg.Sheets.SheetID, cfg.Sheets.HTTPTimeout, sheets.WithLogger(log))
	sink := sheets.NewSinkClient(cfg.Sheets.WriteURL, cfg.Sheets.HTTPTimeout)
	loader := reference.NewLoader(feeds, reference.Sheets{
		Providers: cfg.Sheets.ProvidersSheet,
		Origins:   cfg.Sheets.OriginsSheet,
		Species:   cfg.Sheets.SpeciesSheet,
	}, reference.WithLogger(log), reference.WithMetrics(regMetrics))

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("failed to release resource", "error", err)
			}
		}
	}()

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	closers = append(closers, store.close)

	archive, closeArchive, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	closers = append(closers, closeArchive)

	notifiers, err := openNotifiers(ctx, cfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, notifiers.close)

	manager, err := session.NewManager(session.Deps{
		References:  loader,
		Ledger:      feeds,
		LedgerSheet: cfg.Sheets.LedgerSheet,
		Sink:        sink,
		History:     store.repo,
		Notifier:    notifiers.shared,
		Archive:     archive,
	}, session.Settings{
		PricePolicy:     service.ParsePricePolicy(cfg.Registration.PricePolicy),
		Confirm:         cfg.Registration.Confirm,
		AutoReacquire:   cfg.Registration.AutoReacquire,
		LocationTimeout: cfg.Registration.LocationTimeout,
		PreviewSize:     cfg.Photos.PreviewSize,
		WhatsApp:        notifiers.whatsapp,
		WhatsAppNumber:  cfg.Notify.WhatsAppNumber,
	}, session.WithLogger(log), session.WithMetrics(regMetrics))
	if err != nil {
		return err
	}

	forms, err := sessionhandler.New(manager, store.repo,
		sessionhandler.WithLogger(log),
		sessionhandler.WithLedger(feeds, cfg.Sheets.LedgerSheet),
		sessionhandler.WithBasePath("/api"),
	)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestContext)
	r.Use(middleware.Observe(log, httpmetrics.New(reg)))
	r.Route("/api", forms.Register)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		code := http.StatusOK
		status := map[string]any{"status": "ok", "open_forms": manager.Len()}
		if store.health != nil {
			if err := store.health(r.Context()); err != nil {
				code = http.StatusServiceUnavailable
				status["status"] = "degraded"
				status["history"] = err.Error()
			}
		}
		if notifiers.kafka != nil {
			status["kafka"] = notifiers.kafka.Healthy()
		}
		httputil.WriteJSON(w, code, status)
	})

	srv := httpserver.New(cfg.Server.Addr, r, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting ehopa", "addr", cfg.Server.Addr, "history", cfg.History.Driver, "photos", cfg.Photos.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
