package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"grundbuch-online/portal/pkg/address"
	"grundbuch-online/portal/pkg/audit/recorder"
	"grundbuch-online/portal/pkg/audit/retention"
	auditstorage "grundbuch-online/portal/pkg/audit/storage"
	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/dispatch"
	"grundbuch-online/portal/pkg/gateway"
	"grundbuch-online/portal/pkg/orders"
	orderstore "grundbuch-online/portal/pkg/orders/store"
	"grundbuch-online/portal/pkg/security/secrets"
	"grundbuch-online/portal/pkg/server"
	"grundbuch-online/portal/pkg/telemetry/health"
	"grundbuch-online/portal/pkg/telemetry/metrics"
	"grundbuch-online/portal/pkg/telemetry/tracing"
	"grundbuch-online/portal/pkg/uvst"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// app is the wired component graph behind `portal run`.
type app struct {
	deps    server.Deps
	closers []func() error
}

// newApp builds every component cfg enables. Background workers are bound
// to ctx. On error the components built so far are closed.
func newApp(ctx context.Context, cfg *config.Config) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.onClose(func() error { return tracer.Shutdown(context.WithoutCancel(ctx)) })

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(cfg.Telemetry.Metrics, registry)

	checker := health.New(0)

	keys, err := secrets.New(cfg.Secrets)
	if err != nil {
		return nil, fmt.Errorf("secrets: %w", err)
	}
	a.onClose(keys.Close)

	gwOpts := []gateway.Option{gateway.WithMetrics(collector)}
	if cfg.Audit.Enabled {
		storage, err := auditstorage.New(cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("audit storage: %w", err)
		}
		a.onClose(storage.Close)
		if p, ok := storage.(pinger); ok {
			checker.Register("audit", p.Ping)
		}

		rec := recorder.New(storage, &recorder.Config{AsyncBuffer: cfg.Audit.AsyncBuffer}, collector)
		a.onClose(rec.Close)
		gwOpts = append(gwOpts, gateway.WithRecorder(rec))

		pruner := retention.NewPruner(storage, cfg.Audit.Retention, collector)
		if err := pruner.Start(ctx); err != nil {
			return nil, fmt.Errorf("audit retention: %w", err)
		}
		a.onClose(func() error { pruner.Stop(); return nil })
		slog.Info("audit recording enabled", "backend", cfg.Audit.Backend, "next_pruning", pruner.NextPruning())
	}

	upstream := uvst.New(cfg.UVST)
	a.deps.Gateway = gateway.New(upstream, keys, gwOpts...)

	var geocoder address.Geocoder
	if cfg.Geocoder.Enabled {
		geocoder = address.NewNominatimGeocoder(cfg.Geocoder)
	}
	a.deps.Resolver = address.NewNormalizer(geocoder, collector)

	store, err := orderstore.New(ctx, cfg.Orders)
	if err != nil {
		return nil, fmt.Errorf("orders store: %w", err)
	}
	a.onClose(store.Close)
	if p, ok := store.(pinger); ok {
		checker.Register("orders", p.Ping)
	}

	svcOpts := []orders.ServiceOption{orders.WithMetrics(collector)}
	if cfg.Dispatch.Enabled {
		outbox, err := dispatch.NewOutbox(cfg.Dispatch)
		if err != nil {
			return nil, fmt.Errorf("dispatch outbox: %w", err)
		}
		d := dispatch.New(outbox, dispatch.NewWebhookSender(cfg.Dispatch, keys), cfg.Dispatch, dispatch.WithMetrics(collector))
		a.onClose(d.Close)
		if err := d.Start(ctx); err != nil {
			return nil, fmt.Errorf("dispatch: %w", err)
		}
		svcOpts = append(svcOpts, orders.WithNotifier(d))
	}
	a.deps.Orders = orders.NewService(store, svcOpts...)

	a.deps.AdminKeys = keys
	a.deps.Health = checker
	a.deps.Metrics = collector
	a.deps.MetricsPath = cfg.Telemetry.Metrics.Path
	a.deps.Version = health.VersionInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate}
	return a, nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases components in reverse construction order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
