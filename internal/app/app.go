// Package app wires the storefront API server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/analytics"
	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/page"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/sheet"
	"github.com/xenking/storefront/internal/domain/store"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/repository"
	"github.com/xenking/storefront/internal/whatsapp"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const serviceName = "storefront-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	tokens, err := auth.NewTokens(auth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	})
	if err != nil {
		return errors.Wrap(err, "create token verifier")
	}

	healthSvc := newHealth(pool)
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	newHandler(pool, m, cfg, tokens).Register(mux)

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader, "Retry-After"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument(serviceName, routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			// Drain only on a requested shutdown, not after a listen failure.
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		defer healthSvc.Stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}

func newHealth(pool *pgxpool.Pool) *health.Health {
	h := health.New()
	h.AddReadiness(health.Check{
		Name:    "postgres",
		Timeout: 5 * time.Second,
		Func:    repository.Ping(pool),
	})
	h.AddLiveness(health.Check{
		Name: "goroutines",
		Func: health.Goroutines(10000),
	})
	return h
}

func newRenderer(cfg *Config) *whatsapp.Renderer {
	return whatsapp.NewRenderer(cfg.Storefront.Domain, cfg.Storefront.LinkBase)
}

// newHandler builds repositories and domain services on top of pool.
func newHandler(pool *pgxpool.Pool, m *app.Telemetry, cfg *Config, tokens *auth.Tokens) *handler.Handler {
	var (
		storeRepo     = repository.NewStoreRepository(pool)
		productRepo   = repository.NewProductRepository(pool)
		couponRepo    = repository.NewCouponRepository(pool)
		orderRepo     = repository.NewOrderRepository(pool)
		pageRepo      = repository.NewPageRepository(pool)
		analyticsRepo = repository.NewAnalyticsRepository(pool)
	)

	stores := store.NewService(storeRepo)
	products := product.NewService(productRepo, stores)
	orders := order.NewService(
		stores,
		productRepo,
		couponRepo,
		orderRepo,
		repository.NewTransactor(pool),
		newRenderer(cfg),
		order.WithTelemetry(m.TracerProvider(), m.MeterProvider()),
	)
	source := sheet.NewHTTPSource(&http.Client{Timeout: cfg.Sheets.Timeout}, cfg.Sheets.ExportURL)

	return handler.New(handler.Services{
		Stores:   stores,
		Products: products,
		Orders:   orders,
		Coupons:  coupon.NewService(couponRepo, stores),
		Pages:    page.NewService(pageRepo, stores),
		Stats:    analytics.NewService(analyticsRepo, stores),
		Syncer:   sheet.NewSyncer(stores, products, productRepo, source),
		Tracker: analytics.NewTracker(analyticsRepo, analytics.TrackerConfig{
			ExpectedVisitors: cfg.Tracker.ExpectedVisitors,
			FalsePositive:    cfg.Tracker.FalsePositive,
		}, m.MeterProvider()),
		Tokens: tokens,
	})
}
