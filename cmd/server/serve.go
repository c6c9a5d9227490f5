package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/growpoint/internal/api"
	"github.com/soaringjerry/growpoint/internal/config"
	"github.com/soaringjerry/growpoint/internal/db"
	"github.com/soaringjerry/growpoint/internal/edge"
	"github.com/soaringjerry/growpoint/internal/logger"
	"github.com/soaringjerry/growpoint/internal/middleware"
	"github.com/soaringjerry/growpoint/internal/services"
	"github.com/soaringjerry/growpoint/internal/telemetry"
	"github.com/soaringjerry/growpoint/internal/utils"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(context.Background()); cerr != nil {
			log.WithError(cerr).Warn("failed to close store")
		}
	}()

	metrics := telemetry.New()
	handler := buildHandler(cfg, log, metrics, store)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("GrowPoint server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, log *logger.Logger, metrics *telemetry.Metrics, store db.Store, auth *middleware.Auth) api.Services {
	onClamp := func(field string) { metrics.ClampEvents.WithLabelValues(field).Inc() }
	observeEdge := func(target, outcome string) { metrics.EdgeCalls.WithLabelValues(target, outcome).Inc() }
	edgeOpts := edge.Options{
		APIKey:     cfg.EdgeAPIKey,
		Timeout:    cfg.EdgeTimeout,
		MaxElapsed: cfg.EdgeMaxRetry,
		Observe:    observeEdge,
	}
	edgeLog := log.WithField("component", "edge")

	dash := services.NewDashboardService(store, store, log.WithField("component", "dashboard"))
	dash.Observe(onClamp, func(view string) { metrics.Superseded.WithLabelValues(view).Inc() })

	svc := api.Services{
		Identity:    services.NewIdentityService(store, auth.Sign, cfg.PrivilegedCodeHash, cfg.TokenTTL),
		Submissions: services.NewSubmissionService(store, log.WithField("component", "submission"), onClamp),
		Dashboards:  dash,
		Exports:     services.NewExportService(dash),
	}

	switch {
	case cfg.InsightProvider == config.InsightOpenAI && cfg.OpenAIKey != "":
		svc.Insights = services.NewInsightService(store, edge.NewOpenAIInsights(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, observeEdge))
	case cfg.InsightProvider == config.InsightEdge && cfg.InsightURL != "":
		svc.Insights = services.NewInsightService(store, edge.NewInsightClient(cfg.InsightURL, edgeOpts, edgeLog))
	default:
		log.WithField("provider", cfg.InsightProvider).Warn("insight generation not configured")
	}
	if cfg.SpeechURL != "" {
		svc.Speech = services.NewSpeechService(edge.NewSpeechClient(cfg.SpeechURL, edgeOpts, edgeLog))
	}
	return svc
}

func buildHandler(cfg *config.Config, log *logger.Logger, metrics *telemetry.Metrics, store db.Store) http.Handler {
	auth := middleware.NewAuth(cfg.JWTSecret)
	mux := http.NewServeMux()
	api.NewRouter(buildServices(cfg, log, metrics, store, auth), auth, metrics, log).Register(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "GrowPoint API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"backend":    cfg.DBBackend,
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"version":    version,
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Frontend: static files for the fullstack image, otherwise an optional
	// proxy to the dev server.
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	} else if cfg.DevFrontendURL != "" {
		if u, err := url.Parse(cfg.DevFrontendURL); err == nil {
			rp := httputil.NewSingleHostReverseProxy(u)
			rp.ModifyResponse = func(res *http.Response) error {
				res.Header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
				res.Header.Set("Pragma", "no-cache")
				res.Header.Set("Expires", "0")
				return nil
			}
			mux.Handle("/", rp)
		} else {
			log.WithError(err).WithField("url", cfg.DevFrontendURL).Warn("invalid dev-frontend-url")
		}
	}

	var h http.Handler = middleware.RequestLogger(log, metrics)(mux)
	h = middleware.LocaleMiddleware(h)
	h = middleware.NoStore(h)
	h = middleware.SecureHeaders(h)
	return middleware.CORS(cfg.CORSOrigins)(h)
}
