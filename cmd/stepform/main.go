// Command stepform serves the multi-step registration form as a live
// component.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gabrielmiguelok/stepform/client"
	"github.com/gabrielmiguelok/stepform/internal/config"
	"github.com/gabrielmiguelok/stepform/internal/view"
	"github.com/gabrielmiguelok/stepform/internal/website"
	"github.com/gabrielmiguelok/stepform/pkg/core"
	"github.com/gabrielmiguelok/stepform/pkg/health"
	"github.com/gabrielmiguelok/stepform/pkg/logging"
	"github.com/gabrielmiguelok/stepform/pkg/router"
	"github.com/gabrielmiguelok/stepform/pkg/security"
	"github.com/gabrielmiguelok/stepform/pkg/shutdown"
	"github.com/gabrielmiguelok/stepform/pkg/stepform"
	"github.com/gabrielmiguelok/stepform/pkg/transport"
)

var version = "0.1.0"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "stepform: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stepform", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	showVersion := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println("stepform", version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg)
	logging.SetDefault(logger)

	app := newApp(cfg, logger)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       cfg.ReadTimeout,
	}

	sd := shutdown.NewHandler(&shutdown.Config{
		Timeout: cfg.ShutdownTimeout,
		Logger:  logger,
	})
	sd.Register("http", shutdown.PriorityHTTP, srv.Shutdown)
	sd.Register("live", shutdown.PriorityLive, app.router.Shutdown)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			logging.String("address", cfg.Address),
			logging.String("version", version),
			logging.String("codec", cfg.Codec),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- sd.Wait(ctx)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			sd.Shutdown()
			return fmt.Errorf("serve: %w", err)
		}
		return <-waitErr
	case err := <-waitErr:
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("stopped")
		return nil
	}
}

func newLogger(cfg *config.Config) *logging.SlogLogger {
	opts := []logging.LoggerOption{logging.WithLevel(logging.ParseLevel(cfg.LogLevel))}
	if cfg.LogJSON {
		opts = append(opts, logging.WithJSON())
	}
	if cfg.Debug {
		opts = append(opts, logging.WithSource())
	}
	return logging.NewSlogLogger(opts...)
}

type app struct {
	router *router.Router
	health *health.Checker
}

// newApp wires the router, the live form route and the operational
// endpoints.
func newApp(cfg *config.Config, logger logging.Logger) *app {
	r := router.New(
		router.WithLogger(logger),
		router.WithCodec(cfg.Codec),
		router.WithMaxSessions(cfg.MaxSessions),
		router.WithMaxConnectionsPerIP(cfg.MaxConnsPerIP),
		router.WithEventRate(cfg.EventRate, cfg.EventBurst),
		router.WithTransportConfig(&transport.Config{
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			PingInterval:      cfg.PingInterval,
			MaxMessageSize:    transport.DefaultConfig().MaxMessageSize,
			SendBufferSize:    transport.DefaultConfig().SendBufferSize,
			ReceiveBufferSize: transport.DefaultConfig().ReceiveBufferSize,
		}),
		router.WithWebSocketConfig(&transport.WebSocketConfig{
			AllowedOrigins: cfg.AllowedOrigins,
		}),
	)

	r.SetErrorHandler(renderError)

	r.Use(router.RequestID())
	r.Use(router.Recovery(logger))
	r.Use(router.SecureHeaders())
	r.Use(logging.RequestLogger(logger))

	hc := health.NewChecker(version)
	hc.AddCheck("sessions", health.CapacityCheck("sessions", r.Sessions().Count, cfg.MaxSessions), time.Second)
	hc.AddCriticalCheck("draining", health.DrainingCheck(r.Sockets().IsShutdown), time.Second)

	r.Handle("/health", hc.HealthHandler())
	r.Handle("/livez", hc.LivenessHandler())
	r.Handle("/readyz", hc.ReadinessHandler())
	r.Handle("/metrics", r.Metrics().Handler())
	r.Handle("/_live/", http.StripPrefix("/_live/", client.Handler()))

	page := website.DefaultPageConfig()
	page.Title = cfg.Title
	page.Description = security.StripTags(cfg.Subtitle)
	page.Colors = cfg.Colors

	r.Live("/{$}", view.Factory(view.Options{
		Breakpoint: cfg.MobileBreakpoint,
		Title:      cfg.Title,
		Subtitle:   cfg.Subtitle,
		OnSubmit:   submitLogger(logger),
	}), router.WithLayout(view.Page(page)))

	return &app{router: r, health: hc}
}

// renderError logs a failed page render and answers with a bare status so
// component errors never reach the browser.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	logging.L(r.Context()).Error("render failed", logging.Err(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// submitLogger records acknowledged submissions. The password is never
// logged.
func submitLogger(logger logging.Logger) view.SubmitHook {
	return func(ctx context.Context, ack stepform.Ack) {
		logger.Info("form submitted",
			logging.String("request_id", core.SessionFromContext(ctx).GetString(core.SessionRequestID)),
			logging.String("name", ack.Data.Name),
			logging.String("email", ack.Data.Email),
		)
	}
}
