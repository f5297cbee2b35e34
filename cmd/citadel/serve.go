package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/citadel-web/citadel/internal/config"
	"github.com/citadel-web/citadel/pkg/handler"
	"github.com/citadel-web/citadel/pkg/listener"
	"github.com/citadel-web/citadel/pkg/protocol"
	"github.com/citadel-web/citadel/pkg/server"
)

// serveCmd runs the built-in echo service. It exists to smoke-test a
// deployment: every worker, the listener, the protocol driver, and the
// error model are exercised without any application code.
func serveCmd() *cobra.Command {
	var (
		configPath  string
		addr        string
		workers     int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built-in echo handler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Address = addr
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Address = metricsAddr
			}

			level, err := cfg.SlogLevel()
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))

			return serve(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to citadel.yaml")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "bind address")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (default: logical CPUs)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Prometheus endpoint address")

	return cmd
}

// serve binds the listener, starts the workers, and blocks until a
// shutdown signal closes the listener out from under them.
func serve(cfg *config.Config) error {
	resolved, err := net.ResolveTCPAddr("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", cfg.Address, err)
	}

	ln, err := listener.New(resolved)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", resolved, err)
	}

	var opts []server.Option
	if cfg.Metrics.Enabled {
		m := server.NewMetrics()
		opts = append(opts, server.WithMetrics(m))
		go serveMetrics(cfg.Metrics.Address)
	}

	scfg, err := server.NewConfig(resolved, cfg.Workers, echoHandler(), opts...)
	if err != nil {
		return err
	}
	driver := protocol.NewHTTPDriver()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := server.NewWorker(id, scfg, ln, driver)
			if err := w.Run(); err != nil {
				scfg.Logger().Error("worker exited", "worker", id, "error", err)
			}
		}(i)
	}
	slog.Info("citadel serving", "addr", cfg.Address, "workers", cfg.Workers)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ln.Close()
	wg.Wait()
	return nil
}

// serveMetrics exposes the Prometheus endpoint on its own socket.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics endpoint failed", "addr", addr, "error", err)
	}
}

// echoHandler reports the request back to the caller. /fail demonstrates
// the error model: the cause stays in the log, the client sees a generic
// 503 body.
func echoHandler() handler.NewHandler {
	return handler.Static(handler.HandlerFunc(func(req *handler.Request) (*handler.Response, error) {
		if req.HTTP.URL.Path == "/fail" {
			err := fmt.Errorf("synthetic failure for %s", req.HTTP.URL.Path)
			return nil, handler.LiftError(err).WithStatus(http.StatusServiceUnavailable)
		}

		body := fmt.Sprintf("%s %s (request %s)\n", req.HTTP.Method, req.HTTP.URL.Path, req.ID)
		return handler.NewResponseWith(http.StatusOK, "text/plain; charset=utf-8", []byte(body)), nil
	}))
}
