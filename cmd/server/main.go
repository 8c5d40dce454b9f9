package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"reqlog/pkg/api"
	"reqlog/pkg/config"
	"reqlog/pkg/logger"
	"reqlog/pkg/storage"
	"reqlog/pkg/storage/memdb"
)

func main() {
	var (
		configPath string
		httpAddr   string
		logLevel   string
		logFile    string
		logFormat  string
	)

	flag.StringVar(&configPath, "config", "cmd/server/config.toml", "Path to TOML config file")
	flag.StringVar(&httpAddr, "http", "", "HTTP server address in the form 'host:port'.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&logFile, "logfile", "", "Request log file path.")
	flag.StringVar(&logFormat, "format", "", "Request log format: text or json.")
	flag.Parse()

	cfg, found, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[server] failed to load config file %s: %v", configPath, err)
	}
	if !found {
		log.Warnf("[server] config file %s not found, using defaults", configPath)
	}

	// Override config with flags if set
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.RequestLog.LogFilePath = logFile
	}
	if logFormat != "" {
		cfg.RequestLog.Format = logFormat
	}

	if !strings.Contains(cfg.HTTPAddr, ":") {
		log.Warn("[server] use ':' before port number, e.g. ':8080'")
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rl := logger.New(logger.Options{
		LogFilePath: cfg.RequestLog.LogFilePath,
		Format:      cfg.RequestLog.Format,
		Metrics:     logger.NewMetrics(reg),
	})
	log.Infof("[server] logging requests to %s in %s format", rl.Path(), rl.Format())

	api := api.New(cfg.ServiceName, memdb.New(storage.DefaultBooks()...), rl, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("[server] %s starting on %v", cfg.ServiceName, cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownRelease()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info("[server] HTTP server shut down gracefully")
		return nil
	})

	err = g.Wait()

	// Handlers may outlive a timed out shutdown, so close rather than wait.
	rl.Close()
	log.Info("[server] request log flushed")

	if err != nil {
		log.Errorf("[server] %v", err)
		os.Exit(1)
	}
}
