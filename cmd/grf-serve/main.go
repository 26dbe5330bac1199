package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grf-analyzer/acquire"
	"grf-analyzer/config"
	"grf-analyzer/obs"
	"grf-analyzer/server"
	"grf-analyzer/storage"
)

var flagConfig = flag.String("config", "", "Path to YAML config (defaults apply when omitted)")

func main() {
	flag.Parse()

	cfg := config.Default()
	if *flagConfig != "" {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			log.Fatal("load config", "err", err)
		}
		cfg = loaded
	}

	log.SetReportTimestamp(true)
	switch cfg.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal("open session store", "path", cfg.Storage.DBPath, "err", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	runner := &acquire.Runner{Store: store, Metrics: obs.New(reg)}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error("metrics listener", "err", err)
			}
		}()
	}

	mux := http.NewServeMux()
	server.New(cfg, runner).Register(mux)

	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     mux,
		ReadTimeout: 10 * time.Minute,
		// Sessions stream for minutes; the websocket takes over the
		// connection, so these bound only the HTTP phase.
		WriteTimeout: 10 * time.Minute,
	}

	log.Info("listening for plate sessions", "addr", cfg.ListenAddr, "db", cfg.Storage.DBPath)
	if err := srv.ListenAndServe(); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}
