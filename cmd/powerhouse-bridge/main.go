package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/loggo"
	"github.com/prometheus/client_golang/prometheus"

	"powerhouse-bridge/api"
	"powerhouse-bridge/bluez"
	"powerhouse-bridge/config"
	"powerhouse-bridge/device"
	"powerhouse-bridge/dispatch"
	"powerhouse-bridge/metrics"
	"powerhouse-bridge/params"
	"powerhouse-bridge/publisher"
	"powerhouse-bridge/state"
	"powerhouse-bridge/util"
)

var log = loggo.GetLogger("phb.cmd")

func logLevel(level config.LogLevel) loggo.Level {
	switch level {
	case config.Trace:
		return loggo.TRACE
	case config.Debug:
		return loggo.DEBUG
	case config.Warning:
		return loggo.WARNING
	default:
		return loggo.INFO
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgFile := flag.String("config", "", "powerhouse-bridge config file")
	flag.Parse()

	cfg, err := config.NewConfig(*cfgFile)
	if err != nil {
		log.Errorf("error parsing config: %q", err)
		os.Exit(1)
	}

	logWriter, err := util.GetLoggingWriter(cfg)
	if err != nil {
		log.Errorf("fetching log writer: %q", err)
		os.Exit(1)
	}
	loggo.GetLogger("").SetLogLevel(logLevel(cfg.LogLevel))
	if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(logWriter, loggo.DefaultFormatter)); err != nil {
		log.Errorf("replacing log writer: %q", err)
		os.Exit(1)
	}

	// Without a powered adapter nothing below can work, so bail out
	// before starting any worker.
	if err := bluez.EnsurePoweredAdapter(cfg.Device.Adapter); err != nil {
		log.Errorf("checking bluetooth adapter: %q", err)
		os.Exit(1)
	}

	store := state.NewStore()

	var updates chan params.Telemetry
	if cfg.MQTT.Enabled {
		updates = make(chan params.Telemetry, 10)
	}

	worker := device.NewWorker(ctx, cfg, store, device.NewBLETransport(), updates)
	if err := worker.Start(); err != nil {
		log.Errorf("starting device worker: %q", err)
		os.Exit(1)
	}

	var pub *publisher.Worker
	if cfg.MQTT.Enabled {
		pub, err = publisher.NewWorker(ctx, cfg, updates)
		if err != nil {
			log.Errorf("creating publisher: %q", err)
			os.Exit(1)
		}
		if err := pub.Start(); err != nil {
			log.Errorf("starting publisher: %q", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(store))

	dispatcher := dispatch.NewDispatcher(worker, store)
	router := api.NewRouter(store, dispatcher, registry, cfg.StaticDir)
	apiServer := api.NewServer(cfg.ListenAddress, router)
	if err := apiServer.Start(); err != nil {
		log.Errorf("starting API server: %q", err)
		os.Exit(1)
	}

	<-ctx.Done()

	if err := apiServer.Stop(); err != nil {
		log.Errorf("stopping API server: %q", err)
	}
	if pub != nil {
		if err := pub.Stop(); err != nil {
			log.Errorf("stopping publisher: %q", err)
		}
	}
	if err := worker.Stop(); err != nil {
		log.Errorf("stopping device worker: %q", err)
	}
}
