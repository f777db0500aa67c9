// servermanagerd runs a standalone server manager: it listens for management
// exchanges from a domain controller, applies them to its in-memory models,
// and optionally registers itself in etcd so controllers can discover it.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"domain-mgmt/codec"
	"domain-mgmt/config"
	"domain-mgmt/middleware"
	"domain-mgmt/model"
	"domain-mgmt/registry"
	"domain-mgmt/server"
)

func main() {
	configPath := flag.String("config", ".", "directory containing servermanager.yaml")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	codecType := codec.CodecTypeCBOR
	if cfg.Codec == "json" {
		codecType = codec.CodecTypeJSON
	}

	store := model.NewStore(cfg.HostName)
	svr := server.NewServer(store, codecType, logger)
	svr.RegistryTTL = cfg.RegistryTTLSeconds
	svr.Use(middleware.LoggingMiddleware(logger))
	svr.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	svr.Use(middleware.TimeoutMiddleware(cfg.ExchangeTimeout()))

	var reg registry.Registry
	if len(cfg.EtcdEndpoints) > 0 {
		etcdReg, err := registry.NewEtcdRegistry(cfg.EtcdEndpoints)
		if err != nil {
			logger.Error("failed to connect to etcd", slog.Any("error", err))
			os.Exit(1)
		}
		defer etcdReg.Close()
		reg = etcdReg
	}

	advertise := cfg.AdvertiseAddress
	if advertise == "" {
		advertise = cfg.ListenAddress
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", slog.String("signal", sig.String()))
		if err := svr.Shutdown(cfg.ShutdownTimeout()); err != nil {
			logger.Error("shutdown incomplete", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	if err := svr.Serve("tcp", cfg.ListenAddress, advertise, reg); err != nil {
		logger.Error("server manager failed", slog.Any("error", err))
		os.Exit(1)
	}
}
