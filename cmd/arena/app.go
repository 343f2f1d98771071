package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/console/prompt"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"okinoko-arena/config"
	"okinoko-arena/contract"
	"okinoko-arena/game"
	"okinoko-arena/sdk"
)

// app holds everything a command needs once the session is running.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	client  *ethclient.Client
	session *game.Session
	metrics *http.Server

	stop context.CancelFunc
	done chan struct{}
}

func newLogger(c config.Log) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	if c.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// start loads configuration, dials the node and runs a session loop.
// The caller must call close.
func start(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}

	var provider sdk.Provider
	if ks, err := sdk.NewKeystoreProvider(cfg.KeystoreDir, client, prompt.Stdin, log); err != nil {
		log.Warn("no wallet available", zap.Error(err))
	} else {
		if cfg.Passphrase != "" {
			if err := ks.Authorize(cfg.Passphrase); err != nil {
				log.Warn("configured passphrase rejected", zap.Error(err))
			}
		}
		provider = ks
	}

	reg := prometheus.NewRegistry()
	a := &app{
		cfg:    cfg,
		log:    log,
		client: client,
		done:   make(chan struct{}),
	}
	a.session = game.NewSession(game.Options{
		Logger:     log,
		Binder:     game.NewAccountBinder(provider, log),
		Bind:       a.binder(provider),
		Metrics:    game.NewMetrics(reg),
		ToastDelay: cfg.ToastDelay,
	})
	if cfg.MetricsAddr != "" {
		a.serveMetrics(reg)
	}

	loopCtx, stop := context.WithCancel(ctx)
	a.stop = stop
	go func() {
		defer close(a.done)
		if err := a.session.Run(loopCtx); err != nil {
			log.Error("session loop", zap.Error(err))
		}
	}()
	return a, nil
}

func (a *app) binder(provider sdk.Provider) game.BindFunc {
	return func(ctx context.Context, account sdk.Account) (contract.Handle, error) {
		if provider == nil {
			return nil, game.ErrProviderMissing
		}
		chainID, err := provider.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		opts, err := provider.Transactor(ctx, account.Address(), chainID)
		if err != nil {
			return nil, err
		}
		return contract.NewBinding(a.cfg.Contract(), a.client, opts)
	}
}

func (a *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metrics = &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server", zap.Error(err))
		}
	}()
	a.log.Info("serving metrics", zap.String("addr", a.cfg.MetricsAddr))
}

func (a *app) close() {
	a.stop()
	<-a.done
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.metrics.Shutdown(ctx)
	}
	a.client.Close()
	_ = a.log.Sync()
}
