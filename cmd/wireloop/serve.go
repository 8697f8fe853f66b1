// Copyright (c) 2023 The Gnet Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/pkg/logging"
)

func serveCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [service...]",
		Short: "Start services",
		Long: `Start the given services, by key or problem id, or all of them when
none is given. Every event of every service is logged until the
process receives SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configFile)
			if err != nil {
				return err
			}
			selected, err := selectServices(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, selected)
		},
	}
	return cmd
}

func newLogger(cfg *Config) (logging.Logger, logging.Flusher, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("log_level: %w", err)
	}
	if cfg.LogFile != "" {
		return logging.CreateLoggerAsLocalFile(cfg.LogFile, level)
	}
	logger, flush := logging.CreateConsoleLogger(level)
	return logger, flush, nil
}

// serve runs the selected services until ctx is done.
func serve(ctx context.Context, cfg *Config, selected []service) error {
	logger, flush, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = flush() }()

	opts := []wireloop.Option{
		wireloop.WithLogger(logger),
		wireloop.WithMaxUnitSize(cfg.MaxUnitSize),
		wireloop.WithEventBufferCap(cfg.EventBufferCap),
		wireloop.WithWriteTimeout(cfg.WriteTimeout),
	}

	var reg *prometheus.Registry
	if cfg.MetricsAddress != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, wireloop.WithMetrics(reg))
	}

	built := make([]wireloop.Service, len(selected))
	for i, svc := range selected {
		if built[i], err = svc.build(cfg, opts); err != nil {
			return fmt.Errorf("%s: %w", svc.key, err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	if reg != nil {
		g.Go(func() error { return serveMetrics(ctx, cfg.MetricsAddress, reg, logger) })
	}
	for i, srv := range built {
		events, err := srv.Start(ctx, cfg.Address, cfg.Port(selected[i].key))
		if err != nil {
			// The services started so far stop with ctx.
			cancel()
			_ = g.Wait()
			return fmt.Errorf("%s: %w", selected[i].key, err)
		}
		g.Go(func() error { return logEvents(logger, events) })
	}
	return g.Wait()
}

// logEvents logs every event of a service until its stream is complete.
func logEvents(logger logging.Logger, events <-chan wireloop.Event) error {
	var last wireloop.Event
	for e := range events {
		last = e
		meta := e.Metadata()
		switch {
		case meta.Type == wireloop.EventDataReceived, meta.Type == wireloop.EventDataTransmitted:
			logger.Debugf("[%s] %s: %s", meta.Source, meta.Type, meta.Message)
		case meta.Success:
			logger.Infof("[%s] %s: %s", meta.Source, meta.Type, meta.Message)
		default:
			logger.Warnf("[%s] %s: %s", meta.Source, meta.Type, meta.Message)
		}
	}
	if t, ok := last.(wireloop.ServerTerminated); ok {
		return fmt.Errorf("%s terminated: %w", t.Source, t.Err)
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Infof("serving metrics on %s/metrics", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics endpoint: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
