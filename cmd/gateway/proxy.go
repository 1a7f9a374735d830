package gateway

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"knoway.dev/config"
	"knoway.dev/pkg/bootkit"
	"knoway.dev/pkg/engine"
	"knoway.dev/pkg/listener"
	"knoway.dev/pkg/listener/manager/llm"
	"knoway.dev/pkg/metrics"
	"knoway.dev/pkg/types/openai"
)

// StartGateway boots the OpenAI-compatible listener. registry is supplied
// by the caller: which concrete engines back which model names is a wiring
// concern outside the streaming core (spec §1), so main is responsible for
// populating it before calling in.
func StartGateway(_ context.Context, lifecycle bootkit.LifeCycle, listenerAddr string, registry engine.Registry, cfg *config.Config) error {
	if listenerAddr == "" {
		listenerAddr = ":8080"
	}

	mux := listener.NewMux()

	var tmpl *openai.RequestTemplate
	if cfg.ChatTemplate != nil {
		tmpl = &openai.RequestTemplate{
			Model:               cfg.ChatTemplate.Model,
			Temperature:         cfg.ChatTemplate.Temperature,
			MaxCompletionTokens: cfg.ChatTemplate.MaxCompletionTokens,
		}
	}

	var redisStore *metrics.RedisStore

	if len(cfg.RedisMetricsAddrs) > 0 {
		store, err := metrics.NewRedisStore(cfg.RedisMetricsAddrs)
		if err != nil {
			// Distributed in-flight accounting is a cross-replica nicety,
			// not load-bearing for serving requests: log and carry on with
			// the process-local Prometheus gauge only.
			slog.Error("failed to connect to redis metrics store, continuing without it", "error", err)
		} else {
			redisStore = store
		}
	}

	if err := mux.Register(llm.New(llm.Config{
		Registry:        registry,
		ChatTemplate:    tmpl,
		KeepAlive:       cfg.SSEKeepAlive,
		AccessLog:       cfg.AccessLog,
		CorrelationHead: cfg.CorrelationHead,
		RedisStore:      redisStore,
	})); err != nil {
		return err
	}

	server, err := mux.BuildServer(&http.Server{Addr: listenerAddr, ReadTimeout: time.Minute})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", listenerAddr)
	if err != nil {
		return err
	}

	lifecycle.Append(bootkit.LifeCycleHook{
		OnStart: func(ctx context.Context) error {
			slog.Info("Starting gateway ...", "addr", ln.Addr().String())

			err := server.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				return err
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("Stopping gateway ...")

			if err := mux.DrainAll(ctx); err != nil {
				slog.Error("failed to drain listeners", "error", err)
			}

			err := server.Shutdown(ctx)
			if err != nil {
				return err
			}

			if redisStore != nil {
				redisStore.Close()
			}

			slog.Info("Gateway stopped gracefully.")

			return nil
		},
	})

	return nil
}
