/*
Copyright 2024.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"knoway.dev/cmd/admin"
	"knoway.dev/cmd/gateway"
	"knoway.dev/config"
	"knoway.dev/pkg/bootkit"
	"knoway.dev/pkg/engine"
	"knoway.dev/pkg/engine/echo"
)

// echoModel is registered against every operation so the gateway answers
// real requests out of the box, without requiring a deployment to wire a
// concrete upstream engine first.
const echoModel = "echo"

func main() {
	var listenerAddr string
	var adminAddr string
	var configPath string

	flag.StringVar(&listenerAddr, "gateway-listener-address", ":8080", "The address the gateway listener binds to.")
	flag.StringVar(&adminAddr, "admin-listener-address", "127.0.0.1:9080", "The address the admin listener binds to.")
	flag.StringVar(&configPath, "config", "config/config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return
	}

	app := bootkit.New(bootkit.StartTimeout(time.Second * 10)) //nolint:mnd

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	// Which concrete engines back which model names is supplied by the
	// deployment, not the gateway binary: populate registry here (or swap
	// in a different engine.Registry implementation) before wiring it in.
	// The echo engine is registered unconditionally so the gateway answers
	// requests standalone; a deployment adds its real engines alongside it.
	registry := engine.NewStaticRegistry()
	registry.RegisterChatCompletions(echoModel, echo.NewChatHandle(echoModel))
	registry.RegisterCompletions(echoModel, echo.NewCompletionsHandle(echoModel))
	registry.RegisterEmbeddings(echoModel, echo.NewEmbeddingsHandle(echoModel))

	app.Add(func(ctx context.Context, lifeCycle bootkit.LifeCycle) error {
		return gateway.StartGateway(ctx, lifeCycle, listenerAddr, registry, cfg)
	})
	app.Add(func(ctx context.Context, lifeCycle bootkit.LifeCycle) error {
		return admin.NewAdminServer(ctx, cfg, adminAddr, lifeCycle)
	})

	app.Start()
}
