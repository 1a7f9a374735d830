package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"knoway.dev/config"
	"knoway.dev/pkg/bootkit"
	"knoway.dev/pkg/discovery"
	"knoway.dev/pkg/groupdata"
	"knoway.dev/pkg/listener"
)

type debugListener struct {
	discoveryClient *discovery.Client
	discoveryCfg    config.DiscoveryConfig
	groupData       *groupdata.Store
}

func NewAdminListener(cfg *config.Config) (listener.Listener, error) {
	d := &debugListener{discoveryCfg: cfg.Discovery}

	if cfg.Discovery.NATSURL != "" {
		client, err := discovery.NewClient(cfg.Discovery.NATSURL)
		if err != nil {
			return nil, err
		}

		d.discoveryClient = client
	}

	if cfg.GroupData.Path != "" {
		store := groupdata.NewStore(cfg.GroupData.Path)
		if err := store.Load(); err != nil {
			slog.Warn("failed to load group data at startup", "error", err)
		}

		d.groupData = store
	}

	return d, nil
}

func (d *debugListener) Drain(_ context.Context) error {
	if d.discoveryClient != nil {
		d.discoveryClient.Close()
	}

	return nil
}

func (d *debugListener) HasDrained() bool {
	return false
}

func (d *debugListener) services(writer http.ResponseWriter, request *http.Request) {
	if d.discoveryClient == nil {
		http.Error(writer, "service discovery not configured", http.StatusServiceUnavailable)
		return
	}

	timeout := d.discoveryCfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second //nolint:mnd
	}

	services, err := d.discoveryClient.CollectServices(request.Context(), timeout)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(services)
}

func (d *debugListener) groupDataDump(writer http.ResponseWriter, request *http.Request) {
	if d.groupData == nil {
		http.Error(writer, "group data not configured", http.StatusServiceUnavailable)
		return
	}

	if request.URL.Query().Get("reload") == "1" {
		if err := d.groupData.Load(); err != nil {
			http.Error(writer, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	doc := d.groupData.Document()
	if doc == nil {
		http.Error(writer, "group data not loaded", http.StatusServiceUnavailable)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	_, _ = writer.Write(doc)
}

func (d *debugListener) RegisterRoutes(router *mux.Router) error {
	router.HandleFunc("/debug/services", d.services)
	router.HandleFunc("/debug/groupdata", d.groupDataDump)

	return nil
}

func NewAdminServer(_ context.Context, cfg *config.Config, addr string, lifecycle bootkit.LifeCycle) error {
	m := listener.NewMux()
	if err := m.Register(NewAdminListener(cfg)); err != nil {
		return err
	}

	server, err := m.BuildServer(&http.Server{Addr: addr, ReadTimeout: time.Minute})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	lifecycle.Append(bootkit.LifeCycleHook{
		OnStart: func(ctx context.Context) error {
			slog.Info("Starting admin server ...", "addr", ln.Addr().String())

			err := server.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				return err
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("Stopping admin server ...")

			if err := m.DrainAll(ctx); err != nil {
				slog.Error("failed to drain admin listeners", "error", err)
			}

			err := server.Shutdown(ctx)
			if err != nil {
				return err
			}

			slog.Info("Admin server stopped gracefully.")

			return nil
		},
	})

	return nil
}
