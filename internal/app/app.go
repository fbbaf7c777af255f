// Package app assembles the HTTP surface of the proxy: the OpenAI-compatible
// endpoints from internal/proxy plus the index and health endpoints.
package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github-models-proxy/internal/proxy"
)

// App is the composed HTTP application.
type App struct {
	Router *http.ServeMux
	Proxy  *proxy.ServerState
}

// NewApp builds the application for the given configuration and registers
// all routes.
func NewApp(cfg *proxy.Config) *App {
	a := &App{
		Router: http.NewServeMux(),
		Proxy:  proxy.NewServerState(cfg),
	}

	a.Proxy.RegisterHandlers(a.Router)
	a.Router.HandleFunc("/health", a.handleHealth)
	a.Router.HandleFunc("/", a.handleIndex)
	return a
}

// handleHealth reports liveness. It performs no upstream call, so a healthy
// response means only that the process is up and serving.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleIndex describes the service at the root path. The "/" pattern also
// catches unknown paths, which get a 404 instead.
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	cfg := a.Proxy.Service.Config()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"name":     "GitHub Models Proxy",
		"version":  proxy.Version,
		"base_url": fmt.Sprintf("http://localhost:%d/v1", cfg.Port),
		"requires": "GITHUB_TOKEN",
	})
}
