// Package httpapi is the ambient HTTP/JSON binding of spec.md §6's
// contract: decode request -> call internal/core -> map the returned
// error's Kind to a status code -> encode a {success, ...} envelope. Not
// part of the core; internal/core never imports this package.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tkogut/scalebridge/internal/core"
)

// NewRouter builds the full mux for a core.Service, matching the §6
// contract table exactly.
func NewRouter(svc *core.Service) *mux.Router {
	h := &handler{svc: svc}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/devices", h.listDevices).Methods(http.MethodGet)
	r.HandleFunc("/scalecmd", h.scaleCmd).Methods(http.MethodPost)
	r.HandleFunc("/api/config", h.listConfigs).Methods(http.MethodGet)
	r.HandleFunc("/api/config/save", h.saveConfig).Methods(http.MethodPost)
	r.HandleFunc("/api/config/{id}", h.deleteConfig).Methods(http.MethodDelete)
	r.HandleFunc("/api/shutdown", h.shutdown).Methods(http.MethodPost)
	return r
}

// NewServer wraps NewRouter in an *http.Server, following the teacher's
// literal construction pattern (explicit timeouts, keep-alives off).
func NewServer(addr string, svc *core.Service) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(svc),
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 85 * time.Second,
	}
	srv.SetKeepAlivesEnabled(false)
	return srv
}

type handler struct {
	svc *core.Service
}
