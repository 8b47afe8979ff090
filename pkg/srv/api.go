/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package srv

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jinr.ru/greenlab/go-dmm/pkg/config"
	deviceifc "jinr.ru/greenlab/go-dmm/pkg/device/ifc"
	"jinr.ru/greenlab/go-dmm/pkg/layers"
	"jinr.ru/greenlab/go-dmm/pkg/log"
	"jinr.ru/greenlab/go-dmm/pkg/metrics"
	"jinr.ru/greenlab/go-dmm/pkg/store"
)

const (
	DefaultReadingsLimit = 100
	shutdownTimeout      = 5 * time.Second
)

type IDResp struct {
	ID string `json:"id"`
}

type CommandResp struct {
	Command string `json:"command"`
	Confirm bool   `json:"confirm"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	meter deviceifc.Meter
	store *store.ReadingStore
}

// NewApiServer creates the API server. readings may be nil, in which case
// the history endpoints report ErrStoreDisabled.
func NewApiServer(ctx context.Context, cfg *config.Config, meter deviceifc.Meter, readings *store.ReadingStore) *ApiServer {
	log.Info("Initializing API server with address: %s", cfg.ApiAddr())
	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		meter:   meter,
		store:   readings,
	}
	s.configureRouter()
	return s
}

// Handler returns the router wrapped into recovery and access log middleware.
func (s *ApiServer) Handler() http.Handler {
	logged := handlers.CombinedLoggingHandler(log.Writer(), s.Router)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(logged)
}

// Run serves the API until the context is done.
func (s *ApiServer) Run() error {
	log.Info("Starting API server: %s", s.ApiAddr())
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.ApiAddr(),
	}
	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()
	select {
	case err := <-errChan:
		return err
	case <-s.Context.Done():
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}

func (s *ApiServer) configureRouter() {
	metrics.Register()
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/id", s.handleID()).Methods("GET")
	subRouter.HandleFunc("/reading", s.handleReading()).Methods("GET")
	subRouter.HandleFunc("/readings", s.handleInstruments()).Methods("GET")
	subRouter.HandleFunc("/readings/{id}", s.handleReadings()).Methods("GET")
	subRouter.HandleFunc("/commands", s.handleCommands()).Methods("GET")
	subRouter.HandleFunc("/command/{name}", s.handleCommand()).Methods("POST")
	s.Router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

func (s *ApiServer) handleID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.meter.ID()
		if !ok {
			http.Error(w, ErrNoIdentification{}.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, &IDResp{ID: id})
	}
}

func (s *ApiServer) handleReading() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reading, ok := s.meter.Last()
		if !ok {
			http.Error(w, ErrNoReading{}.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, reading)
	}
}

func (s *ApiServer) handleInstruments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			http.Error(w, ErrStoreDisabled{}.Error(), http.StatusServiceUnavailable)
			return
		}
		ids, err := s.store.Instruments()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, ids)
	}
}

func (s *ApiServer) handleReadings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling readings request: instrument: %s", vars["id"])
		if s.store == nil {
			http.Error(w, ErrStoreDisabled{}.Error(), http.StatusServiceUnavailable)
			return
		}

		limit := DefaultReadingsLimit
		if value := r.URL.Query().Get("limit"); value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil || parsed < 0 {
				http.Error(w, ErrInvalidLimit{Value: value}.Error(), http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		entries, err := s.store.List(vars["id"], limit)
		if err != nil {
			if errors.As(err, new(store.ErrInstrumentNotFound)) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, entries)
	}
}

func (s *ApiServer) handleCommands() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, layers.CommandNames())
	}
}

func (s *ApiServer) handleCommand() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling command request: %s", vars["name"])
		err := s.meter.Send(r.Context(), vars["name"])
		if err != nil {
			if errors.As(err, new(layers.ErrUnknownCommand)) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, &CommandResp{Command: vars["name"], Confirm: layers.NeedsConfirm(vars["name"])})
	}
}
