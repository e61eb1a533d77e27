// Copyright 2025 EURECOM
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/source"
)

const apiPrefix = "/traffic-source/v1"

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "could not encode response", http.StatusInternalServerError)
	}
}

// httpStatus maps experiment errors to response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrNotRunning):
		return http.StatusNotFound
	case errors.Is(err, source.ErrClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (app *TrafficSourceApp) handleInitExperiment(w http.ResponseWriter, r *http.Request) {
	config := &ExperimentConfig{}

	if app.config.Experiment != nil {
		// avoid api config to override the file one
		config = app.config.Experiment
	} else {
		if r.Body == nil || r.ContentLength == 0 {
			http.Error(w, "Missing request body", http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(config); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	if err := app.InitNewExperiment(config); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJson(w, http.StatusOK, app.GetCurrentExperimentStatus())
}

func (app *TrafficSourceApp) handleStartExperiment(w http.ResponseWriter, r *http.Request) {
	if err := app.StartExperiment(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJson(w, http.StatusOK, app.GetCurrentExperimentStatus())
}

func (app *TrafficSourceApp) handleStatusExperiment(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, app.GetCurrentExperimentStatus())
}

func (app *TrafficSourceApp) handleStopExperiment(w http.ResponseWriter, r *http.Request) {
	if err := app.StopExperiment(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJson(w, http.StatusOK, app.GetCurrentExperimentStatus())
}

func (app *TrafficSourceApp) handleResetExperiment(w http.ResponseWriter, r *http.Request) {
	if err := app.ResetExperiment(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJson(w, http.StatusOK, app.GetCurrentExperimentStatus())
}

func (app *TrafficSourceApp) handleListSources(w http.ResponseWriter, r *http.Request) {
	instance, err := app.instance()
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	writeJson(w, http.StatusOK, instance.SourcesStatus())
}

func (app *TrafficSourceApp) handleGetSource(w http.ResponseWriter, r *http.Request) {
	instance, err := app.instance()
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	status, err := instance.SourceStatus(mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	writeJson(w, http.StatusOK, status)
}

func (app *TrafficSourceApp) handleSignal(w http.ResponseWriter, r *http.Request) {
	signal := models.AdaptSignal{}
	if err := json.NewDecoder(r.Body).Decode(&signal); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := signal.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	instance, err := app.instance()
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	if err := instance.Signal(mux.Vars(r)["name"], signal); err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (app *TrafficSourceApp) handleResetProbe(w http.ResponseWriter, r *http.Request) {
	instance, err := app.instance()
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	if err := instance.ResetProbe(mux.Vars(r)["name"]); err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Router builds the OAM, source control and subscription api.
func (app *TrafficSourceApp) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc(apiPrefix+"/configure", app.handleInitExperiment).Methods(http.MethodPost)
	router.HandleFunc(apiPrefix+"/start", app.handleStartExperiment).Methods(http.MethodPost)
	router.HandleFunc(apiPrefix+"/status", app.handleStatusExperiment).Methods(http.MethodGet)
	router.HandleFunc(apiPrefix+"/stop", app.handleStopExperiment).Methods(http.MethodPost)
	router.HandleFunc(apiPrefix+"/reset", app.handleResetExperiment).Methods(http.MethodPost)

	router.HandleFunc(apiPrefix+"/sources", app.handleListSources).Methods(http.MethodGet)
	router.HandleFunc(apiPrefix+"/sources/{name}", app.handleGetSource).Methods(http.MethodGet)
	router.HandleFunc(apiPrefix+"/sources/{name}/signals", app.handleSignal).Methods(http.MethodPost)
	router.HandleFunc(apiPrefix+"/sources/{name}/probe/reset", app.handleResetProbe).Methods(http.MethodPost)

	// register event hub subscription api
	app.hub.RegisterNorthboundAPIs(router)
	return router
}

// serveHttp serves the api until ctx is done.
func (app *TrafficSourceApp) serveHttp(ctx context.Context) error {
	var handler http.Handler = app.Router()
	if app.config.UseH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.OamPort),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.V(logging.DEFAULT).Info("Serving experiment api", "addr", server.Addr, "h2c", app.config.UseH2C)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			// unexpected error. port in use?
			return fmt.Errorf("could not start experiment api server: %w", err)
		}
		return nil
	case <-ctx.Done():
		if err := server.Close(); err != nil {
			app.logger.Error(err, "Could not stop experiment api server")
		}
		return nil
	}
}
