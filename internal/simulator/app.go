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
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/components/events"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/monitoring"
)

/* Experiment Controller code */

type ExperimentStatus string

const (
	CONFIGURED ExperimentStatus = "CONFIGURED"
	STARTED    ExperimentStatus = "STARTED"
	STOPPED    ExperimentStatus = "STOPPED"
	ERROR      ExperimentStatus = "ERROR"
)

type ExperimentStatusResponse struct {
	Status       ExperimentStatus `json:"status"`
	ExperimentId string           `json:"experimentId,omitempty"`
}

type TrafficSourceApp struct {
	currentInstance *ExperimentInstance
	status          ExperimentStatus
	instanceMutex   sync.RWMutex

	config *AppConfig
	hub    *events.Hub
	clock  clock.WithTicker
	logger logr.Logger
	// parent of every experiment run
	ctx context.Context

	newPublisher func(experimentId string) (events.Publisher, error)
}

type AppOption func(*TrafficSourceApp)

func WithClock(c clock.WithTicker) AppOption {
	return func(app *TrafficSourceApp) {
		app.clock = c
	}
}

// WithPublisher replaces the gitc publisher of new experiments.
func WithPublisher(newPublisher func(experimentId string) (events.Publisher, error)) AppOption {
	return func(app *TrafficSourceApp) {
		app.newPublisher = newPublisher
	}
}

func NewTrafficSourceApp(config *AppConfig, logger logr.Logger, opts ...AppOption) *TrafficSourceApp {
	app := &TrafficSourceApp{
		currentInstance: nil,
		status:          STOPPED,
		instanceMutex:   sync.RWMutex{},
		config:          config,
		hub:             events.NewHub(logger),
		clock:           clock.RealClock{},
		logger:          logger,
		ctx:             context.Background(),
	}
	app.newPublisher = func(experimentId string) (events.Publisher, error) {
		return events.NewGitcPublisher(experimentId, app.logger)
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

func (app *TrafficSourceApp) InitNewExperiment(config *ExperimentConfig) error {
	if config == nil {
		return fmt.Errorf("no configuration provided, could not initialize")
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid experiment configuration: %w", err)
	}

	app.instanceMutex.Lock()
	defer app.instanceMutex.Unlock()

	if app.currentInstance != nil {
		return fmt.Errorf("could not initialize the experiment instance, please stop or reset the current instance")
	}

	id := uuid.NewString()
	publisher, err := app.newPublisher(id)
	if err != nil {
		return fmt.Errorf("could not initialize the experiment instance: %w", err)
	}

	app.currentInstance = NewExperimentInstance(id, config, app.config.ReportInterval, publisher, app.clock, app.logger)
	app.status = CONFIGURED
	app.logger.V(logging.DEFAULT).Info("Experiment configured", "experimentId", id, "sources", len(config.Sources))
	return nil
}

// ResetExperiment drops a stopped or configured instance.
func (app *TrafficSourceApp) ResetExperiment() error {
	app.instanceMutex.Lock()
	defer app.instanceMutex.Unlock()

	if app.status == STARTED {
		return fmt.Errorf("please stop the experiment before resetting it")
	}
	app.currentInstance = nil
	app.status = STOPPED
	return nil
}

func (app *TrafficSourceApp) StartExperiment() error {
	app.instanceMutex.Lock()
	defer app.instanceMutex.Unlock()

	if app.currentInstance == nil {
		return fmt.Errorf("please configure the experiment via /configure")
	}

	// If already started, it's a restart - stop first
	if app.status == STARTED {
		if err := app.currentInstance.Stop(); err != nil {
			app.logger.Error(err, "Error stopping instance for restart")
		}
	}

	if err := app.currentInstance.Start(app.ctx); err != nil {
		app.status = ERROR
		return fmt.Errorf("could not start the experiment instance: %w", err)
	}

	app.status = STARTED
	return nil
}

func (app *TrafficSourceApp) GetCurrentExperimentStatus() ExperimentStatusResponse {
	app.instanceMutex.RLock()
	defer app.instanceMutex.RUnlock()

	resp := ExperimentStatusResponse{Status: app.status}
	if app.currentInstance != nil {
		resp.ExperimentId = app.currentInstance.Id
	}
	return resp
}

func (app *TrafficSourceApp) StopExperiment() error {
	app.instanceMutex.Lock()
	defer app.instanceMutex.Unlock()

	if app.status != STARTED || app.currentInstance == nil {
		return fmt.Errorf("no running instance")
	}

	// keep the instance so it can be restarted
	app.status = STOPPED
	if err := app.currentInstance.Stop(); err != nil {
		return fmt.Errorf("experiment stopped with errors: %w", err)
	}
	return nil
}

// instance returns the current experiment, if any.
func (app *TrafficSourceApp) instance() (*ExperimentInstance, error) {
	app.instanceMutex.RLock()
	defer app.instanceMutex.RUnlock()

	if app.currentInstance == nil {
		return nil, ErrNotRunning
	}
	return app.currentInstance, nil
}

// Run serves the OAM api and the metrics until ctx is done, then stops the
// running experiment.
func (app *TrafficSourceApp) Run(ctx context.Context) error {
	app.ctx = ctx
	app.logger.V(logging.DEFAULT).Info("Running config", "config", app.config.Dumps())

	if err := app.hub.InitHub(); err != nil {
		return err
	}

	if app.config.InitOnStartup {
		app.logger.V(logging.DEFAULT).Info("Bootstraping experiment instance")
		if err := app.InitNewExperiment(app.config.Experiment); err != nil {
			return fmt.Errorf("could not initialize the experiment on startup: %w", err)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return app.serveHttp(groupCtx)
	})
	group.Go(func() error {
		return monitoring.NewMetricsServer(app.config.MetricsPort, app.logger).Run(groupCtx)
	})

	err := group.Wait()

	app.logger.V(logging.DEFAULT).Info("Terminating...")
	if app.GetCurrentExperimentStatus().Status == STARTED {
		err = multierr.Append(err, app.StopExperiment())
	}
	return err
}
