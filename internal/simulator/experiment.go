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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/components/events"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/controller"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/monitoring"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/source"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/trafficgen"
)

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrNotRunning     = errors.New("experiment is not running")
	ErrRunning        = errors.New("experiment is already running")
)

/* Experiment Instance Code */

// SourceInstance is one running traffic source and its consumer side.
type SourceInstance struct {
	Id      string
	Name    string
	Profile string

	source    *source.Source
	autopilot *controller.Autopilot

	statsMutex sync.Mutex
	stats      *models.TrafficStats
	lastReport *models.TrafficStatsReport

	// supervisor only
	probeReported bool
}

// SourceStatus is the externally visible state of a source.
type SourceStatus struct {
	Id           string                     `json:"id"`
	Name         string                     `json:"name"`
	Profile      string                     `json:"profile"`
	Running      bool                       `json:"running"`
	TickPeriodMs int64                      `json:"tickPeriodMs"`
	BytesEmitted uint64                     `json:"bytesEmitted"`
	ProbeDone    bool                       `json:"probeDone"`
	Autopilot    bool                       `json:"autopilot"`
	Error        string                     `json:"error,omitempty"`
	Stats        *models.TrafficStats       `json:"stats,omitempty"`
	LastReport   *models.TrafficStatsReport `json:"lastReport,omitempty"`
}

type ExperimentInstance struct {
	Id string

	config         *ExperimentConfig
	reportInterval time.Duration
	publisher      events.Publisher
	clock          clock.WithTicker
	logger         logr.Logger

	sourcesMutex sync.RWMutex
	sources      map[string]*SourceInstance
	// configuration order
	names []string

	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewExperimentInstance(id string, config *ExperimentConfig, reportInterval time.Duration, publisher events.Publisher, clk clock.WithTicker, logger logr.Logger) *ExperimentInstance {
	return &ExperimentInstance{
		Id:             id,
		config:         config,
		reportInterval: reportInterval,
		publisher:      publisher,
		clock:          clk,
		logger:         logger.WithValues("experimentId", id),
		sources:        make(map[string]*SourceInstance),
	}
}

// Start spawns every configured source with a fresh identity. The sources
// stop when ctx is done or on Stop.
func (e *ExperimentInstance) Start(ctx context.Context) error {
	e.sourcesMutex.Lock()
	defer e.sourcesMutex.Unlock()

	if e.cancel != nil {
		return ErrRunning
	}

	policies := make([]source.Policy, 0, len(e.config.Sources))
	for _, cfg := range e.config.Sources {
		policy, err := trafficgen.NewPolicy(cfg)
		if err != nil {
			return fmt.Errorf("could not start experiment %s: %w", e.Id, err)
		}
		policies = append(policies, policy)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	e.cancel, e.group = cancel, group
	e.sources = make(map[string]*SourceInstance, len(policies))
	e.names = e.names[:0]

	e.logger.V(logging.DEFAULT).Info("Starting experiment", "sources", len(policies))
	for i, cfg := range e.config.Sources {
		si := &SourceInstance{
			Id:      uuid.NewString(),
			Name:    cfg.Name,
			Profile: cfg.Profile,
			stats:   models.NewTrafficStats(cfg.Name, e.clock.Now()),
		}
		logger := e.logger.WithValues("source", cfg.Name, "sourceId", si.Id)
		si.source = source.Spawn(runCtx, policies[i], source.WithClock(e.clock), source.WithLogger(logger))

		if e.config.Autopilot.Enabled {
			ap := e.config.Autopilot
			si.autopilot = controller.New(cfg.Name, si.source.Control(), si.source.Telemetry(), controller.Config{
				StepInterval: ap.StepInterval,
				ProbeKbps:    ap.ProbeKbps,
				Seed:         ap.Seed + uint64(i),
			}, e.clock, logger)
			group.Go(func() error {
				return si.autopilot.Run(groupCtx)
			})
		}

		group.Go(func() error {
			e.sink(groupCtx, si)
			return nil
		})

		e.sources[cfg.Name] = si
		e.names = append(e.names, cfg.Name)
		monitoring.SourcesTotal.WithLabelValues(e.Id, "running").Inc()
	}

	sources := e.orderedSources()
	group.Go(func() error {
		e.supervise(groupCtx, sources)
		return nil
	})
	return nil
}

// Stop tears down every source and returns the errors that had aborted any
// of them.
func (e *ExperimentInstance) Stop() error {
	e.sourcesMutex.Lock()
	defer e.sourcesMutex.Unlock()

	if e.cancel == nil {
		return ErrNotRunning
	}

	e.cancel()
	errs := e.group.Wait()
	for _, si := range e.orderedSources() {
		<-si.source.Done()
		if err := si.source.Err(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("source %s: %w", si.Name, err))
		}
	}
	e.cancel, e.group = nil, nil

	e.logger.V(logging.DEFAULT).Info("Experiment stopped")
	return errs
}

func (e *ExperimentInstance) Running() bool {
	e.sourcesMutex.RLock()
	defer e.sourcesMutex.RUnlock()
	return e.cancel != nil
}

// Signal delivers an adapt signal to the named source.
func (e *ExperimentInstance) Signal(name string, signal models.AdaptSignal) error {
	si, err := e.lookup(name)
	if err != nil {
		return err
	}
	if err := si.source.Control().Send(signal); err != nil {
		return err
	}
	monitoring.SignalsTotal.WithLabelValues(e.Id, name, string(signal.Kind)).Inc()
	e.logger.V(logging.VERBOSE).Info("Signal delivered", "source", name, "signal", signal.String())
	return nil
}

// ResetProbe clears the probe completion flag of the named source.
func (e *ExperimentInstance) ResetProbe(name string) error {
	si, err := e.lookup(name)
	if err != nil {
		return err
	}
	si.source.Telemetry().ResetProbeDone()
	return nil
}

func (e *ExperimentInstance) SourceStatus(name string) (*SourceStatus, error) {
	si, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	return si.status(), nil
}

func (e *ExperimentInstance) SourcesStatus() []*SourceStatus {
	e.sourcesMutex.RLock()
	defer e.sourcesMutex.RUnlock()

	statuses := make([]*SourceStatus, 0, len(e.names))
	for _, si := range e.orderedSources() {
		statuses = append(statuses, si.status())
	}
	return statuses
}

func (e *ExperimentInstance) lookup(name string) (*SourceInstance, error) {
	e.sourcesMutex.RLock()
	defer e.sourcesMutex.RUnlock()

	si, ok := e.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	return si, nil
}

// orderedSources must be called with sourcesMutex held.
func (e *ExperimentInstance) orderedSources() []*SourceInstance {
	sources := make([]*SourceInstance, 0, len(e.names))
	for _, name := range e.names {
		sources = append(sources, e.sources[name])
	}
	return sources
}

// sink consumes the data channel of a source until the source terminates.
func (e *ExperimentInstance) sink(ctx context.Context, si *SourceInstance) {
	for {
		d, err := si.source.Data().Recv(ctx)
		if err != nil {
			break
		}

		kind := monitoring.KindData
		if d.IsProbe() {
			kind = monitoring.KindProbe
		} else {
			monitoring.CurrentLevel.WithLabelValues(e.Id, si.Name).Set(float64(d.Level))
		}
		monitoring.UnitsTotal.WithLabelValues(e.Id, si.Name, kind).Inc()
		monitoring.BytesTotal.WithLabelValues(e.Id, si.Name, kind).Add(float64(d.Len()))

		si.statsMutex.Lock()
		si.stats.NewUnit(d, e.clock.Now())
		si.statsMutex.Unlock()
	}

	<-si.source.Done()
	monitoring.SourcesTotal.WithLabelValues(e.Id, "running").Dec()

	reason := "stopped"
	if err := si.source.Err(); err != nil {
		reason = err.Error()
		monitoring.SourcesTotal.WithLabelValues(e.Id, "failed").Inc()
	}
	e.publish(&models.SourceToHubMsg{
		EventType:    models.SourceEventTerminated,
		TimeStamp:    e.clock.Now(),
		ExperimentId: e.Id,
		SourceId:     si.Id,
		SourceName:   si.Name,
		Reason:       reason,
	})
}

// supervise publishes probe completions and periodic traffic reports.
func (e *ExperimentInstance) supervise(ctx context.Context, sources []*SourceInstance) {
	ticker := e.clock.NewTicker(e.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			for _, si := range sources {
				e.report(si)
			}
		}
	}
}

func (e *ExperimentInstance) report(si *SourceInstance) {
	now := e.clock.Now()
	telemetry := si.source.Telemetry()
	bytesEmitted, probeDone := telemetry.BytesEmitted(), telemetry.ProbeDone()

	monitoring.BytesGenerated.WithLabelValues(e.Id, si.Name).Set(float64(bytesEmitted))

	if probeDone && !si.probeReported {
		monitoring.ProbeCompletions.WithLabelValues(e.Id, si.Name).Inc()
		e.publish(&models.SourceToHubMsg{
			EventType:    models.SourceEventProbeComplete,
			TimeStamp:    now,
			ExperimentId: e.Id,
			SourceId:     si.Id,
			SourceName:   si.Name,
		})
	}
	si.probeReported = probeDone

	si.statsMutex.Lock()
	report := si.stats.GenerateReport(now)
	report.ProbeDone = probeDone
	report.BytesGenerated = bytesEmitted
	si.lastReport = report
	si.statsMutex.Unlock()

	e.logger.V(logging.DEBUG).Info("Traffic report", "source", si.Name, "report", report.Dumps())
	e.publish(&models.SourceToHubMsg{
		EventType:    models.SourceEventTrafficReport,
		TimeStamp:    now,
		ExperimentId: e.Id,
		SourceId:     si.Id,
		SourceName:   si.Name,
		Report:       report,
	})
}

func (e *ExperimentInstance) publish(msg *models.SourceToHubMsg) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(msg); err != nil {
		e.logger.Error(err, "Could not publish source event", "event", msg.EventType, "source", msg.SourceName)
	}
}

func (si *SourceInstance) status() *SourceStatus {
	telemetry := si.source.Telemetry()
	status := &SourceStatus{
		Id:           si.Id,
		Name:         si.Name,
		Profile:      si.Profile,
		TickPeriodMs: si.source.TickPeriod().Milliseconds(),
		BytesEmitted: telemetry.BytesEmitted(),
		ProbeDone:    telemetry.ProbeDone(),
		Autopilot:    si.autopilot != nil,
	}

	select {
	case <-si.source.Done():
		if err := si.source.Err(); err != nil {
			status.Error = err.Error()
		}
	default:
		status.Running = true
	}

	si.statsMutex.Lock()
	stats := *si.stats
	status.Stats = &stats
	status.LastReport = si.lastReport
	si.statsMutex.Unlock()
	return status
}
