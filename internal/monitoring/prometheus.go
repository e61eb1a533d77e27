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

package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
)

const (
	KindData  = "data"
	KindProbe = "probe"
)

var (
	SourcesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "traffic_sources_total",
			Help: "Number of traffic sources by state",
		},
		[]string{"experimentId", "state"},
	)

	UnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traffic_source_units_total",
			Help: "Data units received from a source, by kind",
		},
		[]string{"experimentId", "source", "kind"},
	)

	BytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traffic_source_bytes_total",
			Help: "Bytes received from a source, by kind",
		},
		[]string{"experimentId", "source", "kind"},
	)

	BytesGenerated = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "traffic_source_generated_bytes",
			Help: "Bytes generated by a source as reported by its telemetry counter",
		},
		[]string{"experimentId", "source"},
	)

	CurrentLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "traffic_source_level",
			Help: "Level of the last regular data unit of a source",
		},
		[]string{"experimentId", "source"},
	)

	ProbeCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traffic_source_probe_completions_total",
			Help: "Probes that reached their target pace",
		},
		[]string{"experimentId", "source"},
	)

	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traffic_source_signals_total",
			Help: "Adapt signals delivered to a source, by kind",
		},
		[]string{"experimentId", "source", "signal"},
	)
)

func init() {
	prometheus.MustRegister(SourcesTotal, UnitsTotal, BytesTotal, BytesGenerated, CurrentLevel, ProbeCompletions, SignalsTotal)
}

// MetricsServer exposes the default registry on /metrics.
type MetricsServer struct {
	server *http.Server
	logger logr.Logger
}

func NewMetricsServer(port uint16, logger logr.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.WithName("metrics"),
	}
}

// Run serves until ctx is done.
func (m *MetricsServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		m.logger.V(logging.DEFAULT).Info("Starting prometheus metrics server", "addr", m.server.Addr)
		errCh <- m.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not start metrics server: %w", err)
		}
		return nil
	case <-ctx.Done():
		if err := m.server.Close(); err != nil {
			m.logger.Error(err, "Could not stop metrics server")
		}
		return nil
	}
}
