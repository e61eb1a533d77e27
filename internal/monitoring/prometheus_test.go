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
	"net"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersByKind(t *testing.T) {
	UnitsTotal.WithLabelValues("exp-test", "cam-1", KindData).Add(3)
	UnitsTotal.WithLabelValues("exp-test", "cam-1", KindProbe).Inc()
	BytesTotal.WithLabelValues("exp-test", "cam-1", KindData).Add(3000)

	assert.Equal(t, 3.0, testutil.ToFloat64(UnitsTotal.WithLabelValues("exp-test", "cam-1", KindData)))
	assert.Equal(t, 1.0, testutil.ToFloat64(UnitsTotal.WithLabelValues("exp-test", "cam-1", KindProbe)))
	assert.Equal(t, 3000.0, testutil.ToFloat64(BytesTotal.WithLabelValues("exp-test", "cam-1", KindData)))

	UnitsTotal.DeletePartialMatch(map[string]string{"experimentId": "exp-test"})
	BytesTotal.DeletePartialMatch(map[string]string{"experimentId": "exp-test"})
}

func TestMetricsServer_StopsOnCancel(t *testing.T) {
	ms := NewMetricsServer(0, logr.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- ms.Run(ctx) }()

	cancel()
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}

func TestMetricsServer_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() {
		_ = l.Close()
	}()
	port := uint16(l.Addr().(*net.TCPAddr).Port)

	err = NewMetricsServer(port, logr.Discard()).Run(context.Background())
	assert.ErrorContains(t, err, "could not start metrics server")
}
