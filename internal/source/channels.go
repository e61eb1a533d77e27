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

package source

import (
	"context"
	"fmt"
	"sync/atomic"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/models"
)

// Control is the inbound command handle of a source. It is safe for
// concurrent use; signals are applied in the order Send accepted them.
type Control struct {
	inbox *queue[models.AdaptSignal]
}

func newControl() *Control {
	return &Control{inbox: newQueue[models.AdaptSignal]()}
}

// Send queues a signal for the emission loop. It never blocks.
func (c *Control) Send(signal models.AdaptSignal) error {
	if err := signal.Validate(); err != nil {
		return err
	}
	if err := c.inbox.push(signal); err != nil {
		return fmt.Errorf("could not send %s: %w", signal, err)
	}
	return nil
}

func (c *Control) SetRateTarget(rate float64) error {
	return c.Send(models.NewSetRateTarget(rate))
}

func (c *Control) DecreaseDegradation() error {
	return c.Send(models.NewDecreaseDegradation())
}

func (c *Control) StartProbe(targetKbps float64) error {
	return c.Send(models.NewStartProbe(targetKbps))
}

func (c *Control) IncreaseProbePace() error {
	return c.Send(models.NewIncreaseProbePace())
}

func (c *Control) StopProbe() error {
	return c.Send(models.NewStopProbe())
}

// Close stops the source once the signals already sent have been applied.
func (c *Control) Close() {
	c.inbox.close()
}

// DataChannel is the outbound handle of a source, read by a single consumer.
type DataChannel struct {
	queue *queue[models.Datum]
}

func newDataChannel() *DataChannel {
	return &DataChannel{queue: newQueue[models.Datum]()}
}

// Recv blocks until a unit is available. It returns ErrClosed once the
// channel is closed and every queued unit has been received.
func (d *DataChannel) Recv(ctx context.Context) (models.Datum, error) {
	return d.queue.pop(ctx)
}

func (d *DataChannel) TryRecv() (models.Datum, bool) {
	return d.queue.tryPop()
}

// Len returns the number of units waiting to be received.
func (d *DataChannel) Len() int {
	return d.queue.size()
}

// Close releases the consumer side. The source stops on its next emission.
func (d *DataChannel) Close() {
	d.queue.close()
}

// Telemetry holds the counters a source shares with its owner. Reads never
// synchronize with the emission loop beyond the atomics themselves.
type Telemetry struct {
	bytesEmitted atomic.Uint64
	probeDone    atomic.Bool
}

// BytesEmitted is the total size of every unit, probe or regular, the source
// has queued.
func (t *Telemetry) BytesEmitted() uint64 {
	return t.bytesEmitted.Load()
}

// ProbeDone reports whether a probe pace reached its target. The source
// never clears it.
func (t *Telemetry) ProbeDone() bool {
	return t.probeDone.Load()
}

// ResetProbeDone clears the probe completion flag on behalf of the owner.
func (t *Telemetry) ResetProbeDone() {
	t.probeDone.Store(false)
}

func (t *Telemetry) addBytes(n int) {
	t.bytesEmitted.Add(uint64(n))
}

// markProbeDone sets the flag and reports whether it was previously clear.
func (t *Telemetry) markProbeDone() bool {
	return t.probeDone.CompareAndSwap(false, true)
}
