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

package models

import (
	"fmt"
	"time"
)

// TrafficStats accumulates what a consumer received from one source.
type TrafficStats struct {
	SourceName   string
	NumOfUnits   int64
	TotalBytes   int64
	NumDataUnits int64
	NumProbes    int64
	DataBytes    int64
	ProbeBytes   int64
	LastLevel    int
	LastUpdate   time.Time

	windowStart      time.Time
	windowDataBytes  int64
	windowProbeBytes int64
	windowUnits      int64
}

type TrafficStatsReport struct {
	TrafficStats
	Window         time.Duration
	DataBitrate    float64
	ProbeBitrate   float64
	UnitRate       float64
	ProbeDone      bool
	BytesGenerated uint64
}

func NewTrafficStats(sourceName string, now time.Time) *TrafficStats {
	return &TrafficStats{
		SourceName:  sourceName,
		LastLevel:   ProbeLevel,
		LastUpdate:  now,
		windowStart: now,
	}
}

func (stats *TrafficStatsReport) Dumps() string {
	return fmt.Sprintf("Source:        %s,\nUnits:         %d,\nBytes:         %d,\nLevel:         %d,\nData Bitrate:  %.2f bps,\nProbe Bitrate: %.2f bps,\nUnit Rate:     %.2f ups,\n",
		stats.SourceName, stats.NumOfUnits, stats.TotalBytes, stats.LastLevel, stats.DataBitrate, stats.ProbeBitrate, stats.UnitRate)
}

func (stats *TrafficStats) NewUnit(d Datum, timestamp time.Time) {
	size := int64(d.Len())
	stats.NumOfUnits++
	stats.TotalBytes += size
	stats.windowUnits++
	if d.IsProbe() {
		stats.NumProbes++
		stats.ProbeBytes += size
		stats.windowProbeBytes += size
	} else {
		stats.NumDataUnits++
		stats.DataBytes += size
		stats.windowDataBytes += size
		stats.LastLevel = d.Level
	}
	stats.LastUpdate = timestamp
}

// GenerateReport computes rates over the window since the previous report and
// starts a new window.
func (stats *TrafficStats) GenerateReport(now time.Time) *TrafficStatsReport {
	window := now.Sub(stats.windowStart)
	report := &TrafficStatsReport{
		TrafficStats: *stats,
		Window:       window,
	}
	if secs := window.Seconds(); secs > 0 {
		report.DataBitrate = float64(stats.windowDataBytes) * 8 / secs
		report.ProbeBitrate = float64(stats.windowProbeBytes) * 8 / secs
		report.UnitRate = float64(stats.windowUnits) / secs
	}

	stats.windowStart = now
	stats.windowDataBytes = 0
	stats.windowProbeBytes = 0
	stats.windowUnits = 0
	return report
}
