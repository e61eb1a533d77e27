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
	"time"

	"github.com/giuliocarot0/gitc"
)

const (
	SourceToHubType gitc.MessageType = iota
)

// EventsTaskName is the gitc task receiving source events.
const EventsTaskName = "EVENTS"

type SourceEventType string

const (
	SourceEventProbeComplete SourceEventType = "PROBE_COMPLETE"
	SourceEventTrafficReport SourceEventType = "TRAFFIC_REPORT"
	SourceEventTerminated    SourceEventType = "SOURCE_TERMINATED"
)

type SourceToHubMsg struct {
	EventType    SourceEventType
	TimeStamp    time.Time
	ExperimentId string
	SourceId     string
	SourceName   string
	Report       *TrafficStatsReport
	Reason       string
}

// EventSubscription asks the hub to POST every event of the listed types to
// NotifyUri.
type EventSubscription struct {
	NotifyUri string            `json:"notifyUri"`
	Events    []SourceEventType `json:"events"`
}

// EventNotification is the body POSTed to subscribers.
type EventNotification struct {
	EventType    SourceEventType     `json:"eventType"`
	TimeStamp    time.Time           `json:"timeStamp"`
	ExperimentId string              `json:"experimentId"`
	SourceId     string              `json:"sourceId"`
	SourceName   string              `json:"sourceName"`
	Report       *TrafficStatsReport `json:"report,omitempty"`
	Reason       string              `json:"reason,omitempty"`
}
