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

package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/giuliocarot0/gitc"
	"github.com/go-logr/logr"
	"github.com/gorilla/mux"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/models"
)

// Hub forwards source events to the experiment harness. Subscribers register
// a callback URI per event type and receive every matching event as a JSON
// POST.
type Hub struct {
	Subscriptions map[models.SourceEventType][]string
	SubMutex      sync.RWMutex

	client *http.Client
	logger logr.Logger
	// in-flight notifications
	wg sync.WaitGroup
}

func NewHub(logger logr.Logger) *Hub {
	return &Hub{
		Subscriptions: make(map[models.SourceEventType][]string),
		SubMutex:      sync.RWMutex{},
		client:        &http.Client{Timeout: 5 * time.Second},
		logger:        logger.WithName("events"),
	}
}

// InitHub starts the gitc task receiving source events.
func (hub *Hub) InitHub() error {
	hub.logger.V(logging.DEFAULT).Info("Event hub started")
	err := gitc.StartTask(models.EventsTaskName, func(msg gitc.Message) {
		switch msg.Type {
		case models.SourceToHubType:
			hub.HandleSourceEvent(msg.Payload.(*models.SourceToHubMsg))
		}
	}, 1024)
	if err != nil {
		return fmt.Errorf("could not start %s task: %w", models.EventsTaskName, err)
	}
	return nil
}

func (hub *Hub) HandleSourceEvent(msg *models.SourceToHubMsg) {
	logger := hub.logger.WithValues("event", msg.EventType, "source", msg.SourceName)
	logger.V(logging.VERBOSE).Info("Received source event")

	notification := &models.EventNotification{
		EventType:    msg.EventType,
		TimeStamp:    msg.TimeStamp,
		ExperimentId: msg.ExperimentId,
		SourceId:     msg.SourceId,
		SourceName:   msg.SourceName,
		Report:       msg.Report,
		Reason:       msg.Reason,
	}

	callbackBody, err := json.Marshal(notification)
	if err != nil {
		logger.Error(err, "Error while marshalling notification")
		return
	}

	hub.SubMutex.RLock()
	defer hub.SubMutex.RUnlock()

	for _, callbackUrl := range hub.Subscriptions[msg.EventType] {
		hub.wg.Add(1)
		go func(url string, data []byte) {
			defer hub.wg.Done()
			resp, err := hub.client.Post(url, "application/json", bytes.NewBuffer(data))
			if err != nil {
				logger.Error(err, "Error notifying subscriber", "url", url)
				return
			}
			defer func() {
				_ = resp.Body.Close()
			}()
			logger.V(logging.DEBUG).Info("Notified subscriber", "url", url, "status", resp.Status)
		}(callbackUrl, callbackBody)
	}
}

// Subscribe registers sub.NotifyUri for every event type it lists.
func (hub *Hub) Subscribe(sub models.EventSubscription) error {
	if _, err := url.ParseRequestURI(sub.NotifyUri); err != nil {
		return fmt.Errorf("invalid notifyUri %q: %w", sub.NotifyUri, err)
	}
	if len(sub.Events) == 0 {
		return fmt.Errorf("subscription lists no event")
	}
	for _, event := range sub.Events {
		switch event {
		case models.SourceEventProbeComplete, models.SourceEventTrafficReport, models.SourceEventTerminated:
		default:
			return fmt.Errorf("unknown event type %q", event)
		}
	}

	hub.SubMutex.Lock()
	defer hub.SubMutex.Unlock()

	for _, event := range sub.Events {
		hub.Subscriptions[event] = append(hub.Subscriptions[event], sub.NotifyUri)
	}
	return nil
}

// Wait blocks until every notification sent so far has completed.
func (hub *Hub) Wait() {
	hub.wg.Wait()
}

// NORTHBOUND Definitions

func (hub *Hub) HandleNewSubscription(w http.ResponseWriter, r *http.Request) {
	sub := &models.EventSubscription{}
	if err := json.NewDecoder(r.Body).Decode(sub); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := hub.Subscribe(*sub); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(sub); err != nil {
		http.Error(w, "could not encode response", http.StatusInternalServerError)
	}

	hub.logger.V(logging.DEFAULT).Info("Created new subscription", "notifyUri", sub.NotifyUri, "events", sub.Events)
}

func (hub *Hub) RegisterNorthboundAPIs(r *mux.Router) {
	r.HandleFunc("/traffic-source/v1/subscriptions", hub.HandleNewSubscription).Methods(http.MethodPost)
	hub.logger.V(logging.VERBOSE).Info("Subscription api has been registered")
}
