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
	"fmt"

	"github.com/giuliocarot0/gitc"
	"github.com/go-logr/logr"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/models"
)

// Publisher delivers source events to the hub.
type Publisher interface {
	Publish(msg *models.SourceToHubMsg) error
}

// GitcPublisher sends events to the hub task over gitc, from a task of its own.
type GitcPublisher struct {
	From string
}

// NewGitcPublisher starts the sender task named from.
func NewGitcPublisher(from string, logger logr.Logger) (*GitcPublisher, error) {
	err := gitc.StartTask(from, func(msg gitc.Message) {
		logger.V(logging.DEBUG).Info("Unexpected message for experiment task", "task", from, "from", msg.From)
	}, 16)
	if err != nil {
		return nil, fmt.Errorf("could not start %s task: %w", from, err)
	}
	return &GitcPublisher{From: from}, nil
}

func (p *GitcPublisher) Publish(msg *models.SourceToHubMsg) error {
	return gitc.Send(p.From, models.EventsTaskName, models.SourceToHubType, msg)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(msg *models.SourceToHubMsg) error

func (f PublisherFunc) Publish(msg *models.SourceToHubMsg) error { return f(msg) }
