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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/simulator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "traffic-source: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := NewOptions()
	opts.AddFlags(pflag.CommandLine)
	pflag.Parse()
	if err := opts.Validate(); err != nil {
		return err
	}

	cfg, err := simulator.InitConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	opts.ApplyTo(cfg)

	logger, err := logging.NewLogger(cfg.Development, cfg.LogVerbosity)
	if err != nil {
		return fmt.Errorf("could not build logger: %w", err)
	}
	setupLog := logger.WithName("setup")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := simulator.NewTrafficSourceApp(cfg, logger)
	if err := app.Run(ctx); err != nil {
		setupLog.Error(err, "Traffic source terminated with errors")
		return err
	}
	setupLog.V(logging.DEFAULT).Info("Traffic source terminated")
	return nil
}
