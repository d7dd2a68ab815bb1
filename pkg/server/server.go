// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package server wires the daemon together: configuration, database,
// cluster scheduler, babysitter, and HTTP API, then serves (spec.md §6).
package server

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/faradayio/falconeri/pkg/babysitter"
	"github.com/faradayio/falconeri/pkg/cluster"
	"github.com/faradayio/falconeri/pkg/config"
	"github.com/faradayio/falconeri/pkg/database"
	"github.com/faradayio/falconeri/pkg/httpapi"
	"github.com/faradayio/falconeri/pkg/logger/conf"
	"github.com/faradayio/falconeri/pkg/logger/log"
	"github.com/faradayio/falconeri/pkg/service"
)

// InitServer loads configuration, wires every dependency, starts the
// babysitter in the background, and blocks serving the HTTP API. It
// returns only on a fatal error or when ctx is canceled.
func InitServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.InitGlobalLogger(&conf.LogConfig{Level: conf.ParseLevel(cfg.LogLevel)})

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	facade := database.NewFacade(db)

	scheduler, err := cluster.NewK8sScheduler()
	if err != nil {
		return err
	}

	instanceID, err := os.Hostname()
	if err != nil || instanceID == "" {
		instanceID = uuid.New().String()
	}

	babysitterConfig := babysitter.DefaultConfig()
	babysitterConfig.ScanInterval = cfg.BabysitterInterval

	b := babysitter.New(instanceID, facade, scheduler, cfg.Namespace, babysitterConfig)
	b.Start()
	defer b.Stop()

	jobs := service.NewJobService(facade, scheduler, service.JobServiceConfig{
		Namespace:          cfg.Namespace,
		DefaultWorkerImage: cfg.DefaultWorkerImage,
	})
	leasing := service.NewLeasingService(facade)

	InitHealthServer(cfg.HealthAddr)

	router := httpapi.NewRouter(httpapi.NewServer(facade, jobs, leasing), cfg.SharedSecret, cfg.RequestTimeout)
	log.Infof("falconeri daemon listening on %s", cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(cfg.ListenAddr)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server exited: %w", err)
	}
}
