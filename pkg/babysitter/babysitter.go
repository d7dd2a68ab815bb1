// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package babysitter is the reconciliation loop (C8): it periodically
// correlates cluster reality (pods, batch jobs) against database rows and
// corrects drift — lost pods, vanished batch jobs, unmarked completions,
// and timed-out jobs.
package babysitter

import (
	"context"
	"sync"
	"time"

	"github.com/faradayio/falconeri/pkg/cluster"
	"github.com/faradayio/falconeri/pkg/database"
	"github.com/faradayio/falconeri/pkg/logger/log"
	"github.com/faradayio/falconeri/pkg/model"
)

// Config controls the loop's timing. Mirrors the shape of the teacher's
// SchedulerConfig, trimmed to what a single reconciliation actor needs.
type Config struct {
	// ScanInterval is how often every sweep runs.
	ScanInterval time.Duration
	// LockDuration is how long the singleton lock is held after each tick's
	// TryAcquire renews it; a babysitter that stops ticking for longer than
	// this loses the lock to another replica.
	LockDuration time.Duration
	// TickTimeout bounds a single sweep pass so one stuck cluster-API call
	// can't wedge the loop past one interval (SPEC_FULL.md §5).
	TickTimeout time.Duration
}

// DefaultConfig mirrors spec.md §6's FALCONERI_BABYSITTER_INTERVAL default.
func DefaultConfig() *Config {
	return &Config{
		ScanInterval: 30 * time.Second,
		LockDuration: 2 * time.Minute,
		TickTimeout:  20 * time.Second,
	}
}

// Babysitter is the C8 reconciliation actor.
type Babysitter struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	instanceID string
	facade     database.FacadeInterface
	scheduler  cluster.Scheduler
	namespace  string
	config     *Config
}

// New builds a Babysitter. namespace is the k8s namespace batch jobs live
// in (FALCONERI_NAMESPACE).
func New(instanceID string, facade database.FacadeInterface, scheduler cluster.Scheduler, namespace string, config *Config) *Babysitter {
	if config == nil {
		config = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Babysitter{
		ctx:        ctx,
		cancel:     cancel,
		instanceID: instanceID,
		facade:     facade,
		scheduler:  scheduler,
		namespace:  namespace,
		config:     config,
	}
}

// Start launches the scan loop; each tick tries to acquire the singleton
// lock before sweeping. It is safe to call Start on every replica; only the
// one that wins the lock actually sweeps, and the others keep retrying
// TryAcquire on every tick.
func (b *Babysitter) Start() {
	log.Infof("starting babysitter (instance: %s)", b.instanceID)
	b.wg.Add(1)
	go b.scanLoop()
}

// Stop cancels the loop, waits for the in-flight tick to finish, and
// releases the lock if held.
func (b *Babysitter) Stop() {
	log.Info("stopping babysitter")
	b.cancel()
	b.wg.Wait()
	releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.facade.GetBabysitterLock().Release(releaseCtx, b.instanceID); err != nil {
		log.Warnf("failed to release babysitter lock on shutdown: %v", err)
	}
	log.Info("babysitter stopped")
}

func (b *Babysitter) scanLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.tick()
		}
	}
}

// tick runs one reconciliation pass if this instance holds the lock.
func (b *Babysitter) tick() {
	tickCtx, cancel := context.WithTimeout(b.ctx, b.config.TickTimeout)
	defer cancel()

	acquired, err := b.facade.GetBabysitterLock().TryAcquire(tickCtx, b.instanceID, b.config.LockDuration)
	if err != nil {
		log.Errorf("babysitter lock acquire failed: %v", err)
		return
	}
	if !acquired {
		return
	}

	jobs, err := b.facade.GetJob().List(tickCtx, database.JobFilter{Status: model.JobStatusRunning})
	if err != nil {
		log.Errorf("babysitter failed to list running jobs: %v", err)
		return
	}

	for _, job := range jobs {
		b.reconcileJob(tickCtx, job)
	}
}

// reconcileJob runs all four sweeps for one running Job in this order:
// vanished-job, lost-pod, timeout, completion; a sweep that ends the Job
// skips the ones after it. Each sweep's mutation is a conditional
// transition, so running this twice in a row never double-applies
// (spec.md §4.8 idempotence requirement).
func (b *Babysitter) reconcileJob(ctx context.Context, job *model.Job) {
	stillRunning, err := b.vanishedJobSweep(ctx, job)
	if err != nil {
		log.Errorf("vanished-job sweep failed for job %s: %v", job.ID, err)
		return
	}
	if !stillRunning {
		return
	}

	if err := b.lostPodSweep(ctx, job); err != nil {
		log.Errorf("lost-pod sweep failed for job %s: %v", job.ID, err)
	}

	stillRunning, err = b.timeoutSweep(ctx, job)
	if err != nil {
		log.Errorf("timeout sweep failed for job %s: %v", job.ID, err)
	}
	if !stillRunning {
		return
	}

	if err := b.completionSweep(ctx, job); err != nil {
		log.Errorf("completion sweep failed for job %s: %v", job.ID, err)
	}
}
