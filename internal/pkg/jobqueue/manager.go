package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	metrics "github.com/soukly/soukly/internal/pkg/metrics/counter"
)

const (
	defaultWorkerCount   = 5
	counterFlushInterval = 5 * time.Second
	featuredSweepEvery   = 15 * time.Minute
	boostResetEvery      = time.Hour
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	counterFlushTicker *time.Ticker
	featuredTicker     *time.Ticker
	boostTicker        *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			queue:  NewQueue(defaultWorkerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Start counter flush worker (Redis -> DB)
	m.counterFlushTicker = time.NewTicker(counterFlushInterval)
	m.wg.Add(1)
	go m.counterFlushWorker()

	// Periodic featured-placement expiry sweep
	m.featuredTicker = time.NewTicker(featuredSweepEvery)
	m.wg.Add(1)
	go m.sweepWorker(m.featuredTicker, JobTypeExpireFeatured)

	// Periodic free-boost cycle reset
	m.boostTicker = time.NewTicker(boostResetEvery)
	m.wg.Add(1)
	go m.sweepWorker(m.boostTicker, JobTypeResetBoostCycles)

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}
	if m.featuredTicker != nil {
		m.featuredTicker.Stop()
	}
	if m.boostTicker != nil {
		m.boostTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// counterFlushWorker periodically flushes pending counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// sweepWorker enqueues a sweep job on every tick
func (m *Manager) sweepWorker(ticker *time.Ticker, jobType JobType) {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Infof("[JobQueue Manager] Sweep worker for %s stopping", jobType)
			return
		case <-ticker.C:
			if _, err := m.queue.EnqueueJob(jobType, nil); err != nil {
				log.Errorf("[JobQueue Manager] Failed to enqueue %s sweep: %v", jobType, err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
