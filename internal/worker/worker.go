package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/akolanti/VoiceRAG/internal/metrics"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

// Executor runs one job to completion and returns its final state.
type Executor interface {
	Execute(ctx context.Context, job jobModel.Job) jobModel.Job
}

type Config struct {
	Executor       Executor
	BufferLimit    int
	MinWorkerCount int64
	MaxWorkerCount int64
	IdleTimeout    time.Duration
}

// Pool is a dynamically sized set of workers fed from a buffered job channel.
// The dispatcher adds a worker per submitted job up to MaxWorkerCount; idle workers retire
// down to MinWorkerCount.
type Pool struct {
	executor           Executor
	jobChannel         chan jobModel.Job
	dispatcherChannel  chan bool
	stopWorkerChannel  chan struct{}
	workerWaitGroup    *sync.WaitGroup
	currentWorkerCount int64
	minWorkerCount     int64
	maxWorkerCount     int64
	idleTimeout        time.Duration
	stopOnce           sync.Once
	submitMutex        sync.RWMutex
	logger             *logger_i.Logger
}

func NewPool(cfg Config) *Pool {
	if cfg.BufferLimit <= 0 {
		cfg.BufferLimit = config.BufferLimit
	}
	if cfg.MinWorkerCount <= 0 {
		cfg.MinWorkerCount = config.MinWorkerCount
	}
	if cfg.MaxWorkerCount < cfg.MinWorkerCount {
		cfg.MaxWorkerCount = cfg.MinWorkerCount
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = config.IdleWorkerTimeout
	}
	return &Pool{
		executor:          cfg.Executor,
		jobChannel:        make(chan jobModel.Job, cfg.BufferLimit),
		dispatcherChannel: make(chan bool, cfg.BufferLimit),
		stopWorkerChannel: make(chan struct{}),
		workerWaitGroup:   new(sync.WaitGroup),
		minWorkerCount:    cfg.MinWorkerCount,
		maxWorkerCount:    cfg.MaxWorkerCount,
		idleTimeout:       cfg.IdleTimeout,
		logger:            logger_i.NewLogger("WorkerPool"),
	}
}

func (p *Pool) Start() {
	p.logger.Info("Initializing worker pool", "min", p.minWorkerCount, "max", p.maxWorkerCount)
	for i := int64(0); i < p.minWorkerCount; i++ {
		p.createWorker()
	}
	go p.dispatcher()
}

// Submit queues a job. The send blocks when the buffer is full so a burst of uploads cannot
// grow memory without bound.
func (p *Pool) Submit(ctx context.Context, job jobModel.Job) error {
	p.submitMutex.RLock()
	defer p.submitMutex.RUnlock()
	select {
	case <-p.stopWorkerChannel:
		return context.Canceled
	default:
	}
	select {
	case p.jobChannel <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopWorkerChannel:
		return context.Canceled
	}
	metrics.IncrementJobsInQueue()

	//every job may need a fresh worker, transcription holds one for minutes
	select {
	case p.dispatcherChannel <- true:
		metrics.StartDispatcherSignalCount()
	default:
	}
	return nil
}

// Stop retires every worker and waits for in-flight jobs to finish. Jobs still queued are
// returned unprocessed.
func (p *Pool) Stop() []jobModel.Job {
	p.stopOnce.Do(func() {
		close(p.stopWorkerChannel)
	})
	//wait out submits that raced the close
	p.submitMutex.Lock()
	p.submitMutex.Unlock()
	p.workerWaitGroup.Wait()

	var pending []jobModel.Job
	for {
		select {
		case job := <-p.jobChannel:
			metrics.DecrementJobsInQueue()
			pending = append(pending, job)
		default:
			p.logger.Info("Worker pool stopped", "unprocessed", len(pending))
			return pending
		}
	}
}

func (p *Pool) WorkerCount() int64 {
	return atomic.LoadInt64(&p.currentWorkerCount)
}

func (p *Pool) dispatcher() {
	p.logger.Info("Dispatcher started")
	for {
		select {
		case <-p.dispatcherChannel:
			if atomic.LoadInt64(&p.currentWorkerCount) < p.maxWorkerCount {
				p.logger.Debug("Creating new worker", "workerCount", p.WorkerCount())
				p.createWorker()
			}
		case <-p.stopWorkerChannel:
			return
		}
	}
}

func (p *Pool) createWorker() {
	p.workerWaitGroup.Add(1)
	atomic.AddInt64(&p.currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go p.worker()
}

func (p *Pool) worker() {
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()
	for {
		select {
		case <-p.stopWorkerChannel:
			p.removeWorker("Stop worker signal received", true)
			return
		default:
		}
		select {
		case currentJob := <-p.jobChannel:
			metrics.DecrementJobsInQueue()
			p.executeJob(currentJob)
			idle.Reset(p.idleTimeout)

		case <-p.stopWorkerChannel:
			p.removeWorker("Stop worker signal received", true)
			return

		case <-idle.C:
			if p.tryRetire() {
				p.removeWorker("Idle worker timeout", false)
				return
			}
			idle.Reset(p.idleTimeout)
		}
	}
}

// tryRetire claims a slot above the minimum so concurrent idle workers cannot all leave.
func (p *Pool) tryRetire() bool {
	for {
		count := atomic.LoadInt64(&p.currentWorkerCount)
		if count <= p.minWorkerCount {
			return false
		}
		if atomic.CompareAndSwapInt64(&p.currentWorkerCount, count, count-1) {
			return true
		}
	}
}
