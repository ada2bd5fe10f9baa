package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/akolanti/VoiceRAG/internal/metrics"
)

func (p *Pool) executeJob(job jobModel.Job) {
	start := time.Now()
	status := jobModel.JobStatusFailed
	defer func() {
		metrics.CaptureJobMetrics(string(status), time.Since(start))
	}()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Job panicked", "jobId", job.Id, "panic", r)
		}
	}()

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	log := p.logger.With("traceId", job.TraceId, "jobId", job.Id)
	log.Debug("Processing job", "kind", job.Kind, "file", job.FileName)

	result := p.executor.Execute(ctx, job)
	status = result.Status
	log.Info("Job finished", "status", result.Status, "elapsed", time.Since(start))
}

// decrement is false when tryRetire already released the slot
func (p *Pool) removeWorker(reason string, decrement bool) {
	if decrement {
		atomic.AddInt64(&p.currentWorkerCount, -1)
	}
	p.workerWaitGroup.Done()
	metrics.DecrementActiveWorkerCount()
	p.logger.Info("Removed worker", "reason", reason, "workerCount", p.WorkerCount())
}
