package job

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/akolanti/VoiceRAG/internal/adapter/utils"
	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/akolanti/VoiceRAG/internal/metrics"
	"github.com/akolanti/VoiceRAG/internal/worker"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

// Pipeline turns one uploaded file into indexed chunks.
type Pipeline interface {
	Run(ctx context.Context, filePath string, kind commonModels.DocKind) ([]commonModels.DocChunk, error)
}

// Invalidator is the query side hook told that the index changed.
type Invalidator interface {
	Invalidate()
}

type Service struct {
	registry *Registry
	pipeline Pipeline
	chain    Invalidator
	pool     *worker.Pool
	logger   *logger_i.Logger
}

type ServiceConfig struct {
	Registry *Registry
	Pipeline Pipeline
	Chain    Invalidator
	Workers  worker.Config
}

// InitJobService wires the orchestrator and starts its worker pool.
func InitJobService(cfg ServiceConfig) *Service {
	s := &Service{
		registry: cfg.Registry,
		pipeline: cfg.Pipeline,
		chain:    cfg.Chain,
		logger:   logger_i.NewLogger("JobService"),
	}
	if s.registry == nil {
		s.registry = NewRegistry(config.JobTimeout)
	}
	workers := cfg.Workers
	workers.Executor = s
	s.pool = worker.NewPool(workers)
	s.pool.Start()
	return s
}

// Submit accepts an upload that is already on disk and returns the job id right away.
// Unsupported kinds fail here, before any job exists.
func (s *Service) Submit(ctx context.Context, filePath string, kind commonModels.DocKind) (string, error) {
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	log := s.logger.With("traceId", traceId)

	if !kind.Valid() {
		log.Warn("Rejected upload", "kind", kind, "path", filePath)
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnsupportedType, kind)
	}

	s.registry.SweepStale()

	created, err := s.registry.Create(jobModel.Job{
		Id:       utils.GetNewUUID(),
		TraceId:  traceId,
		Kind:     kind,
		FileName: filepath.Base(filePath),
		FilePath: filePath,
	})
	if err != nil {
		log.Error("Could not create job", "error", err)
		return "", err
	}

	if err := s.pool.Submit(ctx, created); err != nil {
		s.registry.Update(created.Id, jobModel.JobStatusFailed, "Could not queue job: "+err.Error())
		return created.Id, nil
	}
	log.Info("Queued ingestion job", "jobId", created.Id, "kind", kind, "file", created.FileName)
	return created.Id, nil
}

func (s *Service) Status(id string) jobModel.Job {
	return s.registry.Get(id)
}

// Execute runs on a pool worker. Failures are recorded on the job, never returned.
func (s *Service) Execute(ctx context.Context, job jobModel.Job) (result jobModel.Job) {
	log := s.logger.With("traceId", job.TraceId, "jobId", job.Id)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Ingestion panicked", "panic", r)
			s.finish(job, jobModel.JobStatusFailed, fmt.Sprintf("ingestion panicked: %v", r))
			result = s.registry.Get(job.Id)
		}
	}()

	chunks, err := s.pipeline.Run(ctx, job.FilePath, job.Kind)
	if err != nil {
		log.Error("Ingestion failed", "error", err)
		s.finish(job, jobModel.JobStatusFailed, err.Error())
		return s.registry.Get(job.Id)
	}

	s.finish(job, jobModel.JobStatusSuccess, jobModel.MessageCompleted)
	//the index changed even if a sweep already failed this job
	s.chain.Invalidate()
	log.Info("Pipeline completed", "file", job.FileName, "chunks", len(chunks))
	return s.registry.Get(job.Id)
}

func (s *Service) finish(job jobModel.Job, status jobModel.JobStatus, message string) {
	if s.registry.Update(job.Id, status, message) {
		metrics.CaptureJobOutcome(string(job.Kind), string(status))
	}
}

// Close stops accepting work and waits for running ingestions. Jobs that never left the
// queue are failed so their status does not hang in processing.
func (s *Service) Close() {
	for _, job := range s.pool.Stop() {
		s.logger.Warn("Job dropped at shutdown", "jobId", job.Id, "traceId", job.TraceId)
		s.finish(job, jobModel.JobStatusFailed, jobModel.MessageForceStopped)
	}
}
