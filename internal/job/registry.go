package job

import (
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

// Registry tracks ingestion jobs for the lifetime of the process.
//
// Every transition of an entry is a single write under jobMutex, so readers never see a
// status from one transition paired with the message of another. Terminal entries are never
// rewritten: whichever of pipeline success, pipeline failure, the timeout check or the sweep
// observes a processing entry first decides its outcome.
type Registry struct {
	jobMutex *sync.RWMutex
	jobMap   map[string]jobModel.Job
	timeout  time.Duration
	now      func() time.Time
	logger   *logger_i.Logger
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		jobMutex: new(sync.RWMutex),
		jobMap:   make(map[string]jobModel.Job),
		timeout:  timeout,
		now:      time.Now,
		logger:   logger_i.NewLogger("JobRegistry"),
	}
}

// WithClock swaps the wall clock, used by tests to drive the timeout check.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Create inserts a processing entry. Status, start time and message are always set here.
func (r *Registry) Create(newJob jobModel.Job) (jobModel.Job, error) {
	r.jobMutex.Lock()
	defer r.jobMutex.Unlock()

	if _, exists := r.jobMap[newJob.Id]; exists {
		r.logger.Error("Duplicate job id", "jobId", newJob.Id)
		return jobModel.Job{}, fmt.Errorf("%w: %s", apperrors.ErrDuplicateJob, newJob.Id)
	}

	newJob.Status = jobModel.JobStatusProcessing
	newJob.StartedAt = r.now()
	newJob.Message = jobModel.MessageStarted
	r.jobMap[newJob.Id] = newJob
	r.logger.Debug("Created job", "jobId", newJob.Id)
	return newJob, nil
}

// Update is ignored for unknown ids and for entries that already reached a terminal status.
// It reports whether the entry changed.
func (r *Registry) Update(id string, status jobModel.JobStatus, message string) bool {
	r.jobMutex.Lock()
	defer r.jobMutex.Unlock()

	current, found := r.jobMap[id]
	if !found {
		r.logger.Warn("Update for unknown job ignored", "jobId", id, "status", status)
		return false
	}
	if current.Status.IsTerminal() {
		r.logger.Debug("Job already terminal, update ignored", "jobId", id, "current", current.Status, "attempted", status)
		return false
	}
	r.jobMap[id] = r.transition(current, status, message)
	return true
}

// Get never fails: absent ids come back as status unknown. A processing entry past the
// timeout is moved to timed_out as part of the read.
func (r *Registry) Get(id string) jobModel.Job {
	r.jobMutex.RLock()
	result, found := r.jobMap[id]
	r.jobMutex.RUnlock()

	if !found {
		return jobModel.Job{Id: id, Status: jobModel.JobStatusUnknown}
	}
	if !r.expired(result) {
		return result
	}

	r.jobMutex.Lock()
	defer r.jobMutex.Unlock()
	// re-check, a writer may have finished the job between the two locks
	result = r.jobMap[id]
	if r.expired(result) {
		result = r.transition(result, jobModel.JobStatusTimedOut, jobModel.MessageTimedOut)
		r.jobMap[id] = result
		r.logger.Warn("Job timed out", "jobId", id)
	}
	return result
}

// SweepStale fails every entry still processing. It runs when a new upload is accepted: a
// fresh upload proves the server is alive, so anything left processing from before is
// treated as orphaned by a restart.
func (r *Registry) SweepStale() int {
	r.jobMutex.Lock()
	defer r.jobMutex.Unlock()

	swept := 0
	for id, entry := range r.jobMap {
		if entry.Status != jobModel.JobStatusProcessing {
			continue
		}
		r.jobMap[id] = r.transition(entry, jobModel.JobStatusFailed, jobModel.MessageForceStopped)
		swept++
	}
	if swept > 0 {
		r.logger.Info("Cleaned up ongoing jobs", "count", swept)
	}
	return swept
}

func (r *Registry) expired(entry jobModel.Job) bool {
	return entry.Status == jobModel.JobStatusProcessing && r.now().Sub(entry.StartedAt) > r.timeout
}

func (r *Registry) transition(entry jobModel.Job, status jobModel.JobStatus, message string) jobModel.Job {
	entry.Status = status
	entry.Message = message
	if status.IsTerminal() {
		entry.EndTime = r.now()
	}
	return entry
}
