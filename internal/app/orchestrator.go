package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phishsentry/phishsentry/internal/batch"
	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/model"
)

// ErrJobNotFound is returned for unknown or evicted job IDs.
var ErrJobNotFound = errors.New("job not found")

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	Processed int         `json:"processed,omitempty"`
	Total     int         `json:"total,omitempty"`
	Item      *batch.Item `json:"item,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// Job is a batch scan running in the background.
type Job struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	URLs      []string      `json:"urls"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	Processed int           `json:"processed"`
	Total     int           `json:"total"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	Results []batch.Item `json:"results,omitempty"`
}

// snapshot copies the job so callers can read it without holding jobsMu.
// The Events channel is shared.
func (j *Job) snapshot() *Job {
	cp := *j
	cp.URLs = append([]string(nil), j.URLs...)
	if j.Results != nil {
		cp.Results = append([]batch.Item(nil), j.Results...)
	}
	return &cp
}

// Orchestrator runs single scans in the caller's goroutine and batch scans
// as background jobs.
type Orchestrator struct {
	cfg    *Config
	comps  *Components
	runner *batch.Runner
	logger logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	evictions  map[string]*time.Timer
	closed     bool
	wg         sync.WaitGroup
}

// NewOrchestrator ties together config, components and logger. When comps is
// nil they are built from cfg and owned by the orchestrator.
func NewOrchestrator(cfg *Config, comps *Components, logger logging.Logger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	if comps == nil {
		var err error
		comps, err = NewComponents(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	o := &Orchestrator{
		cfg:        cfg,
		comps:      comps,
		logger:     logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
		evictions:  make(map[string]*time.Timer),
	}
	runner, err := batch.New(cfg.Batch, o.ScanURL, logger)
	if err != nil {
		return nil, err
	}
	o.runner = runner
	return o, nil
}

// Components exposes the wired collaborators (blocklist management, tests).
func (o *Orchestrator) Components() *Components {
	return o.comps
}

// ScanURL scans rawURL and scores the result. The only error is an invalid
// URL; unreachable targets still produce a report.
func (o *Orchestrator) ScanURL(ctx context.Context, rawURL string) (*model.Report, error) {
	scan, err := o.comps.Scanner.Scan(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	score := o.comps.Engine.Score(ctx, scan)
	return model.NewReport(scan, score), nil
}

// ScanURLs scans urls synchronously with bounded concurrency.
func (o *Orchestrator) ScanURLs(ctx context.Context, urls []string, onItem batch.ProgressFunc) []batch.Item {
	return o.runner.Run(ctx, urls, onItem)
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) updateJob(jobID string, fn func(j *Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

func (o *Orchestrator) setStatus(jobID string, status JobStatus, errMsg string) {
	o.updateJob(jobID, func(j *Job) {
		j.Status = status
		j.Error = errMsg
	})
	typ := JobEventStatus
	if status == JobDone {
		typ = JobEventResult
	}
	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: typ, Status: status, Error: errMsg})
}

// StartBatchJob scans urls in the background. Progress is published on the
// returned job's Events channel, which is closed when the job ends.
func (o *Orchestrator) StartBatchJob(ctx context.Context, urls []string) (*Job, error) {
	if len(urls) == 0 {
		return nil, errors.New("no urls to scan")
	}

	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		Type:      "batch",
		URLs:      append([]string(nil), urls...),
		Status:    JobPending,
		Total:     len(urls),
		StartedAt: time.Now().UTC(),
		// One slot per item plus the status transitions.
		Events: make(chan JobEvent, len(urls)+4),
	}

	jobCtx, cancel := context.WithCancel(ctx)

	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		cancel()
		return nil, errors.New("orchestrator closed")
	}
	o.jobs[jobID] = job
	o.jobCancels[jobID] = cancel
	snap := job.snapshot()
	o.wg.Add(1)
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})
	o.logger.Info("batch job started",
		logging.Field{Key: "job_id", Value: jobID},
		logging.Field{Key: "urls", Value: len(urls)})

	go o.runBatchJob(jobCtx, cancel, jobID, urls)

	return snap, nil
}

func (o *Orchestrator) runBatchJob(ctx context.Context, cancel context.CancelFunc, jobID string, urls []string) {
	defer o.wg.Done()
	defer func() {
		cancel()
		o.jobsMu.Lock()
		delete(o.jobCancels, jobID)
		j := o.jobs[jobID]
		if j != nil {
			j.EndedAt = time.Now().UTC()
		}
		if !o.closed && o.cfg.JobRetention > 0 {
			o.evictions[jobID] = time.AfterFunc(o.cfg.JobRetention, func() { o.evict(jobID) })
		}
		o.jobsMu.Unlock()

		// Close events channel so websocket loop can terminate cleanly
		if j != nil && j.Events != nil {
			close(j.Events)
		}
	}()

	o.setStatus(jobID, JobRunning, "")

	results := o.runner.Run(ctx, urls, func(item batch.Item, completed, total int) {
		o.updateJob(jobID, func(j *Job) { j.Processed = completed })
		it := item
		o.emitJobEvent(jobID, JobEvent{
			JobID:     jobID,
			Type:      JobEventProgress,
			Processed: completed,
			Total:     total,
			Item:      &it,
		})
	})

	o.updateJob(jobID, func(j *Job) { j.Results = results })

	if err := ctx.Err(); err != nil {
		o.setStatus(jobID, JobCanceled, err.Error())
		o.logger.Info("batch job canceled", logging.Field{Key: "job_id", Value: jobID})
		return
	}

	failed := 0
	for _, it := range results {
		if it.Err != nil {
			failed++
		}
	}
	if failed == len(results) {
		msg := fmt.Sprintf("all %d urls failed", failed)
		o.setStatus(jobID, JobFailed, msg)
		o.logger.Warn("batch job failed", logging.Field{Key: "job_id", Value: jobID}, logging.Field{Key: "error", Value: msg})
		return
	}
	o.setStatus(jobID, JobDone, "")
	o.logger.Info("batch job done",
		logging.Field{Key: "job_id", Value: jobID},
		logging.Field{Key: "failed", Value: failed})
}

func (o *Orchestrator) evict(jobID string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	delete(o.jobs, jobID)
	delete(o.evictions, jobID)
}

// CancelJob stops a running job. Canceling a finished job is a no-op.
func (o *Orchestrator) CancelJob(jobID string) error {
	o.jobsMu.Lock()
	_, known := o.jobs[jobID]
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if !known {
		return ErrJobNotFound
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// GetJob returns a snapshot of the job.
func (o *Orchestrator) GetJob(jobID string) (*Job, error) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j.snapshot(), nil
}

// ListJobs returns snapshots of all retained jobs, oldest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j.snapshot())
	}
	o.jobsMu.Unlock()
	sort.Slice(out, func(a, b int) bool { return out[a].StartedAt.Before(out[b].StartedAt) })
	return out
}

// Close cancels running jobs, waits for them to finish and releases the
// components.
func (o *Orchestrator) Close() error {
	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		return nil
	}
	o.closed = true
	for _, cancel := range o.jobCancels {
		cancel()
	}
	for id, t := range o.evictions {
		t.Stop()
		delete(o.evictions, id)
	}
	o.jobsMu.Unlock()

	o.wg.Wait()
	return o.comps.Close()
}

// Shutdown is Close bounded by ctx.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- o.Close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
