package cron

import (
	"context"
	"time"
)

// Job represents a scheduled task that runs inside the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry tracks registered cron jobs.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with the provided jobs.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register adds a job to the registry.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

// Every wraps a job so it runs at most once per period, however often the
// cron cycle ticks. Housekeeping jobs use it to stay off the fast cadence.
func Every(job Job, period time.Duration) Job {
	if job == nil || period <= 0 {
		return job
	}
	return &throttled{Job: job, period: period, now: time.Now}
}

type throttled struct {
	Job
	period  time.Duration
	lastRun time.Time
	now     func() time.Time
}

func (t *throttled) Run(ctx context.Context) error {
	now := t.now()
	if !t.lastRun.IsZero() && now.Sub(t.lastRun) < t.period {
		return nil
	}
	t.lastRun = now
	return t.Job.Run(ctx)
}
