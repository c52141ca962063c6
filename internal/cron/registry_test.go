package cron

import (
	"context"
	"testing"
	"time"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryStoresJobs(t *testing.T) {
	registry := NewRegistry()
	jobA := &stubJob{name: "a"}
	jobB := &stubJob{name: "b"}
	registry.Register(jobA)
	registry.Register(jobB)
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != jobA || jobs[1] != jobB {
		t.Fatalf("jobs returned out of order")
	}
	// ensure caller cannot mutate internal slice
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

type countingJob struct {
	runs int
}

func (c *countingJob) Name() string              { return "counting" }
func (c *countingJob) Run(context.Context) error { c.runs++; return nil }

func TestEveryThrottlesRuns(t *testing.T) {
	inner := &countingJob{}
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	job := Every(inner, time.Hour).(*throttled)
	job.now = func() time.Time { return clock }

	ctx := context.Background()
	_ = job.Run(ctx)
	clock = clock.Add(30 * time.Minute)
	_ = job.Run(ctx)
	if inner.runs != 1 {
		t.Fatalf("expected 1 run inside the period, got %d", inner.runs)
	}
	clock = clock.Add(31 * time.Minute)
	_ = job.Run(ctx)
	if inner.runs != 2 {
		t.Fatalf("expected a second run after the period, got %d", inner.runs)
	}
	if job.Name() != "counting" {
		t.Fatalf("wrapped job must keep its name, got %q", job.Name())
	}
}
