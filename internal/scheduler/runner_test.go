package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/warden/internal/access"
	"github.com/MrSnakeDoc/warden/internal/domain"
	"github.com/MrSnakeDoc/warden/internal/logger"
	"github.com/MrSnakeDoc/warden/internal/registry"
)

type fakeLoader struct {
	records map[string]*domain.ServiceRecord
}

func (f *fakeLoader) Load(_ context.Context, identity string) *domain.ServiceRecord {
	if rec, ok := f.records[identity]; ok {
		return rec
	}
	rec := domain.NewServiceRecord(identity)
	f.records[identity] = rec
	return rec
}

func newTestRunner(pols ...domain.ServicePolicy) (*Runner, *fakeLoader, *registry.Registry) {
	log := logger.New("error", false)
	reg := registry.New(log)
	for _, pol := range pols {
		reg.Register(pol)
	}
	loader := &fakeLoader{records: map[string]*domain.ServiceRecord{}}
	return NewRunner(reg, loader, log), loader, reg
}

func TestAddValidation(t *testing.T) {
	runner, _, _ := newTestRunner(
		domain.ServicePolicy{Identity: "news.daily", Kind: domain.KindScheduled, Interval: time.Hour},
		domain.ServicePolicy{Identity: "demo.ping", Kind: domain.KindHandler},
		domain.ServicePolicy{Identity: "news.flash", Kind: domain.KindScheduled},
	)
	noop := func(context.Context, int64) error { return nil }

	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{
			name: "valid job with policy interval",
			job:  Job{Identity: "news.daily", Run: noop},
		},
		{
			name:    "unregistered identity",
			job:     Job{Identity: "news.nope", Run: noop},
			wantErr: true,
		},
		{
			name:    "handler service cannot be scheduled",
			job:     Job{Identity: "demo.ping", Run: noop},
			wantErr: true,
		},
		{
			name:    "missing run callback",
			job:     Job{Identity: "news.daily"},
			wantErr: true,
		},
		{
			name:    "no interval anywhere",
			job:     Job{Identity: "news.flash", Run: noop},
			wantErr: true,
		},
		{
			name: "job interval overrides missing policy interval",
			job:  Job{Identity: "news.flash", Interval: time.Minute, Run: noop},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runner.Add(tt.job)
			if (err != nil) != tt.wantErr {
				t.Errorf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunJobGroupGate(t *testing.T) {
	pol := domain.ServicePolicy{
		Identity:        "news.daily",
		Kind:            domain.KindScheduled,
		Interval:        time.Hour,
		EnableOnDefault: false,
	}
	runner, loader, _ := newTestRunner(pol)

	// Enable only group 42; 13 stays on the disabled default.
	rec := loader.Load(context.Background(), "news.daily")
	access.Enable(rec, 42)

	var fired []int64
	job := Job{
		Identity: "news.daily",
		Targets:  []int64{42, 13},
		Run: func(_ context.Context, groupID int64) error {
			fired = append(fired, groupID)
			return nil
		},
	}

	runner.runJob(context.Background(), job)

	if len(fired) != 1 || fired[0] != 42 {
		t.Errorf("job fired for groups %v, want [42]", fired)
	}
}

func TestRunJobDefaultEnabled(t *testing.T) {
	pol := domain.ServicePolicy{
		Identity:        "news.daily",
		Kind:            domain.KindScheduled,
		Interval:        time.Hour,
		EnableOnDefault: true,
	}
	runner, _, _ := newTestRunner(pol)

	var fired []int64
	job := Job{
		Identity: "news.daily",
		Run: func(_ context.Context, groupID int64) error {
			fired = append(fired, groupID)
			return nil
		},
	}

	// No targets: one group-less run, allowed by the default.
	runner.runJob(context.Background(), job)

	if len(fired) != 1 || fired[0] != 0 {
		t.Errorf("job fired for groups %v, want [0]", fired)
	}
}

func TestRunJobDisabledGroupGateSilencesErrors(t *testing.T) {
	pol := domain.ServicePolicy{
		Identity:        "news.daily",
		Kind:            domain.KindScheduled,
		Interval:        time.Hour,
		EnableOnDefault: false,
	}
	runner, _, _ := newTestRunner(pol)

	job := Job{
		Identity: "news.daily",
		Targets:  []int64{42},
		Run: func(context.Context, int64) error {
			t.Fatal("run callback fired for a disabled group")
			return nil
		},
	}

	runner.runJob(context.Background(), job)
}
