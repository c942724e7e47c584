package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/warden/internal/access"
	"github.com/MrSnakeDoc/warden/internal/domain"
	"github.com/MrSnakeDoc/warden/internal/logger"
	"github.com/MrSnakeDoc/warden/internal/metrics"
	"github.com/MrSnakeDoc/warden/internal/registry"
)

// RecordLoader is the read side of the record store the runner needs.
type RecordLoader interface {
	Load(ctx context.Context, identity string) *domain.ServiceRecord
}

// Job binds a scheduled service identity to the callback the host
// plugin registered for it.
type Job struct {
	// Identity of the registered scheduled service.
	Identity string

	// Targets are the groups the job fires for. Empty means one
	// group-less run per tick (group key "0").
	Targets []int64

	// Interval overrides the policy interval when non-zero.
	Interval time.Duration

	// Run performs the job for one target group.
	Run func(ctx context.Context, groupID int64) error
}

// Runner fires scheduled services on their intervals. Before each
// per-group run it consults the group gate only: scheduled services
// carry no cooldown or quota.
type Runner struct {
	registry *registry.Registry
	records  RecordLoader
	logger   logger.Logger

	mu     sync.Mutex
	jobs   []Job
	stopCh chan struct{}
}

// NewRunner creates a scheduled-service runner.
func NewRunner(reg *registry.Registry, records RecordLoader, log logger.Logger) *Runner {
	return &Runner{
		registry: reg,
		records:  records,
		logger:   log,
		stopCh:   make(chan struct{}),
	}
}

// Add registers a job for a scheduled service. The service must be
// registered with KindScheduled and an interval must come from either
// the job or the policy.
func (r *Runner) Add(job Job) error {
	pol, ok := r.registry.Get(job.Identity)
	if !ok {
		return fmt.Errorf("scheduled service %s is not registered", job.Identity)
	}
	if pol.Kind != domain.KindScheduled {
		return fmt.Errorf("service %s is not a scheduled service", job.Identity)
	}
	if job.Run == nil {
		return fmt.Errorf("scheduled service %s has no run callback", job.Identity)
	}
	if job.Interval == 0 {
		job.Interval = pol.Interval
	}
	if job.Interval <= 0 {
		return fmt.Errorf("scheduled service %s has no interval", job.Identity)
	}

	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	return nil
}

// Start launches one ticker goroutine per registered job.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	r.mu.Unlock()

	for _, job := range jobs {
		go r.loop(ctx, job)
	}

	if len(jobs) > 0 {
		r.logger.Info("scheduled service runner started",
			logger.Int("jobs", len(jobs)))
	}
}

// Stop stops all job loops.
func (r *Runner) Stop() {
	close(r.stopCh)
}

func (r *Runner) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runJob(ctx, job)
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runJob fires the job once for every target group that passes the
// group gate.
func (r *Runner) runJob(ctx context.Context, job Job) {
	pol, ok := r.registry.Get(job.Identity)
	if !ok {
		r.logger.Warn("scheduled service vanished from registry",
			logger.String("identity", job.Identity))
		return
	}

	rec := r.records.Load(ctx, job.Identity)

	targets := job.Targets
	if len(targets) == 0 {
		targets = []int64{0}
	}

	for _, groupID := range targets {
		if !access.EnabledInGroup(rec, pol, groupID) {
			metrics.ScheduledRunTotal.WithLabelValues(job.Identity, "skipped").Inc()
			r.logger.Debug("scheduled service disabled in group",
				logger.String("identity", job.Identity),
				logger.Int64("group_id", groupID))
			continue
		}

		if err := job.Run(ctx, groupID); err != nil {
			metrics.ScheduledRunTotal.WithLabelValues(job.Identity, "error").Inc()
			r.logger.Error("scheduled service run failed",
				logger.String("identity", job.Identity),
				logger.Int64("group_id", groupID),
				logger.Error(err))
			continue
		}
		metrics.ScheduledRunTotal.WithLabelValues(job.Identity, "ok").Inc()
	}
}
