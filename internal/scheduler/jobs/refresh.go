package jobs

import (
	"context"

	"github.com/wonny/b3monitor/internal/snapshot"
	"github.com/wonny/b3monitor/pkg/logger"
)

// RefreshJobName is the scheduler key of the snapshot refresh
const RefreshJobName = "snapshot_refresh"

// Refresher is the part of *snapshot.Refresher the job needs
type Refresher interface {
	Refresh(ctx context.Context) (*snapshot.Snapshot, error)
}

// RefreshJob refreshes the quote snapshot on a schedule
// ⭐ SSOT: the periodic refresh is scheduled through this job only
type RefreshJob struct {
	refresher Refresher
	schedule  string
	logger    *logger.Logger
}

// NewRefreshJob creates a refresh job running on schedule
func NewRefreshJob(refresher Refresher, schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		refresher: refresher,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return RefreshJobName
}

// Schedule returns the cron schedule (with seconds)
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one refresh
func (j *RefreshJob) Run(ctx context.Context) error {
	snap, err := j.refresher.Refresh(ctx)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"snapshot_id": snap.ID,
		"admitted":    len(snap.Result.Admitted),
	}).Debug("Scheduled refresh done")
	return nil
}
