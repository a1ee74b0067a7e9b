package handlers

import (
	"net/http"
	"sort"

	"github.com/wonny/b3monitor/internal/scheduler"
	"github.com/wonny/b3monitor/pkg/logger"
)

// JobStatser reports run history per scheduled job
type JobStatser interface {
	Stats() map[string]scheduler.JobStats
}

// SchedulerHandler exposes the scheduler's run history
type SchedulerHandler struct {
	scheduler JobStatser
	logger    *logger.Logger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(sched JobStatser, log *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: sched,
		logger:    log,
	}
}

// SchedulerResponse lists jobs sorted by name
type SchedulerResponse struct {
	Count int                  `json:"count"`
	Jobs  []scheduler.JobStats `json:"jobs"`
}

// Stats handles GET /api/scheduler
func (h *SchedulerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.scheduler.Stats()

	jobs := make([]scheduler.JobStats, 0, len(stats))
	for _, st := range stats {
		jobs = append(jobs, st)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].JobName < jobs[j].JobName })

	respondJSON(w, http.StatusOK, SchedulerResponse{
		Count: len(jobs),
		Jobs:  jobs,
	})
}
