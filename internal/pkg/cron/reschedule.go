package cron

import (
	"context"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
)

// RescheduleJobs contains reschedule housekeeping jobs
type RescheduleJobs struct {
	approvalService approval.ApprovalService
	interval        time.Duration
}

func NewRescheduleJobs(approvalService approval.ApprovalService, interval time.Duration) *RescheduleJobs {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RescheduleJobs{
		approvalService: approvalService,
		interval:        interval,
	}
}

// RegisterJobs registers all reschedule-related cron jobs
func (j *RescheduleJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("expire_stale_reschedules", j.interval, j.ExpireStaleReschedules)
}

// ExpireStaleReschedules closes pending reschedules whose new start date has passed
func (j *RescheduleJobs) ExpireStaleReschedules(ctx context.Context) error {
	_, err := j.approvalService.ExpireStaleReschedules(ctx)
	return err
}
