package invitationsrv

import (
	"context"
	"time"

	"github.com/hirecopilot/relay/pkg/jobx"
	"github.com/hirecopilot/relay/pkg/logx"
)

// JobTypeExpirySweep is the background job that removes invites whose
// redemption window has closed. Expiry is enforced at read and redeem time
// regardless; the sweep only keeps the table from accumulating dead rows.
const JobTypeExpirySweep = "invitation:expiry_sweep"

// SweepQueue is the queue expiry sweeps run on.
const SweepQueue = "maintenance"

// RegisterJobs wires the invitation background jobs into the worker. The
// sweep reschedules itself, so one seed enqueue keeps it running.
func RegisterJobs(client *jobx.Client, svc *InvitationService, interval time.Duration) {
	client.Register(JobTypeExpirySweep, func(ctx context.Context, job *jobx.JobInfo) error {
		if _, err := svc.SweepExpired(ctx); err != nil {
			return err
		}

		if _, err := client.EnqueueDelayed(ctx, sweepJob(), interval); err != nil {
			logx.WithError(err).Warn("failed to reschedule invitation expiry sweep")
		}
		return nil
	})
}

// ScheduleExpirySweep seeds the self-rescheduling sweep job.
func ScheduleExpirySweep(ctx context.Context, enqueuer jobx.JobEnqueuer, delay time.Duration) error {
	if _, err := enqueuer.EnqueueDelayed(ctx, sweepJob(), delay); err != nil {
		return err
	}
	return nil
}

func sweepJob() jobx.Job {
	return jobx.Job{
		Type:       JobTypeExpirySweep,
		Queue:      SweepQueue,
		MaxRetries: 1, // the next cycle is the retry
	}
}
