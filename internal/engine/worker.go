package engine

import (
	"context"
	"os/exec"
	"time"

	"bucketq/internal/logging"
	"bucketq/internal/model"
	"bucketq/internal/queue"

	"github.com/sirupsen/logrus"
)

// Worker takes jobs from a Queue and runs each body as a shell command.
type Worker struct {
	Queue     *queue.Queue
	Shell     string
	IdleSleep time.Duration
	// MaxQueued and Forced are passed to every Get.
	MaxQueued int
	Forced    bool
	// RequeueOnFailure moves a failed job back to pending instead of
	// leaving it queued.
	RequeueOnFailure bool
	Stop             *StopFile
	Log              logrus.FieldLogger
}

func NewWorker(q *queue.Queue) *Worker {
	return &Worker{
		Queue:     q,
		Shell:     "/bin/sh",
		IdleSleep: 300 * time.Millisecond,
		Log:       logging.Discard(),
	}
}

// Run loops until ctx is done or a stop is requested.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Log.Info("worker shutting down")
			return
		default:
		}
		if w.Stop != nil && w.Stop.Requested() {
			w.Log.Info("stop requested, worker exiting")
			return
		}

		job, err := w.Queue.Get(ctx, queue.GetOptions{Forced: w.Forced, MaxQueued: w.MaxQueued})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.Log.WithError(err).Warn("get failed")
			sleep(ctx, time.Second)
			continue
		}
		if job == nil {
			sleep(ctx, w.IdleSleep)
			continue
		}

		w.runJob(ctx, job)
	}
}

func (w *Worker) runJob(ctx context.Context, job *model.Job) {
	log := w.Log.WithField("job_id", job.ID)
	log.WithField("body", job.Body).Info("running job")

	cmd := exec.CommandContext(ctx, w.Shell, "-c", job.Body)
	if err := cmd.Run(); err != nil {
		log.WithError(err).Error("job failed")
		if w.RequeueOnFailure && !w.Forced {
			if err := w.Queue.Reput(context.WithoutCancel(ctx), job.ID); err != nil {
				log.WithError(err).Warn("requeue failed")
			}
		}
		return
	}

	if w.Forced {
		log.Info("job completed")
		return
	}
	if err := w.Queue.Finish(context.WithoutCancel(ctx), job.ID); err != nil {
		log.WithError(err).Warn("finish failed")
		return
	}
	log.Info("job completed")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
