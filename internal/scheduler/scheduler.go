package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/go-co-op/gocron/v2"
)

type TaskFn func(ctx context.Context) error

type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a scheduler whose crontab jobs run in loc.
func New(loc *time.Location) *Scheduler {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		panic(err.Error())
	}
	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	_ = s.scheduler.Shutdown()
}

func (s *Scheduler) createJob(jobDefinition gocron.JobDefinition, name string, fn TaskFn, startImmediately bool) {
	opts := []gocron.JobOption{gocron.WithSingletonMode(gocron.LimitModeReschedule), gocron.WithName(name)}

	if startImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := s.scheduler.NewJob(
		jobDefinition,
		gocron.NewTask(taskWithRecover(fn, name)),
		opts...,
	)

	if err != nil {
		slog.Error("Scheduler creating job error", slog.String("jobName", name), slog.String("err", err.Error()))
		panic(err.Error())
	}
}

func (s *Scheduler) NewIntervalJob(name string, fn TaskFn, interval time.Duration, startImmediately bool) {
	s.createJob(gocron.DurationJob(interval), name, fn, startImmediately)
}

func (s *Scheduler) NewCrontabJob(name string, fn TaskFn, crontab string, startImmediately bool) {
	s.createJob(gocron.CronJob(crontab, false), name, fn, startImmediately)
}

// IgnoreErrors wraps fn so that the listed errors don't count as a job failure.
func IgnoreErrors(fn TaskFn, ignored ...error) TaskFn {
	return func(ctx context.Context) error {
		err := fn(ctx)
		for _, target := range ignored {
			if errors.Is(err, target) {
				slog.Info("job error ignored", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
				return nil
			}
		}
		return err
	}
}

func taskWithRecover(fn TaskFn, jobName string) func(ctx context.Context) error {
	return func(ctx context.Context) (err error) {
		ctx = utils.NewCtxWithRqID(ctx)
		rqID := utils.GetRequestIDFromCtx(ctx)
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				slog.Error(
					"Panic recovered in scheduler job",
					slog.String("rqID", rqID),
					slog.String("jobName", jobName),
					slog.Any("panic", r),
					slog.String("stacktrace", string(debug.Stack())),
				)
				err = fmt.Errorf("job %s panicked: %v", jobName, r)
			}
		}()

		slog.Info("job start", slog.String("rqID", rqID), slog.String("jobName", jobName))

		err = fn(ctx)
		if err != nil {
			slog.Error("job failed", slog.String("rqID", rqID), slog.String("jobName", jobName), slog.Any("error", err))
		} else {
			slog.Info("job completed", slog.String("rqID", rqID), slog.String("jobName", jobName), slog.Duration("duration", time.Since(start)))
		}

		return err
	}
}
