package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/calendar"
)

// jobTimeout bounds a single run of a background job.
const jobTimeout = 10 * time.Minute

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// newScheduler schedules the weekly digest and the syllabus sweep of conf.Jobs.
// An empty spec disables its job.
func newScheduler(conf *core.Config, svc calendar.ServiceInterface, logger core.Logger) (*cron.Cron, error) {
	loc := conf.Location()
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) (string, error)
	}{
		{
			name: "digest",
			spec: conf.Jobs.DigestSpec,
			run: func(ctx context.Context) (string, error) {
				n, err := svc.SendDigests(ctx, time.Now().In(loc))
				return fmt.Sprintf("%d digests sent", n), err
			},
		},
		{
			name: "sweep",
			spec: conf.Jobs.SweepSpec,
			run: func(ctx context.Context) (string, error) {
				results, err := svc.Sweep(ctx)
				return fmt.Sprintf("%d syllabi processed", len(results)), err
			},
		},
	}

	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		job := job
		_, err := c.AddFunc(job.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			summary, err := job.run(ctx)
			if err != nil {
				logger.Error(fmt.Sprintf("jobs: %s failed", job.name), err)
				return
			}
			logger.Info(fmt.Sprintf("jobs: %s: %s", job.name, summary))
		})
		if err != nil {
			return nil, errors.Wrapf(err, "scheduling %s job (%q)", job.name, job.spec)
		}
	}
	return c, nil
}
