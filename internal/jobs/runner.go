package jobs

import (
	"context"
	"time"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	loc *time.Location
}

func New(ctx context.Context, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.Local
	}
	return &Runner{ctx: ctx, loc: loc}
}

func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

// Weekly запускает задачу раз в неделю в заданный день и час в таймзоне
// конфига. Так крутится ротация редакторов.
func (r *Runner) Weekly(day time.Weekday, hour int, name string, fn Job) {
	go func() {
		for {
			wait := time.Until(nextWeekly(time.Now().In(r.loc), day, hour))
			t := time.NewTimer(wait)
			select {
			case <-r.ctx.Done():
				t.Stop()
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	if err := fn(r.ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

func nextWeekly(now time.Time, day time.Weekday, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	for next.Weekday() != day || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
