// Package schedule runs a job once per day at a fixed wall-clock time in a
// fixed timezone.
package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Daily describes "every day at Hour:Minute in Location".
type Daily struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Next returns the first run strictly after now.
func (d Daily) Next(now time.Time) time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.Hour, d.Minute, 0, 0, loc)
	}
	return next
}

// Run blocks until ctx is done, invoking job at every scheduled time.
// A failing job is logged and retried at the next scheduled time.
func (d Daily) Run(ctx context.Context, name string, job func(context.Context) error) {
	for {
		next := d.Next(time.Now())
		slog.Info("scheduled job armed", "job", name, "next_run", next.Format(time.RFC3339))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := job(ctx); err != nil {
			slog.Error("scheduled job failed", "job", name, "err", err)
			continue
		}
		slog.Info("scheduled job complete", "job", name)
	}
}
