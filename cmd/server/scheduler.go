package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kardex/internal/domain/documents/adjustment"
	"kardex/pkg/logger"
)

// wallClock is a local HH:MM run time.
type wallClock struct {
	hour   int
	minute int
}

// parseSchedule parses "HH:MM" entries and returns them sorted.
func parseSchedule(times []string) ([]wallClock, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("schedule is empty")
	}

	schedule := make([]wallClock, 0, len(times))
	for _, raw := range times {
		var wc wallClock
		if _, err := fmt.Sscanf(raw, "%d:%d", &wc.hour, &wc.minute); err != nil {
			return nil, fmt.Errorf("parse time %q: %w", raw, err)
		}
		if wc.hour < 0 || wc.hour > 23 || wc.minute < 0 || wc.minute > 59 {
			return nil, fmt.Errorf("time %q out of range", raw)
		}
		schedule = append(schedule, wc)
	}

	sort.Slice(schedule, func(i, j int) bool {
		if schedule[i].hour != schedule[j].hour {
			return schedule[i].hour < schedule[j].hour
		}
		return schedule[i].minute < schedule[j].minute
	})
	return schedule, nil
}

// nextRun returns the earliest scheduled time after now.
func nextRun(now time.Time, schedule []wallClock) time.Time {
	for _, wc := range schedule {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), wc.hour, wc.minute, 0, 0, now.Location())
		if candidate.After(now) {
			return candidate
		}
	}

	// All of today's slots have passed; take tomorrow's first.
	first := schedule[0]
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.hour, first.minute, 0, 0, now.Location())
}

// runScheduler fires the consumption run at each configured wall-clock
// time until ctx is cancelled. A failed run is logged and the scheduler
// keeps going; the next slot retries against the same report.
func runScheduler(ctx context.Context, log *logger.Logger, schedule []wallClock, svc *adjustment.ConsumptionService) {
	log.Infow("consumption scheduler started", "slots", len(schedule))

	for {
		wait := time.Until(nextRun(time.Now(), schedule))
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("consumption scheduler stopped")
			return
		case <-timer.C:
		}

		result, err := svc.Run(ctx)
		if err != nil {
			log.Errorw("scheduled consumption run failed", "error", err)
			continue
		}
		log.Infow("scheduled consumption run finished",
			"consumed", result.Consumed,
			"failures", len(result.Failures),
			"adjustmentNumber", result.AdjustmentNumber,
		)
	}
}
