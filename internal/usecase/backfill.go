package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	applogger "SigForge/pkg/logger"
	pkgqueue "SigForge/pkg/queue"
	"SigForge/pkg/util"
)

const defaultBackfillWorkers = 4

// Backfill expands a symbol list and an inclusive date range into one
// pipeline unit per (symbol, day) and executes them. With a queue attached
// the units are enqueued for the worker pool; without one they run inline on
// a bounded local pool. Unit failures are logged and counted, they never
// abort the rest of the plan.
type Backfill struct {
	runner  *PipelineRunner
	queue   *pkgqueue.RedisQueue
	workers int
	l       *applogger.Logger
}

func NewBackfill(runner *PipelineRunner, queue *pkgqueue.RedisQueue, workers int, l *applogger.Logger) *Backfill {
	if workers <= 0 {
		workers = defaultBackfillWorkers
	}
	return &Backfill{runner: runner, queue: queue, workers: workers, l: l}
}

type backfillUnit struct {
	symbol string
	date   string
}

// Run returns the number of units completed (or enqueued). The returned
// error is reserved for plan-level problems: bad dates, no symbols, or a
// cancelled context; per-unit failures only reduce the count.
func (b *Backfill) Run(ctx context.Context, symbols []string, from, to, task string) (int, error) {
	if !IsValidTask(task) {
		return 0, fmt.Errorf("unknown task %q", task)
	}
	units, err := b.plan(symbols, from, to)
	if err != nil {
		return 0, err
	}
	b.l.Info("backfill planned",
		applogger.Int("units", len(units)),
		applogger.String("from", from),
		applogger.String("to", to),
		applogger.String("task", task),
	)

	if b.queue != nil {
		return b.enqueue(ctx, units, task)
	}
	return b.runInline(ctx, units, task)
}

func (b *Backfill) plan(symbols []string, from, to string) ([]backfillUnit, error) {
	start, err := util.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("backfill from: %w", err)
	}
	end, err := util.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("backfill to: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("backfill range %s..%s is inverted", from, to)
	}

	var units []backfillUnit
	for _, raw := range symbols {
		symbol := util.NormalizeSymbol(raw)
		if symbol == "" {
			continue
		}
		for _, day := range util.DateRange(start, end) {
			units = append(units, backfillUnit{symbol: symbol, date: util.FormatDate(day)})
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("backfill has no symbols")
	}
	return units, nil
}

func (b *Backfill) enqueue(ctx context.Context, units []backfillUnit, task string) (int, error) {
	enqueued := 0
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return enqueued, err
		}
		payload := PipelineJobPayload{Symbol: u.symbol, Date: u.date, Task: task}
		if err := b.queue.Enqueue(ctx, JobTypePipelineRun, payload); err != nil {
			b.l.Warn("backfill enqueue failed",
				applogger.String("symbol", u.symbol),
				applogger.String("date", u.date),
				applogger.Error(err),
			)
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

func (b *Backfill) runInline(ctx context.Context, units []backfillUnit, task string) (int, error) {
	type result struct {
		unit backfillUnit
		err  error
	}
	jobs := make(chan backfillUnit, len(units))
	results := make(chan result, len(units))

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{unit: u, err: err}
					continue
				}
				_, err := b.runner.RunTask(ctx, u.symbol, u.date, task)
				results <- result{unit: u, err: err}
			}
		}()
	}
	for _, u := range units {
		jobs <- u
	}
	close(jobs)
	go func() { wg.Wait(); close(results) }()

	start := time.Now()
	done := 0
	for res := range results {
		if res.err != nil {
			if ctx.Err() == nil {
				b.l.Warn("backfill unit failed",
					applogger.String("symbol", res.unit.symbol),
					applogger.String("date", res.unit.date),
					applogger.Error(res.err),
				)
			}
			continue
		}
		done++
	}
	b.l.Info("backfill finished",
		applogger.Int("done", done),
		applogger.Int("failed", len(units)-done),
		applogger.Duration("duration", time.Since(start)),
	)
	if err := ctx.Err(); err != nil {
		return done, err
	}
	return done, nil
}
