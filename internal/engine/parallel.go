package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sqlprep/internal/apperr"
	"sqlprep/internal/render"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GroupResult is the outcome of one group in a parallel run.
type GroupResult struct {
	Group   Group
	Worker  int
	Err     error
	Elapsed time.Duration
}

// ClampWorkers keeps the pool between one worker and one worker per group.
func ClampWorkers(workers, groups int) int {
	if workers > groups {
		workers = groups
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// RunParallel renders the named file, splits it into groups and runs the
// groups on a pool of workers, each with its own connection opened from
// dsn. It returns once every group has finished. Failed groups are reported
// together in an *apperr.AggregateExecutionError; groups that succeeded stay
// applied.
func (p *Preprocessor) RunParallel(ctx context.Context, dsn, name string, workers int, params render.Params) error {
	if p.cfg.Open == nil {
		return apperr.Configf("no connection opener configured for parallel runs")
	}

	t, err := p.load(name)
	if err != nil {
		return err
	}
	text, err := p.renderWithOwnConn(ctx, dsn, t, params)
	if err != nil {
		return err
	}

	groups := Split(text)
	if len(groups) == 0 {
		p.log.Info("sql file rendered no statement groups", "file", name)
		return nil
	}
	if p.cfg.OnSplit != nil {
		p.cfg.OnSplit(groups)
	}
	return p.runGroups(ctx, dsn, name, groups, workers)
}

// renderWithOwnConn scopes the introspection connection to the render step.
func (p *Preprocessor) renderWithOwnConn(ctx context.Context, dsn string, t *render.Template, params render.Params) (string, error) {
	db, err := p.cfg.Open(ctx, dsn)
	if err != nil {
		return "", &apperr.ConnectionError{Op: "open introspection connection", Err: err}
	}
	defer db.Close()
	return p.execute(ctx, db, t, params)
}

func (p *Preprocessor) runGroups(ctx context.Context, dsn, name string, groups []Group, workers int) error {
	workers = ClampWorkers(workers, len(groups))
	log := p.log.With("session", uuid.NewString(), "file", name)
	log.Info("starting parallel run", "groups", len(groups), "workers", workers)
	start := time.Now()

	queue := make(chan Group, len(groups))
	for _, g := range groups {
		queue <- g
	}
	close(queue)
	results := make(chan GroupResult, len(groups))

	var eg errgroup.Group
	for w := 0; w < workers; w++ {
		id := w
		eg.Go(func() error {
			return p.worker(ctx, log, id, dsn, queue, results)
		})
	}
	openErr := eg.Wait()
	close(results)

	var failures []apperr.GroupFailure
	for r := range results {
		if r.Err != nil {
			failures = append(failures, apperr.GroupFailure{Group: r.Group.Index, Err: r.Err})
		}
	}
	// Left over only when every worker failed to connect.
	unattempted := 0
	for g := range queue {
		unattempted++
		failures = append(failures, apperr.GroupFailure{
			Group: g.Index,
			Err:   fmt.Errorf("group not attempted: %w", openErr),
		})
	}

	switch {
	case len(failures) > 0:
		log.Error("parallel run failed", "failed", len(failures), "groups", len(groups), "elapsed", time.Since(start))
		agg := apperr.NewAggregate(len(groups), failures)
		if openErr != nil && unattempted == 0 {
			return errors.Join(agg, openErr)
		}
		return agg
	case openErr != nil:
		// Every group ran, but a worker connection failure is still fatal.
		log.Error("parallel run lost a worker", "groups", len(groups), "error", openErr, "elapsed", time.Since(start))
		return openErr
	}
	log.Info("parallel run complete", "groups", len(groups), "elapsed", time.Since(start))
	return nil
}

// worker owns one connection for its whole life and runs groups from the
// queue until it is empty.
func (p *Preprocessor) worker(ctx context.Context, log *slog.Logger, id int, dsn string, queue <-chan Group, results chan<- GroupResult) error {
	db, err := p.cfg.Open(ctx, dsn)
	if err != nil {
		log.Warn("worker could not connect", "worker", id, "error", err)
		return &apperr.ConnectionError{Op: fmt.Sprintf("open connection for worker %d", id), Err: err}
	}
	defer db.Close()

	for g := range queue {
		results <- p.execGroup(ctx, log, id, db, g)
	}
	return nil
}

func (p *Preprocessor) execGroup(ctx context.Context, log *slog.Logger, worker int, conn Conn, g Group) (res GroupResult) {
	start := time.Now()
	res = GroupResult{Group: g, Worker: worker}
	defer func() {
		if r := recover(); r != nil {
			res.Err = &apperr.ExecutionError{Group: g.Index, Err: fmt.Errorf("panic: %v", r)}
		}
		res.Elapsed = time.Since(start)
		if p.cfg.OnGroupDone != nil {
			p.cfg.OnGroupDone(res)
		}
	}()

	if _, err := conn.ExecContext(ctx, g.SQL); err != nil {
		log.Error("group failed", "group", g.Index, "line", g.Line, "worker", worker, "error", apperr.Describe(err))
		res.Err = &apperr.ExecutionError{Group: g.Index, Err: err}
		return res
	}
	log.Debug("group done", "group", g.Index, "worker", worker, "elapsed", time.Since(start))
	return res
}
