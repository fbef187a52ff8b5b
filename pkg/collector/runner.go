// Package collector walks the scopes of a source, normalizes what each scope
// returns and streams the rows into a sink. Scope failures become warnings;
// only sink failures and cancellation stop a run.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mukfin/scripts/pkg/inventory"
)

// Source produces canonical rows for one provider and report kind
type Source interface {
	// Name identifies the source in logs and summaries
	Name() string

	// Provider returns the cloud provider the source talks to
	Provider() inventory.Provider

	// Tool returns the external command the source shells out to, or "" when none
	Tool() string

	// Scopes resolves the scopes to collect. An error means the provider
	// cannot be enumerated at all.
	Scopes(ctx context.Context) ([]inventory.Scope, []inventory.Warning, error)

	// Collect fetches and normalizes a single scope
	Collect(ctx context.Context, scope inventory.Scope) (inventory.Batch, error)
}

// Sink receives rows from a single goroutine at a time
type Sink interface {
	WriteRows(rows []inventory.Row) error
}

// Runner executes sources. With parallelism above one, scopes are fetched
// concurrently but their batches are still emitted in scope order.
type Runner struct {
	logger      *logrus.Logger
	parallelism int
}

// NewRunner creates a runner. Parallelism below one is treated as one.
func NewRunner(logger *logrus.Logger, parallelism int) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{logger: logger, parallelism: parallelism}
}

// Resolve asks the source for its scopes. A provider-wide failure is turned
// into a warning and yields no scopes.
func (r *Runner) Resolve(ctx context.Context, src Source) ([]inventory.Scope, []inventory.Warning) {
	r.logger.Infof("Resolving %s scopes for %s", src.Provider(), src.Name())

	scopes, warnings, err := src.Scopes(ctx)
	if err != nil {
		if !errors.Is(err, inventory.ErrAuth) {
			err = inventory.NewScopeError(inventory.ErrAuth, src.Provider(), "", err)
		}
		warnings = append(warnings, inventory.WarningFromError(src.Provider(), "", err))
		scopes = nil
	}

	for _, w := range warnings {
		r.logger.Warn(w.String())
	}
	r.logger.Infof("Resolved %d %s scope(s) for %s", len(scopes), src.Provider(), src.Name())
	return scopes, warnings
}

type outcome struct {
	batch inventory.Batch
	err   error
}

// Run collects every scope and writes the rows to sink. The returned result
// is never nil; the error is only set when the sink fails or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, src Source, scopes []inventory.Scope, sink Sink) (*inventory.Result, error) {
	result := &inventory.Result{
		Source:   src.Name(),
		Provider: src.Provider(),
		Scopes:   len(scopes),
	}
	if len(scopes) == 0 {
		r.logger.Infof("No %s scopes to collect for %s", src.Provider(), src.Name())
		return result, nil
	}

	startTime := time.Now()
	emit := func(scope inventory.Scope, o outcome) error {
		return r.emit(src, scope, o, sink, result)
	}

	var err error
	if r.parallelism == 1 || len(scopes) == 1 {
		err = r.runSequential(ctx, src, scopes, emit)
	} else {
		err = r.runParallel(ctx, src, scopes, emit)
	}
	if err != nil {
		return result, err
	}

	r.logger.Infof("Collected %d row(s) from %d %s scope(s) for %s (failedScopes: %d, duration: %s)",
		result.Rows, result.Scopes, src.Provider(), src.Name(), result.Failed, time.Since(startTime))
	return result, nil
}

func (r *Runner) runSequential(ctx context.Context, src Source, scopes []inventory.Scope,
	emit func(inventory.Scope, outcome) error) error {
	for _, scope := range scopes {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("collection of %s interrupted: %w", src.Name(), err)
		}
		r.logger.Debugf("Collecting %s", scope)
		batch, err := src.Collect(ctx, scope)
		if err := emit(scope, outcome{batch: batch, err: err}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runParallel(ctx context.Context, src Source, scopes []inventory.Scope,
	emit func(inventory.Scope, outcome) error) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]outcome, len(scopes))
	done := make([]chan struct{}, len(scopes))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	spawned := make(chan struct{})
	go func() {
		defer close(spawned)
		for i, scope := range scopes {
			if fetchCtx.Err() != nil {
				return
			}
			i, scope := i, scope
			g.Go(func() error {
				defer close(done[i])
				r.logger.Debugf("Collecting %s", scope)
				batch, err := src.Collect(fetchCtx, scope)
				outcomes[i] = outcome{batch: batch, err: err}
				return nil
			})
		}
	}()

	var emitErr error
	for i, scope := range scopes {
		select {
		case <-done[i]:
		case <-ctx.Done():
			emitErr = fmt.Errorf("collection of %s interrupted: %w", src.Name(), ctx.Err())
		}
		if emitErr != nil {
			break
		}
		if err := emit(scope, outcomes[i]); err != nil {
			emitErr = err
			break
		}
	}

	cancel()
	<-spawned
	_ = g.Wait()
	return emitErr
}

// emit applies one scope outcome to the result, writing its rows to sink
func (r *Runner) emit(src Source, scope inventory.Scope, o outcome, sink Sink, result *inventory.Result) error {
	if o.err != nil {
		err := o.err
		if !errors.Is(err, inventory.ErrFetch) && !errors.Is(err, inventory.ErrScopeNotFound) {
			err = inventory.NewScopeError(inventory.ErrFetch, src.Provider(), scope.Label(), err)
		}
		w := inventory.WarningFromError(src.Provider(), scope.Label(), err)
		r.logger.Warnf("Skipping %s: %s", scope, err)
		result.AddWarning(w)
		result.Failed++
		return nil
	}

	for _, w := range o.batch.Warnings {
		r.logger.Warn(w.String())
		result.AddWarning(w)
	}

	if len(o.batch.Rows) == 0 {
		r.logger.Debugf("%s returned no rows", scope)
		return nil
	}
	if err := sink.WriteRows(o.batch.Rows); err != nil {
		return fmt.Errorf("failed to write rows of %s: %w", scope, err)
	}
	result.Rows += len(o.batch.Rows)
	r.logger.Infof("Collected %d row(s) from %s", len(o.batch.Rows), scope)
	return nil
}
