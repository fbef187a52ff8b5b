// Package pipeline drives one report end to end: tool checks, scope
// resolution, collection into a CSV file and the final outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mukfin/scripts/pkg/collector"
	"github.com/mukfin/scripts/pkg/csvreport"
	"github.com/mukfin/scripts/pkg/inventory"
	"github.com/mukfin/scripts/pkg/utils"
)

// Step is one source of a pipeline. A missing tool fails the run for a
// required step and only skips an optional one.
type Step struct {
	Source   collector.Source
	Required bool
}

// Pipeline runs a set of sources into one CSV report
type Pipeline struct {
	kind   Kind
	output string
	steps  []Step
	runner *collector.Runner
	logger *logrus.Logger

	toolExists func(name string) bool
	stdout     io.Writer
	state      State
}

// New creates a pipeline writing kind's schema to output
func New(kind Kind, output string, steps []Step, runner *collector.Runner, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		kind:       kind,
		output:     output,
		steps:      steps,
		runner:     runner,
		logger:     logger,
		toolExists: utils.BinaryExists,
		stdout:     os.Stdout,
		state:      StateInit,
	}
}

// WithToolCheck replaces the PATH lookup used to find external tools
func (p *Pipeline) WithToolCheck(fn func(name string) bool) *Pipeline {
	p.toolExists = fn
	return p
}

// WithStdout redirects the final outcome line
func (p *Pipeline) WithStdout(w io.Writer) *Pipeline {
	p.stdout = w
	return p
}

// State returns the current lifecycle state
func (p *Pipeline) State() State {
	return p.state
}

type resolvedStep struct {
	source   collector.Source
	scopes   []inventory.Scope
	warnings []inventory.Warning
}

// Run executes the pipeline. The summary is always returned, including on failure.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	startTime := time.Now()
	summary := &Summary{
		RunID:     uuid.NewString(),
		Kind:      p.kind,
		Output:    p.output,
		StartedAt: startTime,
	}
	p.transition(summary, StateInit)
	p.logger.Infof("Starting %s report (runId: %s, output: %s)", p.kind, summary.RunID, p.output)

	sources, err := p.checkTools(summary)
	if err != nil {
		return p.fail(summary, startTime, err)
	}

	p.transition(summary, StateResolvingScopes)
	resolved := make([]resolvedStep, 0, len(sources))
	for _, src := range sources {
		scopes, warnings := p.runner.Resolve(ctx, src)
		resolved = append(resolved, resolvedStep{source: src, scopes: scopes, warnings: warnings})
	}
	if err := ctx.Err(); err != nil {
		return p.fail(summary, startTime, fmt.Errorf("%s report interrupted: %w", p.kind, err))
	}

	writer, err := csvreport.Create(p.output, p.kind.Schema())
	if err != nil {
		return p.fail(summary, startTime, err)
	}

	p.transition(summary, StateCollecting)
	for _, step := range resolved {
		result, runErr := p.runner.Run(ctx, step.source, step.scopes, writer)
		result.Warnings = append(step.warnings, result.Warnings...)
		summary.Providers = append(summary.Providers, *result)
		summary.Warnings = append(summary.Warnings, result.Warnings...)
		summary.Rows += result.Rows
		if runErr != nil {
			_ = writer.Close()
			return p.fail(summary, startTime, runErr)
		}
	}

	p.transition(summary, StateFinalizing)
	if err := writer.Close(); err != nil {
		return p.fail(summary, startTime, err)
	}
	if written := writer.Rows(); written != summary.Rows {
		return p.fail(summary, startTime, fmt.Errorf("%s holds %d data rows but %d were collected", p.output, written, summary.Rows))
	}

	if summary.Rows == 0 {
		if p.kind.FailOnZeroRows() {
			p.logger.Errorf("%s; header-only report left at %s", p.kind.emptyMessage(), p.output)
			return p.fail(summary, startTime, fmt.Errorf("%s report: %w", p.kind, inventory.ErrZeroRows))
		}
		fmt.Fprintf(p.stdout, "%s. Wrote header only to %s\n", p.emptyOutcome(summary), p.output)
	} else {
		fmt.Fprintf(p.stdout, "Wrote %d records to %s\n", summary.Rows, p.output)
	}

	summary.Duration = time.Since(startTime)
	p.transition(summary, StateSuccess)
	p.logger.Infof("%s report completed (rows: %d, warnings: %d, duration: %s)",
		p.kind, summary.Rows, len(summary.Warnings), summary.Duration)
	return summary, nil
}

// checkTools drops optional sources whose tool is missing. A missing tool of
// a required source, or no source left at all, fails the run.
func (p *Pipeline) checkTools(summary *Summary) ([]collector.Source, error) {
	var sources []collector.Source
	for _, step := range p.steps {
		tool := step.Source.Tool()
		if tool == "" || p.toolExists(tool) {
			sources = append(sources, step.Source)
			continue
		}
		err := inventory.NewScopeError(inventory.ErrMissingTool, step.Source.Provider(), "",
			fmt.Errorf("%q is not installed or not in PATH", tool))
		if step.Required {
			return nil, err
		}
		w := inventory.WarningFromError(step.Source.Provider(), "", err)
		p.logger.Warnf("Skipping %s: %s", step.Source.Name(), w.Reason)
		summary.Warnings = append(summary.Warnings, w)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no source of the %s report can run: %w", p.kind, inventory.ErrMissingTool)
	}
	return sources, nil
}

// emptyOutcome tells an empty result apart from one where collection failed
func (p *Pipeline) emptyOutcome(summary *Summary) string {
	failed := 0
	for _, result := range summary.Providers {
		failed += result.Failed
	}
	switch {
	case failed > 0:
		return fmt.Sprintf("No rows written; %d scope(s) failed, see warnings", failed)
	case len(summary.Warnings) > 0:
		return fmt.Sprintf("No rows written; %d warning(s) reported, see warnings", len(summary.Warnings))
	default:
		return p.kind.emptyMessage()
	}
}

func (p *Pipeline) transition(summary *Summary, state State) {
	p.logger.Debugf("%s report: %s -> %s", p.kind, p.state, state)
	p.state = state
	summary.State = state
}

func (p *Pipeline) fail(summary *Summary, startTime time.Time, err error) (*Summary, error) {
	summary.Duration = time.Since(startTime)
	summary.Error = err.Error()
	p.transition(summary, StateFailure)
	if !errors.Is(err, inventory.ErrZeroRows) {
		p.logger.Errorf("%s report failed: %s", p.kind, err)
	}
	return summary, err
}
