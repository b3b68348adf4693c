package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dbmrq/dotup/internal/brew"
	"github.com/dbmrq/dotup/internal/config"
	"github.com/dbmrq/dotup/internal/errors"
	"github.com/dbmrq/dotup/internal/hooks"
	"github.com/dbmrq/dotup/internal/logging"
	"github.com/dbmrq/dotup/internal/report"
)

// EventType identifies the type of engine event.
type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventRunCompleted   EventType = "run_completed"
	EventRunFailed      EventType = "run_failed"
	EventStepStarted    EventType = "step_started"
	EventStepCompleted  EventType = "step_completed"
	EventStepFailed     EventType = "step_failed"
	EventPackageUpdated EventType = "package_updated"
	EventHooksStarted   EventType = "hooks_started"
	EventHooksCompleted EventType = "hooks_completed"
	EventError          EventType = "error"
)

// Event represents an engine event for observers (TUI, logging).
type Event struct {
	Type      EventType
	Step      string
	StepIndex int
	StepCount int
	Package   *report.PackageOutcome
	Message   string
	Error     error
	Timestamp time.Time
}

// EventHandler is a callback for engine events.
type EventHandler func(event Event)

// Options configures a run.
type Options struct {
	// DryRun logs mutations instead of executing them.
	DryRun bool
	// BrewOnly keeps only Homebrew steps (formulae and casks).
	BrewOnly bool
	// CasksOnly keeps only cask steps.
	CasksOnly bool
	// Only restricts the run to the named steps.
	Only []string
	// Skip drops the named steps.
	Skip []string
	// Confirm is asked before destructive actions (optional; nil means
	// proceed without prompting).
	Confirm func(prompt string) bool
	// OnEvent is called for each engine event (optional).
	OnEvent EventHandler
}

// Engine executes an update run: pre-hooks, steps in order, post-hooks,
// and report persistence.
type Engine struct {
	cfg     *config.Config
	brewSvc *brew.Service
	runner  brew.Runner
	hookMgr *hooks.Manager
	store   *report.Store
	logger  *logging.Logger
	opts    *Options
}

// New creates an engine. store may be nil to disable report persistence;
// logger may be nil to use the global logger.
func New(cfg *config.Config, brewSvc *brew.Service, runner brew.Runner, hookMgr *hooks.Manager, store *report.Store, logger *logging.Logger, opts *Options) *Engine {
	if logger == nil {
		logger = logging.Global()
	}
	if opts == nil {
		opts = &Options{}
	}
	return &Engine{
		cfg:     cfg,
		brewSvc: brewSvc,
		runner:  runner,
		hookMgr: hookMgr,
		store:   store,
		logger:  logger,
		opts:    opts,
	}
}

// emit sends an event to the event handler if configured.
func (e *Engine) emit(event Event) {
	if e.opts.OnEvent != nil {
		event.Timestamp = time.Now()
		e.opts.OnEvent(event)
	}
}

// Steps returns the filtered step list this engine will run.
func (e *Engine) Steps() []Step {
	steps := BuildSteps(e.cfg, e.runner)
	return FilterSteps(steps, e.opts.BrewOnly, e.opts.CasksOnly, e.opts.Only, e.opts.Skip)
}

// Run executes the update run and returns its report. The report is
// returned even on error so partial progress can be rendered.
func (e *Engine) Run(ctx context.Context) (*report.RunReport, error) {
	if !e.brewSvc.IsInstalled() {
		return nil, errors.BrewNotInstalled()
	}

	runReport := report.NewRunReport(e.opts.DryRun)
	steps := e.Steps()

	e.logger.Info("starting update run",
		"run_id", runReport.ID,
		"steps", len(steps),
		"dry_run", e.opts.DryRun)
	e.emit(Event{Type: EventRunStarted, StepCount: len(steps), Message: runReport.ID})

	runErr := e.run(ctx, runReport, steps)

	runReport.Finish(runErr)
	e.runPostHooks(ctx, runReport)
	e.persist(runReport)

	if runErr != nil {
		e.logger.Error("update run failed", "run_id", runReport.ID, "error", runErr)
		e.emit(Event{Type: EventRunFailed, Error: runErr})
		return runReport, runErr
	}

	e.logger.Info("update run finished",
		"run_id", runReport.ID,
		"status", string(runReport.Status),
		"summary", runReport.Summary())
	e.emit(Event{Type: EventRunCompleted, Message: runReport.Summary()})
	return runReport, nil
}

// run executes pre-hooks and the step list.
func (e *Engine) run(ctx context.Context, runReport *report.RunReport, steps []Step) error {
	if err := e.runPreHooks(ctx, runReport); err != nil {
		return err
	}

	sc := &StepContext{
		Config:  e.cfg,
		Brew:    e.brewSvc,
		Runner:  e.runner,
		Logger:  e.logger,
		DryRun:  e.opts.DryRun,
		Confirm: e.opts.Confirm,
		OnPackage: func(step string, outcome report.PackageOutcome) {
			e.emit(Event{Type: EventPackageUpdated, Step: step, Package: &outcome})
		},
	}

	for i, step := range steps {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), errors.ErrTimeout, "run interrupted")
		}

		e.logger.Info("step started", "step", step.Name())
		e.emit(Event{Type: EventStepStarted, Step: step.Name(), StepIndex: i, StepCount: len(steps)})

		stepReport := e.runStep(ctx, sc, step)
		runReport.AddStep(stepReport)

		if stepReport.Status == report.StepFailed {
			e.logger.Warn("step failed, continuing",
				"step", step.Name(), "error", stepReport.Message)
			e.emit(Event{Type: EventStepFailed, Step: step.Name(), StepIndex: i, StepCount: len(steps), Message: stepReport.Message})

			// A cancelled context means nothing further can run
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), errors.ErrTimeout, "run interrupted")
			}
			continue
		}

		e.emit(Event{Type: EventStepCompleted, Step: step.Name(), StepIndex: i, StepCount: len(steps)})
	}

	return nil
}

// runStep executes a single step under the configured watchdog timeout.
func (e *Engine) runStep(ctx context.Context, sc *StepContext, step Step) report.StepReport {
	stepCtx := ctx
	if timeout := e.cfg.Steps.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	outcomes, err := step.Run(stepCtx, sc)

	stepReport := report.StepReport{
		Name:      step.Name(),
		Status:    report.StepOK,
		StartedAt: started,
		Duration:  time.Since(started),
		Packages:  outcomes,
	}
	if err != nil {
		stepReport.Status = report.StepFailed
		stepReport.Message = err.Error()
	}
	return stepReport
}

// runPreHooks executes pre-update hooks. An abort_run hook failure stops
// the run before any step executes.
func (e *Engine) runPreHooks(ctx context.Context, runReport *report.RunReport) error {
	if e.hookMgr == nil || !e.hookMgr.HasPreHooks() {
		return nil
	}

	e.emit(Event{Type: EventHooksStarted, Message: "pre-update hooks"})
	result := e.hookMgr.ExecutePreHooks(ctx, &hooks.Context{
		RunID:  runReport.ID,
		DryRun: e.opts.DryRun,
	})

	switch result.Action {
	case hooks.ManagerActionAbortRun:
		return errors.New(errors.ErrHook,
			fmt.Sprintf("pre-update hook aborted run: %s", e.hookMgr.FailedHookInfo(result)))
	case hooks.ManagerActionSkipRemaining:
		e.logger.Warn("pre-update hook failed, remaining pre-hooks skipped",
			"info", e.hookMgr.FailedHookInfo(result))
	}

	e.emit(Event{Type: EventHooksCompleted, Message: "pre-update hooks"})
	return nil
}

// runPostHooks executes post-update hooks. They run whether or not the run
// succeeded; their failures are logged but never change the run outcome.
func (e *Engine) runPostHooks(ctx context.Context, runReport *report.RunReport) {
	if e.hookMgr == nil || !e.hookMgr.HasPostHooks() {
		return
	}

	// Post-hooks still run when the step context was cancelled
	hookCtx := ctx
	if hookCtx.Err() != nil {
		hookCtx = context.WithoutCancel(ctx)
	}

	e.emit(Event{Type: EventHooksStarted, Message: "post-update hooks"})
	result := e.hookMgr.ExecutePostHooks(hookCtx, &hooks.Context{
		RunID:   runReport.ID,
		DryRun:  e.opts.DryRun,
		Status:  string(runReport.Status),
		Summary: runReport.Summary(),
	})

	if !result.AllSuccess {
		e.logger.Warn("post-update hook failed",
			"info", e.hookMgr.FailedHookInfo(result))
	}
	e.emit(Event{Type: EventHooksCompleted, Message: "post-update hooks"})
}

// persist saves the run report, logging failures without failing the run.
func (e *Engine) persist(runReport *report.RunReport) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(runReport); err != nil {
		e.logger.Warn("failed to save run report", "error", err)
		e.emit(Event{Type: EventError, Message: "failed to save run report", Error: err})
	}
}
