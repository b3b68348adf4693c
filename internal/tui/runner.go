package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dbmrq/dotup/internal/engine"
)

// Runner coordinates the progress display and an engine run.
// The engine runs in a goroutine while the TUI owns the terminal.
type Runner struct {
	model   *Model
	program *tea.Program
}

// NewRunner creates a runner with a fresh progress model.
func NewRunner(title string) *Runner {
	model := NewModel(title)
	return &Runner{
		model:   model,
		program: tea.NewProgram(model),
	}
}

// HandleEvent translates engine events to TUI messages.
// It implements the engine.EventHandler signature.
func (r *Runner) HandleEvent(event engine.Event) {
	if r.program == nil {
		return
	}

	switch event.Type {
	case engine.EventStepStarted:
		r.program.Send(StepStartedMsg{
			Name:  event.Step,
			Index: event.StepIndex,
			Count: event.StepCount,
		})

	case engine.EventStepCompleted:
		r.program.Send(StepFinishedMsg{Name: event.Step})

	case engine.EventStepFailed:
		r.program.Send(StepFinishedMsg{
			Name:    event.Step,
			Failed:  true,
			Message: event.Message,
		})

	case engine.EventPackageUpdated:
		if event.Package != nil {
			r.program.Send(PackageMsg{Step: event.Step, Outcome: *event.Package})
		}

	case engine.EventRunCompleted:
		r.program.Send(RunFinishedMsg{Summary: event.Message})

	case engine.EventRunFailed:
		msg := RunFinishedMsg{Summary: "run failed"}
		if event.Error != nil {
			msg.Err = event.Error.Error()
		}
		r.program.Send(msg)
	}
}

// Run executes the engine run and the TUI concurrently. The returned error
// is the run's error; TUI errors are reported only when the run succeeded.
func (r *Runner) Run(run func() error) error {
	runDone := make(chan error, 1)

	go func() {
		err := run()
		runDone <- err

		// The engine's run_completed/run_failed event quits the TUI; this
		// covers runs that error before the engine starts emitting.
		r.program.Send(RunFinishedMsg{Summary: "done"})
	}()

	_, tuiErr := r.program.Run()

	select {
	case runErr := <-runDone:
		if runErr != nil {
			return runErr
		}
	default:
		// TUI was quit early; let the run finish in the background
		runErr := <-runDone
		if runErr != nil {
			return runErr
		}
	}

	return tuiErr
}
