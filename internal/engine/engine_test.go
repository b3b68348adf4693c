package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/dbmrq/dotup/internal/brew"
	"github.com/dbmrq/dotup/internal/config"
	dotuperrors "github.com/dbmrq/dotup/internal/errors"
	"github.com/dbmrq/dotup/internal/hooks"
	"github.com/dbmrq/dotup/internal/logging"
	"github.com/dbmrq/dotup/internal/report"
)

// fakeRunner returns canned results keyed by the joined command line.
// Results for a command are consumed in order; the last one repeats.
type fakeRunner struct {
	commands []string
	results  map[string][]*brew.Result
	missing  map[string]bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string][]*brew.Result),
		missing: make(map[string]bool),
	}
}

func (f *fakeRunner) on(cmd string, results ...*brew.Result) {
	f.results[cmd] = append(f.results[cmd], results...)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (*brew.Result, error) {
	cmd := name + " " + strings.Join(args, " ")
	f.commands = append(f.commands, cmd)
	queue := f.results[cmd]
	if len(queue) == 0 {
		return &brew.Result{}, nil
	}
	result := queue[0]
	if len(queue) > 1 {
		f.results[cmd] = queue[1:]
	}
	return result, nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/opt/homebrew/bin/" + name, nil
}

func (f *fakeRunner) count(cmd string) int {
	n := 0
	for _, c := range f.commands {
		if c == cmd {
			n++
		}
	}
	return n
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Retry.Delay = 0
	return cfg
}

func newStepContext(runner *fakeRunner, cfg *config.Config) *StepContext {
	return &StepContext{
		Config: cfg,
		Brew:   brew.NewService(runner, logging.NewNoop(), false),
		Runner: runner,
		Logger: logging.NewNoop(),
	}
}

const outdatedOneCask = `{"formulae":[],"casks":[{"name":"docker","installed_versions":["4.30.0"],"current_version":"4.34.2"}]}`

func TestBuildSteps_Defaults(t *testing.T) {
	runner := newFakeRunner()
	steps := BuildSteps(testConfig(), runner)

	var names []string
	for _, s := range steps {
		names = append(names, s.Name())
	}
	want := []string{StepBrewUpdate, StepBrewUpgrade, StepCaskUpgrade, StepBrewCleanup}
	if len(names) != len(want) {
		t.Fatalf("steps = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("step[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestBuildSteps_Toggles(t *testing.T) {
	cfg := testConfig()
	cfg.Brew.Update = false
	cfg.Brew.Cleanup = false
	cfg.Brew.Brewfile = "/tmp/Brewfile"
	cfg.Casks.Remove = []string{"legacy-app"}

	steps := BuildSteps(cfg, newFakeRunner())

	var names []string
	for _, s := range steps {
		names = append(names, s.Name())
	}
	want := []string{StepCaskRemove, StepBrewUpgrade, StepCaskUpgrade, StepBrewfileSync}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("steps = %v, want %v", names, want)
	}
}

func TestFilterSteps(t *testing.T) {
	cfg := testConfig()
	cfg.Casks.Remove = []string{"x"}
	cfg.Steps.Extra = []string{"mas"}
	steps := BuildSteps(cfg, newFakeRunner())

	names := func(steps []Step) string {
		var out []string
		for _, s := range steps {
			out = append(out, s.Name())
		}
		return strings.Join(out, ",")
	}

	if got := names(FilterSteps(steps, true, false, nil, nil)); strings.Contains(got, "mas") {
		t.Errorf("brew-only kept extras: %s", got)
	}
	if got := names(FilterSteps(steps, false, true, nil, nil)); got != "cask-remove,cask-upgrade" {
		t.Errorf("casks-only = %s", got)
	}
	if got := names(FilterSteps(steps, false, false, []string{StepBrewUpdate}, nil)); got != "brew-update" {
		t.Errorf("only filter = %s", got)
	}
	if got := names(FilterSteps(steps, false, false, nil, []string{StepBrewCleanup})); strings.Contains(got, "cleanup") {
		t.Errorf("skip filter kept cleanup: %s", got)
	}
}

func TestDiscoverExtras(t *testing.T) {
	runner := newFakeRunner()
	runner.missing["gem"] = true

	cfg := testConfig()
	cfg.Steps.Extra = []string{"mas", "gem", "bogus"}

	steps := DiscoverExtras(cfg, runner)
	if len(steps) != 1 || steps[0].Name() != "mas" {
		t.Errorf("unexpected extras: %+v", steps)
	}
}

func TestCaskUpgrade_Success(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew outdated --json=v2", &brew.Result{Stdout: outdatedOneCask})

	sc := newStepContext(runner, testConfig())
	outcomes, err := (&caskUpgradeStep{}).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Action != report.ActionUpgraded {
		t.Errorf("unexpected outcomes: %+v", outcomes)
	}
	if outcomes[0].FromVersion != "4.30.0" || outcomes[0].ToVersion != "4.34.2" {
		t.Errorf("missing versions: %+v", outcomes[0])
	}
}

func TestCaskUpgrade_IgnoreList(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew outdated --json=v2", &brew.Result{Stdout: outdatedOneCask})

	cfg := testConfig()
	cfg.Casks.Ignore = []string{"docker"}

	sc := newStepContext(runner, cfg)
	outcomes, err := (&caskUpgradeStep{}).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("ignored cask was touched: %+v", outcomes)
	}
	if runner.count("brew upgrade --cask docker") != 0 {
		t.Error("ignored cask was upgraded")
	}
}

func TestCaskUpgrade_ConflictReinstalls(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew outdated --json=v2", &brew.Result{Stdout: outdatedOneCask})
	runner.on("brew upgrade --cask docker", &brew.Result{
		ExitCode: 1,
		Stderr:   "Error: It seems there is already an App at '/Applications/Docker.app'.",
	})

	sc := newStepContext(runner, testConfig())
	outcomes, err := (&caskUpgradeStep{}).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Action != report.ActionReinstalled {
		t.Errorf("unexpected outcomes: %+v", outcomes)
	}
	if runner.count("brew reinstall --cask --force docker") != 1 {
		t.Error("conflict should force-reinstall the cask")
	}
	// The reinstall replaces the retry; no second upgrade attempt
	if runner.count("brew upgrade --cask docker") != 1 {
		t.Error("conflicted upgrade should not be retried")
	}
}

func TestCaskUpgrade_TransientSkips(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew outdated --json=v2", &brew.Result{Stdout: outdatedOneCask})
	runner.on("brew upgrade --cask docker", &brew.Result{
		ExitCode: 1,
		Stderr:   "curl: (56) Recv failure: Connection reset by peer\nError: Download failed",
	})

	sc := newStepContext(runner, testConfig())
	outcomes, err := (&caskUpgradeStep{}).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Action != report.ActionSkipped {
		t.Errorf("unexpected outcomes: %+v", outcomes)
	}
	// Transient failures are not retried
	if runner.count("brew upgrade --cask docker") != 1 {
		t.Error("transient failure should not be retried")
	}
}

func TestCaskUpgrade_RetrySucceeds(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew outdated --json=v2", &brew.Result{Stdout: outdatedOneCask})
	runner.on("brew upgrade --cask docker",
		&brew.Result{ExitCode: 1, Stderr: "Error: something went sideways"},
		&brew.Result{ExitCode: 0},
	)

	sc := newStepContext(runner, testConfig())
	outcomes, err := (&caskUpgradeStep{}).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Action != report.ActionUpgraded {
		t.Errorf("unexpected outcomes: %+v", outcomes)
	}
	if !strings.Contains(outcomes[0].Detail, "retry") {
		t.Errorf("expected retry notice, got %q", outcomes[0].Detail)
	}
	if runner.count("brew upgrade --cask docker") != 2 {
		t.Errorf("expected 2 attempts, got %d", runner.count("brew upgrade --cask docker"))
	}
}

func TestCaskUpgrade_RetryExhausted(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew outdated --json=v2", &brew.Result{Stdout: outdatedOneCask})
	runner.on("brew upgrade --cask docker",
		&brew.Result{ExitCode: 1, Stderr: "Error: something went sideways"},
	)

	sc := newStepContext(runner, testConfig())
	outcomes, err := (&caskUpgradeStep{}).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Action != report.ActionFailed {
		t.Errorf("unexpected outcomes: %+v", outcomes)
	}
	// First attempt plus the configured single retry
	if got := runner.count("brew upgrade --cask docker"); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestCaskRemove(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew list --cask -1", &brew.Result{Stdout: "docker\nlegacy-app\n"})

	cfg := testConfig()
	cfg.Casks.Remove = []string{"legacy-app", "gone-already"}

	sc := newStepContext(runner, cfg)
	outcomes, err := (&caskRemoveStep{}).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %+v", outcomes)
	}
	if outcomes[0].Action != report.ActionRemoved {
		t.Errorf("legacy-app = %+v, want removed", outcomes[0])
	}
	if outcomes[1].Action != report.ActionSkipped || outcomes[1].Detail != "not installed" {
		t.Errorf("gone-already = %+v, want skipped", outcomes[1])
	}
	if runner.count("brew uninstall --cask legacy-app") != 1 {
		t.Error("expected uninstall of legacy-app")
	}
	if runner.count("brew uninstall --cask gone-already") != 0 {
		t.Error("should not uninstall a cask that is not installed")
	}
}

func TestCaskRemove_Declined(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew list --cask -1", &brew.Result{Stdout: "legacy-app\n"})

	cfg := testConfig()
	cfg.Casks.Remove = []string{"legacy-app"}

	sc := newStepContext(runner, cfg)
	sc.Confirm = func(prompt string) bool { return false }

	outcomes, err := (&caskRemoveStep{}).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Action != report.ActionSkipped || outcomes[0].Detail != "declined" {
		t.Fatalf("outcomes = %+v, want one declined skip", outcomes)
	}
	if runner.count("brew uninstall --cask legacy-app") != 0 {
		t.Error("declined cask should not be uninstalled")
	}
}

func TestBrewUpgrade_PinnedFormulaeSkipped(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew outdated --json=v2", &brew.Result{
		Stdout: `{"formulae":[{"name":"go","installed_versions":["1.23.0"],"current_version":"1.24.2"},{"name":"node","installed_versions":["20.0.0"],"current_version":"23.0.0","pinned":true}],"casks":[]}`,
	})

	sc := newStepContext(runner, testConfig())
	outcomes, err := (&brewUpgradeStep{}).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %+v", outcomes)
	}
	if outcomes[0].Action != report.ActionUpgraded {
		t.Errorf("go = %+v, want upgraded", outcomes[0])
	}
	if outcomes[1].Action != report.ActionSkipped || outcomes[1].Detail != "pinned" {
		t.Errorf("node = %+v, want skipped (pinned)", outcomes[1])
	}
}

func newTestEngine(runner *fakeRunner, cfg *config.Config, opts *Options) *Engine {
	svc := brew.NewService(runner, logging.NewNoop(), opts != nil && opts.DryRun)
	hookMgr := hooks.NewManagerFromConfig(&cfg.Hooks)
	return New(cfg, svc, runner, hookMgr, nil, logging.NewNoop(), opts)
}

func TestEngine_Run(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew outdated --json=v2",
		&brew.Result{Stdout: outdatedOneCask},
		&brew.Result{Stdout: outdatedOneCask},
	)

	var events []EventType
	opts := &Options{OnEvent: func(e Event) { events = append(events, e.Type) }}

	eng := newTestEngine(runner, testConfig(), opts)
	runReport, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if runReport.Status != report.StatusOK {
		t.Errorf("status = %q, want ok", runReport.Status)
	}
	if len(runReport.Steps) != 4 {
		t.Errorf("expected 4 steps, got %d", len(runReport.Steps))
	}
	if runner.count("brew update") != 1 || runner.count("brew cleanup") != 1 {
		t.Errorf("missing commands: %v", runner.commands)
	}

	var sawStart, sawComplete bool
	for _, e := range events {
		if e == EventRunStarted {
			sawStart = true
		}
		if e == EventRunCompleted {
			sawComplete = true
		}
	}
	if !sawStart || !sawComplete {
		t.Errorf("missing run events: %v", events)
	}
}

func TestEngine_Run_BrewMissing(t *testing.T) {
	runner := newFakeRunner()
	runner.missing["brew"] = true

	eng := newTestEngine(runner, testConfig(), nil)
	if _, err := eng.Run(context.Background()); err == nil {
		t.Error("expected error when brew is missing")
	}
}

func TestEngine_Run_StepFailureContinues(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew update", &brew.Result{ExitCode: 1, Stderr: "Error: update failed"})

	eng := newTestEngine(runner, testConfig(), nil)
	runReport, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if runReport.Status != report.StatusPartial {
		t.Errorf("status = %q, want partial", runReport.Status)
	}
	if runner.count("brew cleanup") != 1 {
		t.Error("later steps should still run after a step failure")
	}
}

func TestEngine_Run_PreHookAborts(t *testing.T) {
	cfg := testConfig()
	cfg.Hooks.PreUpdate = []config.HookDefinition{{
		Command:   "exit 1",
		OnFailure: config.FailureModeAbortRun,
	}}

	runner := newFakeRunner()
	eng := newTestEngine(runner, cfg, nil)

	runReport, err := eng.Run(context.Background())
	if err == nil {
		t.Fatal("expected abort error")
	}
	if !dotuperrors.Is(err, dotuperrors.ErrHook) {
		t.Errorf("expected hook error, got %v", err)
	}
	if runReport.Status != report.StatusFailed {
		t.Errorf("status = %q, want failed", runReport.Status)
	}
	if runner.count("brew update") != 0 {
		t.Error("no steps should run after an aborting pre-hook")
	}
}

func TestEngine_Run_PostHooksAlwaysRun(t *testing.T) {
	marker := t.TempDir() + "/ran"
	cfg := testConfig()
	cfg.Brew.UpgradeFormulae = false
	cfg.Brew.UpgradeCasks = false
	cfg.Brew.Cleanup = false
	cfg.Hooks.PostUpdate = []config.HookDefinition{{Command: "touch " + marker}}

	runner := newFakeRunner()
	runner.on("brew update", &brew.Result{ExitCode: 1, Stderr: "Error: boom"})

	eng := newTestEngine(runner, cfg, nil)
	if _, err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, err := os.Stat(marker); err != nil {
		t.Error("post-update hook did not run")
	}
}

func TestEngine_Run_DryRun(t *testing.T) {
	runner := newFakeRunner()
	runner.on("brew outdated --json=v2",
		&brew.Result{Stdout: outdatedOneCask},
		&brew.Result{Stdout: outdatedOneCask},
	)

	eng := newTestEngine(runner, testConfig(), &Options{DryRun: true})
	runReport, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !runReport.DryRun {
		t.Error("report should be marked dry run")
	}
	if runner.count("brew update") != 0 || runner.count("brew upgrade --cask docker") != 0 {
		t.Errorf("dry run executed mutations: %v", runner.commands)
	}
	// Read-only queries still run
	if runner.count("brew outdated --json=v2") == 0 {
		t.Error("dry run should still query outdated packages")
	}
}
