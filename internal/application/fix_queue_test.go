package application_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/phpsniff/phpsniff/internal/application"
	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixQueue(runner *fakeRunner, cfg domain.RunConfig, debugOut *bytes.Buffer) (*application.FixQueue, *recorder) {
	bus := events.NewBus()
	rec := record(bus)
	if debugOut == nil {
		return application.NewFixQueue(runner, cfg, bus, nil), rec
	}
	return application.NewFixQueue(runner, cfg, bus, debugOut), rec
}

func TestFixQueue_EmptySet(t *testing.T) {
	runner := newFakeRunner()
	q, rec := newFixQueue(runner, testRunConfig(), nil)

	result := q.Fix(withTimeout(t), nil)

	assert.Empty(t, result.Files)
	assert.Empty(t, runner.Started())
	assert.Equal(t, []events.Kind{events.KindFixStart, events.KindFixed}, rec.Kinds())
}

func TestFixQueue_FixesEveryFile(t *testing.T) {
	runner := newFakeRunner()
	q, rec := newFixQueue(runner, testRunConfig(), nil)

	result := q.Fix(withTimeout(t), []string{"a.php", "b.php"})

	assert.Equal(t, []string{"a.php", "b.php"}, result.Files)
	assert.Equal(t, 2, result.Count(domain.FixCompleted))
	assert.ElementsMatch(t, []string{"a.php", "b.php"}, runner.StartedFiles())
	assert.Empty(t, rec.Failures())

	kinds := rec.Kinds()
	require.Len(t, kinds, 4)
	assert.Equal(t, events.KindFixStart, kinds[0])
	assert.Equal(t, events.KindFixed, kinds[3])
	assert.Equal(t, events.Fixed{Files: []string{"a.php", "b.php"}}, rec.Last())
}

func TestFixQueue_FixCommandArguments(t *testing.T) {
	runner := newFakeRunner()
	cfg := testRunConfig()
	q, _ := newFixQueue(runner, cfg, nil)

	q.Fix(withTimeout(t), []string{"a.php"})

	started := runner.Started()
	require.Len(t, started, 1)
	assert.Equal(t, cfg.Tools.FixCommand(cfg.Ruleset, "a.php"), started[0])
}

func TestFixQueue_StuckProcessIsKilled(t *testing.T) {
	runner := newFakeRunner().on("stuck.php", behavior{hang: true})
	cfg := testRunConfig()
	cfg.FixTimeout = 50 * time.Millisecond
	q, rec := newFixQueue(runner, cfg, nil)

	result := q.Fix(withTimeout(t), []string{"stuck.php", "ok.php"})

	assert.Equal(t, domain.FixKilled, result.Outcomes["stuck.php"])
	assert.Equal(t, domain.FixCompleted, result.Outcomes["ok.php"])

	failures := rec.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], domain.ErrStuckProcess)
	assert.Contains(t, failures[0].Error(), "engine is too busy to fix stuck.php, please fix it manually")
	assert.Equal(t, events.KindFixed, rec.Last().Kind())
}

func TestFixQueue_StderrMarksAttemptErrored(t *testing.T) {
	runner := newFakeRunner().on("a.php", behavior{stderr: "ERROR: could not write file\n"})
	q, rec := newFixQueue(runner, testRunConfig(), nil)

	result := q.Fix(withTimeout(t), []string{"a.php"})

	assert.Equal(t, domain.FixErrored, result.Outcomes["a.php"])
	failures := rec.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], domain.ErrProcessStderr)
	assert.Equal(t, events.KindFixed, rec.Last().Kind())
}

func TestFixQueue_StderrDisarmsWatchdog(t *testing.T) {
	release := make(chan struct{})
	runner := newFakeRunner().on("slow.php", behavior{stderr: "notice\n", release: release})
	cfg := testRunConfig()
	cfg.FixTimeout = 30 * time.Millisecond
	q, rec := newFixQueue(runner, cfg, nil)

	go func() {
		time.Sleep(100 * time.Millisecond)
		close(release)
	}()
	result := q.Fix(withTimeout(t), []string{"slow.php"})

	assert.Equal(t, domain.FixErrored, result.Outcomes["slow.php"])
	for _, f := range rec.Failures() {
		assert.NotErrorIs(t, f, domain.ErrStuckProcess)
	}
}

func TestFixQueue_StartFailure(t *testing.T) {
	runner := newFakeRunner().on("a.php", behavior{startErr: errors.New("no such file")})
	q, rec := newFixQueue(runner, testRunConfig(), nil)

	result := q.Fix(withTimeout(t), []string{"a.php", "b.php"})

	assert.Equal(t, domain.FixErrored, result.Outcomes["a.php"])
	assert.Equal(t, domain.FixCompleted, result.Outcomes["b.php"])
	require.Len(t, rec.Failures(), 1)
	assert.ErrorIs(t, rec.Failures()[0], domain.ErrProcessStart)
}

func TestFixQueue_UnboundedConcurrency(t *testing.T) {
	release := make(chan struct{})
	runner := newFakeRunner()
	files := []string{"a.php", "b.php", "c.php", "d.php"}
	for _, f := range files {
		runner.on(f, behavior{release: release})
	}
	q, _ := newFixQueue(runner, testRunConfig(), nil)

	done := make(chan domain.FixResult, 1)
	go func() { done <- q.Fix(withTimeout(t), files) }()

	require.Eventually(t, func() bool { return runner.MaxRunning() == len(files) }, 2*time.Second, 5*time.Millisecond)
	close(release)

	result := <-done
	assert.Equal(t, len(files), result.Count(domain.FixCompleted))
}

func TestFixQueue_ConcurrencyLimit(t *testing.T) {
	runner := newFakeRunner()
	for _, f := range []string{"a.php", "b.php", "c.php"} {
		runner.on(f, behavior{release: closedChan()})
	}
	cfg := testRunConfig()
	cfg.FixConcurrency = 1
	q, _ := newFixQueue(runner, cfg, nil)

	result := q.Fix(withTimeout(t), []string{"a.php", "b.php", "c.php"})

	assert.Equal(t, 3, result.Count(domain.FixCompleted))
	assert.Equal(t, 1, runner.MaxRunning())
}

func TestFixQueue_DebugEchoesStdout(t *testing.T) {
	runner := newFakeRunner().on("a.php", behavior{stdout: "PHPCBF RESULT SUMMARY\n"})

	var quiet bytes.Buffer
	q, _ := newFixQueue(runner, testRunConfig(), &quiet)
	q.Fix(withTimeout(t), []string{"a.php"})
	assert.Empty(t, quiet.String())

	var loud bytes.Buffer
	cfg := testRunConfig()
	cfg.Debug = true
	q, _ = newFixQueue(runner, cfg, &loud)
	q.Fix(withTimeout(t), []string{"a.php"})
	assert.Contains(t, loud.String(), "PHPCBF RESULT SUMMARY")
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
