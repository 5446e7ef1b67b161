package application_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/phpsniff/phpsniff/internal/application"
	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	runner     *fakeRunner
	installer  *fakeInstaller
	discoverer *fakeDiscoverer
	rec        *recorder
	session    *application.Session
}

func newSessionFixture(cfg domain.RunConfig, discoverer *fakeDiscoverer, runner *fakeRunner, opts ...application.SessionOption) *sessionFixture {
	bus := events.NewBus()
	f := &sessionFixture{
		runner:     runner,
		installer:  &fakeInstaller{installed: true},
		discoverer: discoverer,
		rec:        record(bus),
	}
	f.session = application.NewSession(cfg, f.installer, discoverer, runner, bus, opts...)
	return f
}

func TestSession_ScanAndFix(t *testing.T) {
	runner := newFakeRunner().
		on("src/A.php", behavior{stdout: reportJSON("src/A.php", warningMsg("indent", true), warningMsg("spacing", true))}).
		on("src/B.php", behavior{stdout: reportJSON("src/B.php")})
	disc := &fakeDiscoverer{roots: map[string][]string{"src": {"src/A.php", "src/B.php"}}}
	f := newSessionFixture(testRunConfig("src"), disc, runner)

	totals, err := f.session.Run(withTimeout(t))
	require.NoError(t, err)
	assert.Equal(t, domain.Totals{Warnings: 2, Fixables: 2, Files: 2}, totals)
	assert.Equal(t, application.StateDone, f.session.State())
	assert.Equal(t, []string{"src/A.php"}, f.session.FixableFiles())

	result, err := f.session.Fix(withTimeout(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"src/A.php"}, result.Files)

	started := runner.Started()
	require.Len(t, started, 3)
	assert.Equal(t, "phpcbf", started[2].Path)
	assert.Equal(t, "src/A.php", started[2].Args[len(started[2].Args)-1])

	assert.Equal(t, []events.Kind{
		events.KindStart,
		events.KindScan, events.KindWarning, events.KindWarning,
		events.KindScan,
		events.KindDone,
		events.KindFixStart, events.KindFixing, events.KindFixed,
	}, f.rec.Kinds())
}

func TestSession_FixBeforeScan(t *testing.T) {
	f := newSessionFixture(testRunConfig("src"), &fakeDiscoverer{}, newFakeRunner())

	_, err := f.session.Fix(withTimeout(t))
	assert.ErrorIs(t, err, domain.ErrScanNotDone)
	assert.Empty(t, f.runner.Started())
}

func TestSession_FixWithNothingFixable(t *testing.T) {
	disc := &fakeDiscoverer{roots: map[string][]string{"src": {"src/clean.php"}}}
	f := newSessionFixture(testRunConfig("src"), disc, newFakeRunner())

	_, err := f.session.Run(withTimeout(t))
	require.NoError(t, err)

	result, err := f.session.Fix(withTimeout(t))
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Len(t, f.runner.Started(), 1)
	assert.Equal(t, events.KindFixed, f.rec.Last().Kind())
}

func TestSession_RunsOnce(t *testing.T) {
	disc := &fakeDiscoverer{roots: map[string][]string{"src": {"src/a.php"}}}
	f := newSessionFixture(testRunConfig("src"), disc, newFakeRunner())

	_, err := f.session.Run(withTimeout(t))
	require.NoError(t, err)
	_, err = f.session.Run(withTimeout(t))
	assert.Error(t, err)

	_, err = f.session.Fix(withTimeout(t))
	require.NoError(t, err)
	_, err = f.session.Fix(withTimeout(t))
	assert.Error(t, err)
}

func TestSession_BootstrapAlreadyInstalled(t *testing.T) {
	disc := &fakeDiscoverer{roots: map[string][]string{"src": nil}}
	f := newSessionFixture(testRunConfig("src"), disc, newFakeRunner())

	require.NoError(t, f.session.Begin(withTimeout(t)))
	require.NoError(t, f.session.Begin(withTimeout(t)))
	assert.Equal(t, 0, f.installer.installs)
}

func TestSession_BootstrapInstalls(t *testing.T) {
	disc := &fakeDiscoverer{roots: map[string][]string{"src": {"src/a.php"}}}
	f := newSessionFixture(testRunConfig("src"), disc, newFakeRunner())
	f.installer.installed = false

	_, err := f.session.Run(withTimeout(t))
	require.NoError(t, err)
	assert.Equal(t, 1, f.installer.installs)
	assert.Len(t, f.runner.Started(), 1)
}

func TestSession_BootstrapFailureBlocksScan(t *testing.T) {
	disc := &fakeDiscoverer{roots: map[string][]string{"src": {"src/a.php"}}}
	f := newSessionFixture(testRunConfig("src"), disc, newFakeRunner())
	f.installer.installed = false
	f.installer.installErr = errors.New("composer: command not found")

	_, err := f.session.Run(withTimeout(t))
	require.ErrorIs(t, err, domain.ErrToolUnavailable)
	assert.Empty(t, f.runner.Started())
	assert.Equal(t, application.StateFailed, f.session.State())
	assert.NotContains(t, f.rec.Kinds(), events.KindStart)
	require.Len(t, f.rec.Failures(), 1)

	_, err = f.session.Fix(withTimeout(t))
	assert.ErrorIs(t, err, domain.ErrScanNotDone)
}

func TestSession_BootstrapCheckError(t *testing.T) {
	f := newSessionFixture(testRunConfig("src"), &fakeDiscoverer{}, newFakeRunner())
	f.installer.checkErr = errors.New("permission denied")

	err := f.session.Begin(withTimeout(t))
	assert.ErrorIs(t, err, domain.ErrToolUnavailable)
	assert.Equal(t, 0, f.installer.installs)
}

func TestSession_MissingRoot(t *testing.T) {
	runner := newFakeRunner()
	f := newSessionFixture(testRunConfig("/does/not/exist"), &fakeDiscoverer{}, runner)

	totals, err := f.session.Run(withTimeout(t))
	require.ErrorIs(t, err, domain.ErrPathNotFound)
	assert.True(t, domain.IsPrecondition(err))
	assert.Empty(t, runner.Started())
	assert.Equal(t, domain.Totals{}, totals)

	failures := f.rec.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], domain.ErrPathNotFound)
}

func TestSession_MixedRoots(t *testing.T) {
	runner := newFakeRunner()
	disc := &fakeDiscoverer{
		roots: map[string][]string{"src": {"src/a.php"}, "lib": {"lib/b.php"}},
		errs:  map[string]error{"notes.txt": &domain.FileError{File: "notes.txt", Err: domain.ErrInvalidExtension}},
	}
	f := newSessionFixture(testRunConfig("src", "notes.txt", "lib"), disc, runner)

	totals, err := f.session.Run(withTimeout(t))
	require.ErrorIs(t, err, domain.ErrInvalidExtension)
	assert.Equal(t, 2, totals.Files)
	assert.Equal(t, []string{"src/a.php", "lib/b.php"}, runner.StartedFiles())
	assert.Equal(t, application.StateDone, f.session.State())
}

type fakeChanges struct {
	files []string
}

func (c fakeChanges) ChangedFiles(string) ([]string, error) { return c.files, nil }

func TestSession_ChangedOnly(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.php")
	b := filepath.Join(dir, "b.php")
	disc := &fakeDiscoverer{roots: map[string][]string{dir: {a, b}}}
	runner := newFakeRunner()
	f := newSessionFixture(testRunConfig(dir), disc, runner, application.WithChangedOnly(fakeChanges{files: []string{b}}))

	totals, err := f.session.Run(withTimeout(t))
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Files)
	assert.Equal(t, []string{b}, runner.StartedFiles())
}

func TestSession_SessionIDMatchesEvents(t *testing.T) {
	bus := events.NewBus()
	var ids []string
	bus.Subscribe(func(e events.Envelope) { ids = append(ids, e.SessionID) })

	disc := &fakeDiscoverer{roots: map[string][]string{"src": nil}}
	s := application.NewSession(testRunConfig("src"), &fakeInstaller{installed: true}, disc, newFakeRunner(), bus)
	_, err := s.Run(withTimeout(t))
	require.NoError(t, err)

	require.NotEmpty(t, ids)
	for _, id := range ids {
		assert.Equal(t, s.SessionID(), id)
	}
}
