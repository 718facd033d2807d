package restore

import (
	"errors"
	"testing"
	"time"

	"github.com/bryanchriswhite/swayrst/internal/launcher"
	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/bryanchriswhite/swayrst/internal/procinfo"
	"github.com/bryanchriswhite/swayrst/internal/profile"
	"github.com/bryanchriswhite/swayrst/internal/window"
	"github.com/bryanchriswhite/swayrst/internal/window/windowtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

// windowSpawner opens a window on ws for every known executable.
type windowSpawner struct {
	ws     *window.Node
	pids   map[string]int
	nextID int64
}

func (s *windowSpawner) Spawn(argv []string, dir string) error {
	pid, ok := s.pids[argv[0]]
	if !ok {
		return errors.New("executable file not found")
	}
	s.nextID++
	s.ws.Nodes = append(s.ws.Nodes, windowtest.Window(s.nextID, pid, argv[0], 100, 100))
	return nil
}

type fixture struct {
	session  *windowtest.Session
	ws       *window.Node
	other    *window.Node
	store    *profile.Store
	spawner  *windowSpawner
	restorer *Restorer
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	ws := windowtest.Workspace(10, "1", 1, "splith",
		[]*window.Node{windowtest.Window(101, 11, "foot", 100, 100)}, nil)
	other := windowtest.Workspace(20, "2", 2, "splith",
		[]*window.Node{windowtest.Window(201, 21, "notes", 100, 100)}, nil)
	session := windowtest.NewSession(windowtest.Root(
		windowtest.Output(2, layout.ReservedOutput, windowtest.Workspace(3, "__i3_scratch", -1, "splith", nil, nil)),
		windowtest.Output(5, "DP-1", ws, other),
	))

	inspector := procinfo.Static{
		11: {"foot"},
		12: {"firefox"},
		21: {"gedit"},
	}
	spawner := &windowSpawner{ws: ws, pids: map[string]int{"firefox": 12}, nextID: 101}
	store := profile.NewStore(t.TempDir())

	if opts.Launcher.Timeout == 0 {
		opts.Launcher = launcher.Options{WaitAfterSpawn: time.Second, Timeout: 30 * time.Second, Dir: "/tmp"}
	}

	return &fixture{
		session: session,
		ws:      ws,
		other:   other,
		store:   store,
		spawner: spawner,
		restorer: New(session, store, inspector, opts,
			WithSpawner(spawner),
			WithClock(&fakeClock{now: time.Unix(0, 0)})),
	}
}

func savedProfile(output string) *layout.Tree {
	one := 1
	return &layout.Tree{
		Version: layout.CurrentVersion,
		Outputs: []layout.Output{{
			ID:   5,
			Name: output,
			Workspaces: []layout.Workspace{{
				ID:     10,
				Name:   "1",
				Number: &one,
				Layout: layout.LayoutSplitH,
				Containers: []layout.Node{
					&layout.AppContainer{ID: 1, Command: []string{"foot"}, Width: 100, Height: 100, Title: "foot"},
					&layout.AppContainer{ID: 2, Command: []string{"firefox"}, Width: 100, Height: 100},
				},
				FloatingContainers: []layout.Node{},
			}},
		}},
	}
}

func fatalCode(t *testing.T, err error) int {
	t.Helper()
	var fatal *FatalError
	require.True(t, errors.As(err, &fatal), "expected FatalError, got %v", err)
	return fatal.Code
}

func TestLoad_StartsMissingAppsAndReplays(t *testing.T) {
	f := newFixture(t, Options{StartMissingApps: true, RespectOtherWorkspaces: true})
	require.NoError(t, f.store.Save("work", savedProfile("DP-1")))

	events := f.restorer.Subscribe()
	defer f.restorer.Unsubscribe(events)

	report, err := f.restorer.Load("work")
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"firefox"}}, report.Spawned)
	assert.Empty(t, report.Failed)
	assert.False(t, report.TimedOut)
	assert.Empty(t, report.Remaining)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 0, report.Unmatched)
	assert.Equal(t, 0, report.Failures)

	assert.Equal(t, []string{
		"workspace number 1",
		"[con_id=101] move scratchpad",
		"[con_id=102] move scratchpad",
		"[con_id=101] move container to workspace number 1",
		"[con_id=101] floating off",
		"[con_id=101] focus",
		"[con_id=101] split toggle",
		"[con_id=101] layout splith",
		"[con_id=102] move container to workspace number 1",
		"[con_id=102] floating off",
		"workspace number 1",
		"move workspace to output DP-1",
	}, f.session.Commands)
	assert.Equal(t, len(f.session.Commands)-1, report.Commands)

	var types []EventType
	for len(events) > 0 {
		ev := <-events
		types = append(types, ev.Type)
		if ev.Type == EventFinished {
			assert.Equal(t, report, ev.Report)
		}
	}
	require.NotEmpty(t, types)
	assert.Equal(t, EventStarted, types[0])
	assert.Contains(t, types, EventAppSpawned)
	assert.Equal(t, EventFinished, types[len(types)-1])
}

func TestLoad_WithoutStartingApps(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.store.Save("work", savedProfile("DP-1")))

	report, err := f.restorer.Load("work")
	require.NoError(t, err)

	assert.Empty(t, report.Spawned)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Unmatched)
	// without the reference filter every live window is parked
	assert.Contains(t, f.session.Commands, "[con_id=201] move scratchpad")
	assert.NotContains(t, f.session.Commands, "[con_id=102] move scratchpad")
}

func TestLoad_RespectOtherWorkspaces(t *testing.T) {
	f := newFixture(t, Options{RespectOtherWorkspaces: true})
	require.NoError(t, f.store.Save("work", savedProfile("DP-1")))

	_, err := f.restorer.Load("work")
	require.NoError(t, err)

	assert.Contains(t, f.session.Commands, "[con_id=101] move scratchpad")
	assert.NotContains(t, f.session.Commands, "[con_id=201] move scratchpad")
}

func TestLoad_QuarantinesWindowsWithoutProcessInfo(t *testing.T) {
	f := newFixture(t, Options{RespectOtherWorkspaces: true})
	f.ws.Nodes = append(f.ws.Nodes, windowtest.Window(150, 99, "zombie", 100, 100))
	require.NoError(t, f.store.Save("work", savedProfile("DP-1")))

	report, err := f.restorer.Load("work")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Matched)
	assert.Contains(t, f.session.Commands, "[con_id=150] move scratchpad")
	assert.NotContains(t, f.session.Commands, "[con_id=150] floating off")
}

func TestLoad_SpawnFailureIsReported(t *testing.T) {
	f := newFixture(t, Options{StartMissingApps: true})
	f.spawner.pids = map[string]int{}
	require.NoError(t, f.store.Save("work", savedProfile("DP-1")))

	report, err := f.restorer.Load("work")
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"firefox"}}, report.Failed)
	assert.Len(t, report.Remaining, 1)
	assert.Equal(t, 1, report.Unmatched)
}

func TestLoad_FatalConditions(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.restorer.Load("")
	assert.Equal(t, ExitNoProfile, fatalCode(t, err))

	_, err = f.restorer.Load("missing")
	assert.Equal(t, ExitProfileNotFound, fatalCode(t, err))
	assert.ErrorContains(t, err, "doesn't exist")

	require.NoError(t, f.store.Save("elsewhere", savedProfile("HDMI-A-1")))
	_, err = f.restorer.Load("elsewhere")
	assert.Equal(t, ExitNoCommonOutput, fatalCode(t, err))
	assert.Empty(t, f.session.Commands)
}

func TestLoad_SnapshotError(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.store.Save("work", savedProfile("DP-1")))
	f.session.SnapshotErr = errors.New("broken pipe")

	_, err := f.restorer.Load("work")
	assert.ErrorContains(t, err, "broken pipe")
	var fatal *FatalError
	assert.False(t, errors.As(err, &fatal))
}

// Load always passes an index; the guard only fires for a direct call.
func TestStartMissing_RequiresIndex(t *testing.T) {
	f := newFixture(t, Options{StartMissingApps: true})

	err := f.restorer.startMissing("work", savedProfile("DP-1"), nil, nil, &Report{})
	assert.Equal(t, ExitNoMapping, fatalCode(t, err))
}

func TestSave(t *testing.T) {
	f := newFixture(t, Options{})

	events := f.restorer.Subscribe()
	require.NoError(t, f.restorer.Save("desk"))

	saved, err := f.store.Load("desk")
	require.NoError(t, err)
	require.Len(t, saved.Outputs, 1)
	assert.Equal(t, "DP-1", saved.Outputs[0].Name)
	assert.Equal(t, []*layout.AppContainer{
		{ID: 101, Command: []string{"foot"}, Width: 100, Height: 100, Title: "foot"},
		{ID: 201, Command: []string{"gedit"}, Width: 100, Height: 100, Title: "notes"},
	}, saved.Apps())

	ev := <-events
	assert.Equal(t, EventSaved, ev.Type)
	assert.Equal(t, "desk", ev.Profile)
	assert.Equal(t, time.Unix(0, 0), ev.Time)

	f.restorer.Unsubscribe(events)
	_, open := <-events
	assert.False(t, open)

	assert.Equal(t, ExitNoProfile, fatalCode(t, f.restorer.Save("")))
}
