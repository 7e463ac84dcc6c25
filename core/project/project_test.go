package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/infra/logger"
)

func newLauncher(t *testing.T) (*Launcher, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := LoadLauncher(filepath.Join(dir, "launcher_config.txt"), logger.NopLogger{})
	require.NoError(t, err)
	return l, dir
}

func TestLoadLauncherDefaults(t *testing.T) {
	l, dir := newLauncher(t)
	cfg := l.Config()
	assert.Equal(t, filepath.Join(dir, "Projects"), cfg.ProjectsDirectory)
	assert.Empty(t, cfg.Active())
	assert.NotNil(t, cfg.RecentProjects)
	assert.DirExists(t, cfg.ProjectsDirectory)
}

func TestLoadLauncherMergesMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "launcher_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(`{"active_project": "north"}`), 0o644))
	l, err := LoadLauncher(path, logger.NopLogger{})
	require.NoError(t, err)
	assert.Equal(t, "north", l.Config().Active())
	assert.Equal(t, filepath.Join(dir, "Projects"), l.Config().ProjectsDirectory)

	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))
	l, err = LoadLauncher(path, logger.NopLogger{})
	require.NoError(t, err)
	assert.Empty(t, l.Config().Active())
}

func TestNewOpenDelete(t *testing.T) {
	l, dir := newLauncher(t)
	src := filepath.Join(dir, "src.csv")
	require.NoError(t, os.WriteFile(src, []byte("postcode\nAB1 2CD\n"), 0o644))

	pdir, err := l.New("north", src)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(pdir, model.FileLocations))
	assert.Equal(t, "north", l.Config().Active())

	_, err = l.New("north", "")
	assert.ErrorIs(t, err, ErrExists)
	_, err = l.New("a/b", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = l.New("south", "")
	require.NoError(t, err)
	names, err := l.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "south"}, names)
	assert.Equal(t, []string{"south", "north"}, l.Config().RecentProjects)

	_, err = l.Open("north", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "south"}, l.Config().RecentProjects)
	active, err := l.ActiveDir()
	require.NoError(t, err)
	assert.Equal(t, pdir, active)

	_, err = l.Open("missing", false)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.Chmod(filepath.Join(pdir, model.FileLocations), 0o444))
	require.NoError(t, l.Delete("north"))
	assert.NoDirExists(t, pdir)
	assert.Empty(t, l.Config().Active())
	assert.Equal(t, []string{"south"}, l.Config().RecentProjects)
	_, err = l.ActiveDir()
	assert.ErrorIs(t, err, ErrNoActive)

	var saved LauncherConfig
	b, err := os.ReadFile(filepath.Join(dir, "launcher_config.txt"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &saved))
	assert.Nil(t, saved.ActiveProject)
}

func TestOpenOutsideProjectsDirectory(t *testing.T) {
	l, _ := newLauncher(t)
	other := filepath.Join(t.TempDir(), "elsewhere")
	require.NoError(t, os.MkdirAll(other, 0o755))

	_, err := l.Open(other, false)
	assert.ErrorIs(t, err, ErrOutsideProject)

	dir, err := l.Open(other, true)
	require.NoError(t, err)
	assert.Equal(t, other, dir)
	assert.Equal(t, filepath.Dir(other), l.Config().ProjectsDirectory)
}

func TestRecentProjectsBounded(t *testing.T) {
	l, _ := newLauncher(t)
	for i := 0; i < MaxRecent+3; i++ {
		_, err := l.New(fmt.Sprintf("p%02d", i), "")
		require.NoError(t, err)
	}
	recent := l.Config().RecentProjects
	assert.Len(t, recent, MaxRecent)
	assert.Equal(t, "p12", recent[0])
}

type fakeInventory struct {
	rows  map[string]int
	appts []model.Appointment
}

func (f fakeInventory) Exists(name string) bool {
	_, ok := f.rows[name]
	return ok
}

func (f fakeInventory) Rows(name string) (int, error) {
	n, ok := f.rows[name]
	if !ok {
		return 0, os.ErrNotExist
	}
	return n, nil
}

func (f fakeInventory) LoadAppointments() ([]model.Appointment, error) { return f.appts, nil }

func TestStatus(t *testing.T) {
	inv := fakeInventory{rows: map[string]int{model.FileLocations: 12}}
	tasks := Status(inv)
	require.Len(t, tasks, 5)
	assert.Equal(t, Complete, tasks[0].State)
	assert.Equal(t, []string{"12 location(s) loaded"}, tasks[0].Notes)
	assert.Equal(t, Pending, tasks[1].State)
	assert.Error(t, Require(inv, "clustering"))
	assert.NoError(t, Require(inv, "distances"))

	d := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	inv = fakeInventory{
		rows: map[string]int{
			model.FileLocations: 4, model.FileCoordinates: 4, model.FileDistances: 6,
			model.FileClustered: 4, model.FileSummary: 2, model.FileSchedule: 3,
			model.FileAppointments: 3,
		},
		appts: []model.Appointment{
			{Postcode: "A1", Date: d, InCalendar: true},
			{Postcode: "A2", Date: d},
			{Postcode: "A1", Date: d.AddDate(0, 0, 1)},
		},
	}
	tasks = Status(inv)
	assert.Equal(t, Complete, tasks[3].State)
	assert.Contains(t, tasks[3].Notes, "Regions not yet customized")
	assert.Equal(t, InProgress, tasks[4].State)
	assert.Equal(t, "IN PROGRESS", tasks[4].State.String())
	assert.Equal(t, []string{
		"3 appointment(s) scheduled",
		"1 appointment(s) synced to a calendar",
		"2/4 locations scheduled (50.0%)",
	}, tasks[4].Notes)
	assert.NoError(t, Require(inv, "scheduling"))
}

func TestPreferences(t *testing.T) {
	dir := t.TempDir()
	p := LoadPreferences(dir, logger.NopLogger{})
	defer p.Close()
	assert.False(t, p.ShowNames())

	sub := p.Subscribe()
	p.SetShowNames(true)
	select {
	case got := <-sub:
		assert.True(t, got.ShowNames)
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
	assert.Equal(t, "Bakery", p.Label(model.Location{Postcode: "A1", ClientName: "Bakery"}))
	assert.Equal(t, "A2", p.Label(model.Location{Postcode: "A2"}))

	b, err := os.ReadFile(filepath.Join(dir, model.FileDisplayPrefs))
	require.NoError(t, err)
	assert.JSONEq(t, `{"show_names":true}`, string(b))

	again := LoadPreferences(dir, logger.NopLogger{})
	assert.True(t, again.ShowNames())
}
