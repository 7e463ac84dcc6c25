// Package project manages the projects directory and the launcher state:
// which project is active, which were opened recently, and how far each
// project has got through the workflow.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kilianp07/fieldroute/core/logger"
	"github.com/kilianp07/fieldroute/core/model"
)

// MaxRecent bounds the recent projects list.
const MaxRecent = 10

var (
	ErrExists         = errors.New("project already exists")
	ErrNotFound       = errors.New("project not found")
	ErrNoActive       = errors.New("no active project")
	ErrInvalidName    = errors.New("invalid project name")
	ErrMissingFile    = errors.New("missing project file")
	ErrOutsideProject = errors.New("project is outside the projects directory")
)

// LauncherConfig is the persisted launcher state.
type LauncherConfig struct {
	ProjectsDirectory string   `json:"projects_directory"`
	ActiveProject     *string  `json:"active_project"`
	RecentProjects    []string `json:"recent_projects"`
}

// Active returns the active project name, empty when none.
func (c LauncherConfig) Active() string {
	if c.ActiveProject == nil {
		return ""
	}
	return *c.ActiveProject
}

// Launcher owns the launcher config file and the projects directory.
type Launcher struct {
	path string
	cfg  LauncherConfig
	log  logger.Logger
}

// DefaultProjectsDir is used when the config does not name one.
func DefaultProjectsDir(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "Projects")
}

// LoadLauncher reads the config at path. Missing keys take their defaults
// and an unreadable file is replaced by the defaults with a warning. The
// projects directory is created when absent.
func LoadLauncher(path string, log logger.Logger) (*Launcher, error) {
	l := &Launcher{path: path, log: log}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if jerr := json.Unmarshal(b, &l.cfg); jerr != nil {
			log.Warnf("launcher config %s unreadable, using defaults: %v", path, jerr)
			l.cfg = LauncherConfig{}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	if l.cfg.ProjectsDirectory == "" {
		l.cfg.ProjectsDirectory = DefaultProjectsDir(path)
	}
	if l.cfg.RecentProjects == nil {
		l.cfg.RecentProjects = []string{}
	}
	if err := os.MkdirAll(l.cfg.ProjectsDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("create projects directory: %w", err)
	}
	return l, nil
}

// Config returns a copy of the launcher state.
func (l *Launcher) Config() LauncherConfig {
	c := l.cfg
	c.RecentProjects = append([]string(nil), l.cfg.RecentProjects...)
	return c
}

// Save writes the launcher config as indented JSON.
func (l *Launcher) Save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(l.cfg, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, b, 0o644)
}

// Dir returns the directory of the named project.
func (l *Launcher) Dir(name string) string {
	return filepath.Join(l.cfg.ProjectsDirectory, name)
}

// ActiveDir returns the directory of the active project.
func (l *Launcher) ActiveDir() (string, error) {
	name := l.cfg.Active()
	if name == "" {
		return "", ErrNoActive
	}
	dir := l.Dir(name)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return dir, nil
}

// SetProjectsDirectory changes and creates the projects directory.
func (l *Launcher) SetProjectsDirectory(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}
	l.cfg.ProjectsDirectory = abs
	return l.Save()
}

func validName(name string) error {
	if name == "" || name != strings.TrimSpace(name) || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\:*?"<>|`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// List returns the project directory names, sorted.
func (l *Launcher) List() ([]string, error) {
	entries, err := os.ReadDir(l.cfg.ProjectsDirectory)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// New creates the project and, when locationsSrc is set, copies it in as
// locations.csv. The new project becomes active.
func (l *Launcher) New(name, locationsSrc string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	dir := l.Dir(name)
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project: %w", err)
	}
	if locationsSrc != "" {
		if err := copyFile(locationsSrc, filepath.Join(dir, model.FileLocations)); err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("copy locations: %w", err)
		}
	}
	l.log.Infof("created project %s", name)
	return dir, l.activate(name)
}

// Open makes name the active project. An absolute path outside the
// projects directory is rejected unless adopt is set, in which case its
// parent becomes the projects directory.
func (l *Launcher) Open(nameOrPath string, adopt bool) (string, error) {
	name := nameOrPath
	if filepath.IsAbs(nameOrPath) {
		parent, base := filepath.Dir(filepath.Clean(nameOrPath)), filepath.Base(nameOrPath)
		if parent != filepath.Clean(l.cfg.ProjectsDirectory) {
			if !adopt {
				return "", fmt.Errorf("%w: %s", ErrOutsideProject, nameOrPath)
			}
			l.cfg.ProjectsDirectory = parent
		}
		name = base
	}
	if err := validName(name); err != nil {
		return "", err
	}
	dir := l.Dir(name)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return dir, l.activate(name)
}

// Delete removes the project directory, clearing read-only bits that would
// block removal, and forgets it in the launcher state.
func (l *Launcher) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	dir := l.Dir(name)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := os.RemoveAll(dir); err != nil {
		_ = filepath.WalkDir(dir, func(p string, _ fs.DirEntry, _ error) error {
			_ = os.Chmod(p, 0o755)
			return nil
		})
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("delete project %s: %w", name, err)
		}
	}
	if l.cfg.Active() == name {
		l.cfg.ActiveProject = nil
	}
	l.cfg.RecentProjects = without(l.cfg.RecentProjects, name)
	l.log.Infof("deleted project %s", name)
	return l.Save()
}

func (l *Launcher) activate(name string) error {
	l.cfg.ActiveProject = &name
	recent := append([]string{name}, without(l.cfg.RecentProjects, name)...)
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}
	l.cfg.RecentProjects = recent
	return l.Save()
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != name {
			out = append(out, s)
		}
	}
	return out
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
