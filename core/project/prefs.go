package project

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kilianp07/fieldroute/core/logger"
	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/internal/eventbus"
)

// DisplayPrefs is the content of display_preferences.json.
type DisplayPrefs struct {
	ShowNames bool `json:"show_names"`
}

// Preferences holds the display preference of a project and notifies
// subscribers when it changes.
type Preferences struct {
	mu   sync.RWMutex
	path string
	cur  DisplayPrefs
	bus  *eventbus.TypedBus[DisplayPrefs]
	log  logger.Logger
}

// LoadPreferences reads display_preferences.json from dir. A missing or
// unreadable file yields the default of showing postcodes.
func LoadPreferences(dir string, log logger.Logger) *Preferences {
	p := &Preferences{path: filepath.Join(dir, model.FileDisplayPrefs), bus: eventbus.NewTyped[DisplayPrefs](1), log: log}
	b, err := os.ReadFile(p.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("read %s: %v", p.path, err)
		}
		return p
	}
	if err := json.Unmarshal(b, &p.cur); err != nil {
		log.Warnf("decode %s: %v", p.path, err)
		p.cur = DisplayPrefs{}
	}
	return p
}

// ShowNames reports whether client names replace postcodes in output.
func (p *Preferences) ShowNames() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cur.ShowNames
}

// SetShowNames persists the preference and notifies subscribers. A failed
// write is logged and the in-memory value still changes.
func (p *Preferences) SetShowNames(show bool) {
	p.mu.Lock()
	p.cur.ShowNames = show
	cur := p.cur
	p.mu.Unlock()
	b, err := json.Marshal(cur)
	if err == nil {
		err = os.WriteFile(p.path, b, 0o644)
	}
	if err != nil {
		p.log.Warnf("save display preference: %v", err)
	}
	p.bus.Publish(cur)
}

// Label formats a location under the current preference.
func (p *Preferences) Label(l model.Location) string { return l.Label(p.ShowNames()) }

// Subscribe returns a channel receiving every change.
func (p *Preferences) Subscribe() <-chan DisplayPrefs { return p.bus.Subscribe() }

// Unsubscribe stops delivery to sub.
func (p *Preferences) Unsubscribe(sub <-chan DisplayPrefs) { p.bus.Unsubscribe(sub) }

// Close ends every subscription.
func (p *Preferences) Close() { p.bus.Close() }
