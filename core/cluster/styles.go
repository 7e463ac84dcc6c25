package cluster

import (
	"fmt"
	"strings"

	"github.com/kilianp07/fieldroute/core/model"
)

// SetStyles replaces the stored names and colours, typically from
// region_names.csv. Entries outside 1..Regions() are kept but never saved.
func (r *Result) SetStyles(styles []model.RegionStyle) {
	r.styles = make(map[int]model.RegionStyle, len(styles))
	for _, s := range styles {
		r.styles[s.Region] = s
	}
}

// Style returns the name and colour of region, falling back to
// "Region N" and the automatic palette colour.
func (r *Result) Style(region int) model.RegionStyle {
	s, ok := r.styles[region]
	if !ok {
		return model.RegionStyle{Region: region, Name: model.DefaultRegionName(region), ColorCode: model.AutoColor(region)}
	}
	if strings.TrimSpace(s.Name) == "" {
		s.Name = model.DefaultRegionName(region)
	}
	if s.ColorCode < 1 || s.ColorCode > model.PaletteSize {
		s.ColorCode = model.AutoColor(region)
	}
	return s
}

// Styles returns the styles of regions 1..Regions(), the rows of
// region_names.csv.
func (r *Result) Styles() []model.RegionStyle {
	out := make([]model.RegionStyle, 0, r.regions)
	for region := 1; region <= r.regions; region++ {
		out = append(out, r.Style(region))
	}
	return out
}

// ResetStyles drops every custom name and colour, as after a fresh run.
func (r *Result) ResetStyles() { r.styles = map[int]model.RegionStyle{} }

// Rename sets the display name of region. An empty name restores the default.
func (r *Result) Rename(region int, name string) error {
	if region < 1 || region > r.regions {
		return fmt.Errorf("%w: %d", ErrInvalidRegion, region)
	}
	s := r.Style(region)
	s.Name = strings.TrimSpace(name)
	if s.Name == "" {
		s.Name = model.DefaultRegionName(region)
	}
	r.styles[region] = s
	return nil
}

// Recolor sets the palette colour of region.
func (r *Result) Recolor(region, color int) error {
	if region < 1 || region > r.regions {
		return fmt.Errorf("%w: %d", ErrInvalidRegion, region)
	}
	if color < 1 || color > model.PaletteSize {
		return fmt.Errorf("color code %d outside 1..%d", color, model.PaletteSize)
	}
	s := r.Style(region)
	s.ColorCode = color
	r.styles[region] = s
	return nil
}
