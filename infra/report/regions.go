// Package report renders project artifacts as standalone HTML charts.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/fieldroute/core/model"
)

const (
	depotColor    = "#000000"
	excludedColor = "#A9A9A9"
)

// Styler resolves the display style of a service region.
type Styler func(region int) model.RegionStyle

// Labeler names a point on the map.
type Labeler func(a model.Assignment) string

// RegionMap draws every assignment on a longitude/latitude scatter chart,
// one series per region in its category colour, plus the depot and the
// excluded customers.
func RegionMap(title string, rows []model.Assignment, style Styler, label Labeler) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d locations", len(rows))}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", Type: "value"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "750px"}),
	)

	byRegion := map[int][]opts.ScatterData{}
	for _, a := range rows {
		byRegion[a.Region] = append(byRegion[a.Region], opts.ScatterData{
			Name:       label(a),
			Value:      []any{a.Longitude, a.Latitude},
			SymbolSize: symbolSize(a.Region),
		})
	}
	regions := make([]int, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Ints(regions)

	for _, r := range regions {
		name, color := seriesStyle(r, style)
		sc.AddSeries(name, byRegion[r], charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
	}
	return sc
}

func seriesStyle(region int, style Styler) (string, string) {
	switch {
	case region == model.RegionDepot:
		return "Home", depotColor
	case region < 0:
		return "Excluded", excludedColor
	}
	st := style(region)
	name := st.Name
	if name == "" {
		name = model.DefaultRegionName(region)
	}
	return name, model.ColorHex(st.ColorCode)
}

func symbolSize(region int) int {
	if region == model.RegionDepot {
		return 22
	}
	return 12
}

// SummaryChart compares customers and minimum days per region.
func SummaryChart(rows []model.RegionSummary, style Styler) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Regions"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)
	var (
		names     []string
		customers []opts.BarData
		days      []opts.BarData
	)
	for _, s := range rows {
		if s.Excluded {
			continue
		}
		name, color := seriesStyle(s.Region, style)
		names = append(names, name)
		customers = append(customers, opts.BarData{Value: s.CustomerCount, ItemStyle: &opts.ItemStyle{Color: color}})
		days = append(days, opts.BarData{Value: s.MinimumDays})
	}
	bar.SetXAxis(names).
		AddSeries("Customers", customers).
		AddSeries("Minimum days", days)
	return bar
}

// WritePage renders the charts into one HTML page.
func WritePage(w io.Writer, title string, cs ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(cs...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
