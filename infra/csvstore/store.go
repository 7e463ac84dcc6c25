// Package csvstore reads and writes the CSV artifacts of a project
// directory.
package csvstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/fieldroute/core/distance"
	"github.com/kilianp07/fieldroute/core/model"
)

// Store addresses the artifacts of one project directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir.
func New(dir string) *Store { return &Store{dir: dir} }

// Dir returns the project directory.
func (s *Store) Dir() string { return s.dir }

// Path joins name to the project directory.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// Exists reports whether the artifact is present.
func (s *Store) Exists(name string) bool {
	fi, err := os.Stat(s.Path(name))
	return err == nil && !fi.IsDir()
}

// Rows counts the data rows of a CSV artifact.
func (s *Store) Rows(name string) (int, error) {
	t, err := readTable(s.Path(name))
	if err != nil {
		return 0, err
	}
	return len(t.rows), nil
}

// Customers counts the clustered rows assigned to a service region.
func (s *Store) Customers() (int, error) {
	rows, err := s.LoadAssignments()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if r.Region > 0 {
			n++
		}
	}
	return n, nil
}

// LoadLocations parses locations.csv. A repaired header is written back so
// the file carries postcode,client_name from then on.
func (s *Store) LoadLocations() (distance.Locations, error) {
	path := s.Path(model.FileLocations)
	b, err := os.ReadFile(path)
	if err != nil {
		return distance.Locations{}, err
	}
	locs, err := distance.ParseLocations(bytes.NewReader(b))
	if err != nil {
		return locs, fmt.Errorf("%s: %w", model.FileLocations, err)
	}
	if locs.Fix != distance.HeaderOK {
		if err := s.SaveLocations(locs.Rows); err != nil {
			return locs, fmt.Errorf("rewrite %s: %w", model.FileLocations, err)
		}
	}
	return locs, nil
}

// SaveLocations writes locations.csv.
func (s *Store) SaveLocations(rows []model.Location) error {
	var buf bytes.Buffer
	if err := distance.WriteLocations(&buf, rows); err != nil {
		return err
	}
	return os.WriteFile(s.Path(model.FileLocations), buf.Bytes(), 0o644)
}

// LoadCoordinates reads distance_matrix.csv.
func (s *Store) LoadCoordinates() ([]model.GeoLocation, error) {
	t, err := readTable(s.Path(model.FileCoordinates), "postcode", "latitude", "longitude")
	if err != nil {
		return nil, err
	}
	out := make([]model.GeoLocation, 0, len(t.rows))
	for i, r := range t.rows {
		c, err := coords(t, r)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", model.FileCoordinates, i+2, err)
		}
		out = append(out, model.GeoLocation{Postcode: model.NormalizePostcode(t.get(r, "postcode")), Coordinates: c})
	}
	return out, nil
}

// SaveCoordinates writes distance_matrix.csv sorted by postcode.
func (s *Store) SaveCoordinates(locs []model.GeoLocation) error {
	sorted := append([]model.GeoLocation(nil), locs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Postcode < sorted[j].Postcode })
	rows := make([][]string, len(sorted))
	for i, l := range sorted {
		rows[i] = []string{l.Postcode, ftoa(l.Latitude), ftoa(l.Longitude)}
	}
	return writeFile(s.Path(model.FileCoordinates), []string{"postcode", "latitude", "longitude"}, rows)
}

// LoadRoutes reads distances.csv. Rows with an unparsable time are skipped.
func (s *Store) LoadRoutes() ([]model.Route, error) {
	t, err := readTable(s.Path(model.FileDistances), "origin", "destination", "driving_time_minutes")
	if err != nil {
		return nil, err
	}
	out := make([]model.Route, 0, len(t.rows))
	for _, r := range t.rows {
		mins, err := strconv.ParseFloat(t.get(r, "driving_time_minutes"), 64)
		if err != nil {
			continue
		}
		km, _ := strconv.ParseFloat(t.get(r, "distance_km"), 64)
		out = append(out, model.Route{
			Origin:         model.NormalizePostcode(t.get(r, "origin")),
			Destination:    model.NormalizePostcode(t.get(r, "destination")),
			DrivingMinutes: mins,
			DistanceKm:     km,
		})
	}
	return out, nil
}

// SaveRoutes writes distances.csv.
func (s *Store) SaveRoutes(routes []model.Route) error {
	rows := make([][]string, len(routes))
	for i, r := range routes {
		rows[i] = []string{r.Origin, r.Destination, ftoa(r.DrivingMinutes), ftoa(r.DistanceKm)}
	}
	return writeFile(s.Path(model.FileDistances), []string{"origin", "destination", "driving_time_minutes", "distance_km"}, rows)
}

// LoadAssignments reads clustered_regions.csv.
func (s *Store) LoadAssignments() ([]model.Assignment, error) {
	t, err := readTable(s.Path(model.FileClustered), "postcode", "region")
	if err != nil {
		return nil, err
	}
	out := make([]model.Assignment, 0, len(t.rows))
	for i, r := range t.rows {
		region, err := parseRegion(t.get(r, "region"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", model.FileClustered, i+2, err)
		}
		a := model.Assignment{
			Postcode:   model.NormalizePostcode(t.get(r, "postcode")),
			ClientName: t.get(r, "client_name"),
			Region:     region,
		}
		if t.has("latitude") && t.has("longitude") {
			if a.Coordinates, err = coords(t, r); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", model.FileClustered, i+2, err)
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// SaveAssignments writes clustered_regions.csv in the given order.
func (s *Store) SaveAssignments(rows []model.Assignment) error {
	recs := make([][]string, len(rows))
	for i, a := range rows {
		recs[i] = []string{a.Postcode, ftoa(a.Latitude), ftoa(a.Longitude), strconv.Itoa(a.Region), a.ClientName}
	}
	return writeFile(s.Path(model.FileClustered), []string{"postcode", "latitude", "longitude", "region", "client_name"}, recs)
}

// LoadSummary reads region_summary.csv.
func (s *Store) LoadSummary() ([]model.RegionSummary, error) {
	t, err := readTable(s.Path(model.FileSummary), "region")
	if err != nil {
		return nil, err
	}
	out := make([]model.RegionSummary, 0, len(t.rows))
	for i, r := range t.rows {
		region, err := parseRegion(t.get(r, "region"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", model.FileSummary, i+2, err)
		}
		sum := model.RegionSummary{Region: region, Excluded: region == model.RegionExcluded}
		sum.CustomerCount, _ = strconv.Atoi(t.get(r, "customer_count"))
		sum.MinimumDays, _ = strconv.Atoi(t.get(r, "minimum_days"))
		for _, pc := range strings.Split(t.get(r, "postcodes"), ",") {
			if pc = strings.TrimSpace(pc); pc != "" {
				sum.Postcodes = append(sum.Postcodes, pc)
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

// SaveSummary writes region_summary.csv.
func (s *Store) SaveSummary(rows []model.RegionSummary) error {
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = []string{r.Label(), strconv.Itoa(r.CustomerCount), strings.Join(r.Postcodes, ", "), strconv.Itoa(r.MinimumDays)}
	}
	return writeFile(s.Path(model.FileSummary), []string{"region", "customer_count", "postcodes", "minimum_days"}, recs)
}

// LoadStyles reads region_names.csv. A missing file yields no styles.
func (s *Store) LoadStyles() ([]model.RegionStyle, error) {
	t, err := readTable(s.Path(model.FileRegionNames), "region")
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]model.RegionStyle, 0, len(t.rows))
	for _, r := range t.rows {
		region, err := strconv.Atoi(t.get(r, "region"))
		if err != nil {
			continue
		}
		st := model.RegionStyle{Region: region, Name: t.get(r, "name")}
		if c, err := strconv.Atoi(t.get(r, "color_code")); err == nil {
			st.ColorCode = c
		}
		out = append(out, st)
	}
	return out, nil
}

// SaveStyles writes region_names.csv.
func (s *Store) SaveStyles(rows []model.RegionStyle) error {
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = []string{strconv.Itoa(r.Region), r.Name, strconv.Itoa(r.ColorCode)}
	}
	return writeFile(s.Path(model.FileRegionNames), []string{"region", "name", "color_code"}, recs)
}

// LoadSchedule reads region_schedule.csv. A missing file yields no days.
func (s *Store) LoadSchedule() ([]model.DayAssignment, error) {
	t, err := readTable(s.Path(model.FileSchedule), "date", "region")
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]model.DayAssignment, 0, len(t.rows))
	for i, r := range t.rows {
		d, err := time.Parse(model.ScheduleDateLayout, t.get(r, "date"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", model.FileSchedule, i+2, err)
		}
		region, err := strconv.Atoi(t.get(r, "region"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", model.FileSchedule, i+2, err)
		}
		out = append(out, model.DayAssignment{Date: d, Region: region})
	}
	return out, nil
}

// SaveSchedule writes region_schedule.csv sorted by date.
func (s *Store) SaveSchedule(days []model.DayAssignment) error {
	sorted := append([]model.DayAssignment(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	recs := make([][]string, len(sorted))
	for i, d := range sorted {
		recs[i] = []string{d.Date.Format(model.ScheduleDateLayout), strconv.Itoa(d.Region)}
	}
	return writeFile(s.Path(model.FileSchedule), []string{"date", "region"}, recs)
}

// LoadAppointments reads confirmed_appointments.csv. Missing durations
// default to 60 minutes and a missing in_outlook column to false.
func (s *Store) LoadAppointments() ([]model.Appointment, error) {
	t, err := readTable(s.Path(model.FileAppointments), "postcode", "date", "time")
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]model.Appointment, 0, len(t.rows))
	for i, r := range t.rows {
		d, err := model.ParseAppointmentDate(t.get(r, "date"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", model.FileAppointments, i+2, err)
		}
		c, err := model.ParseClock(t.get(r, "time"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", model.FileAppointments, i+2, err)
		}
		a := model.Appointment{Postcode: model.NormalizePostcode(t.get(r, "postcode")), Date: d, Start: c, DurationMinutes: 60}
		if v, err := strconv.ParseFloat(t.get(r, "duration"), 64); err == nil && v > 0 {
			a.DurationMinutes = int(v)
		}
		a.InCalendar, _ = strconv.ParseBool(t.get(r, "in_outlook"))
		out = append(out, a)
	}
	return out, nil
}

// SaveAppointments writes confirmed_appointments.csv ordered by date and
// time.
func (s *Store) SaveAppointments(appts []model.Appointment) error {
	sorted := append([]model.Appointment(nil), appts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Start < sorted[j].Start
	})
	recs := make([][]string, len(sorted))
	for i, a := range sorted {
		recs[i] = []string{a.Postcode, a.DateKey(), a.Start.String(), strconv.Itoa(a.DurationMinutes), boolText(a.InCalendar)}
	}
	return writeFile(s.Path(model.FileAppointments), []string{"postcode", "date", "time", "duration", "in_outlook"}, recs)
}

func coords(t *table, r []string) (model.Coordinates, error) {
	lat, err := strconv.ParseFloat(t.get(r, "latitude"), 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(t.get(r, "longitude"), 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("longitude: %w", err)
	}
	return model.Coordinates{Latitude: lat, Longitude: lon}, nil
}

// parseRegion accepts integers, floats written by spreadsheets and the
// "Excluded" label.
func parseRegion(s string) (int, error) {
	if strings.EqualFold(s, "excluded") {
		return model.RegionExcluded, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid region %q", s)
	}
	return int(f), nil
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
