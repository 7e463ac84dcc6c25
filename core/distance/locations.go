package distance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kilianp07/fieldroute/core/model"
)

// ErrNoPostcodes is returned when an input holds no usable postcode.
var ErrNoPostcodes = errors.New("no postcodes found")

// HeaderFix tells how a locations file header was repaired.
type HeaderFix int

const (
	HeaderOK HeaderFix = iota
	// HeaderAdded means the file had no header row.
	HeaderAdded
	// HeaderRenamed means the first column was renamed to postcode.
	HeaderRenamed
)

// Locations is a parsed locations.csv.
type Locations struct {
	Rows []model.Location
	Fix  HeaderFix
}

// Postcodes returns the postcodes in file order.
func (l Locations) Postcodes() []string {
	out := make([]string, len(l.Rows))
	for i, r := range l.Rows {
		out[i] = r.Postcode
	}
	return out
}

// ParseLocations reads a postcode list. A missing postcode header is
// repaired: when the first cell looks like a postcode the file is treated
// as headerless, otherwise the first column is taken as the postcode.
// Blank postcodes are dropped and duplicates keep their first occurrence.
func ParseLocations(r io.Reader) (Locations, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return Locations{}, fmt.Errorf("read locations: %w", err)
	}
	if len(records) == 0 {
		return Locations{}, ErrNoPostcodes
	}
	header := records[0]
	pcCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "postcode":
			if pcCol < 0 {
				pcCol = i
			}
		case "client_name":
			if nameCol < 0 {
				nameCol = i
			}
		}
	}
	var out Locations
	data := records[1:]
	if pcCol < 0 {
		pcCol = 0
		if model.LooksLikePostcode(header[0]) {
			out.Fix = HeaderAdded
			data = records
			if nameCol < 0 && len(header) > 1 {
				nameCol = 1
			}
		} else {
			out.Fix = HeaderRenamed
		}
	}
	seen := map[string]bool{}
	for _, rec := range data {
		if pcCol >= len(rec) {
			continue
		}
		pc := model.NormalizePostcode(rec[pcCol])
		if pc == "" || seen[pc] {
			continue
		}
		seen[pc] = true
		loc := model.Location{Postcode: pc}
		if nameCol >= 0 && nameCol < len(rec) {
			loc.ClientName = strings.TrimSpace(rec[nameCol])
		}
		out.Rows = append(out.Rows, loc)
	}
	if len(out.Rows) == 0 {
		return out, ErrNoPostcodes
	}
	return out, nil
}

// WriteLocations writes rows with the postcode,client_name header.
func WriteLocations(w io.Writer, rows []model.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"postcode", "client_name"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Postcode, r.ClientName}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
