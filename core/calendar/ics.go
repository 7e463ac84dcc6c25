package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/kilianp07/fieldroute/core/model"
)

// WriteICS exports the saved calendar as all-day, free events, one per
// assigned date, categorised by region name and coloured with the CSS
// keyword of the region colour.
func (o *Organizer) WriteICS(w io.Writer, now time.Time) (int, error) {
	if len(o.assign) == 0 {
		return 0, ErrNoAssignments
	}
	if !o.saved {
		return 0, ErrUnsaved
	}
	rows, _, err := o.Schedule(true)
	if err != nil {
		return 0, err
	}

	cal := ics.NewCalendar()
	cal.SetProductId("-//fieldroute//region calendar//EN")
	cal.SetMethod(ics.MethodPublish)
	for _, row := range rows {
		r, ok := o.regions[row.Region]
		name := model.DefaultRegionName(row.Region)
		color := 1
		if ok {
			name, color = r.Name, r.ColorCode
		}
		uid := uuid.NewSHA1(uuid.NameSpaceURL,
			[]byte(fmt.Sprintf("fieldroute:%s:%d", row.Date.Format(model.ScheduleDateLayout), row.Region)))

		ev := cal.AddEvent(uid.String())
		ev.SetDtStampTime(now)
		ev.SetAllDayStartAt(row.Date)
		ev.SetAllDayEndAt(row.Date.AddDate(0, 0, 1))
		ev.SetSummary(name)
		ev.AddCategory(name)
		ev.SetColor(model.ColorCSS(color))
		ev.SetTimeTransparency(ics.TransparencyTransparent)
	}
	if err := cal.SerializeTo(w); err != nil {
		return 0, fmt.Errorf("write calendar: %w", err)
	}
	return len(rows), nil
}
