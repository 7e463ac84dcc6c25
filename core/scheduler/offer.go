package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/fieldroute/core/model"
)

// DurationText renders minutes as "45 minutes", "1 hour" or "1.5 hours".
func DurationText(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	h := float64(minutes) / 60
	if minutes%60 == 0 {
		if minutes == 60 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", minutes/60)
	}
	return strconv.FormatFloat(h, 'f', -1, 64) + " hours"
}

// FormatOffer writes the customer message offering slots. Consecutive
// starts on the same day are merged into one range that names the first and
// last start.
func FormatOffer(slots []Slot, duration, step int) string {
	if len(slots) == 0 {
		return "No time slots selected."
	}
	if step <= 0 {
		step = 30
	}
	byDay := map[time.Time][]model.Clock{}
	var days []time.Time
	for _, sl := range slots {
		d := model.Day(sl.Date)
		if _, ok := byDay[d]; !ok {
			days = append(days, d)
		}
		byDay[d] = append(byDay[d], sl.Start)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var b strings.Builder
	fmt.Fprintf(&b, "I can offer a %s appointment starting at any of these times:\n\n", DurationText(duration))
	for _, d := range days {
		starts := byDay[d]
		sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
		from, to := starts[0], starts[0]
		flush := func() {
			fmt.Fprintf(&b, "• %s, %s: %s - %s\n", d.Weekday(), d.Format(model.AppointmentDateLayout), from.Format12h(), to.Format12h())
		}
		for _, c := range starts[1:] {
			if c == to {
				continue
			}
			if c == to.Add(step) {
				to = c
				continue
			}
			flush()
			from, to = c, c
		}
		flush()
	}
	b.WriteString("\nPlease let me know which time(s) works best for you.")
	return b.String()
}
