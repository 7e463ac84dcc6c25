package project

import (
	"fmt"
	"strings"

	"github.com/kilianp07/fieldroute/core/model"
)

// Inventory reads what a project directory holds.
type Inventory interface {
	Exists(name string) bool
	Rows(name string) (int, error)
	LoadAppointments() ([]model.Appointment, error)
}

// State of a workflow task.
type State int

const (
	Pending State = iota
	InProgress
	Complete
)

func (s State) String() string {
	switch s {
	case Complete:
		return "COMPLETE"
	case InProgress:
		return "IN PROGRESS"
	default:
		return "PENDING"
	}
}

// Task is one step of the five-step workflow.
type Task struct {
	Number int
	Name   string
	State  State
	Notes  []string
}

// Status reports the workflow progress of a project. Counting errors are
// tolerated: the task keeps its state and notes that the file exists.
func Status(inv Inventory) []Task {
	tasks := make([]Task, 0, 5)

	t := Task{Number: 1, Name: "Initial Locations Setup"}
	if inv.Exists(model.FileLocations) {
		t.State = Complete
		t.Notes = append(t.Notes, count(inv, model.FileLocations, "location(s) loaded", "locations.csv exists"))
	} else {
		t.Notes = append(t.Notes, "Need to add locations.csv file")
	}
	tasks = append(tasks, t)

	t = Task{Number: 2, Name: "Distance Calculation"}
	if inv.Exists(model.FileCoordinates) && inv.Exists(model.FileDistances) {
		t.State = Complete
		t.Notes = append(t.Notes, count(inv, model.FileDistances, "distance pair(s) calculated", "Distance files exist"))
	} else {
		t.Notes = append(t.Notes, "Run the distance calculator")
	}
	tasks = append(tasks, t)

	t = Task{Number: 3, Name: "Region Clustering"}
	if inv.Exists(model.FileClustered) && inv.Exists(model.FileSummary) {
		t.State = Complete
		t.Notes = append(t.Notes,
			count(inv, model.FileClustered, "location(s) assigned to regions", "Clustering files exist"),
			count(inv, model.FileSummary, "region(s) created", "Clustering files exist"))
	} else {
		t.Notes = append(t.Notes, "Run region clustering")
	}
	tasks = append(tasks, t)

	t = Task{Number: 4, Name: "Calendar Organization"}
	if inv.Exists(model.FileSchedule) {
		t.State = Complete
		t.Notes = append(t.Notes, count(inv, model.FileSchedule, "day(s) scheduled", "Schedule file exists"))
		if inv.Exists(model.FileRegionNames) {
			t.Notes = append(t.Notes, count(inv, model.FileRegionNames, "region(s) customized", "Region names exist"))
		} else {
			t.Notes = append(t.Notes, "Regions not yet customized")
		}
	} else {
		t.Notes = append(t.Notes, "Run the calendar organizer")
	}
	tasks = append(tasks, t)

	tasks = append(tasks, schedulingTask(inv))
	return tasks
}

func schedulingTask(inv Inventory) Task {
	t := Task{Number: 5, Name: "Smart Scheduling"}
	if !inv.Exists(model.FileAppointments) {
		t.Notes = append(t.Notes, "Run the smart scheduler")
		return t
	}
	t.State = InProgress
	appts, err := inv.LoadAppointments()
	if err != nil {
		t.Notes = append(t.Notes, "Appointments file exists")
		return t
	}
	t.Notes = append(t.Notes, fmt.Sprintf("%d appointment(s) scheduled", len(appts)))
	if len(appts) == 0 {
		t.Notes = append(t.Notes, "No appointments scheduled yet")
		return t
	}
	synced := 0
	unique := map[string]bool{}
	for _, a := range appts {
		if a.InCalendar {
			synced++
		}
		unique[a.Postcode] = true
	}
	if synced > 0 {
		t.Notes = append(t.Notes, fmt.Sprintf("%d appointment(s) synced to a calendar", synced))
	}
	total, err := inv.Rows(model.FileClustered)
	if err != nil || total == 0 {
		t.Notes = append(t.Notes, fmt.Sprintf("%d unique location(s)", len(unique)))
		return t
	}
	t.Notes = append(t.Notes, fmt.Sprintf("%d/%d locations scheduled (%.1f%%)",
		len(unique), total, float64(len(unique))/float64(total)*100))
	return t
}

func count(inv Inventory, name, unit, fallback string) string {
	n, err := inv.Rows(name)
	if err != nil {
		return fallback
	}
	return fmt.Sprintf("%d %s", n, unit)
}

// Requirement lists the artifacts a stage reads.
var Requirement = map[string][]string{
	"distances":  {model.FileLocations},
	"clustering": {model.FileLocations, model.FileCoordinates, model.FileDistances},
	"calendar":   {model.FileClustered},
	"scheduling": {model.FileClustered, model.FileDistances},
}

// Require returns ErrMissingFile naming every absent artifact of stage.
func Require(inv Inventory, stage string) error {
	var missing []string
	for _, f := range Requirement[stage] {
		if !inv.Exists(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w for %s: %s", ErrMissingFile, stage, strings.Join(missing, ", "))
	}
	return nil
}
