package model

// Artifact file names inside a project directory, in pipeline order.
const (
	FileLocations    = "locations.csv"
	FileCoordinates  = "distance_matrix.csv"
	FileDistances    = "distances.csv"
	FileClustered    = "clustered_regions.csv"
	FileSummary      = "region_summary.csv"
	FileRegionNames  = "region_names.csv"
	FileSchedule     = "region_schedule.csv"
	FileAppointments = "confirmed_appointments.csv"
	FileParams       = "project.yaml"
	FileDisplayPrefs = "display_preferences.json"
)
