// Package distance geocodes customer postcodes and measures the driving
// time between every pair of them. External services are reached through
// the Geocoder and Router interfaces; progress is published on the event
// bus while a run is in flight.
package distance
