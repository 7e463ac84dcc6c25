// Package scheduler books customer visits into the days assigned to each
// region. It tracks one pending booking at a time, derives the drives around
// every visit and reports when a drive collides with a visit or leaves the
// working day.
package scheduler
