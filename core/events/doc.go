// Package events defines the pipeline events emitted on the event bus.
//
// Available event types:
//   - ProgressEvent: step progress of a long-running stage
//   - StageEvent: a stage finished and wrote its artifacts
//   - AppointmentEvent: an appointment was confirmed or removed
package events
