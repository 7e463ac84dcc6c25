// Package infra contains technical adapters: the CSV project store,
// geocoding and routing clients, metrics sinks, the MQTT progress
// publisher, Sentry monitoring and rendered reports. These packages
// should depend only on the interfaces defined in the core packages.
package infra
