// Package opentelemetry holds span helpers shared by the session manager and
// the desk coordinator. The library never configures an exporter; spans go to
// whatever global TracerProvider the host application installed.
package opentelemetry
