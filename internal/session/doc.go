// Package session coordinates every command against the single embedded
// engine handle: file ingest with progress reporting, windowed reads,
// sort/filter/group materialisation, column profiling and exports. One
// session exists per process, and its mutex serialises engine access.
package session
